package merge

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hoshipkg/hoshi/pkg/archive"
	"github.com/hoshipkg/hoshi/pkg/catalog"
	"github.com/hoshipkg/hoshi/pkg/errors"
	"github.com/hoshipkg/hoshi/pkg/observability"
	"github.com/hoshipkg/hoshi/pkg/progress"
	"github.com/hoshipkg/hoshi/pkg/registry"
	"github.com/hoshipkg/hoshi/pkg/transfer"
)

const (
	// DefaultInstallDir is the install base, relative to the working directory.
	DefaultInstallDir = "hoshi_packages"

	downloadDirName = "hoshi_downloads_temp"
)

// DefaultDownloadDir is where per-run download directories are created.
func DefaultDownloadDir() string {
	return filepath.Join(os.TempDir(), downloadDirName)
}

// Runner executes merge runs. The exported fields may be set after
// NewRunner and before the first Run.
type Runner struct {
	store      *registry.Store
	downloader *transfer.Downloader
	logger     *log.Logger

	Confirmer Confirmer
	Display   Display

	// InstallDir is the base for <name>/<version> install directories.
	InstallDir string
	// DownloadDir holds one subdirectory per run.
	DownloadDir string
	// KeepDownloads leaves the run's downloaded archives in place.
	KeepDownloads bool

	Policy Policy
	// Jobs bounds concurrent downloads. Zero or less means unbounded.
	Jobs int

	// OnState, when set, is called on every state transition.
	OnState func(State)
}

// NewRunner creates a Runner that records installs in store and fetches
// archives with downloader. Nil arguments fall back to defaults.
func NewRunner(store *registry.Store, downloader *transfer.Downloader, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if downloader == nil {
		downloader = transfer.NewDownloader(transfer.WithLogger(logger))
	}
	return &Runner{
		store:       store,
		downloader:  downloader,
		logger:      logger,
		Confirmer:   AutoConfirm{},
		Display:     NopDisplay{},
		InstallDir:  DefaultInstallDir,
		DownloadDir: DefaultDownloadDir(),
		Policy:      AllOrNothing,
	}
}

// Failure is one artifact that did not make it into the registry.
type Failure struct {
	Artifact catalog.Artifact
	Stage    State
	Err      error
}

// Result summarizes a run.
type Result struct {
	RunID     string
	State     State
	Plan      *Plan
	Installed []registry.Package
	Failures  []Failure
}

// item carries one planned artifact through the run.
type item struct {
	artifact catalog.Artifact
	kind     archive.Kind
	fileName string
	path     string
	dest     string
	err      error
	stage    State
	reported bool
}

func (it *item) fail(stage State, err error) {
	it.stage, it.err = stage, err
}

// Run merges name and its direct dependencies from available.
//
// The returned Result is never nil. The error is non-nil when the run was
// aborted; under PerArtifact, individual failures are reported in
// Result.Failures and the run still ends in StateDone.
func (r *Runner) Run(ctx context.Context, available []catalog.Artifact, name string) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	logger := r.logger.With("run", res.RunID[:8])

	r.transition(res, StateResolving)
	plan, err := Resolve(available, name)
	if err != nil {
		return r.abort(res, err)
	}
	res.Plan = plan
	for _, m := range plan.Missing {
		logger.Warn("dependency not found", "artifact", m.Artifact, "dependency", m.Dependency)
	}

	ok, err := r.Confirmer.Confirm(ctx, plan)
	if err != nil {
		return r.abort(res, err)
	}
	if !ok {
		return r.abort(res, errors.New(errors.ErrCodeUserAborted, "merge of %s declined", plan.Target))
	}
	r.transition(res, StateConfirmed)

	if r.store == nil {
		return r.abort(res, errors.New(errors.ErrCodeInvalidConfig, "no registry store configured"))
	}
	unlock, err := r.store.Lock(ctx)
	if err != nil {
		return r.abort(res, err)
	}
	defer func() {
		if err := unlock(); err != nil {
			logger.Warn("failed to release registry lock", "error", err)
		}
	}()

	reg, err := r.store.Load()
	if err != nil {
		return r.abort(res, err)
	}

	installBase, err := filepath.Abs(r.InstallDir)
	if err != nil {
		return r.abort(res, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve install directory %s", r.InstallDir))
	}

	items := r.prepare(plan.Artifacts, installBase)
	if err := r.check(res, items); err != nil {
		return r.abort(res, err)
	}

	runDir := filepath.Join(r.DownloadDir, res.RunID)
	if !r.KeepDownloads {
		defer func() {
			if err := os.RemoveAll(runDir); err != nil {
				logger.Warn("failed to remove download directory", "path", runDir, "error", err)
			}
		}()
	}

	r.transition(res, StateDownloading)
	r.download(ctx, items, runDir)
	if err := r.check(res, items); err != nil {
		return r.abort(res, err)
	}

	r.transition(res, StateExtracting)
	for _, it := range items {
		if it.err != nil {
			continue
		}
		r.extract(ctx, it, logger)
		if it.err != nil && r.Policy == AllOrNothing {
			break
		}
	}
	if err := r.check(res, items); err != nil {
		return r.abort(res, err)
	}

	r.transition(res, StateRegistering)
	for _, it := range items {
		if it.err != nil {
			continue
		}
		pkg := registry.Package{Name: it.artifact.Name, Version: it.artifact.Version, InstallPath: it.dest}
		reg.Add(pkg)
		res.Installed = append(res.Installed, pkg)
	}
	if len(res.Installed) > 0 {
		err := r.store.Save(reg)
		observability.Acquisition().OnRegistrySave(ctx, len(res.Installed), err)
		if err != nil {
			return r.abort(res, err)
		}
	}

	r.transition(res, StateDone)
	logger.Info("merge complete", "installed", len(res.Installed), "failed", len(res.Failures))
	return res, nil
}

// prepare assigns each artifact its kind, download file name, and install
// directory. Artifacts that cannot be installed are marked failed here,
// before anything is downloaded.
func (r *Runner) prepare(artifacts []catalog.Artifact, installBase string) []*item {
	names := downloadNames(artifacts)
	items := make([]*item, len(artifacts))
	for i, a := range artifacts {
		it := &item{artifact: a, fileName: names[i]}
		items[i] = it

		if err := errors.ValidatePackageName(a.Name); err != nil {
			it.fail(StateResolving, err)
			continue
		}
		if err := errors.ValidateVersion(a.Version); err != nil {
			it.fail(StateResolving, err)
			continue
		}
		if err := errors.ValidateURL(a.DownloadURL); err != nil {
			it.fail(StateResolving, err)
			continue
		}
		kind, err := a.Kind()
		if err != nil {
			it.fail(StateResolving, err)
			continue
		}
		it.kind = kind
		it.dest = filepath.Join(installBase, a.Name, a.Version)
	}
	return items
}

// download fetches every pending item concurrently and returns once all of
// them have finished. A failed transfer never cancels its siblings.
func (r *Runner) download(ctx context.Context, items []*item, runDir string) {
	pending := make([]catalog.Artifact, 0, len(items))
	for _, it := range items {
		if it.err == nil {
			pending = append(pending, it.artifact)
		}
	}
	r.Display.Start(pending)
	defer r.Display.Stop()

	var g errgroup.Group
	if r.Jobs > 0 {
		g.SetLimit(r.Jobs)
	}
	for _, it := range items {
		if it.err != nil {
			continue
		}
		obs := r.Display.Track(it.artifact)
		g.Go(func() error {
			ch := progress.NewChannel(progress.DefaultBuffer)
			done := make(chan struct{})
			go func() {
				defer close(done)
				progress.NewAggregator().Run(ch, obs)
			}()

			path, err := r.downloader.Download(ctx, it.artifact.DownloadURL, runDir, it.fileName, ch)
			<-done
			if err != nil {
				it.fail(StateDownloading, errors.Wrap(codeOf(err), err, "download %s", it.artifact))
				return nil
			}
			it.path = path
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Runner) extract(ctx context.Context, it *item, logger *log.Logger) {
	hooks := observability.Acquisition()
	name := it.artifact.String()
	hooks.OnExtractStart(ctx, name, it.kind.String())
	start := time.Now()

	err := ctx.Err()
	if err == nil {
		var codec archive.Codec
		codec, err = archive.For(it.kind)
		if err == nil {
			logger.Debug("extracting", "artifact", name, "kind", it.kind, "dest", it.dest)
			err = codec.Extract(it.path, it.dest)
		}
	}
	hooks.OnExtractComplete(ctx, name, it.kind.String(), time.Since(start), err)
	if err != nil {
		it.fail(StateExtracting, errors.Wrap(codeOf(err), err, "extract %s", it.artifact))
	}
}

// check collects item failures into res. Under AllOrNothing any failure
// becomes the run's error: the first one in plan order.
func (r *Runner) check(res *Result, items []*item) error {
	res.Failures = res.Failures[:0]
	var first error
	for _, it := range items {
		if it.err == nil {
			continue
		}
		res.Failures = append(res.Failures, Failure{Artifact: it.artifact, Stage: it.stage, Err: it.err})
		if !it.reported {
			it.reported = true
			r.logger.Error("artifact failed", "artifact", it.artifact.String(), "stage", it.stage, "error", errors.UserMessage(it.err))
		}
		if first == nil {
			first = it.err
		}
	}
	if first != nil && r.Policy == AllOrNothing {
		return first
	}
	return nil
}

func (r *Runner) abort(res *Result, err error) (*Result, error) {
	r.transition(res, StateAborted)
	return res, err
}

func (r *Runner) transition(res *Result, s State) {
	res.State = s
	r.logger.Debug("merge state", "state", s)
	if r.OnState != nil {
		r.OnState(s)
	}
}

// downloadNames gives each artifact its download file name. Names shared
// by more than one artifact get a "name-version-" prefix.
func downloadNames(artifacts []catalog.Artifact) []string {
	counts := make(map[string]int, len(artifacts))
	for _, a := range artifacts {
		counts[a.FileName()]++
	}
	names := make([]string, len(artifacts))
	for i, a := range artifacts {
		name := a.FileName()
		if counts[name] > 1 {
			name = a.Name + "-" + a.Version + "-" + name
		}
		names[i] = name
	}
	return names
}

func codeOf(err error) errors.Code {
	if code := errors.GetCode(err); code != "" {
		return code
	}
	return errors.ErrCodeInternal
}
