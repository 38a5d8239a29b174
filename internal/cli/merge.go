package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hoshipkg/hoshi/pkg/errors"
	"github.com/hoshipkg/hoshi/pkg/merge"
	"github.com/hoshipkg/hoshi/pkg/transfer"
)

type mergeOptions struct {
	yes        bool
	partial    bool
	keep       bool
	noCache    bool
	jobs       int
	installDir string
}

// mergeCommand creates the merge command.
func (c *CLI) mergeCommand() *cobra.Command {
	var opts mergeOptions

	cmd := &cobra.Command{
		Use:   "merge <package>",
		Short: "Download, extract and register a package and its direct dependencies",
		Long: `Merge resolves a package across all configured constellations, asks for
confirmation, downloads the package and its direct dependencies in parallel,
extracts each into <install_dir>/<name>/<version> and records them in the
registry.

By default a single failed download or extraction aborts the merge and leaves
the registry untouched. With --partial every package that succeeded is
registered and the failures are reported.`,
		Example: `  hoshi merge cometlib
  hoshi merge cometlib --yes --jobs 4
  hoshi merge cometlib --partial --install-dir /opt/hoshi`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("jobs") {
				opts.jobs = -1
			}
			return c.runMerge(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "merge without asking for confirmation")
	cmd.Flags().BoolVar(&opts.partial, "partial", false, "register packages that succeeded even if others failed")
	cmd.Flags().BoolVar(&opts.keep, "keep-downloads", false, "keep downloaded archives after extraction")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "fetch constellations without using the cache")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "maximum concurrent downloads (0 = unlimited)")
	cmd.Flags().StringVar(&opts.installDir, "install-dir", "", "install base directory (overrides config)")

	return cmd
}

func (c *CLI) runMerge(ctx context.Context, name string, opts mergeOptions) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.installDir != "" {
		cfg.InstallDir = opts.installDir
	}
	if opts.jobs >= 0 {
		cfg.Jobs = opts.jobs
	}
	policy := cfg.MergePolicy()
	if opts.partial {
		policy = merge.PerArtifact
	}

	artifacts, err := c.fetchArtifacts(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}

	downloader := transfer.NewDownloader(transfer.WithLogger(c.Logger))
	runner := merge.NewRunner(newStore(cfg), downloader, c.Logger)
	runner.InstallDir = cfg.InstallDir
	runner.DownloadDir = cfg.DownloadDir
	runner.Jobs = cfg.Jobs
	runner.Policy = policy
	runner.KeepDownloads = opts.keep
	runner.Display = newDisplay(os.Stderr, c.Logger)
	if opts.yes {
		runner.Confirmer = merge.ConfirmFunc(func(_ context.Context, p *merge.Plan) (bool, error) {
			printPlan(p)
			return true, nil
		})
	} else {
		runner.Confirmer = promptConfirmer{}
	}

	t := newTimer(c.Logger)
	res, err := runner.Run(ctx, artifacts, name)
	if errors.Is(err, errors.ErrCodeUserAborted) {
		printInfo("Merge cancelled, nothing was changed")
		return err
	}
	printMergeResult(res)
	if err != nil {
		return err
	}
	t.done(fmt.Sprintf("Merged %d package(s)", len(res.Installed)))

	if n := len(res.Failures); n > 0 {
		first := res.Failures[0].Err
		return errors.Wrap(errors.GetCode(first), first, "%d of %d package(s) failed", n, len(res.Plan.Artifacts))
	}
	printNextStep("List installed packages", appName+" list")
	return nil
}

func printMergeResult(res *merge.Result) {
	for _, p := range res.Installed {
		printSuccess("Installed %s %s", p.Name, p.Version)
		printFile(p.InstallPath)
	}
	for _, f := range res.Failures {
		printError("%s failed while %s: %s", f.Artifact, f.Stage, errors.UserMessage(f.Err))
	}
	if res.State == merge.StateAborted && len(res.Failures) > 0 {
		printDetail("The registry was not modified")
	}
}
