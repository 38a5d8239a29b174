package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	bprogress "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/hoshipkg/hoshi/pkg/catalog"
	"github.com/hoshipkg/hoshi/pkg/merge"
	"github.com/hoshipkg/hoshi/pkg/progress"
)

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// newDisplay picks the bubbletea display on a terminal and log lines
// everywhere else.
func newDisplay(w *os.File, logger *log.Logger) merge.Display {
	if isTerminal(w) {
		return newTeaDisplay(w)
	}
	return newLogDisplay(logger)
}

// =============================================================================
// Terminal display
// =============================================================================

var (
	transferNameStyle = lipgloss.NewStyle().Foreground(colorWhite)
	transferDoneStyle = lipgloss.NewStyle().Foreground(colorGreen)
	transferStatStyle = lipgloss.NewStyle().Foreground(colorDim)
)

type snapshotMsg struct {
	index    int
	snap     progress.Snapshot
	finished bool
}

type transferRow struct {
	name     string
	snap     progress.Snapshot
	finished bool
}

// transferModel renders one progress bar per artifact.
type transferModel struct {
	rows    []transferRow
	bar     bprogress.Model
	nameLen int
}

func newTransferModel(artifacts []catalog.Artifact) transferModel {
	m := transferModel{
		rows: make([]transferRow, len(artifacts)),
		bar:  bprogress.New(bprogress.WithDefaultGradient(), bprogress.WithWidth(30), bprogress.WithoutPercentage()),
	}
	for i, a := range artifacts {
		m.rows[i] = transferRow{name: artifactLabel(a)}
		m.nameLen = max(m.nameLen, len(m.rows[i].name))
	}
	return m
}

func (m transferModel) Init() tea.Cmd {
	return nil
}

func (m transferModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		if msg.index >= 0 && msg.index < len(m.rows) {
			m.rows[msg.index].snap = msg.snap
			m.rows[msg.index].finished = msg.finished
		}
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-m.nameLen-40, 10), 40)
	}
	return m, nil
}

func (m transferModel) View() string {
	var b strings.Builder
	for _, r := range m.rows {
		name := transferNameStyle.Render(fmt.Sprintf("%-*s", m.nameLen, r.name))
		b.WriteString(name + "  ")
		b.WriteString(m.bar.ViewAs(rowFraction(r)))
		b.WriteString("  ")
		if r.finished {
			b.WriteString(transferDoneStyle.Render(iconSuccess + " " + formatBytes(r.snap.Current)))
		} else {
			b.WriteString(transferStatStyle.Render(formatTransfer(r.snap)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// artifactLabel names a row. Plain downloads have no version.
func artifactLabel(a catalog.Artifact) string {
	if a.Version == "" {
		return a.Name
	}
	return a.String()
}

func rowFraction(r transferRow) float64 {
	if r.finished {
		return 1
	}
	return r.snap.Fraction()
}

// formatTransfer renders "current / total  rate/s".
func formatTransfer(s progress.Snapshot) string {
	total := "?"
	if s.Total >= 0 {
		total = formatBytes(s.Total)
	}
	out := formatBytes(s.Current) + " / " + total
	if s.Throughput > 0 {
		out += "  " + formatBytes(int64(s.Throughput)) + "/s"
	}
	return out
}

// teaDisplay drives a bubbletea program from aggregator callbacks.
type teaDisplay struct {
	w     io.Writer
	mu    sync.Mutex
	index map[string]int
	prog  *tea.Program
	done  chan struct{}
}

func newTeaDisplay(w io.Writer) *teaDisplay {
	return &teaDisplay{w: w}
}

func (d *teaDisplay) Start(artifacts []catalog.Artifact) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.index = make(map[string]int, len(artifacts))
	for i, a := range artifacts {
		d.index[a.Name+"\x00"+a.Version] = i
	}
	d.prog = tea.NewProgram(newTransferModel(artifacts),
		tea.WithOutput(d.w),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	d.done = make(chan struct{})
	go func() {
		defer close(d.done)
		_, _ = d.prog.Run()
	}()
}

func (d *teaDisplay) Track(a catalog.Artifact) progress.Observer {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx, ok := d.index[a.Name+"\x00"+a.Version]
	if !ok {
		return progress.NopObserver{}
	}
	return teaObserver{prog: d.prog, index: idx}
}

func (d *teaDisplay) Stop() {
	d.mu.Lock()
	prog, done := d.prog, d.done
	d.mu.Unlock()
	if prog == nil {
		return
	}
	prog.Quit()
	<-done
}

type teaObserver struct {
	prog  *tea.Program
	index int
}

func (o teaObserver) Update(s progress.Snapshot) {
	o.prog.Send(snapshotMsg{index: o.index, snap: s})
}

func (o teaObserver) Finish(s progress.Snapshot) {
	o.prog.Send(snapshotMsg{index: o.index, snap: s, finished: true})
}

// =============================================================================
// Log display
// =============================================================================

// logDisplay reports progress as log lines, one per quarter of a known
// total and one on completion.
type logDisplay struct {
	logger *log.Logger
}

func newLogDisplay(logger *log.Logger) logDisplay {
	return logDisplay{logger: logger}
}

func (d logDisplay) Start(artifacts []catalog.Artifact) {
	d.logger.Info("downloading", "artifacts", len(artifacts))
}

func (d logDisplay) Track(a catalog.Artifact) progress.Observer {
	return &logObserver{logger: d.logger, name: artifactLabel(a)}
}

func (d logDisplay) Stop() {}

type logObserver struct {
	logger  *log.Logger
	name    string
	quarter int
}

func (o *logObserver) Update(s progress.Snapshot) {
	if s.Total <= 0 {
		return
	}
	if q := int(s.Fraction() * 4); q > o.quarter && q < 4 {
		o.quarter = q
		o.logger.Info("downloading", "artifact", o.name, "progress", fmt.Sprintf("%d%%", q*25), "transferred", formatTransfer(s))
	}
}

func (o *logObserver) Finish(s progress.Snapshot) {
	if !s.Done {
		o.logger.Warn("download ended early", "artifact", o.name, "transferred", formatBytes(s.Current))
		return
	}
	o.logger.Info("downloaded", "artifact", o.name, "size", formatBytes(s.Current))
}

// =============================================================================
// Confirmation
// =============================================================================

// promptConfirmer asks on the terminal before a merge starts. When stdin is
// not a terminal it falls back to huh's accessible line prompt, so an answer
// can be piped in.
type promptConfirmer struct{}

func (promptConfirmer) Confirm(ctx context.Context, plan *merge.Plan) (bool, error) {
	printPlan(plan)

	accessible := !isTerminal(os.Stdin)
	var ok bool
	confirm := huh.NewConfirm().
		Title(fmt.Sprintf("Merge %d package(s)?", len(plan.Artifacts))).
		Affirmative("Yes").
		Negative("No").
		Value(&ok)
	form := huh.NewForm(huh.NewGroup(confirm)).
		WithAccessible(accessible).
		WithOutput(os.Stderr)

	if err := form.RunWithContext(ctx); err != nil {
		if stderrors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// printPlan shows what a merge is about to fetch.
func printPlan(plan *merge.Plan) {
	rows := make([][]string, len(plan.Artifacts))
	for i, a := range plan.Artifacts {
		role := "dependency"
		if i == 0 {
			role = "target"
		}
		rows[i] = []string{a.Name, a.Version, formatSize(a.SizeMB), role}
	}
	fmt.Println(StyleTitle.Render("Merge plan"))
	fmt.Println(renderTable([]string{"Package", "Version", "Size", ""}, rows))
	for _, m := range plan.Missing {
		printWarning("%s", m.String())
	}
	if total := plan.TotalSizeMB(); total > 0 {
		printDetail("Total download: %s", formatSize(total))
	}
}
