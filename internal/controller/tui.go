package controller

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	m "gooze.dev/pkg/unitmut/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Padding(1, 0, 0, 2)
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 0, 1, 2)
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Padding(0, 1).
			Margin(1, 1, 1, 0)

	statusColors = map[m.TestStatus]lipgloss.Color{
		m.Killed:   lipgloss.Color("2"),
		m.Survived: lipgloss.Color("1"),
		m.Timeout:  lipgloss.Color("3"),
		m.Error:    lipgloss.Color("1"),
		m.Skipped:  lipgloss.Color("8"),
	}
)

func statusStyle(status m.TestStatus) lipgloss.Style {
	color, ok := statusColors[status]
	if !ok {
		color = lipgloss.Color("8")
	}

	return lipgloss.NewStyle().Foreground(color).Bold(true)
}

// TUI implements UI with Bubble Tea. Runs are shown as a live progress view;
// listings are rendered once as styled tables.
type TUI struct {
	output  io.Writer
	program *tea.Program
	done    chan struct{}
	mu      sync.Mutex
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the progress view in test mode. Other modes render
// statically and need no program.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if startConfig(options).mode != ModeTest {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program != nil {
		return nil
	}

	t.program = tea.NewProgram(newRunModel(), tea.WithOutput(t.output), tea.WithContext(ctx))
	t.done = make(chan struct{})

	go func(program *tea.Program, done chan struct{}) {
		defer close(done)

		if _, err := program.Run(); err != nil && ctx.Err() == nil {
			_, _ = fmt.Fprintf(t.output, "ui error: %v\n", err)
		}
	}(t.program, t.done)

	return nil
}

// Close ends the progress view after rendering the final state.
func (t *TUI) Close(context.Context) {
	t.send(finishedMsg{})
}

// Wait blocks until the progress view has exited.
func (t *TUI) Wait(ctx context.Context) {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	if done == nil {
		return
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (t *TUI) send(msg tea.Msg) {
	t.mu.Lock()
	program := t.program
	t.mu.Unlock()

	if program != nil {
		program.Send(msg)
	}
}

// DisplayMutants renders the mutants per source file.
func (t *TUI) DisplayMutants(ctx context.Context, mutants []m.Mutant, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err != nil {
		t.render("Mutant generation failed", statusStyle(m.Error).Render(err.Error()), "")
		return err
	}

	t.render("unitmut mutants",
		fmt.Sprintf("Files: %s  •  Mutants: %s",
			accentStyle.Render(fmt.Sprintf("%d", len(buildFileStats(mutants)))),
			accentStyle.Render(fmt.Sprintf("%d", len(mutants)))),
		renderMutantTable(mutants))

	return nil
}

// DisplayUnits renders the test units in execution order.
func (t *TUI) DisplayUnits(ctx context.Context, units []m.TestUnit, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err != nil {
		t.render("Decomposition failed", statusStyle(m.Error).Render(err.Error()), "")
		return err
	}

	t.render("unitmut test units",
		fmt.Sprintf("Units: %s", accentStyle.Render(fmt.Sprintf("%d", len(units)))),
		renderUnitTable(units))

	return nil
}

// DisplayReport renders a saved report.
func (t *TUI) DisplayReport(ctx context.Context, report m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.render("unitmut report "+shortID(report.RunID),
		fmt.Sprintf("Created: %s  •  Score: %s",
			accentStyle.Render(report.CreatedAt.Format("2006-01-02 15:04:05")),
			accentStyle.Render(fmt.Sprintf("%.2f%%", report.Score*100))),
		renderVerdictTable(report.Verdicts))

	return nil
}

func (t *TUI) render(title, summary, body string) {
	view := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		summaryStyle.Render(summary),
		body,
	)

	_, _ = fmt.Fprintln(t.output, view)
}

// DisplayBaseline forwards the baseline outcome to the progress view.
func (t *TUI) DisplayBaseline(_ context.Context, result m.TestResult) {
	t.send(baselineMsg{passed: result.Successes, failed: result.Failures})
}

// DisplayConcurrencyInfo forwards the worker settings to the progress view.
func (t *TUI) DisplayConcurrencyInfo(_ context.Context, threads int, shardIndex int, shardCount int) {
	t.send(concurrencyMsg{threads: threads, shardIndex: shardIndex, shards: shardCount})
}

// DisplayUpcomingTestsInfo forwards the number of mutants to test.
func (t *TUI) DisplayUpcomingTestsInfo(_ context.Context, count int) {
	t.send(upcomingMsg{count: count})
}

// DisplayStartingTestInfo marks a worker busy with mutant.
func (t *TUI) DisplayStartingTestInfo(_ context.Context, mutant m.Mutant, threadID int) {
	t.send(startMutantMsg{
		thread:   threadID,
		id:       mutant.ID,
		operator: mutant.Operator,
		location: fmt.Sprintf("%s:%d", mutant.Source, mutant.Span.Line),
	})
}

// DisplayCompletedTestInfo records the verdict of mutant.
func (t *TUI) DisplayCompletedTestInfo(_ context.Context, mutant m.Mutant, verdict m.Verdict) {
	t.send(completedMutantMsg{id: mutant.ID, verdict: verdict})
}

// DisplayMutationScore forwards the final score.
func (t *TUI) DisplayMutationScore(_ context.Context, score float64) {
	t.send(scoreMsg{score: score})
}

type baselineMsg struct {
	passed int
	failed int
}

type concurrencyMsg struct {
	threads    int
	shardIndex int
	shards     int
}

type upcomingMsg struct {
	count int
}

type startMutantMsg struct {
	thread   int
	id       string
	operator string
	location string
}

type completedMutantMsg struct {
	id      string
	verdict m.Verdict
}

type scoreMsg struct {
	score float64
}

type finishedMsg struct{}

type workerState struct {
	id       string
	operator string
	location string
}

// runModel is the Bubble Tea model of a mutation run.
type runModel struct {
	width      int
	progress   progress.Model
	spinner    spinner.Model
	threads    int
	shardIndex int
	shards     int
	baseline   string
	total      int
	completed  int
	counts     map[m.TestStatus]int
	workers    map[int]workerState
	survivors  []m.Verdict
	score      float64
	hasScore   bool
	finished   bool
}

func newRunModel() runModel {
	return runModel{
		width: 80,
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle)),
		counts:  map[m.TestStatus]int{},
		workers: map[int]workerState{},
	}
}

func (rm runModel) Init() tea.Cmd {
	return rm.spinner.Tick
}

func (rm runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		rm.width = msg.Width
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return rm, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		rm.spinner, cmd = rm.spinner.Update(msg)

		return rm, cmd
	case baselineMsg:
		rm.baseline = fmt.Sprintf("%d passed, %d failed", msg.passed, msg.failed)
	case concurrencyMsg:
		rm.threads = msg.threads
		rm.shardIndex = msg.shardIndex
		rm.shards = msg.shards
	case upcomingMsg:
		rm.total = msg.count
		rm.completed = 0
	case startMutantMsg:
		rm.workers[msg.thread] = workerState{id: msg.id, operator: msg.operator, location: msg.location}
	case completedMutantMsg:
		rm = rm.complete(msg)
	case scoreMsg:
		rm.score = msg.score
		rm.hasScore = true
	case finishedMsg:
		rm.finished = true
		return rm, tea.Quit
	}

	return rm, nil
}

func (rm runModel) complete(msg completedMutantMsg) runModel {
	rm.completed++
	rm.counts[msg.verdict.Status]++

	for thread, state := range rm.workers {
		if state.id == msg.id {
			delete(rm.workers, thread)
		}
	}

	if msg.verdict.Status == m.Survived {
		rm.survivors = append(rm.survivors, msg.verdict)
	}

	return rm
}

func (rm runModel) percent() float64 {
	if rm.total == 0 {
		return 0
	}

	return float64(rm.completed) / float64(rm.total)
}

func (rm runModel) View() string {
	title := titleStyle.Render("unitmut mutation testing")

	summary := summaryStyle.Render(fmt.Sprintf(
		"Progress: %s / %s  •  Threads: %s  •  Shard: %s / %s",
		accentStyle.Render(fmt.Sprintf("%d", rm.completed)),
		accentStyle.Render(fmt.Sprintf("%d", rm.total)),
		accentStyle.Render(fmt.Sprintf("%d", rm.threads)),
		accentStyle.Render(fmt.Sprintf("%d", rm.shardIndex)),
		accentStyle.Render(fmt.Sprintf("%d", rm.shards)),
	))

	sections := []string{title, summary}

	if rm.baseline != "" {
		sections = append(sections, summaryStyle.Render("Baseline: "+rm.baseline))
	}

	sections = append(sections,
		lipgloss.NewStyle().Padding(0, 2).Render(rm.progress.ViewAs(rm.percent())),
		rm.countsLine(),
	)

	if rm.finished {
		sections = append(sections, rm.survivorBox())
	} else {
		sections = append(sections, rm.workerBox())
	}

	if rm.hasScore {
		sections = append(sections, summaryStyle.Render(fmt.Sprintf("Mutation score: %s", accentStyle.Render(fmt.Sprintf("%.2f%%", rm.score*100)))))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (rm runModel) countsLine() string {
	statuses := []m.TestStatus{m.Killed, m.Survived, m.Timeout, m.Error, m.Skipped}
	parts := make([]string, 0, len(statuses))

	for _, status := range statuses {
		parts = append(parts, fmt.Sprintf("%s %d", statusStyle(status).Render(status.String()), rm.counts[status]))
	}

	return lipgloss.NewStyle().Padding(1, 2, 0, 2).Render(strings.Join(parts, "  •  "))
}

func (rm runModel) workerBox() string {
	threads := max(rm.threads, 1)
	lines := make([]string, 0, threads)

	for i := range threads {
		line := mutedStyle.Render("idle")
		if state, ok := rm.workers[i]; ok {
			line = fmt.Sprintf("%s %s %s %s", rm.spinner.View(), mutedStyle.Render(shortID(state.id)), state.operator, state.location)
		}

		if threads > 1 {
			line = fmt.Sprintf("Thread %d: %s", i, line)
		}

		lines = append(lines, line)
	}

	return boxStyle.Width(max(rm.width-4, 20)).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (rm runModel) survivorBox() string {
	if len(rm.survivors) == 0 {
		return boxStyle.Render(statusStyle(m.Killed).Render("no surviving mutants"))
	}

	survivors := append([]m.Verdict(nil), rm.survivors...)
	sort.Slice(survivors, func(i, j int) bool {
		if survivors[i].Source != survivors[j].Source {
			return survivors[i].Source < survivors[j].Source
		}

		return survivors[i].Line < survivors[j].Line
	})

	lines := make([]string, 0, len(survivors))
	for _, verdict := range survivors {
		lines = append(lines, fmt.Sprintf("%s %s:%d:%d %s",
			statusStyle(m.Survived).Render(shortID(verdict.MutantID)),
			verdict.Source, verdict.Line, verdict.Column, verdict.Operator))
	}

	return boxStyle.Width(max(rm.width-4, 20)).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
