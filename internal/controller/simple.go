package controller

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	m "gooze.dev/pkg/unitmut/internal/model"
)

// SimpleUI implements UI with plain text on the cobra command output.
type SimpleUI struct {
	cmd *cobra.Command
	mu  sync.Mutex
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	return ctx.Err()
}

// Close finalizes the UI.
func (s *SimpleUI) Close(context.Context) {}

// Wait returns immediately; SimpleUI never blocks.
func (s *SimpleUI) Wait(context.Context) {}

// DisplayMutants prints the mutants per source file.
func (s *SimpleUI) DisplayMutants(ctx context.Context, mutants []m.Mutant, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err != nil {
		s.printf("mutant generation error: %v\n", err)
		return err
	}

	s.printf("\n%s", renderMutantTable(mutants))

	return nil
}

// DisplayUnits prints the test units in execution order.
func (s *SimpleUI) DisplayUnits(ctx context.Context, units []m.TestUnit, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err != nil {
		s.printf("decomposition error: %v\n", err)
		return err
	}

	s.printf("\n%s", renderUnitTable(units))

	return nil
}

// DisplayBaseline prints the outcome of the unmutated suite.
func (s *SimpleUI) DisplayBaseline(ctx context.Context, result m.TestResult) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Baseline: %d passed, %d failed in %s\n", result.Successes, result.Failures, result.Duration.Round(time.Millisecond))
}

// DisplayConcurrencyInfo shows concurrency settings.
func (s *SimpleUI) DisplayConcurrencyInfo(ctx context.Context, threads int, shardIndex int, shardCount int) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Running with %d worker(s) (shard %d/%d)\n", threads, shardIndex, shardCount)
}

// DisplayUpcomingTestsInfo shows the number of mutants about to be tested.
func (s *SimpleUI) DisplayUpcomingTestsInfo(ctx context.Context, count int) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Upcoming mutants: %d\n", count)
}

// DisplayStartingTestInfo shows info about the mutant test starting.
func (s *SimpleUI) DisplayStartingTestInfo(ctx context.Context, mutant m.Mutant, _ int) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Starting mutant %s (%s) %s:%d\n", shortID(mutant.ID), mutant.Operator, mutant.Source, mutant.Span.Line)
}

// DisplayCompletedTestInfo shows the verdict of a mutant and, unless it was
// killed, its diff.
func (s *SimpleUI) DisplayCompletedTestInfo(ctx context.Context, mutant m.Mutant, verdict m.Verdict) {
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Completed mutant %s (%s) -> %s\n", shortID(mutant.ID), mutant.Operator, verdict.Status)

	for _, unit := range verdict.KillingUnits {
		_, _ = fmt.Fprintf(out, "  killed by #%d %s\n", unit.Index, unit.Name)
	}

	if verdict.Err != "" {
		_, _ = fmt.Fprintf(out, "  error: %s\n", verdict.Err)
	}

	if verdict.Status != m.Killed && mutant.Diff != "" {
		_, _ = fmt.Fprintf(out, "File: %s\n%s\n", mutant.Source, mutant.Diff)
	}
}

// DisplayReport prints a saved report.
func (s *SimpleUI) DisplayReport(ctx context.Context, report m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("Run %s (%s)\n\n%s", report.RunID, report.CreatedAt.Format("2006-01-02 15:04:05"), renderVerdictTable(report.Verdicts))
	s.printf("Mutation score: %.2f%%\n", report.Score*100)

	return nil
}

// DisplayMutationScore prints the final mutation score.
func (s *SimpleUI) DisplayMutationScore(ctx context.Context, score float64) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Mutation score: %.2f%%\n", score*100)
}

func (s *SimpleUI) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

type fileStat struct {
	path      string
	operators map[string]int
	count     int
}

func buildFileStats(mutants []m.Mutant) []fileStat {
	info := make(map[m.Path]*fileStat)

	for _, mutant := range mutants {
		stat, ok := info[mutant.Source]
		if !ok {
			stat = &fileStat{path: string(mutant.Source), operators: map[string]int{}}
			info[mutant.Source] = stat
		}

		stat.operators[mutant.Operator]++
		stat.count++
	}

	stats := make([]fileStat, 0, len(info))
	for _, stat := range info {
		stats = append(stats, *stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].path < stats[j].path
	})

	return stats
}

func (f fileStat) operatorSummary() string {
	names := make([]string, 0, len(f.operators))
	for name := range f.operators {
		names = append(names, name)
	}

	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s:%d", name, f.operators[name]))
	}

	return strings.Join(parts, " ")
}

func newTable(buf *bytes.Buffer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(buf)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	return table
}

func renderMutantTable(mutants []m.Mutant) string {
	var buf bytes.Buffer

	stats := buildFileStats(mutants)

	table := newTable(&buf, []string{"Path", "Operators", "Mutants"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})

	for _, stat := range stats {
		table.Append([]string{stat.path, stat.operatorSummary(), fmt.Sprintf("%d", stat.count)})
	}

	table.SetFooter([]string{fmt.Sprintf("Total Files %d", len(stats)), "", fmt.Sprintf("%d", len(mutants))})
	table.Render()

	return buf.String()
}

func renderUnitTable(units []m.TestUnit) string {
	var buf bytes.Buffer

	table := newTable(&buf, []string{"#", "File", "Unit", "Selector"})

	for _, unit := range units {
		table.Append([]string{fmt.Sprintf("%d", unit.Index), string(unit.File), unit.Name, unit.Selector})
	}

	table.SetFooter([]string{"", "", fmt.Sprintf("Total Units %d", len(units)), ""})
	table.Render()

	return buf.String()
}

func renderVerdictTable(verdicts []m.Verdict) string {
	var buf bytes.Buffer

	table := newTable(&buf, []string{"Mutant", "Location", "Operator", "Status", "Killed By"})

	counts := map[m.TestStatus]int{}

	for _, verdict := range verdicts {
		counts[verdict.Status]++

		killers := make([]string, 0, len(verdict.KillingUnits))
		for _, unit := range verdict.KillingUnits {
			killers = append(killers, unit.Name)
		}

		table.Append([]string{
			shortID(verdict.MutantID),
			fmt.Sprintf("%s:%d:%d", verdict.Source, verdict.Line, verdict.Column),
			verdict.Operator,
			verdict.Status.String(),
			strings.Join(killers, ", "),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total %d", len(verdicts)),
		"",
		"",
		fmt.Sprintf("killed %d survived %d", counts[m.Killed], counts[m.Survived]),
		fmt.Sprintf("timeout %d error %d", counts[m.Timeout], counts[m.Error]),
	})
	table.Render()

	return buf.String()
}
