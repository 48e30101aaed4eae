package adapter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	m "gooze.dev/pkg/unitmut/internal/model"
)

// ExecutionRequest is one invocation of an external test mechanism.
type ExecutionRequest struct {
	Config      m.RunnerConfig
	SourceFiles []m.Path
	TestFiles   []m.TestFile
}

// ExecutionOutcome is the raw outcome of an invocation.
type ExecutionOutcome struct {
	Failures int
	Total    int
	TimedOut bool
	Duration time.Duration
	Output   string
}

// TestExecutor runs tests in an external process. A returned error means the
// process could not be run at all; failing tests and deadlines are reported
// through the outcome.
type TestExecutor interface {
	Execute(ctx context.Context, req ExecutionRequest) (ExecutionOutcome, error)
}

// NewTestExecutor returns the executor for the configured framework.
func NewTestExecutor(framework m.Framework, fs SourceFSAdapter) (TestExecutor, error) {
	switch framework {
	case m.FrameworkGo:
		return NewGoTestExecutor(), nil
	case m.FrameworkJasmine:
		return NewCommandTestExecutor(fs), nil
	default:
		return nil, fmt.Errorf("%w: no test executor for framework %q", m.ErrInvalidArgument, framework)
	}
}

// processResult is what runProcess observed.
type processResult struct {
	output   string
	exitCode int
	timedOut bool
	duration time.Duration
}

// runProcess starts a command and waits for it. It only returns an error
// when the process could not be started or the caller cancelled ctx.
func runProcess(ctx context.Context, dir string, env []string, name string, args ...string) (processResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := processResult{
		output:   stdout.String() + stderr.String(),
		duration: time.Since(start),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			result.timedOut = true
			result.exitCode = -1

			slog.Debug("Test process timed out", "command", name, "dir", dir, "duration", result.duration)

			return result, nil
		}

		return result, ctxErr
	}

	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.exitCode = exitErr.ExitCode()
		return result, nil
	}

	slog.Error("Failed to start test process", "command", name, "dir", dir, "error", err)

	return result, fmt.Errorf("run %s: %w", name, err)
}

// GoTestExecutor runs `go test -json` in the package of each test file.
type GoTestExecutor struct {
	goBinary string
}

// NewGoTestExecutor constructs a GoTestExecutor using the go binary on PATH.
func NewGoTestExecutor() *GoTestExecutor {
	return &GoTestExecutor{goBinary: "go"}
}

// Execute implements TestExecutor.
func (e *GoTestExecutor) Execute(ctx context.Context, req ExecutionRequest) (ExecutionOutcome, error) {
	var outcome ExecutionOutcome

	for _, batch := range goBatches(req.TestFiles) {
		args := []string{"test", "-json", "-count=1"}
		if batch.pattern != "" {
			args = append(args, "-run", batch.pattern)
		}

		args = append(args, ".")

		result, err := runProcess(ctx, batch.dir, req.Config.Env, e.goBinary, args...)
		if err != nil {
			return outcome, err
		}

		passed, failed := countGoTestEvents(result.output)
		if failed == 0 && result.exitCode != 0 && !result.timedOut {
			// Build failures (e.g. a mutant that does not compile) emit no test events.
			failed = 1
		}

		outcome.Failures += failed
		outcome.Total += passed + failed
		outcome.Duration += result.duration
		outcome.Output += result.output
		outcome.TimedOut = outcome.TimedOut || result.timedOut

		if result.timedOut {
			break
		}
	}

	return outcome, nil
}

type goBatch struct {
	dir     string
	pattern string
}

// goBatches groups test files by package directory, combining selectors.
func goBatches(files []m.TestFile) []goBatch {
	selectors := map[string][]string{}
	whole := map[string]bool{}

	var dirs []string

	for _, file := range files {
		dir := filepath.Dir(string(file.Path))
		if _, ok := selectors[dir]; !ok && !whole[dir] {
			dirs = append(dirs, dir)
		}

		if file.Selector == "" {
			whole[dir] = true
			continue
		}

		selectors[dir] = append(selectors[dir], file.Selector)
	}

	batches := make([]goBatch, 0, len(dirs))
	for _, dir := range dirs {
		batch := goBatch{dir: dir}
		if !whole[dir] {
			batch.pattern = strings.Join(selectors[dir], "|")
		}

		batches = append(batches, batch)
	}

	return batches
}

type goTestEvent struct {
	Action string
	Test   string
}

// countGoTestEvents counts leaf tests by their final pass/fail action.
// Parent tests of subtests are not counted.
func countGoTestEvents(output string) (int, int) {
	final := map[string]string{}
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		var event goTestEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil || event.Test == "" {
			continue
		}

		if event.Action == "pass" || event.Action == "fail" {
			final[event.Test] = event.Action
		}
	}

	names := make([]string, 0, len(final))
	for name := range final {
		names = append(names, name)
	}

	sort.Strings(names)

	passed, failed := 0, 0

	for i, name := range names {
		if i+1 < len(names) && strings.HasPrefix(names[i+1], name+"/") {
			continue
		}

		if final[name] == "fail" {
			failed++
		} else {
			passed++
		}
	}

	return passed, failed
}

var (
	jasmineSummary = regexp.MustCompile(`(\d+) specs?, (\d+) failures?`)
	mochaPassing   = regexp.MustCompile(`(\d+) passing`)
	mochaFailing   = regexp.MustCompile(`(\d+) failing`)
)

// CommandTestExecutor runs a configured command (jasmine, mocha, ...) with
// the test artifacts as arguments, from the project root of the first test.
type CommandTestExecutor struct {
	fs SourceFSAdapter
}

// NewCommandTestExecutor constructs a CommandTestExecutor.
func NewCommandTestExecutor(fs SourceFSAdapter) *CommandTestExecutor {
	if fs == nil {
		fs = NewLocalSourceFSAdapter()
	}

	return &CommandTestExecutor{fs: fs}
}

// Execute implements TestExecutor.
func (e *CommandTestExecutor) Execute(ctx context.Context, req ExecutionRequest) (ExecutionOutcome, error) {
	command := req.Config.Command
	if len(command) == 0 {
		return ExecutionOutcome{}, fmt.Errorf("%w: no test command configured", m.ErrInvalidArgument)
	}

	if len(req.TestFiles) == 0 {
		return ExecutionOutcome{}, nil
	}

	dir, err := e.fs.FindProjectRoot(ctx, req.TestFiles[0].Path)
	if err != nil {
		dir = m.Path(filepath.Dir(string(req.TestFiles[0].Path)))
	}

	args := append([]string(nil), command[1:]...)
	for _, file := range req.TestFiles {
		args = append(args, string(file.Path))
	}

	if len(req.TestFiles) == 1 && req.TestFiles[0].Selector != "" {
		args = append(args, "--filter="+req.TestFiles[0].Selector)
	}

	result, err := runProcess(ctx, string(dir), req.Config.Env, command[0], args...)
	if err != nil {
		return ExecutionOutcome{}, err
	}

	total, failures, ok := parseSummary(result.output)
	if !ok && result.exitCode != 0 && !result.timedOut {
		failures = 1
		total = 1
	}

	return ExecutionOutcome{
		Failures: failures,
		Total:    total,
		TimedOut: result.timedOut,
		Duration: result.duration,
		Output:   result.output,
	}, nil
}

// parseSummary reads the last jasmine or mocha summary from the output.
func parseSummary(output string) (int, int, bool) {
	if matches := jasmineSummary.FindAllStringSubmatch(output, -1); len(matches) > 0 {
		last := matches[len(matches)-1]
		total, _ := strconv.Atoi(last[1])
		failures, _ := strconv.Atoi(last[2])

		return total, failures, true
	}

	passing := lastNumber(mochaPassing, output)
	failing := lastNumber(mochaFailing, output)

	if passing < 0 && failing < 0 {
		return 0, 0, false
	}

	return max(passing, 0) + max(failing, 0), max(failing, 0), true
}

func lastNumber(re *regexp.Regexp, output string) int {
	matches := re.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return -1
	}

	n, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil {
		return -1
	}

	return n
}
