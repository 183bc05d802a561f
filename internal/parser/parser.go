package parser

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/srcforge/pkgparse/internal/models"
	"github.com/srcforge/pkgparse/internal/script"
)

// DefaultInterpreter runs the evaluation script when Options leaves the
// interpreter unset
const DefaultInterpreter = "/bin/bash"

// Options controls how evaluator processes are launched
type Options struct {
	// Interpreter binary, DefaultInterpreter when empty
	Interpreter string
	// Working directory of the evaluator; empty inherits the caller's
	WorkDir string
	// SingleTask drives all three pipes from the calling goroutine with
	// deadline rotation instead of one goroutine per pipe
	SingleTask bool
	// Timeout bounds one batch end to end; zero means no limit
	Timeout time.Duration
}

// Parser evaluates recipe files through an external evaluator process,
// one process per batch
type Parser struct {
	Script  *script.Script
	Options Options
}

// New builds a parser around an ephemeral default-config script. Close
// releases the script file.
func New() (*Parser, error) {
	s, err := script.BuildTemp(script.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return &Parser{Script: s}, nil
}

// Close removes the parser's script if it is ephemeral
func (p *Parser) Close() error {
	return p.Script.Remove()
}

// ParseOne evaluates a single recipe file
func (p *Parser) ParseOne(ctx context.Context, path string) (*models.Recipe, error) {
	results, err := p.ParseBatch(ctx, []string{path})
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, &models.ProtocolError{Reason: "evaluator produced no record"}
	}
	if results[0].Err != nil {
		return nil, results[0].Err
	}
	return results[0].Recipe, nil
}

// ParseBatch evaluates every path through one evaluator process and
// returns one result per path, in input order. Per-recipe evaluation
// failures land in the result slots; a batch-level failure (launch,
// protocol desync, abort, timeout) is returned as the error instead.
// On timeout the records decoded before the deadline are returned
// alongside the TimeoutError.
func (p *Parser) ParseBatch(ctx context.Context, paths []string) ([]Result, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	for _, path := range paths {
		if strings.ContainsRune(path, '\n') {
			return nil, &models.ConfigError{Reason: "recipe path contains a newline"}
		}
	}

	timedOut := false
	if p.Options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Options.Timeout)
		defer cancel()
	}

	interpreter := p.Options.Interpreter
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}
	cmd := exec.CommandContext(ctx, interpreter, p.Script.Path())
	cmd.Dir = p.Options.WorkDir
	// Evaluated recipes may spawn grandchildren that inherit the pipes;
	// killing the whole group is the only way the drains always reach EOF
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		killEvaluator(cmd)
		return nil
	}

	s := &session{
		dec:   NewDecoder(),
		input: []byte(strings.Join(paths, "\n") + "\n"),
	}
	run := s.runTasks
	if p.Options.SingleTask {
		run = s.runSingleTask
	}
	if err := run(cmd); err != nil {
		return nil, err
	}

	waitErr := cmd.Wait()
	if diag := strings.TrimSpace(s.diag.String()); diag != "" {
		logrus.Debugf("Evaluator stderr: %s", diag)
	}
	if ctx.Err() != nil {
		if p.Options.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			timedOut = true
		}
		partial := s.dec.Results()
		attachPaths(partial, paths)
		if timedOut {
			return partial, &models.TimeoutError{Limit: p.Options.Timeout}
		}
		return partial, ctx.Err()
	}
	if s.protoErr != nil {
		return nil, s.protoErr
	}

	results := s.dec.Results()
	if len(results) == len(paths) && !s.dec.Open() {
		if waitErr != nil {
			logrus.Warnf("Evaluator exited with %v after a complete batch", waitErr)
		}
		attachPaths(results, paths)
		return results, nil
	}
	return nil, &models.AbortedError{
		ExitCode:    exitCode(waitErr),
		Diagnostics: s.diag.String(),
		Err:         waitErr,
	}
}

// attachPaths scopes each per-recipe error to the path that produced it
func attachPaths(results []Result, paths []string) {
	for i := range results {
		if i >= len(paths) {
			return
		}
		var pe *models.ParseError
		if errors.As(results[i].Err, &pe) {
			pe.Path = paths[i]
		}
	}
}

func killEvaluator(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}

func exitCode(waitErr error) int {
	var exit *exec.ExitError
	if errors.As(waitErr, &exit) {
		return exit.ExitCode()
	}
	return 0
}

// session holds the per-batch pipe state shared by both drive strategies
type session struct {
	dec      *Decoder
	input    []byte
	diag     bytes.Buffer
	protoErr error
}

// runTasks starts the evaluator and drives its pipes with one goroutine
// each: a feeder writing the path list, a stderr drain, and the calling
// goroutine decoding stdout. Reading stdout while stdin is still being
// fed is what keeps a large batch from deadlocking on full pipe buffers.
func (s *session) runTasks(cmd *exec.Cmd) error {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &models.LaunchError{Interpreter: cmd.Path, Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &models.LaunchError{Interpreter: cmd.Path, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &models.LaunchError{Interpreter: cmd.Path, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return &models.LaunchError{Interpreter: cmd.Path, Err: err}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer stdin.Close()
		// A write failure means the evaluator died early; Wait reports it
		if _, err := stdin.Write(s.input); err != nil {
			logrus.Debugf("Evaluator stdin closed early: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := io.Copy(&s.diag, stderr); err != nil {
			logrus.Debugf("Evaluator stderr read failed: %v", err)
		}
	}()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if err := s.dec.Line(scanner.Text()); err != nil {
			s.protoErr = err
			// Desynchronized; stop the evaluator and drain what is left
			killEvaluator(cmd)
			_, _ = io.Copy(io.Discard, stdout)
			break
		}
	}
	if err := scanner.Err(); err != nil && s.protoErr == nil {
		logrus.Debugf("Evaluator stdout read failed: %v", err)
	}
	wg.Wait()
	return nil
}
