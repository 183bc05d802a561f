package parser

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/srcforge/pkgparse/internal/models"
)

// Single-task pipe rotation parameters. The deadline caps how long one
// pipe may stall the loop while another has data pending; the chunk size
// stays under the kernel pipe buffer so a single write cannot block the
// rotation for long.
const (
	spinDeadline = 20 * time.Millisecond
	pipeChunk    = 4096
)

// runSingleTask drives all three evaluator pipes from the calling
// goroutine. Each rotation attempts one bounded, deadline-limited
// operation per pipe: feed a chunk of the path list, drain a chunk of
// stdout into the decoder, drain a chunk of stderr. No pipe is ever
// waited on exclusively, so full buffers cannot deadlock the batch.
func (s *session) runSingleTask(cmd *exec.Cmd) error {
	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return &models.LaunchError{Interpreter: cmd.Path, Err: err}
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		stdinR.Close()
		stdinW.Close()
		return &models.LaunchError{Interpreter: cmd.Path, Err: err}
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdinR.Close()
		stdinW.Close()
		stdoutR.Close()
		stdoutW.Close()
		return &models.LaunchError{Interpreter: cmd.Path, Err: err}
	}
	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	if err := cmd.Start(); err != nil {
		stdinR.Close()
		stdinW.Close()
		stdoutR.Close()
		stdoutW.Close()
		stderrR.Close()
		stderrW.Close()
		return &models.LaunchError{Interpreter: cmd.Path, Err: err}
	}
	// The child owns its ends now
	stdinR.Close()
	stdoutW.Close()
	stderrW.Close()
	defer stdoutR.Close()
	defer stderrR.Close()

	feeding := true
	defer func() {
		if feeding {
			stdinW.Close()
		}
	}()

	var lineBuf []byte
	chunk := make([]byte, pipeChunk)
	stdoutOpen, stderrOpen := true, true

	for stdoutOpen || stderrOpen {
		if feeding {
			_ = stdinW.SetWriteDeadline(time.Now().Add(spinDeadline))
			limit := len(s.input)
			if limit > pipeChunk {
				limit = pipeChunk
			}
			n, err := stdinW.Write(s.input[:limit])
			s.input = s.input[n:]
			if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
				// The evaluator stopped reading; Wait reports why
				s.input = nil
			}
			if len(s.input) == 0 {
				stdinW.Close()
				feeding = false
			}
		}
		if stdoutOpen {
			_ = stdoutR.SetReadDeadline(time.Now().Add(spinDeadline))
			n, err := stdoutR.Read(chunk)
			if n > 0 && s.protoErr == nil {
				lineBuf = s.feedLines(append(lineBuf, chunk[:n]...), cmd)
			}
			if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
				stdoutOpen = false
			}
		}
		if stderrOpen {
			_ = stderrR.SetReadDeadline(time.Now().Add(spinDeadline))
			n, err := stderrR.Read(chunk)
			if n > 0 {
				s.diag.Write(chunk[:n])
			}
			if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
				stderrOpen = false
			}
		}
	}
	if s.protoErr == nil && len(lineBuf) > 0 {
		if err := s.dec.Line(string(lineBuf)); err != nil {
			s.protoErr = err
		}
	}
	return nil
}

// feedLines pushes every complete line of buf into the decoder and
// returns the unterminated remainder. A protocol error kills the
// evaluator; the loop keeps draining so the child can exit.
func (s *session) feedLines(buf []byte, cmd *exec.Cmd) []byte {
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			return buf
		}
		line := string(buf[:i])
		buf = buf[i+1:]
		if err := s.dec.Line(line); err != nil {
			s.protoErr = err
			killEvaluator(cmd)
			return nil
		}
	}
}
