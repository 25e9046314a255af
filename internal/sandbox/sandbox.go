// Package sandbox runs a shell command with a hard timeout and captures its
// output. It is not an isolation boundary; callers gate what reaches it.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/kamusis/nlcmd/internal/logging"
)

var (
	// ErrTimeout means the command was killed after exceeding its timeout.
	ErrTimeout = errors.New("command timed out")
	// ErrExecution means the command could not be run to completion.
	ErrExecution = errors.New("command execution failed")
)

// Status summarizes how a run ended.
type Status string

const (
	StatusOK      Status = "ok"
	StatusExited  Status = "exited"
	StatusTimeout Status = "timeout"
	StatusError   Status = "error"
)

// Outcome is the captured result of one run. A non-zero exit is reported
// here and is not an error.
type Outcome struct {
	Command   string        `json:"command"`
	Stdout    string        `json:"stdout"`
	Stderr    string        `json:"stderr"`
	ExitCode  int           `json:"exit_code"`
	Status    Status        `json:"status"`
	Duration  time.Duration `json:"-"`
	Truncated bool          `json:"truncated,omitempty"`
}

// ExecError carries the failure kind (ErrTimeout or ErrExecution) and the
// underlying cause.
type ExecError struct {
	Kind    error
	Command string
	Err     error
}

func (e *ExecError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %q", e.Kind, e.Command)
	}
	return fmt.Sprintf("%v: %q: %v", e.Kind, e.Command, e.Err)
}

func (e *ExecError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Options configures a Runner.
type Options struct {
	// Shell runs the command with "-c" ("/C" on Windows). Empty picks the
	// platform default.
	Shell          string
	Timeout        time.Duration
	MaxOutputBytes int
	Dir            string
	Env            []string
}

const (
	defaultTimeout        = 5 * time.Second
	defaultMaxOutputBytes = 1 << 20
	// waitDelay bounds how long Wait keeps draining pipes after the kill,
	// for grandchildren that escaped the process group.
	waitDelay = 500 * time.Millisecond
)

// Runner executes commands. It is safe for concurrent use.
type Runner struct {
	opts Options
	log  zerolog.Logger
}

// New returns a Runner with defaults applied to opts.
func New(opts Options, log zerolog.Logger) *Runner {
	if opts.Shell == "" {
		opts.Shell = defaultShell()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = defaultMaxOutputBytes
	}
	return &Runner{opts: opts, log: logging.Component(log, "sandbox")}
}

// Timeout is the per-command limit.
func (r *Runner) Timeout() time.Duration { return r.opts.Timeout }

// Shell is the shell commands run under.
func (r *Runner) Shell() string { return r.opts.Shell }

// Run executes command under the shell. The returned Outcome is never nil;
// the error is an *ExecError for timeouts and failures to run.
func (r *Runner) Run(ctx context.Context, command string) (*Outcome, error) {
	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	c := shellCommand(runCtx, r.opts.Shell, command)
	c.WaitDelay = waitDelay
	c.Dir = r.opts.Dir
	if len(r.opts.Env) > 0 {
		c.Env = append(c.Environ(), r.opts.Env...)
	}
	stdout := &cappedBuffer{max: r.opts.MaxOutputBytes}
	stderr := &cappedBuffer{max: r.opts.MaxOutputBytes}
	c.Stdout = stdout
	c.Stderr = stderr

	err := c.Run()

	out := &Outcome{
		Command:   command,
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Duration:  time.Since(start),
		Truncated: stdout.truncated || stderr.truncated,
	}
	if c.ProcessState != nil {
		out.ExitCode = c.ProcessState.ExitCode()
	}

	log := r.log.With().Str("command", command).Dur("duration", out.Duration).Logger()

	switch classify(err, runCtx.Err(), ctx.Err()) {
	case StatusOK:
		out.Status = StatusOK
		log.Debug().Msg("command finished")
		return out, nil
	case StatusTimeout:
		out.Status = StatusTimeout
		out.ExitCode = -1
		log.Warn().Dur("timeout", r.opts.Timeout).Msg("command timed out")
		return out, &ExecError{Kind: ErrTimeout, Command: command}
	case StatusExited:
		out.Status = StatusExited
		log.Debug().Int("exit_code", out.ExitCode).Msg("command exited")
		return out, nil
	}
	out.Status = StatusError
	out.ExitCode = -1
	if ctx.Err() != nil {
		return out, &ExecError{Kind: ErrExecution, Command: command, Err: ctx.Err()}
	}
	log.Error().Err(err).Msg("cannot run command")
	return out, &ExecError{Kind: ErrExecution, Command: command, Err: err}
}

// classify maps the error from Run and the two context states to a Status.
// A clean exit wins over an expired deadline: the command finished before
// it could be killed.
func classify(err, runCtxErr, parentErr error) Status {
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(runCtxErr, context.DeadlineExceeded):
		return StatusTimeout
	case parentErr != nil:
		return StatusError
	case errors.As(err, &exitErr):
		return StatusExited
	default:
		return StatusError
	}
}

const truncatedMarker = "\n... [output truncated]"

// cappedBuffer keeps the first max bytes written and silently drops the rest
// so the child never sees a short write.
type cappedBuffer struct {
	buf       bytes.Buffer
	max       int
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	room := b.max - b.buf.Len()
	if room <= 0 {
		b.truncated = b.truncated || len(p) > 0
		return len(p), nil
	}
	if len(p) > room {
		b.buf.Write(p[:room])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	if b.truncated {
		return b.buf.String() + truncatedMarker
	}
	return b.buf.String()
}
