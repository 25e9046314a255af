//go:build !windows

package sandbox

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner(opts Options) *Runner {
	return New(opts, zerolog.Nop())
}

func TestRun_CapturesStdoutAndStderr(t *testing.T) {
	r := newRunner(Options{})
	out, err := r.Run(context.Background(), "echo hello; echo oops 1>&2")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, StatusOK, out.Status)
	assert.Equal(t, "hello\n", out.Stdout)
	assert.Equal(t, "oops\n", out.Stderr)
	assert.Equal(t, 0, out.ExitCode)
}

func TestRun_NonZeroExitIsNotAnError(t *testing.T) {
	r := newRunner(Options{})
	out, err := r.Run(context.Background(), "exit 3")
	require.NoError(t, err)
	assert.Equal(t, StatusExited, out.Status)
	assert.Equal(t, 3, out.ExitCode)
}

func TestRun_TimeoutKillsWithinBound(t *testing.T) {
	timeout := 300 * time.Millisecond
	r := newRunner(Options{Timeout: timeout})

	start := time.Now()
	out, err := r.Run(context.Background(), "sleep 10")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	var ee *ExecError
	require.ErrorAs(t, err, &ee)
	require.NotNil(t, out)
	assert.Equal(t, StatusTimeout, out.Status)
	assert.Less(t, elapsed, timeout+waitDelay+time.Second)
}

func TestRun_TimeoutKillsProcessGroup(t *testing.T) {
	r := newRunner(Options{Timeout: 200 * time.Millisecond})

	start := time.Now()
	out, err := r.Run(context.Background(), "sleep 10 & sleep 10; wait")
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, StatusTimeout, out.Status)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestRun_MissingShellIsExecutionError(t *testing.T) {
	r := newRunner(Options{Shell: "/nonexistent/shell"})
	out, err := r.Run(context.Background(), "true")
	require.ErrorIs(t, err, ErrExecution)
	require.NotNil(t, out)
	assert.Equal(t, StatusError, out.Status)
}

func TestRun_CancelledParentIsExecutionError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := newRunner(Options{}).Run(ctx, "sleep 1")
	require.ErrorIs(t, err, ErrExecution)
	assert.Equal(t, StatusError, out.Status)
}

func TestRun_TruncatesOutput(t *testing.T) {
	r := newRunner(Options{MaxOutputBytes: 16})
	out, err := r.Run(context.Background(), "printf '%0100d' 0")
	require.NoError(t, err)
	assert.True(t, out.Truncated)
	assert.True(t, strings.HasPrefix(out.Stdout, strings.Repeat("0", 16)))
	assert.True(t, strings.HasSuffix(out.Stdout, truncatedMarker))
}

func TestRun_Dir(t *testing.T) {
	dir := t.TempDir()
	out, err := newRunner(Options{Dir: dir}).Run(context.Background(), "pwd")
	require.NoError(t, err)
	assert.Contains(t, out.Stdout, dir[strings.LastIndex(dir, "/")+1:])
}

func TestNew_Defaults(t *testing.T) {
	r := newRunner(Options{})
	assert.Equal(t, "/bin/sh", r.Shell())
	assert.Equal(t, 5*time.Second, r.Timeout())
}

func TestClassify_CleanExitBeatsExpiredDeadline(t *testing.T) {
	assert.Equal(t, StatusOK, classify(nil, context.DeadlineExceeded, nil))
	assert.Equal(t, StatusOK, classify(nil, context.DeadlineExceeded, context.DeadlineExceeded))

	killed := errors.New("signal: killed")
	assert.Equal(t, StatusTimeout, classify(killed, context.DeadlineExceeded, nil))
	assert.Equal(t, StatusError, classify(killed, context.Canceled, context.Canceled))
	assert.Equal(t, StatusError, classify(killed, nil, nil))
}

func TestClassify_ExitError(t *testing.T) {
	c := exec.Command("sh", "-c", "exit 4")
	err := c.Run()
	require.Error(t, err)
	assert.Equal(t, StatusExited, classify(err, nil, nil))
}
