package runner

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, spec Spec) *Result {
	t.Helper()
	res, err := NewShellRunner().Run(context.Background(), spec)
	require.NoError(t, err)
	return res
}

func TestRun_CapturesStdout(t *testing.T) {
	res := run(t, Spec{Command: "echo hello"})
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.TimedOut)
}

func TestRun_CapturesStderr(t *testing.T) {
	res := run(t, Spec{Command: "echo oops 1>&2"})
	assert.Equal(t, "oops\n", res.Stderr)
	assert.Empty(t, res.Stdout)
}

func TestRun_NonZeroExit(t *testing.T) {
	res := run(t, Spec{Command: "exit 4"})
	assert.Equal(t, 4, res.ExitCode)
	assert.False(t, res.TimedOut)
}

func TestRun_Timeout(t *testing.T) {
	res := run(t, Spec{Command: "sleep 5", Timeout: 100 * time.Millisecond})
	assert.True(t, res.TimedOut)
	assert.NotEqual(t, 0, res.ExitCode)
	assert.Less(t, res.Duration, 2*time.Second)
}

func TestRun_NoTimeoutWhenFast(t *testing.T) {
	res := run(t, Spec{Command: "echo quick", Timeout: 5 * time.Second})
	assert.False(t, res.TimedOut)
	assert.Equal(t, "quick\n", res.Stdout)
}

func TestRun_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	res := run(t, Spec{Command: "pwd", Dir: dir})
	assert.Equal(t, dir, strings.TrimSpace(res.Stdout))
}

func TestRun_Environment(t *testing.T) {
	res := run(t, Spec{
		Command: "echo $GREETING",
		Env:     []string{"PATH=/usr/bin:/bin", "GREETING=bonjour"},
	})
	assert.Equal(t, "bonjour\n", res.Stdout)
}

func TestRun_BadWorkingDirectory(t *testing.T) {
	_, err := NewShellRunner().Run(context.Background(), Spec{
		Command: "echo hi",
		Dir:     "/does/not/exist",
	})
	require.Error(t, err)
}

func TestRun_ShellOverride(t *testing.T) {
	r := &ShellRunner{DefaultShell: "/bin/sh"}
	res, err := r.Run(context.Background(), Spec{Command: "echo via-default"})
	require.NoError(t, err)
	assert.Equal(t, "via-default\n", res.Stdout)
}

func TestRun_OutputCapped(t *testing.T) {
	r := &ShellRunner{MaxOutput: 16}
	res, err := r.Run(context.Background(), Spec{Command: "yes x | head -c 1024"})
	require.NoError(t, err)
	assert.Len(t, res.Stdout, 16, "captured output stops at the cap")
	assert.Equal(t, 0, res.ExitCode, "the capped process still completes")
}

func TestLimitedWriter_ReportsFullLength(t *testing.T) {
	var sb strings.Builder
	lw := &limitedWriter{w: &sb, limit: 4}

	n, err := lw.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 6, n, "the writer must consume everything to keep the pipe draining")
	assert.Equal(t, "abcd", sb.String())

	n, err = lw.Write([]byte("gh"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "abcd", sb.String())
}
