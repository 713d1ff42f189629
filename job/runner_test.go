package job

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapShellCmd(t *testing.T) {
	got := wrapShellCmd("echo hi", "")
	want := "(set -o pipefail; set -u; set -e;\necho hi\n); echo $?"
	require.Equal(t, want, got)
}

func TestWrapShellCmdWithWdir(t *testing.T) {
	got := wrapShellCmd("echo hi", "/tmp/work")
	want := "(set -o pipefail; set -u; set -e;\n" +
		`mkdir -p "/tmp/work" && cd "/tmp/work" && (echo hi)` +
		"\n); echo $?"
	require.Equal(t, want, got)
}

// fakeHandle lets tests drive ShellRunner.Finalize without spawning a real
// process.
type fakeHandle struct {
	stdout, stderr string
}

func (fakeHandle) Pid() int             { return 0 }
func (fakeHandle) TryWait() (int, bool) { return 0, true }
func (fakeHandle) Signal(Signal) error  { return nil }
func (h fakeHandle) Drain() (string, string, error) {
	return h.stdout, h.stderr, nil
}

func TestShellFinalizeParsesTrailingExitCode(t *testing.T) {
	j := NewShell("h1", "some cmd", "")
	j.SetHandle(fakeHandle{stdout: "hello\nworld\n7", stderr: "warn"})
	j.RetCodeSet = true
	j.RetCode = 0

	ShellRunner{}.Finalize(j)

	require.Equal(t, 7, j.RetCode)
	require.Equal(t, "hello\nworld", j.Stdout)
	require.Equal(t, "warn", j.Stderr)
}

func TestShellFinalizeSingleIntegerStdout(t *testing.T) {
	j := NewShell("h1", "some cmd", "")
	j.SetHandle(fakeHandle{stdout: "42", stderr: ""})
	j.RetCodeSet = true
	j.RetCode = 0

	ShellRunner{}.Finalize(j)

	require.Equal(t, 42, j.RetCode)
	require.Empty(t, j.Stdout)
}

func TestShellFinalizeNonNumericStdoutRetainsTransportCode(t *testing.T) {
	j := NewShell("h1", "some cmd", "")
	j.SetHandle(fakeHandle{stdout: "not a number", stderr: ""})
	j.RetCodeSet = true
	j.RetCode = 0

	ShellRunner{}.Finalize(j)

	require.Equal(t, 0, j.RetCode)
	require.Equal(t, "not a number", j.Stdout)
}

func TestShellFinalizeNonZeroTransportCodeSkipsParsing(t *testing.T) {
	j := NewShell("h1", "some cmd", "")
	j.SetHandle(fakeHandle{stdout: "5", stderr: ""})
	j.RetCodeSet = true
	j.RetCode = 127

	ShellRunner{}.Finalize(j)

	require.Equal(t, 127, j.RetCode)
	require.Equal(t, "5", j.Stdout)
}
