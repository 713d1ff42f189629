package job

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

// Starter launches a child process for a job and attaches its Handle. It may
// fail synchronously; the caller (the supervisor) attaches the error to the
// job as Exception and never calls Finalize for a job that failed to start.
type Starter interface {
	Start(j *Job) error
}

// Finalizer post-processes a job's captured output once its child has
// exited. Called exactly once per successfully started job.
type Finalizer interface {
	Finalize(j *Job)
}

// RSHPath and RsyncPath name the executables invoked for shell and transfer
// jobs respectively. Tests substitute these with stand-ins.
var (
	RSHPath   = "rsh"
	RsyncPath = "rsync"
)

// ShellRunner starts and finalizes shell jobs via rsh, wrapping the remote
// command so a non-zero exit reliably survives the round trip.
type ShellRunner struct{}

// wrapShellCmd builds the remote command string: when a working directory
// is set, mkdir+cd it first; always force pipefail/unset/errexit and append
// the real exit code as the last line of stdout.
func wrapShellCmd(cmd, wdir string) string {
	if wdir != "" {
		cmd = fmt.Sprintf("mkdir -p %q && cd %q && (%s)", wdir, wdir, cmd)
	}
	return fmt.Sprintf("(set -o pipefail; set -u; set -e;\n%s\n); echo $?", cmd)
}

func (ShellRunner) Start(j *Job) error {
	wrapped := wrapShellCmd(j.Cmd, j.Wdir)
	h, err := startProcess(RSHPath, []string{j.Host, wrapped})
	if err != nil {
		return err
	}
	j.SetHandle(h)
	return nil
}

// Finalize drains the child, strips trailing whitespace, and, when rsh
// itself exited zero, parses the trailing line of stdout as the real exit
// code, overwriting the transport's exit code. If the last line is not a
// decimal integer and stdout is not itself a single integer, the transport's
// exit code and stdout are left untouched.
func (ShellRunner) Finalize(j *Job) {
	stdout, stderr, _ := j.handle.Drain()
	j.Stdout = strings.TrimSpace(stdout)
	j.Stderr = strings.TrimSpace(stderr)

	if !j.RetCodeSet || j.RetCode != 0 {
		return
	}
	if idx := strings.LastIndexByte(j.Stdout, '\n'); idx != -1 {
		last := j.Stdout[idx+1:]
		if code, err := strconv.Atoi(last); err == nil {
			j.RetCode = code
			j.Stdout = j.Stdout[:idx]
		}
	} else if code, err := strconv.Atoi(j.Stdout); err == nil {
		j.RetCode = code
		j.Stdout = ""
	}
}

// UploadRunner pushes local files to a remote host via rsync.
type UploadRunner struct{}

func (UploadRunner) Start(j *Job) error {
	target := fmt.Sprintf("%s:%s", j.Host, j.TargetDir)
	args := append(append([]string{"-qaz"}, j.Files...), target)
	h, err := startProcess(RsyncPath, args)
	if err != nil {
		return err
	}
	j.SetHandle(h)
	return nil
}

func (UploadRunner) Finalize(j *Job) {
	stdout, stderr, _ := j.handle.Drain()
	j.Stdout = strings.TrimSpace(stdout)
	j.Stderr = strings.TrimSpace(stderr)
}

// DownloadRunner pulls remote files to a local directory via rsync, trusting
// the transfer tool's own exit code as-is.
type DownloadRunner struct{}

func (DownloadRunner) Start(j *Job) error {
	args := []string{"-qazR", fmt.Sprintf("--rsync-path=cd '%s' && rsync", j.TargetDir), j.Host + ":"}
	for _, f := range j.Files {
		args = append(args, ":"+f)
	}
	args = append(args, j.LocalTargetDir)
	h, err := startProcess(RsyncPath, args)
	if err != nil {
		return err
	}
	j.SetHandle(h)
	return nil
}

func (DownloadRunner) Finalize(j *Job) {
	stdout, stderr, _ := j.handle.Drain()
	j.Stdout = strings.TrimSpace(stdout)
	j.Stderr = strings.TrimSpace(stderr)
}

// processHandle wraps an *exec.Cmd running in its own process group so the
// supervisor can terminate the whole subtree (e.g. rsh's own children) with
// one signal.
type processHandle struct {
	cmd      *exec.Cmd
	stdout   bytes.Buffer
	stderr   bytes.Buffer
	exitCode int
	exited   bool
	waitCh   chan struct{}
}

// startProcess spawns name in its own process group with stdout/stderr
// piped, draining both fully before waiting on the command: reading a pipe
// after Wait returns can lose buffered data.
func startProcess(name string, args []string) (*processHandle, error) {
	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	h := &processHandle{cmd: cmd, waitCh: make(chan struct{})}
	stdoutDone := drainPipe(&h.stdout, stdout)
	stderrDone := drainPipe(&h.stderr, stderr)
	go func() {
		defer close(h.waitCh)
		<-stdoutDone
		<-stderrDone
		h.exitCode = exitCodeFromError(cmd.Wait())
		h.exited = true
	}()
	return h, nil
}

// drainPipe copies r into buf until EOF, returning a channel closed when done.
func drainPipe(buf *bytes.Buffer, r io.Reader) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		io.Copy(buf, r)
	}()
	return done
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

func (h *processHandle) Pid() int { return h.cmd.Process.Pid }

func (h *processHandle) TryWait() (int, bool) {
	select {
	case <-h.waitCh:
		return h.exitCode, true
	default:
		return 0, false
	}
}

func (h *processHandle) Signal(sig Signal) error {
	pgid, err := syscall.Getpgid(h.cmd.Process.Pid)
	if err != nil {
		pgid = h.cmd.Process.Pid
	}
	sysSig := syscall.SIGTERM
	if sig == SignalKill {
		sysSig = syscall.SIGKILL
	}
	return syscall.Kill(-pgid, sysSig)
}

// Drain returns the fully captured stdout/stderr. processHandle buffers
// output as it is produced; Drain blocks until the child has exited and both
// pipes have been read to EOF, which has already happened once TryWait
// reports done.
func (h *processHandle) Drain() (string, string, error) {
	<-h.waitCh
	return h.stdout.String(), h.stderr.String(), nil
}
