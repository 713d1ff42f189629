// Package job defines the job record driven across a fleet of remote hosts
// and the starter/finalizer contract a supervisor uses to run it.
package job

import "fmt"

// Kind distinguishes the payload a Job carries and, by extension, which
// Starter/Finalizer pair is used to run it.
type Kind int

const (
	// KindShell runs a remote command via rsh.
	KindShell Kind = iota
	// KindUpload pushes local files to a remote host via rsync.
	KindUpload
	// KindDownload pulls remote files to a local directory via rsync.
	KindDownload
)

func (k Kind) String() string {
	switch k {
	case KindShell:
		return "shell"
	case KindUpload:
		return "upload"
	case KindDownload:
		return "download"
	default:
		return "unknown"
	}
}

// Job represents a unit of work against a single remote host. Callers should
// never mutate a Job once it has been handed to a supervisor; the supervisor
// owns every field below until the job is emitted back as completed.
type Job struct {
	Kind Kind
	Host string

	// Shell payload.
	Cmd  string
	Wdir string

	// Upload/download payload.
	Files          []string
	TargetDir      string // upload destination, or download remote base dir
	LocalTargetDir string // download destination

	// Outcome, set exactly once by the supervisor.
	RetCode    int
	RetCodeSet bool
	Stdout     string
	Stderr     string
	Exception error
	Trace     string
	TimedOut  bool

	handle Handle
}

// Handle is the opaque, supervisor-owned in-flight process reference a
// Starter attaches via SetHandle and a Supervisor polls, signals, and drains.
type Handle interface {
	// Pid returns the child's process ID, for signal delivery.
	Pid() int
	// TryWait performs a non-blocking check for completion, returning
	// (exitCode, true) if the child has exited.
	TryWait() (exitCode int, done bool)
	// Signal delivers sig to the child's process group.
	Signal(sig Signal) error
	// Drain fully reads stdout/stderr after the child has exited. Must not
	// be called before TryWait reports done.
	Drain() (stdout, stderr string, err error)
}

// Signal names the two escalation steps a Supervisor may deliver.
type Signal int

const (
	SignalTerm Signal = iota
	SignalKill
)

// SetHandle attaches the in-flight process handle. Only Starter
// implementations should call this.
func (j *Job) SetHandle(h Handle) { j.handle = h }

// Handle returns the process handle attached by the Starter, or nil if the
// job never started. The handle stays attached after the job completes.
func (j *Job) Handle() Handle { return j.handle }

// NewShell creates a shell job.
func NewShell(host, cmd, wdir string) *Job {
	return &Job{Kind: KindShell, Host: host, Cmd: cmd, Wdir: wdir}
}

// NewUpload creates an upload job.
func NewUpload(host string, files []string, targetDir string) *Job {
	return &Job{Kind: KindUpload, Host: host, Files: files, TargetDir: targetDir}
}

// NewDownload creates a download job.
func NewDownload(host string, files []string, localTargetDir, remoteBaseDir string) *Job {
	return &Job{Kind: KindDownload, Host: host, Files: files, LocalTargetDir: localTargetDir, TargetDir: remoteBaseDir}
}

// String gives a short human identifier for the job, matching the default
// job_to_str used when no caller-supplied formatter is configured.
func (j *Job) String() string {
	switch j.Kind {
	case KindUpload:
		return fmt.Sprintf("Upload to %s:%s", j.Host, j.TargetDir)
	case KindDownload:
		return fmt.Sprintf("Download from %s:%s", j.Host, j.TargetDir)
	default:
		return fmt.Sprintf("ShellCmd %s:%s %s", j.Host, j.Wdir, j.Cmd)
	}
}

// Succeeded reports whether the job completed with no exception and a zero
// exit code.
func (j *Job) Succeeded() bool {
	return j.Exception == nil && j.RetCodeSet && j.RetCode == 0
}

// Failed reports whether the job completed with an exception or a non-zero
// exit code (includes timed-out jobs, which never set RetCode).
func (j *Job) Failed() bool {
	return j.Exception != nil || !j.Succeeded()
}
