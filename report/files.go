package report

import (
	"bufio"
	"fmt"
	"os"

	"github.com/StepLg/cljob/job"
)

// DoneJobsToFile truncates fname at construction and writes one formatted
// identifier per non-failed job (no exception, zero exit code).
type DoneJobsToFile struct {
	label JobLabelFunc
	f     *os.File
	w     *bufio.Writer
}

// NewDoneJobsToFile opens fname in truncate mode. label defaults to
// DefaultJobLabel if nil.
func NewDoneJobsToFile(fname string, label JobLabelFunc) (*DoneJobsToFile, error) {
	f, err := os.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("opening done-jobs file: %w", err)
	}
	if label == nil {
		label = DefaultJobLabel
	}
	return &DoneJobsToFile{label: label, f: f, w: bufio.NewWriter(f)}, nil
}

func (d *DoneJobsToFile) Consume(j *job.Job) {
	if j.Exception != nil || !j.RetCodeSet || j.RetCode != 0 {
		return
	}
	fmt.Fprintln(d.w, d.label(j))
}

// Flush commits buffered writes and closes the file.
func (d *DoneJobsToFile) Flush() {
	d.w.Flush()
	d.f.Close()
}

// FailedJobsAppendFile appends to fname (opened at construction) one
// formatted identifier per failed job (exception set, or non-zero/unset
// exit code).
type FailedJobsAppendFile struct {
	label JobLabelFunc
	f     *os.File
	w     *bufio.Writer
}

// NewFailedJobsAppendFile opens fname in append mode, creating it if
// necessary. label defaults to DefaultJobLabel if nil.
func NewFailedJobsAppendFile(fname string, label JobLabelFunc) (*FailedJobsAppendFile, error) {
	f, err := os.OpenFile(fname, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening failed-jobs file: %w", err)
	}
	if label == nil {
		label = DefaultJobLabel
	}
	return &FailedJobsAppendFile{label: label, f: f, w: bufio.NewWriter(f)}, nil
}

func (d *FailedJobsAppendFile) Consume(j *job.Job) {
	if j.Exception == nil && j.RetCodeSet && j.RetCode == 0 {
		return
	}
	fmt.Fprintln(d.w, d.label(j))
}

// Flush commits buffered writes and closes the file.
func (d *FailedJobsAppendFile) Flush() {
	d.w.Flush()
	d.f.Close()
}
