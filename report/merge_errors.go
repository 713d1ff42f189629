package report

import (
	"fmt"
	"strconv"

	"github.com/StepLg/cljob/job"
)

type errorGroup struct {
	retCodeSet bool
	retCode    int
	stderr     string
	stdout     string
	jobs       []*job.Job
}

// errorKey fingerprints a non-zero-exit job by its exit code and stderr,
// plus stdout when present.
func errorKey(j *job.Job) string {
	code := "none"
	if j.RetCodeSet {
		code = strconv.Itoa(j.RetCode)
	}
	key := code + ":" + j.Stderr
	if j.Stdout != "" {
		key += "\n" + j.Stdout
	}
	return key
}

// MergeErrors groups jobs that completed with a non-zero exit code or timed
// out, by the fingerprint in errorKey. The group record keeps stdout inside
// itself, alongside the other fields that define the group.
type MergeErrors struct {
	Options

	order  []string
	groups map[string]*errorGroup
}

func NewMergeErrors(opts Options) *MergeErrors {
	return &MergeErrors{Options: opts, groups: map[string]*errorGroup{}}
}

func (m *MergeErrors) Consume(j *job.Job) {
	if j.Exception != nil {
		return
	}
	if j.RetCodeSet && j.RetCode == 0 {
		return
	}
	key := errorKey(j)
	g, ok := m.groups[key]
	if !ok {
		g = &errorGroup{retCodeSet: j.RetCodeSet, retCode: j.RetCode, stderr: j.Stderr, stdout: j.Stdout}
		m.groups[key] = g
		m.order = append(m.order, key)
	}
	g.jobs = append(g.jobs, j)
}

func (m *MergeErrors) Flush() {
	w := m.sink()
	label := m.jobLabel()
	for _, key := range m.order {
		g := m.groups[key]
		labels := labelSetOf(g.jobs, label)
		suffix := hostsSuffix(labels, m.MaxJobsToList)
		if !g.retCodeSet {
			fmt.Fprintf(w, "Failed by timeout %d jobs%s\n", len(g.jobs), suffix)
			continue
		}
		fmt.Fprintf(w, "Fail with code %d in %d jobs%s\n", g.retCode, len(g.jobs), suffix)
		fmt.Fprintf(w, "Stderr: %s\n", indent(g.stderr))
		if g.stdout != "" {
			fmt.Fprintf(w, "Stdout: %s\n", indent(g.stdout))
		}
		fmt.Fprintln(w)
	}
}
