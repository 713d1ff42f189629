package report

import (
	"fmt"
	"strings"

	"github.com/StepLg/cljob/job"
)

// outputBlock concatenates stripped stdout/stderr with an 80-'=' separator
// when both are non-empty.
func outputBlock(stdout, stderr string) string {
	stdout = strings.TrimSpace(stdout)
	stderr = strings.TrimSpace(stderr)
	var b strings.Builder
	if stdout != "" {
		b.WriteString(stdout)
	}
	if stdout != "" && stderr != "" {
		b.WriteString("\n" + strings.Repeat("=", 80) + "\n")
	}
	if stderr != "" {
		b.WriteString(stderr)
	}
	return b.String()
}

type outputGroup struct {
	output string
	jobs   []*job.Job
}

// MergeOutput groups successful jobs (no exception, zero exit code) by
// their combined stdout/stderr, printing one block per distinct output at
// Flush.
type MergeOutput struct {
	Options

	order  []string
	groups map[string]*outputGroup
}

func NewMergeOutput(opts Options) *MergeOutput {
	return &MergeOutput{Options: opts, groups: map[string]*outputGroup{}}
}

func (m *MergeOutput) Consume(j *job.Job) {
	if j.Exception != nil || !j.RetCodeSet || j.RetCode != 0 {
		return
	}
	out := outputBlock(j.Stdout, j.Stderr)
	g, ok := m.groups[out]
	if !ok {
		g = &outputGroup{output: out}
		m.groups[out] = g
		m.order = append(m.order, out)
	}
	g.jobs = append(g.jobs, j)
}

func (m *MergeOutput) Flush() {
	w := m.sink()
	label := m.jobLabel()
	for _, key := range m.order {
		g := m.groups[key]
		labels := labelSetOf(g.jobs, label)
		fmt.Fprintf(w, "Output from %d jobs%s\n%s\n", len(g.jobs), hostsSuffix(labels, m.MaxJobsToList), g.output)
		fmt.Fprintln(w)
	}
}
