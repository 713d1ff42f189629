package supervisor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/StepLg/cljob/job"
)

// countdownHandle reports not-done for `countdown` TryWait calls, then done.
// onDone fires exactly once, when it first reports done.
type countdownHandle struct {
	mu        sync.Mutex
	countdown int
	onDone    func()
	done      bool
	signals   []job.Signal
}

func (h *countdownHandle) Pid() int { return 1 }

func (h *countdownHandle) TryWait() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.countdown > 0 {
		h.countdown--
		return 0, false
	}
	if !h.done {
		h.done = true
		if h.onDone != nil {
			h.onDone()
		}
	}
	return 0, true
}

func (h *countdownHandle) Signal(sig job.Signal) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.signals = append(h.signals, sig)
	return nil
}

func (h *countdownHandle) Drain() (string, string, error) { return "", "", nil }

type noopFinalizer struct{}

func (noopFinalizer) Finalize(*job.Job) {}

type trackingStarter struct {
	mu          sync.Mutex
	running     int
	maxObserved int
	countdown   int
}

func (s *trackingStarter) Start(j *job.Job) error {
	s.mu.Lock()
	s.running++
	if s.running > s.maxObserved {
		s.maxObserved = s.running
	}
	s.mu.Unlock()
	h := &countdownHandle{countdown: s.countdown, onDone: func() {
		s.mu.Lock()
		s.running--
		s.mu.Unlock()
	}}
	j.SetHandle(h)
	return nil
}

func makeJobs(n int) []*job.Job {
	jobs := make([]*job.Job, n)
	for i := range jobs {
		jobs[i] = job.NewShell(fmt.Sprintf("h%d", i), "true", "")
	}
	return jobs
}

func drainAll(ch <-chan *job.Job) []*job.Job {
	var out []*job.Job
	for j := range ch {
		out = append(out, j)
	}
	return out
}

func TestMaxInFlightCap(t *testing.T) {
	jobs := makeJobs(10)
	starter := &trackingStarter{countdown: 2}
	cfg := Config{MaxInFlight: 2, PollInterval: time.Millisecond}

	out := Run(context.Background(), jobs, starter, noopFinalizer{}, cfg)
	completed := drainAll(out)

	require.Len(t, completed, 10)
	require.LessOrEqual(t, starter.maxObserved, 2)
}

func TestMaxInFlightZeroMeansLenJobs(t *testing.T) {
	jobs := makeJobs(5)
	starter := &trackingStarter{countdown: 1}
	cfg := Config{MaxInFlight: 0, PollInterval: time.Millisecond}

	out := Run(context.Background(), jobs, starter, noopFinalizer{}, cfg)
	completed := drainAll(out)

	require.Len(t, completed, 5)
	require.Equal(t, 5, starter.maxObserved, "all jobs should be admitted at once")
}

func TestEmptyJobList(t *testing.T) {
	out := Run(context.Background(), nil, &trackingStarter{}, noopFinalizer{}, Config{})
	completed := drainAll(out)
	require.Empty(t, completed)
}

type alwaysFailStarter struct{}

func (alwaysFailStarter) Start(j *job.Job) error {
	return fmt.Errorf("not found")
}

func TestStartFailureEmitsException(t *testing.T) {
	jobs := makeJobs(1)
	out := Run(context.Background(), jobs, alwaysFailStarter{}, noopFinalizer{}, Config{})
	completed := drainAll(out)
	require.Len(t, completed, 1)
	require.Error(t, completed[0].Exception)
}

func TestTimeoutKillsStragglers(t *testing.T) {
	jobs := makeJobs(3)
	starter := &trackingStarter{countdown: 1 << 30} // never completes on its own
	cfg := Config{Timeout: 10 * time.Millisecond, PollInterval: time.Millisecond}

	out := Run(context.Background(), jobs, starter, noopFinalizer{}, cfg)
	completed := drainAll(out)

	require.Len(t, completed, 3)
	for _, j := range completed {
		require.True(t, j.TimedOut, "job %s", j.Host)
		require.False(t, j.RetCodeSet, "job %s: a timed-out job must not set RetCode", j.Host)
		h := j.Handle().(*countdownHandle)
		require.NotEmpty(t, h.signals, "job %s", j.Host)
		require.Equal(t, job.SignalTerm, h.signals[0], "job %s: SIGTERM must be delivered first", j.Host)
	}
}
