package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/StepLg/cljob"
	"github.com/StepLg/cljob/job"
	"github.com/StepLg/cljob/report"
	"github.com/StepLg/cljob/supervisor"
)

func runCmd() *cobra.Command {
	var (
		hosts         string
		kind          string
		shellCmd      string
		wdir          string
		files         []string
		targetDir     string
		localDir      string
		timeout       time.Duration
		pollInterval  time.Duration
		maxInFlight   int
		maxJobsToList int
		doneFile      string
		failedFile    string
	)

	cmd := &cobra.Command{
		Use:          "run",
		Short:        "Run a shell command or file transfer against a fleet of hosts",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			hostList := splitHosts(hosts)
			if len(hostList) == 0 {
				return fmt.Errorf("--hosts is required")
			}
			jobs, starter, finalizer, err := buildJobs(kind, hostList, shellCmd, wdir, files, targetDir, localDir)
			if err != nil {
				return err
			}

			runID := uuid.New().String()
			log.Printf("[%s] starting batch of %d jobs", runID, len(jobs))

			cfg := supervisor.Config{Timeout: timeout, PollInterval: pollInterval, MaxInFlight: maxInFlight}
			aggregators, statuses, err := buildAggregators(maxJobsToList, doneFile, failedFile)
			if err != nil {
				return err
			}

			cljob.Run(cmd.Context(), jobs, starter, finalizer, cfg, aggregators)

			log.Printf("[%s] done: ok=%d retcode=%d exception=%d", runID, statuses.Statuses().OK, statuses.Statuses().RetCode, statuses.Statuses().Exception)
			if cljob.Failed(statuses.Statuses()) {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&hosts, "hosts", "", "comma-separated list of target hosts")
	cmd.Flags().StringVar(&kind, "kind", "shell", "job kind: shell, upload, or download")
	cmd.Flags().StringVar(&shellCmd, "cmd", "", "remote command to run (shell jobs)")
	cmd.Flags().StringVar(&wdir, "wdir", "", "remote working directory (shell jobs) or remote base dir (download)")
	cmd.Flags().StringSliceVar(&files, "file", nil, "file to transfer, repeatable (upload/download jobs)")
	cmd.Flags().StringVar(&targetDir, "target-dir", "", "remote target directory (upload jobs)")
	cmd.Flags().StringVar(&localDir, "local-dir", "", "local target directory (download jobs)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "batch-wide wall-clock budget, zero means unbounded")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 100*time.Millisecond, "sleep between polling sweeps")
	cmd.Flags().IntVar(&maxInFlight, "max-in-flight", 0, "cap on simultaneously running children, zero means len(jobs)")
	cmd.Flags().IntVar(&maxJobsToList, "max-jobs-to-list", 5, "max hosts to enumerate per merged report, negative lists all")
	cmd.Flags().StringVar(&doneFile, "done-file", "", "write succeeded hosts here, truncating first")
	cmd.Flags().StringVar(&failedFile, "failed-file", "", "append failed hosts here")

	return cmd
}

func splitHosts(hosts string) []string {
	var out []string
	for _, h := range strings.Split(hosts, ",") {
		h = strings.TrimSpace(h)
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

func buildJobs(kind string, hosts []string, shellCmd, wdir string, files []string, targetDir, localDir string) ([]*job.Job, job.Starter, job.Finalizer, error) {
	switch kind {
	case "shell":
		if shellCmd == "" {
			return nil, nil, nil, fmt.Errorf("--cmd is required for shell jobs")
		}
		jobs := make([]*job.Job, len(hosts))
		for i, h := range hosts {
			jobs[i] = job.NewShell(h, shellCmd, wdir)
		}
		return jobs, job.ShellRunner{}, job.ShellRunner{}, nil
	case "upload":
		if len(files) == 0 {
			return nil, nil, nil, fmt.Errorf("--file is required for upload jobs")
		}
		jobs := make([]*job.Job, len(hosts))
		for i, h := range hosts {
			jobs[i] = job.NewUpload(h, files, targetDir)
		}
		return jobs, job.UploadRunner{}, job.UploadRunner{}, nil
	case "download":
		if len(files) == 0 || localDir == "" {
			return nil, nil, nil, fmt.Errorf("--file and --local-dir are required for download jobs")
		}
		jobs := make([]*job.Job, len(hosts))
		for i, h := range hosts {
			jobs[i] = job.NewDownload(h, files, localDir, wdir)
		}
		return jobs, job.DownloadRunner{}, job.DownloadRunner{}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown job kind %q", kind)
	}
}

func buildAggregators(maxJobsToList int, doneFile, failedFile string) ([]report.Aggregator, *report.JobStatuses, error) {
	opts := report.Options{MaxJobsToList: maxJobsToList}
	errOpts := opts
	errOpts.Sink = os.Stderr

	statuses := report.NewJobStatuses()
	aggregators := []report.Aggregator{
		report.NewPrintOutput(opts),
		report.NewMergeErrors(errOpts),
		report.NewPrintExceptions(errOpts),
		statuses,
	}

	if doneFile != "" {
		a, err := report.NewDoneJobsToFile(doneFile, nil)
		if err != nil {
			return nil, nil, err
		}
		aggregators = append(aggregators, a)
	}
	if failedFile != "" {
		a, err := report.NewFailedJobsAppendFile(failedFile, nil)
		if err != nil {
			return nil, nil, err
		}
		aggregators = append(aggregators, a)
	}

	return aggregators, statuses, nil
}
