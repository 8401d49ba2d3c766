package executor

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DefaultSlurmFinishedStatuses are the Slurm job states after which a job no longer runs
var DefaultSlurmFinishedStatuses = []string{
	"BOOT_FAIL",
	"CANCELLED",
	"COMPLETED",
	"DEADLINE",
	"FAILED",
	"NODE_FAIL",
	"OUT_OF_MEMORY",
	"PREEMPTED",
	"TIMEOUT",
}

const slurmAccountingFields = "State,ExitCode"

// SlurmExecutor runs commands as a Slurm batch job
type SlurmExecutor struct {
	*ClusterExecutor
}

// NewSlurmExecutor creates a Slurm job. An empty spec name gets a generated one.
func NewSlurmExecutor(spec JobSpec, opts ...ClusterOption) *SlurmExecutor {
	if spec.Name == "" {
		spec.Name = DefaultJobName()
	}

	backend := &slurmBackend{}
	opts = append([]ClusterOption{WithFinishedStatuses(DefaultSlurmFinishedStatuses...)}, opts...)
	c := newClusterExecutor(spec, backend, opts)
	backend.c = c

	return &SlurmExecutor{ClusterExecutor: c}
}

// DefaultJobName returns a unique job name
func DefaultJobName() string {
	return "jobexec_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

type slurmBackend struct {
	c *ClusterExecutor
}

func (s *slurmBackend) name() string {
	return "slurm"
}

func (s *slurmBackend) arrayIndexVar() string {
	return "SLURM_ARRAY_TASK_ID"
}

func (s *slurmBackend) headerLines(spec JobSpec) []string {
	logBase := filepath.Join(spec.WorkingDir, spec.Name)
	if len(spec.Cmds) > 1 {
		logBase += "_%a"
	}

	lines := []string{
		fmt.Sprintf("#SBATCH --job-name=%q", spec.Name),
		fmt.Sprintf("#SBATCH --output=%s.out", logBase),
		fmt.Sprintf("#SBATCH --error=%s.err", logBase),
	}
	if spec.Mem > 0 {
		lines = append(lines, fmt.Sprintf("#SBATCH --mem=%dG", spec.Mem))
	}
	if spec.CPUs > 0 {
		lines = append(lines, fmt.Sprintf("#SBATCH --cpus-per-task=%d", spec.CPUs))
	}
	if spec.Walltime != "" {
		lines = append(lines, "#SBATCH --time="+spec.Walltime)
	}
	if spec.Partition != "" {
		lines = append(lines, "#SBATCH --partition="+spec.Partition)
	}
	if len(spec.Cmds) > 1 {
		lines = append(lines, fmt.Sprintf("#SBATCH --array=1-%d", len(spec.Cmds)))
	}
	return lines
}

func (s *slurmBackend) submitArgs(scriptPath string) []string {
	return []string{"sbatch", "--parsable", scriptPath}
}

// parseJobID reads "<id>" or "<id>;<cluster>" from sbatch --parsable,
// tolerating the "Submitted batch job <id>" form
func (s *slurmBackend) parseJobID(out string) (string, error) {
	out, _, _ = strings.Cut(strings.TrimSpace(out), ";")
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return "", errNoJobID
	}

	id := fields[len(fields)-1]
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return "", fmt.Errorf("%w: %q", errNoJobID, out)
	}
	return id, nil
}

func (s *slurmBackend) cancelArgs(jobID string) []string {
	return []string{"scancel", jobID}
}

// sacct returns the distinct "<State> <ExitCode>" accounting records for the job
func (s *slurmBackend) sacct(ctx context.Context, fields string) (map[string]bool, error) {
	out, err := s.c.runAndRetry(ctx, "sacct", "-nX", "-j", s.c.JobID(), "-o", fields)
	if err != nil {
		return nil, err
	}
	return lineSet(out, func(line string) string {
		return strings.Join(strings.Fields(line), " ")
	}), nil
}

// squeue returns the distinct states the job still has in the live queue.
// A purged job makes squeue fail, which reads as an empty queue, so a failure
// is not retried.
func (s *slurmBackend) squeue(ctx context.Context) map[string]bool {
	out, ok := s.c.getStdout(ctx, []string{"squeue", "-h", "-j", s.c.JobID(), "-o", "%T"})
	if !ok {
		return map[string]bool{}
	}
	return lineSet(out, strings.TrimSpace)
}

func (s *slurmBackend) jobFinished(ctx context.Context) (bool, error) {
	if queued := s.squeue(ctx); len(queued) > 0 {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	records, err := s.sacct(ctx, slurmAccountingFields)
	if err != nil {
		return false, err
	}
	if len(records) == 0 {
		return false, nil
	}

	for record := range records {
		if !s.c.FinishedStatuses[recordState(record)] {
			return false, nil
		}
	}
	return true, nil
}

func (s *slurmBackend) jobExitCode(ctx context.Context) (int, error) {
	records, err := s.sacct(ctx, slurmAccountingFields)
	if err != nil {
		return exitUnknown, err
	}
	return exitCodeFromRecords(records), nil
}

// records returns the job's accounting records, sorted
func (s *slurmBackend) records(ctx context.Context) ([]string, error) {
	set, err := s.sacct(ctx, slurmAccountingFields)
	if err != nil {
		return nil, err
	}
	records := make([]string, 0, len(set))
	for r := range set {
		records = append(records, r)
	}
	sort.Strings(records)
	return records, nil
}

// exitCodeFromRecords maps accounting records to one exit code: 9 if any step
// was cancelled, otherwise the largest per-record code, where a COMPLETED
// record yields its exit field and any other state never yields 0
func exitCodeFromRecords(records map[string]bool) int {
	for record := range records {
		if strings.Contains(record, "CANCELLED") {
			return ExitCancelled
		}
	}

	code := 0
	for record := range records {
		code = max(code, recordExitCode(record))
	}
	return code
}

// recordExitCode reads the "<exit>:<signal>" field of one record. States other
// than COMPLETED fall back to 128+signal, then to 1, so TIMEOUT 0:0 or a
// signal-killed FAILED 0:9 count as failures.
func recordExitCode(record string) int {
	exit, signal := 0, 0
	if fields := strings.Fields(record); len(fields) >= 2 {
		e, s, _ := strings.Cut(fields[len(fields)-1], ":")
		exit, _ = strconv.Atoi(e)
		signal, _ = strconv.Atoi(s)
	}

	switch {
	case exit != 0:
		return exit
	case recordState(record) == "COMPLETED":
		return 0
	case signal > 0:
		return 128 + signal
	default:
		return 1
	}
}

// recordState returns the state token of a record; "CANCELLED by 123" and
// "COMPLETED+" both reduce to their base state
func recordState(record string) string {
	fields := strings.Fields(record)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimSuffix(fields[0], "+")
}

func lineSet(out string, normalize func(string) string) map[string]bool {
	set := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		if line = normalize(line); line != "" {
			set[line] = true
		}
	}
	return set
}
