package types

import "time"

// Outcome classifies the result of one provisioning step.
type Outcome string

const (
	// OutcomeAlreadyPresent means the presence check passed and no
	// action was taken.
	OutcomeAlreadyPresent Outcome = "already-present"

	// OutcomeInstalled means an installation action ran successfully.
	OutcomeInstalled Outcome = "installed"

	// OutcomeApplied means a config mutation changed the target file.
	OutcomeApplied Outcome = "applied"

	// OutcomeUnchanged means a config mutation found its guard already
	// satisfied and touched nothing.
	OutcomeUnchanged Outcome = "unchanged"

	// OutcomeManualQueued means no automated path exists for the
	// detected platform; a manual step was recorded instead.
	OutcomeManualQueued Outcome = "manual-queued"

	// OutcomePlanned means dry-run mode suppressed an action that
	// would otherwise have run.
	OutcomePlanned Outcome = "planned"

	// OutcomeFailed means the step failed; the run continues with the
	// next step.
	OutcomeFailed Outcome = "failed"
)

// StepKind distinguishes installer steps from config-mutation steps
// in the final report.
type StepKind string

const (
	StepInstall StepKind = "install"
	StepConfig  StepKind = "config"
)

// StepResult records the outcome of a single step for the report.
type StepResult struct {
	Name    string
	Kind    StepKind
	Outcome Outcome
	Detail  string
	Err     error
}

// ManualStep is one deferred human-actionable instruction, queued
// when the automated path is unavailable.
type ManualStep struct {
	Tool        string
	Instruction string
}

// BackupEntry records one pre-mutation copy made during the run.
type BackupEntry struct {
	Original string
	Backup   string
}

// Report aggregates everything a run did: per-step outcomes, backups
// made, and manual follow-ups. It is created empty at run start and
// threaded explicitly through every step; there is no ambient shared
// state.
type Report struct {
	Platform    Platform
	StartedAt   time.Time
	DryRun      bool
	Results     []StepResult
	ManualSteps []ManualStep
	Backups     []BackupEntry

	// BackupDir is the run's timestamped backup directory, empty until
	// the first backup is taken.
	BackupDir string
}

// NewReport creates an empty report for a run on the given platform.
func NewReport(platform Platform, dryRun bool) *Report {
	return &Report{
		Platform:  platform,
		StartedAt: time.Now(),
		DryRun:    dryRun,
	}
}

// AddResult appends a step result.
func (r *Report) AddResult(res StepResult) {
	r.Results = append(r.Results, res)
}

// QueueManual appends a manual follow-up instruction.
func (r *Report) QueueManual(tool, instruction string) {
	r.ManualSteps = append(r.ManualSteps, ManualStep{Tool: tool, Instruction: instruction})
}

// RecordBackup appends a backup entry.
func (r *Report) RecordBackup(original, backup string) {
	r.Backups = append(r.Backups, BackupEntry{Original: original, Backup: backup})
}

// HasFailures reports whether any step failed.
func (r *Report) HasFailures() bool {
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailed {
			return true
		}
	}
	return false
}

// CountOutcome returns how many results carry the given outcome.
func (r *Report) CountOutcome(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}
