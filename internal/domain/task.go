// Package domain contains core business entities and rules.
package domain

import "time"

// Task is a named unit of work made of sequential steps. It is a domain
// entity with no knowledge of HTTP or logging concerns; the step names
// double as the context the app layer attaches to log output while the
// task runs.
type Task struct {
	// Name uniquely identifies the task.
	Name string

	// Steps lists the step names in execution order.
	Steps []string

	// Parallel indicates the steps are independent and may run
	// concurrently.
	Parallel bool
}

// RunStatus is the terminal state of one task run.
type RunStatus string

const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// TaskRun records the outcome of executing a task once.
type TaskRun struct {
	// Task is the name of the executed task.
	Task string

	// Status is the terminal state of the run.
	Status RunStatus

	// StepsCompleted counts steps that finished without error.
	StepsCompleted int

	// Duration is the wall-clock time of the run.
	Duration time.Duration

	// FailedStep names the step that failed, empty on success.
	FailedStep string
}
