package dto

import (
	"fmt"

	"github.com/glevine/backdropy/internal/domain"
)

// reservedLabelKeys are claimed by the middleware and runner scopes.
// A caller-supplied label must not shadow them.
var reservedLabelKeys = map[string]struct{}{
	"request":        {},
	"request_id":     {},
	"correlation_id": {},
	"trace_id":       {},
	"task":           {},
	"step":           {},
}

// RunTaskRequest is the optional body of a run-task request. Labels are
// added to the request scope before the run starts, so they show up on
// every log line the run emits.
type RunTaskRequest struct {
	Labels map[string]string `json:"labels" validate:"omitempty,max=16,dive,keys,identifier,endkeys,notempty"`
}

// Validate rejects labels that would shadow scope keys owned by the
// service itself.
func (r *RunTaskRequest) Validate() error {
	for key := range r.Labels {
		if _, reserved := reservedLabelKeys[key]; reserved {
			return fmt.Errorf("label key %q is reserved", key)
		}
	}

	return nil
}

// TaskResponse describes one registered task.
type TaskResponse struct {
	Name     string   `json:"name"`
	Steps    []string `json:"steps"`
	Parallel bool     `json:"parallel"`
}

// TaskListResponse is the payload of a list-tasks request.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Count int            `json:"count"`
}

// TaskRunResponse reports the outcome of one task run.
type TaskRunResponse struct {
	Task           string `json:"task"`
	Status         string `json:"status"`
	StepsCompleted int    `json:"stepsCompleted"`
	FailedStep     string `json:"failedStep,omitempty"`
	DurationMS     int64  `json:"durationMs"`
}

// TaskResponseFromDomain converts a domain task to its API shape.
func TaskResponseFromDomain(task domain.Task) TaskResponse {
	steps := task.Steps
	if steps == nil {
		steps = []string{}
	}

	return TaskResponse{
		Name:     task.Name,
		Steps:    steps,
		Parallel: task.Parallel,
	}
}

// TaskRunResponseFromDomain converts a run result to its API shape.
func TaskRunResponseFromDomain(run domain.TaskRun) TaskRunResponse {
	return TaskRunResponse{
		Task:           run.Task,
		Status:         string(run.Status),
		StepsCompleted: run.StepsCompleted,
		FailedStep:     run.FailedStep,
		DurationMS:     run.Duration.Milliseconds(),
	}
}
