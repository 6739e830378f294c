package cron

import (
	"fmt"
	"time"
)

// Schedule describes when a job fires. Kind is "cron" (six-field
// expression) or "every" (fixed interval in milliseconds).
type Schedule struct {
	Kind    string `json:"kind"`
	Expr    string `json:"expr,omitempty"`
	EveryMs int64  `json:"everyMs,omitempty"`
}

// Payload is the trigger text handed to the job handler when a job fires.
type Payload struct {
	Message string `json:"message"`
}

// JobState tracks the last execution result.
type JobState struct {
	LastRunAtMs int64  `json:"lastRunAtMs,omitempty"`
	LastStatus  string `json:"lastStatus,omitempty"`
	LastError   string `json:"lastError,omitempty"`
}

// Job is one persisted scheduled trigger.
type Job struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Enabled  bool     `json:"enabled"`
	Schedule Schedule `json:"schedule"`
	Payload  Payload  `json:"payload"`
	State    JobState `json:"state"`
}

func NewJob(name string, schedule Schedule, payload Payload) Job {
	return Job{
		ID:       fmt.Sprintf("job-%d", time.Now().UnixNano()),
		Name:     name,
		Enabled:  true,
		Schedule: schedule,
		Payload:  payload,
	}
}
