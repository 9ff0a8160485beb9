package engine

import "time"

// Action identifies a kind of remote mutation attempted during a cycle.
type Action string

const (
	// ActionCreate is a mirror task creation.
	ActionCreate Action = "create"
	// ActionComplete is a mirror task completion.
	ActionComplete Action = "complete"
	// ActionClose is an origin task closure.
	ActionClose Action = "close"
	// ActionDelete is a mirror task deletion.
	ActionDelete Action = "delete"
)

// Event records one attempted remote mutation within a cycle.
type Event struct {
	Action   Action `json:"action"`
	OriginID string `json:"origin_id,omitempty"`
	MirrorID string `json:"mirror_id,omitempty"`
	Text     string `json:"text,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Failed reports whether the mutation failed.
func (e Event) Failed() bool {
	return e.Error != ""
}

// Outcome summarizes one reconciliation cycle for logs, the status
// surfaces, and the HTTP trigger response.
type Outcome struct {
	CycleID  string        `json:"cycle_id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`

	OriginTasks int `json:"origin_tasks"`
	MirrorTasks int `json:"mirror_tasks"`

	Created   int `json:"created"`
	Completed int `json:"completed"`
	Closed    int `json:"closed"`
	Deleted   int `json:"deleted"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`

	// Success is false when a fetch failed, any mutation failed, or the
	// state save failed. A degraded cycle is still a finished cycle.
	Success bool `json:"success"`

	Events []Event `json:"events,omitempty"`
}

// Mutations returns the number of remote mutations that succeeded.
func (o *Outcome) Mutations() int {
	return o.Created + o.Completed + o.Closed + o.Deleted
}

func (o *Outcome) record(ev Event) {
	o.Events = append(o.Events, ev)
	if ev.Failed() {
		o.Failed++
		return
	}
	switch ev.Action {
	case ActionCreate:
		o.Created++
	case ActionComplete:
		o.Completed++
	case ActionClose:
		o.Closed++
	case ActionDelete:
		o.Deleted++
	}
}
