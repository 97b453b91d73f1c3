package domain

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"     // Queued, not yet started
	StatusInProgress Status = "in_progress" // Bound to a session, agent working
	StatusInReview   Status = "in_review"   // Agent reported completion
	StatusDone       Status = "done"        // Confirmed by user or merge detected
	StatusError      Status = "error"       // Marked failed by an explicit signal
)

// AllStatuses returns all valid status values in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusInProgress,
		StatusInReview,
		StatusDone,
		StatusError,
	}
}

// transitions defines the allowed status transitions.
// Flow: pending → in_progress → in_review → done
//
//	                 ↓
//	               error
//
// No transition re-enters pending.
var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress},
	StatusInProgress: {StatusInReview, StatusError},
	StatusInReview:   {StatusDone},
	StatusDone:       {},
	StatusError:      {},
}

// CanTransitionTo returns true if the status can transition to the target status.
func (s Status) CanTransitionTo(target Status) bool {
	allowed, ok := transitions[s]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}

// Display returns a human-readable representation of the status.
func (s Status) Display() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "In Progress"
	case StatusInReview:
		return "In Review"
	case StatusDone:
		return "Done"
	case StatusError:
		return "Error"
	default:
		return string(s)
	}
}

// IsValid returns true if the status is a known valid value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusInReview, StatusDone, StatusError:
		return true
	default:
		return false
	}
}

// AgentStatus is the finer-grained state reported by the agent process itself.
// It does not drive Task.Status, except that a done report completes the task.
type AgentStatus string

const (
	AgentIdle    AgentStatus = "idle"
	AgentWorking AgentStatus = "working"
	AgentWaiting AgentStatus = "waiting" // Waiting for user input
	AgentDone    AgentStatus = "done"
	AgentError   AgentStatus = "error"
)

// ParseAgentStatus converts a reported string into an AgentStatus.
// "waiting_for_input" is accepted as an alias of waiting.
func ParseAgentStatus(s string) (AgentStatus, error) {
	switch s {
	case "idle":
		return AgentIdle, nil
	case "working":
		return AgentWorking, nil
	case "waiting", "waiting_for_input":
		return AgentWaiting, nil
	case "done":
		return AgentDone, nil
	case "error":
		return AgentError, nil
	default:
		return "", ErrInvalidAgentStatus
	}
}
