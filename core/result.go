package core

// NoContent is returned instead of an empty string when nothing usable
// remains after normalization.
const NoContent = "No content available."

// Source records which path produced a CleanResult.
type Source string

const (
	// SourceBackend marks text produced by a live backend and normalized.
	SourceBackend Source = "backend"
	// SourceFallback marks text produced by the fallback policy.
	SourceFallback Source = "fallback"
)

// CleanResult is a single trimmed, printable, non-empty piece of text. Text is
// either real content or the NoContent sentinel, never the empty string.
type CleanResult struct {
	Text   string `json:"text"`
	Source Source `json:"source"`
	// Reason is set for fallback results and names why the backend was bypassed.
	Reason string `json:"reason,omitempty"`
}

// String returns the result text.
func (r CleanResult) String() string { return r.Text }

// Degraded reports whether the result came from the fallback policy.
func (r CleanResult) Degraded() bool { return r.Source == SourceFallback }

// Empty reports whether the result is the NoContent sentinel.
func (r CleanResult) Empty() bool { return r.Text == NoContent || r.Text == "" }

// Role labels an entry of a CollaborationResult.
type Role string

const (
	// RoleStep is an ordinary sequential or parallel step.
	RoleStep Role = "step"
	// RolePlan is the coordinator's delegation plan in hierarchical mode.
	RolePlan Role = "plan"
	// RoleWorker is a worker's answer in hierarchical mode.
	RoleWorker Role = "worker"
)

// Entry pairs an agent id with its clean result.
type Entry struct {
	AgentID string      `json:"agent_id"`
	Role    Role        `json:"role"`
	Result  CleanResult `json:"result"`
}

// CollaborationResult is the ordered outcome of running a task. Entry order
// always equals the caller-declared agent order.
type CollaborationResult struct {
	InvocationID string  `json:"invocation_id,omitempty"`
	Mode         Mode    `json:"mode"`
	Entries      []Entry `json:"entries"`
}

// AgentIDs returns the agent ids of all entries in order.
func (r CollaborationResult) AgentIDs() []string {
	ids := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		ids[i] = e.AgentID
	}

	return ids
}

// Find returns the first entry for agentID.
func (r CollaborationResult) Find(agentID string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.AgentID == agentID {
			return e, true
		}
	}

	return Entry{}, false
}
