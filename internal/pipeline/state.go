package pipeline

// Turn is one prior conversation exchange supplied by the caller. The
// pipeline carries history through untouched; it is reserved for future
// stages.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// State is the unit of work threaded through the pipeline. Each stage
// reads fields set by earlier stages or the caller and writes only the
// fields it owns; Question is never mutated.
type State struct {
	// Question is the caller's input, immutable once set.
	Question string

	// Topic is set by classify (or supplied by the caller).
	Topic string

	// RetrievedContext is the blank-line-joined text of retrieved
	// passages, set by retrieve. Empty when retrieval found nothing or
	// failed.
	RetrievedContext string

	// Answer is set by the answer stage.
	Answer string

	// Followups is set by the follow-up stage. Empty when no answer
	// exists.
	Followups []string

	// NeedsMoreContext is set true when retrieval fails.
	NeedsMoreContext bool

	// PriorTurns is caller-supplied history. Read-only.
	PriorTurns []Turn
}

// Result is what a completed pipeline run hands back to the caller.
type Result struct {
	Answer           string
	Followups        []string
	Topic            string
	NeedsMoreContext bool
}
