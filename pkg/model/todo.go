package model

// Todo represents one time-boxed todo line extracted from a planning document.
type Todo struct {
	// Text is the trimmed description. Together with the document path and
	// the estimate it determines the todo's identity.
	Text string
	// EstimatedMinutes is the planned duration. A todo always has a positive
	// estimate; lines whose estimate parses to zero are not todos.
	EstimatedMinutes int
	// ActualMinutes is the recorded duration for a completed todo, 0 when
	// none was written down.
	ActualMinutes int
	Completed     bool
	// SourceLine is the 1-based line number in the document. Informational
	// only: reordering lines does not change a todo's identity.
	SourceLine int
	// Identifier is the content-derived digest stamped by the identity
	// package after extraction.
	Identifier string
}
