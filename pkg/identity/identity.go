// Package identity derives the stable identifier that binds a todo to its
// calendar event across sync passes.
package identity

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/harrisonrobin/planstack/pkg/model"
)

// Compute digests the fields that make a todo "the same todo" between
// re-parses of a document: where it lives, what it says, and how long it is
// planned to take. Completion state, recorded time and line position are
// deliberately left out, so finishing or reordering a todo keeps it bound to
// its existing event. Two todos with identical text and estimate in one
// document collapse to one identifier; that is a known limitation.
func Compute(documentPath, text string, estimatedMinutes int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s\x00%s\x00%d", documentPath, text, estimatedMinutes)))
	return hex.EncodeToString(sum[:])[:12]
}

// Assign stamps identifiers onto every todo parsed from the given document.
func Assign(documentPath string, todos []model.Todo) {
	for i := range todos {
		todos[i].Identifier = Compute(documentPath, todos[i].Text, todos[i].EstimatedMinutes)
	}
}
