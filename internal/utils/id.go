package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewTodoID returns a 32-character hex identifier for a todo row. UUIDv7
// puts a millisecond timestamp in the most significant bits, so sorting
// ids in descending order approximates newest-first without an extra
// timestamp column in the ORDER BY.
func NewTodoID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to v4
		// which keeps uniqueness at the cost of ordering.
		id = uuid.New()
	}
	return strings.ReplaceAll(id.String(), "-", "")
}
