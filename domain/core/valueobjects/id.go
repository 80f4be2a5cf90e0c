// Package valueobjects holds small immutable types shared across the domain.
package valueobjects

import "github.com/google/uuid"

// NewID generates a new opaque identifier for memories, jobs, entities, and
// episodes. The store is free to assign its own native ID on insert; this is
// used by callers (e.g. pending edges, job creation) that need an ID before
// the document exists.
func NewID() string {
	return uuid.New().String()
}
