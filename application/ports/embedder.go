package ports

import "context"

// EmbeddingRole distinguishes the two embedding calls the spec documents as
// using different model roles: a stored document gets "document" role, a
// search query gets "query" role.
type EmbeddingRole string

const (
	RoleDocument EmbeddingRole = "document"
	RoleQuery    EmbeddingRole = "query"
)

// Embedder turns text into a fixed-dimension vector. Implementations wrap
// external embedding providers behind a circuit breaker and retry policy;
// callers should treat EmbedderFailed errors as terminal for the current
// operation, not worth retrying again at this layer.
type Embedder interface {
	Embed(ctx context.Context, text string, role EmbeddingRole) ([]float64, error)

	// Dimension reports the vector length this embedder produces, used to
	// validate stored embeddings are comparable.
	Dimension() int

	// Mode reports "live" or "mock", surfaced by /status for observability.
	Mode() string
}
