// Package scholar provides the abstractions shared by scholarly search
// provider clients: the provider interface, a rate-limited HTTP client, and
// a token bucket rate limiter.
//
// Provider clients (see the serpapi subpackage) page through an external
// search API and normalize raw result records into domain.Paper values. They
// are deliberately best-effort: a mid-paging failure stops the search and
// returns whatever was collected, never an error for the whole batch.
package scholar

import (
	"context"

	"github.com/scholarpipe/scholarpipe/internal/domain"
)

// Provider is the interface implemented by scholarly search provider clients.
type Provider interface {
	// Search queries the provider for papers matching query, collecting up
	// to limit normalized records. Providers page through results in
	// fixed-size batches and stop early when the provider signals
	// exhaustion or fails; partial results are returned without error.
	// The returned error is reserved for invalid input and context
	// cancellation.
	Search(ctx context.Context, query string, limit int) ([]*domain.Paper, error)

	// Name returns a human-readable name for this provider, used for
	// logging and metrics.
	Name() string
}
