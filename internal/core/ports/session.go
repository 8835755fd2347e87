package ports

import "context"

// SessionService keeps per-visitor name/value pairs behind an opaque session ID.
type SessionService interface {
	// Start returns a fresh session ID.
	Start(ctx context.Context) (string, error)
	// Values returns every value stored for the session. IDs that were never
	// started, or have expired or been destroyed, are an error.
	Values(ctx context.Context, id string) (map[string]string, error)
	// Get returns one value; ok=false when it is not set.
	Get(ctx context.Context, id, name string) (string, bool, error)
	// Put sets name to value. An empty value unsets name.
	Put(ctx context.Context, id, name, value string) error
	// Destroy drops the whole session.
	Destroy(ctx context.Context, id string) error
}
