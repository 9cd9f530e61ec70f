package api

// Request limits.
const (
	// MaxSearchLimit caps the page size of search requests.
	MaxSearchLimit = 100

	// DefaultRequestsPerSecond is the per-IP request rate when none is configured.
	DefaultRequestsPerSecond = 20
	DefaultBurst             = 40
)
