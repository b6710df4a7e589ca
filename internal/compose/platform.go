package compose

const (
	PlatformBluesky  = "bluesky"
	PlatformMastodon = "mastodon"
	PlatformThreads  = "threads"
)

// PlatformLimit is one entry of reference data: a platform id and the number
// of characters a single post on it may carry.
type PlatformLimit struct {
	ID    string `json:"id"`
	Limit int    `json:"limit"`
}

// Registry maps platform ids to character limits. It is seeded once at
// startup and read-only afterwards; Reseed exists for administrative
// additions before the server starts taking traffic.
type Registry struct {
	order  []string
	limits map[string]int
}

func NewRegistry() *Registry {
	r := &Registry{limits: make(map[string]int)}
	r.Reseed(PlatformBluesky, 300)
	r.Reseed(PlatformMastodon, 500)
	r.Reseed(PlatformThreads, 500)
	return r
}

// Reseed registers a platform, idempotently by id. Re-registering an
// existing id updates its limit without changing its position.
func (r *Registry) Reseed(platformID string, limit int) {
	if limit <= 0 {
		return
	}
	if _, ok := r.limits[platformID]; !ok {
		r.order = append(r.order, platformID)
	}
	r.limits[platformID] = limit
}

// LimitFor returns the character limit for a platform, or ErrUnknownPlatform.
func (r *Registry) LimitFor(platformID string) (int, error) {
	limit, ok := r.limits[platformID]
	if !ok {
		return 0, ErrUnknownPlatform
	}
	return limit, nil
}

// Known reports whether the platform id is registered.
func (r *Registry) Known(platformID string) bool {
	_, ok := r.limits[platformID]
	return ok
}

// Platforms lists all registered platforms in seed order.
func (r *Registry) Platforms() []PlatformLimit {
	out := make([]PlatformLimit, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, PlatformLimit{ID: id, Limit: r.limits[id]})
	}
	return out
}
