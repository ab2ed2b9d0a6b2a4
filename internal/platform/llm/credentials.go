package llm

import "sync"

// credentialRing is the round-robin cursor over configured API keys. It is
// shared by every request of one client.
type credentialRing struct {
	mu     sync.Mutex
	keys   []string
	cursor int
}

func newCredentialRing(keys []string) *credentialRing {
	return &credentialRing{keys: append([]string(nil), keys...)}
}

func (r *credentialRing) size() int { return len(r.keys) }

// current returns the active key and its position.
func (r *credentialRing) current() (int, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor, r.keys[r.cursor]
}

// advance moves past position from. A request that observed a stale position
// does not move the cursor again, so concurrent failures on the same key
// rotate once.
func (r *credentialRing) advance(from int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor == from {
		r.cursor = (r.cursor + 1) % len(r.keys)
	}
}
