package driver

import (
	"sync"

	"github.com/google/uuid"
)

// callbackToken correlates one async request with its eventual response and
// guarantees the caller's callback fires exactly once, even when the guard
// timer and the real completion race.
type callbackToken struct {
	id   string
	once sync.Once
}

// fire returns true exactly once per token. The loser of the race between
// the guard timer and the real completion gets false and must do nothing.
func (t *callbackToken) fire() bool {
	fired := false
	t.once.Do(func() { fired = true })
	return fired
}

// tokenRegistry tracks in-flight callback tokens.
type tokenRegistry struct {
	mu     sync.Mutex
	active map[string]*callbackToken
}

func newTokenRegistry() *tokenRegistry {
	return &tokenRegistry{active: make(map[string]*callbackToken)}
}

// create mints a new token and tracks it until release.
func (r *tokenRegistry) create() *callbackToken {
	tok := &callbackToken{id: uuid.NewString()}
	r.mu.Lock()
	r.active[tok.id] = tok
	r.mu.Unlock()
	return tok
}

// release drops a token once its callback has fired.
func (r *tokenRegistry) release(tok *callbackToken) {
	r.mu.Lock()
	delete(r.active, tok.id)
	r.mu.Unlock()
}

// Pending returns the number of in-flight calls. Exposed through the
// adapter for diagnostics.
func (r *tokenRegistry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
