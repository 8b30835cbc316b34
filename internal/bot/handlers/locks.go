package handlers

import (
	"sync"

	"github.com/tmazur/personabot/internal/database"
)

// keyedMutex serializes handler pipelines per identity key so that two
// near-simultaneous messages from the same (chat, user) can't interleave
// their read-modify-write cycles and lose an update. Handlers for other
// identities proceed concurrently.
type keyedMutex struct {
	mu sync.Map // database.IdentityKey -> *sync.Mutex
}

// Lock acquires the mutex for key and returns the unlock function.
func (k *keyedMutex) Lock(key database.IdentityKey) func() {
	v, _ := k.mu.LoadOrStore(key, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
