package room

import (
	"strings"
	"sync"
)

// Registry maps room codes to rooms for the lifetime of the process.
// Rooms are created lazily on first join and, unless the owner asks for
// eviction, never removed. It is an injected dependency of the relay so
// tests can run isolated registries side by side.
//
// The relay loop serializes all room mutation; the mutex only guards
// the map itself for callers on other goroutines (HTTP stats, tests).
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Normalize canonicalizes a room code. Codes are case-insensitive by
// convention and stored uppercased.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GetOrCreate returns the room for code, creating it when unseen. The
// second return value reports whether the room was just created.
func (reg *Registry) GetOrCreate(code string) (*Room, bool) {
	code = Normalize(code)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[code]
	if !ok {
		r = newRoom(code)
		reg.rooms[code] = r
	}
	return r, !ok
}

// Get returns the room for code if it exists.
func (reg *Registry) Get(code string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[Normalize(code)]
	return r, ok
}

// Remove drops the room for code.
func (reg *Registry) Remove(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	delete(reg.rooms, Normalize(code))
}

// Len returns the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return len(reg.rooms)
}
