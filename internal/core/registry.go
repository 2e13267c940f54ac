package core

import (
	"sync"

	"github.com/google/uuid"
)

// Process-wide registry of open databases by instance uuid. The
// registry holds plain references; closing a database removes it.
var (
	registryMu sync.RWMutex
	registry   = make(map[uuid.UUID]*Database)
)

// DatabaseByUUID returns the open database with the given instance
// uuid, or nil
func DatabaseByUUID(id uuid.UUID) *Database {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[id]
}

// OpenDatabases returns the instance uuids of all open databases
func OpenDatabases() []uuid.UUID {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]uuid.UUID, 0, len(registry))
	for id := range registry {
		out = append(out, id)
	}
	return out
}

func registerDatabase(db *Database) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[db.id] = db
}

func deregisterDatabase(id uuid.UUID) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, id)
}
