// Package handlers exposes scan results over a small JSON HTTP API.
package handlers

import (
	"sync"

	"github.com/damacus/drivescope/internal/cache"
	"github.com/damacus/drivescope/internal/models"
)

// Snapshot holds the most recent scan result, falling back to the
// persisted structure when the process has not scanned yet.
type Snapshot struct {
	mu        sync.RWMutex
	structure *models.Structure
	cache     *cache.Cache
}

func NewSnapshot(c *cache.Cache) *Snapshot {
	return &Snapshot{cache: c}
}

// Get returns the current structure, or nil when no scan has run and
// nothing is cached.
func (s *Snapshot) Get() *models.Structure {
	s.mu.RLock()
	current := s.structure
	s.mu.RUnlock()
	if current != nil {
		return current
	}

	cached := s.cache.GetStructure(cache.DefaultStructureName)
	if cached != nil {
		s.Set(cached)
	}
	return cached
}

// Set replaces the current structure.
func (s *Snapshot) Set(structure *models.Structure) {
	s.mu.Lock()
	s.structure = structure
	s.mu.Unlock()
}
