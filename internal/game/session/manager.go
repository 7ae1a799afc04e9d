// Package session tracks the active battles of the process and which battle
// each player is currently in.
package session

import (
	"fmt"
	"sync"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
)

// Manager is the registry of active battles. It owns no game logic; it only
// answers "which battle" questions. All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	battles  map[string]*battle.Battle // battle ID → battle
	byPlayer map[string]string         // player ID → battle ID
}

// NewManager creates an empty session Manager.
func NewManager() *Manager {
	return &Manager{
		battles:  make(map[string]*battle.Battle),
		byPlayer: make(map[string]string),
	}
}

// Add registers a battle and indexes both players to it.
//
// Precondition: b must have a non-empty ID and two distinct player IDs.
// Postcondition: Battle(b.ID) returns b. Returns an error if the battle ID is
// already registered or either player is already in a battle.
func (m *Manager) Add(b *battle.Battle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.battles[b.ID]; exists {
		return fmt.Errorf("battle %q already registered", b.ID)
	}
	for _, playerID := range []string{b.Player1, b.Player2} {
		if other, busy := m.byPlayer[playerID]; busy {
			return fmt.Errorf("player %q already in battle %q", playerID, other)
		}
	}

	m.battles[b.ID] = b
	m.byPlayer[b.Player1] = b.ID
	m.byPlayer[b.Player2] = b.ID
	return nil
}

// Battle returns the battle for the given ID.
//
// Postcondition: Returns (battle, true) if found, or (nil, false) otherwise.
func (m *Manager) Battle(id string) (*battle.Battle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.battles[id]
	return b, ok
}

// BattleForPlayer returns the battle the given player is in.
//
// Postcondition: Returns (battle, true) if found, or (nil, false) otherwise.
func (m *Manager) BattleForPlayer(playerID string) (*battle.Battle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byPlayer[playerID]
	if !ok {
		return nil, false
	}
	b, ok := m.battles[id]
	return b, ok
}

// Remove unregisters a battle and clears both player index entries.
//
// Postcondition: The battle is removed from all tracking. Returns an error if
// not found.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, exists := m.battles[id]
	if !exists {
		return fmt.Errorf("battle %q not found", id)
	}

	delete(m.byPlayer, b.Player1)
	delete(m.byPlayer, b.Player2)
	delete(m.battles, id)
	return nil
}

// Count returns the number of registered battles.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.battles)
}
