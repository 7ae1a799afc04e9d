// Package timer tracks the turn and battle deadlines for active battles and
// fires callbacks when a deadline elapses.
package timer

import (
	"sync"
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/character"
)

// deadline fires a callback after a duration unless stopped. It is safe for
// concurrent use.
type deadline struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// newDeadline creates and starts a timer that calls onFire after d. onFire is
// called in a separate goroutine.
//
// Precondition: d > 0; onFire must not be nil.
func newDeadline(d time.Duration, onFire func()) *deadline {
	dl := &deadline{}
	dl.timer = time.AfterFunc(d, func() {
		dl.mu.Lock()
		stopped := dl.stopped
		dl.mu.Unlock()
		if !stopped {
			onFire()
		}
	})
	return dl
}

// stop prevents the callback from firing. Safe to call multiple times.
func (dl *deadline) stop() {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	dl.stopped = true
	dl.timer.Stop()
}

// Manager owns the turn and battle deadlines of every active battle, keyed by
// battle id. Callbacks receive the battle id; the consumer is responsible for
// re-resolving the battle and checking it is still active, since the record
// may have changed between the timer firing and the callback running.
type Manager struct {
	mu           sync.Mutex
	turnTimers   map[string]*deadline
	battleTimers map[string]*deadline
}

// NewManager returns a Manager with no timers scheduled.
func NewManager() *Manager {
	return &Manager{
		turnTimers:   make(map[string]*deadline),
		battleTimers: make(map[string]*deadline),
	}
}

// StartTurnTimer schedules onExpire to fire after d for the given battle,
// replacing any turn deadline already scheduled for it.
//
// Precondition: d > 0; onExpire must not be nil.
func (m *Manager) StartTurnTimer(battleID string, d time.Duration, onExpire func(battleID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.turnTimers[battleID]; ok {
		existing.stop()
	}
	m.turnTimers[battleID] = newDeadline(d, func() { onExpire(battleID) })
}

// StartBattleTimer schedules onExpire to fire after d for the given battle,
// replacing any battle deadline already scheduled for it. Callers set it once
// at battle creation; replacement keeps a duplicated battle id from leaking a
// live timer.
//
// Precondition: d > 0; onExpire must not be nil.
func (m *Manager) StartBattleTimer(battleID string, d time.Duration, onExpire func(battleID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.battleTimers[battleID]; ok {
		existing.stop()
	}
	m.battleTimers[battleID] = newDeadline(d, func() { onExpire(battleID) })
}

// ClearTurnTimer cancels the battle's turn deadline if one is scheduled.
func (m *Manager) ClearTurnTimer(battleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dl, ok := m.turnTimers[battleID]; ok {
		dl.stop()
		delete(m.turnTimers, battleID)
	}
}

// ClearBattleTimer cancels the battle's overall deadline if one is scheduled.
func (m *Manager) ClearBattleTimer(battleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dl, ok := m.battleTimers[battleID]; ok {
		dl.stop()
		delete(m.battleTimers, battleID)
	}
}

// ClearAllTimers cancels both deadlines for the battle. Must be called when a
// battle finishes so no callback fires against a finished record.
func (m *Manager) ClearAllTimers(battleID string) {
	m.ClearTurnTimer(battleID)
	m.ClearBattleTimer(battleID)
}

// DetermineWinnerByTime picks the winning team when the battle deadline
// elapses with both teams still standing: the team with more living
// characters wins; on a tie the team with the greater summed living HP wins;
// if that also ties, TeamA wins.
func DetermineWinnerByTime(b *battle.Battle) character.Team {
	livingA := b.LivingCharacters(character.TeamA)
	livingB := b.LivingCharacters(character.TeamB)
	if len(livingA) != len(livingB) {
		if len(livingA) > len(livingB) {
			return character.TeamA
		}
		return character.TeamB
	}

	hpA, hpB := 0, 0
	for _, ch := range livingA {
		hpA += ch.CurrentHP
	}
	for _, ch := range livingB {
		hpB += ch.CurrentHP
	}
	if hpB > hpA {
		return character.TeamB
	}
	return character.TeamA
}
