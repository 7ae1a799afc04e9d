// Package turn manages the alternation of team turns within a battle and the
// per-turn action budgets that come with them.
package turn

import (
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/character"
)

// Manager drives the turn cycle for battles. It is stateless beyond its
// configured budgets; all turn state lives on the battle record.
type Manager struct {
	perCharacterMovement int
	teamMovement         int
}

// NewManager constructs a Manager with the given per-character and team-level
// movement budgets.
//
// Precondition: perCharacterMovement > 0 and teamMovement > 0.
func NewManager(perCharacterMovement, teamMovement int) *Manager {
	return &Manager{
		perCharacterMovement: perCharacterMovement,
		teamMovement:         teamMovement,
	}
}

// StartTurn begins a turn for the battle's currently active team.
//
// Postcondition: every living character of the active team has HasAttacked
// cleared and MovementPointsLeft restored to the full budget, the team
// movement pool is reset, and TurnStartedAt is stamped with now.
func (m *Manager) StartTurn(b *battle.Battle, now time.Time) {
	for _, ch := range b.LivingCharacters(b.CurrentTurn) {
		ch.HasAttacked = false
		ch.MovementPointsLeft = m.perCharacterMovement
	}
	b.TeamMovementLeft = m.teamMovement
	b.TurnStartedAt = now
}

// EndTurn hands control to the other team and starts its turn.
//
// Postcondition: CurrentTurn is flipped; TurnNumber is incremented exactly
// when control returns to TeamA, so it counts full cycles rather than
// half-turns.
func (m *Manager) EndTurn(b *battle.Battle, now time.Time) {
	b.CurrentTurn = b.CurrentTurn.Other()
	if b.CurrentTurn == character.TeamA {
		b.TurnNumber++
	}
	m.StartTurn(b, now)
}

// CanAct reports whether the actor is allowed to act on the battle right now.
// The system actor is always allowed; players may act only on their own turn.
func (m *Manager) CanAct(actor battle.Actor, b *battle.Battle) bool {
	if actor == battle.ActorSystem {
		return true
	}
	team, ok := battle.TeamFor(actor)
	if !ok {
		return false
	}
	return team == b.CurrentTurn
}

// HasActionsLeft reports whether any living character of the active team can
// still do something this turn: movement points remaining (with team pool to
// spend them from) or an attack not yet used.
func (m *Manager) HasActionsLeft(b *battle.Battle) bool {
	for _, ch := range b.LivingCharacters(b.CurrentTurn) {
		if !ch.HasAttacked {
			return true
		}
		if ch.MovementPointsLeft > 0 && b.TeamMovementLeft > 0 {
			return true
		}
	}
	return false
}

// AutoEndTurnIfNeeded ends the active team's turn when it has no actions
// left. Returns true if the turn was ended.
func (m *Manager) AutoEndTurnIfNeeded(b *battle.Battle, now time.Time) bool {
	if m.HasActionsLeft(b) {
		return false
	}
	m.EndTurn(b, now)
	return true
}
