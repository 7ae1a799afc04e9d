package battleserver

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// CharacterOptions summarises what one character can still do this turn.
type CharacterOptions struct {
	CharacterID string
	// Moves are the reachable destination cells within the remaining budgets.
	Moves []grid.Position
	// Targets are the ids of enemies this character can attack right now.
	Targets []string
	// CanAttack is false once the character has used its attack this turn.
	CanAttack bool
}

// TurnInfo is a read-only snapshot of the turn state for presentation.
type TurnInfo struct {
	BattleID         string
	ActivePlayer     string
	TurnNumber       int
	TeamMovementLeft int
	// TurnTimeLeft is the time remaining before the turn is force-ended.
	TurnTimeLeft time.Duration
}

// AvailableActions reports the legal options for one character. Returns an
// error if the battle or character does not exist; a finished battle yields
// empty options.
func (m *Manager) AvailableActions(battleID, characterID string) (CharacterOptions, error) {
	b, ok := m.sessions.Battle(battleID)
	if !ok {
		return CharacterOptions{}, fmt.Errorf("battle %q not found", battleID)
	}

	mu := m.locks.forBattle(battleID)
	mu.Lock()
	defer mu.Unlock()

	ch := b.CharacterByID(characterID)
	if ch == nil {
		return CharacterOptions{}, fmt.Errorf("character %q not found", characterID)
	}

	opts := CharacterOptions{CharacterID: characterID}
	if b.Status != battle.StatusActive || !ch.Alive || ch.Team != b.CurrentTurn {
		return opts, nil
	}

	opts.Moves = m.movement.AvailableMoves(ch, b)
	opts.CanAttack = !ch.HasAttacked
	for _, target := range m.combat.AvailableTargets(ch, b) {
		opts.Targets = append(opts.Targets, target.ID)
	}
	return opts, nil
}

// TurnInfo returns a snapshot of the battle's turn state.
func (m *Manager) TurnInfo(battleID string) (TurnInfo, error) {
	b, ok := m.sessions.Battle(battleID)
	if !ok {
		return TurnInfo{}, fmt.Errorf("battle %q not found", battleID)
	}

	mu := m.locks.forBattle(battleID)
	mu.Lock()
	defer mu.Unlock()

	left := b.TurnTimeLimit - time.Since(b.TurnStartedAt)
	if left < 0 {
		left = 0
	}
	return TurnInfo{
		BattleID:         b.ID,
		ActivePlayer:     b.PlayerFor(b.CurrentTurn),
		TurnNumber:       b.TurnNumber,
		TeamMovementLeft: b.TeamMovementLeft,
		TurnTimeLeft:     left,
	}, nil
}
