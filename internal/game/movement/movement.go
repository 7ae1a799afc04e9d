// Package movement implements legality checking and execution of character
// relocation over the battle grid.
package movement

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// Rule violation sentinels returned by CanMove, checked with errors.Is.
var (
	ErrNotYourTurn        = errors.New("not your team's turn")
	ErrInvalidDestination = errors.New("destination outside the grid")
	ErrSamePosition       = errors.New("destination equals current position")
	ErrCellOccupied       = errors.New("destination occupied by a living character")
	ErrNoPath             = errors.New("no traversable path to destination")
	ErrNoMovementPoints   = errors.New("no movement points left")
)

// System validates and executes movement actions.
type System struct{}

// NewSystem returns a movement System.
func NewSystem() *System { return &System{} }

// CanMove checks whether ch may relocate to dest, running each rule in order
// and short-circuiting on the first violation. On success it returns the path
// that ExecuteMove will consume.
//
// Precondition: ch must belong to b and be alive.
// Postcondition: Returns (path, nil) on success; b is never mutated.
func (s *System) CanMove(ch *character.Character, dest grid.Position, b *battle.Battle) ([]grid.Position, error) {
	if ch.Team != b.CurrentTurn {
		return nil, ErrNotYourTurn
	}
	if !b.Grid.Contains(dest) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDestination, dest)
	}
	if dest == ch.Position {
		return nil, ErrSamePosition
	}
	if occ := b.OccupiedBy(dest, ch.ID); occ != nil {
		return nil, fmt.Errorf("%w: %q holds %v", ErrCellOccupied, occ.ID, dest)
	}

	blocked := make(map[grid.Position]bool)
	for _, obs := range b.ObstaclesFor(ch.ID) {
		blocked[obs] = true
	}
	path, ok := FindPath(b.Grid, ch.Position, dest, blocked)
	if !ok {
		return nil, ErrNoPath
	}

	cost := len(path)
	if cost > ch.MovementPointsLeft || cost > b.TeamMovementLeft {
		if ch.MovementPointsLeft == 0 || b.TeamMovementLeft == 0 {
			return nil, ErrNoMovementPoints
		}
		return nil, fmt.Errorf("%w: need %d, have %d (team %d)",
			ErrNoMovementPoints, cost, ch.MovementPointsLeft, b.TeamMovementLeft)
	}
	return path, nil
}

// ExecuteMove relocates ch along path and charges the consumed steps against
// both the character's and the team's movement pools. It never re-validates;
// callers must have obtained path from CanMove against the same state.
//
// Precondition: path was returned by CanMove for (ch, b) with no intervening
// mutation.
// Postcondition: ch.Position is the path's final cell; both pools are
// decremented by len(path) and remain >= 0.
func (s *System) ExecuteMove(ch *character.Character, path []grid.Position, b *battle.Battle) {
	if len(path) == 0 {
		return
	}
	ch.Position = path[len(path)-1]
	ch.MovementPointsLeft -= len(path)
	b.TeamMovementLeft -= len(path)
}

// AvailableMoves enumerates every cell within the character's remaining
// movement radius that CanMove accepts. Presentation helper for the UI and
// bot layers; the engine itself validates per action.
func (s *System) AvailableMoves(ch *character.Character, b *battle.Battle) []grid.Position {
	var moves []grid.Position
	for _, cell := range b.Grid.CellsInRange(ch.Position, ch.MovementPointsLeft) {
		if _, err := s.CanMove(ch, cell, b); err == nil {
			moves = append(moves, cell)
		}
	}
	return moves
}
