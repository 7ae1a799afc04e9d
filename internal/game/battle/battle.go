// Package battle defines the authoritative battle state record shared by the
// movement, combat, turn, and timer systems, plus the action and result types
// exchanged with the session layer.
package battle

import (
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// Status is the lifecycle state of a battle. The session layer may hold a
// battle in a pre-core "waiting" state; once the core takes ownership the
// battle is active until it finishes.
type Status string

const (
	// StatusActive marks a battle currently accepting actions.
	StatusActive Status = "active"
	// StatusFinished marks a resolved battle retained briefly for late reads.
	StatusFinished Status = "finished"
)

// Actor identifies who submitted an action. The system actor is the synthetic
// identity used by expired timers; it bypasses turn-ownership checks.
type Actor int

const (
	// ActorPlayer1 is the player controlling team A.
	ActorPlayer1 Actor = iota
	// ActorPlayer2 is the player controlling team B.
	ActorPlayer2
	// ActorSystem is the synthetic timer-driven actor.
	ActorSystem
)

// String returns a log-friendly actor label.
func (a Actor) String() string {
	switch a {
	case ActorPlayer1:
		return "player1"
	case ActorPlayer2:
		return "player2"
	case ActorSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Battle is the single valid copy of one match's state. It is mutated in
// place by every accepted action; all mutation is serialized by the
// orchestrator owning the battle.
type Battle struct {
	ID      string
	Player1 string
	Player2 string

	Grid       grid.Grid
	Characters []*character.Character

	CurrentTurn character.Team
	TurnNumber  int
	// TeamMovementLeft is the shared movement pool for the active team.
	TeamMovementLeft int

	Status Status
	// Winner is the winning player's id; empty while active.
	Winner string

	TurnStartedAt  time.Time
	TurnTimeLimit  time.Duration
	StartedAt      time.Time
	BattleTimeLimit time.Duration
	UpdatedAt      time.Time
}

// CharacterByID returns the character with the given id, or nil.
func (b *Battle) CharacterByID(id string) *character.Character {
	for _, c := range b.Characters {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// TeamOf resolves a player id to its team.
//
// Postcondition: ok is false when playerID matches neither player.
func (b *Battle) TeamOf(playerID string) (character.Team, bool) {
	switch playerID {
	case b.Player1:
		return character.TeamA, true
	case b.Player2:
		return character.TeamB, true
	default:
		return character.TeamA, false
	}
}

// PlayerFor returns the id of the player controlling team.
func (b *Battle) PlayerFor(team character.Team) string {
	if team == character.TeamA {
		return b.Player1
	}
	return b.Player2
}

// ActorFor returns the tagged actor identity for a team.
func ActorFor(team character.Team) Actor {
	if team == character.TeamA {
		return ActorPlayer1
	}
	return ActorPlayer2
}

// TeamFor resolves a non-system actor to its team.
//
// Postcondition: ok is false for ActorSystem and unknown actors.
func TeamFor(a Actor) (character.Team, bool) {
	switch a {
	case ActorPlayer1:
		return character.TeamA, true
	case ActorPlayer2:
		return character.TeamB, true
	default:
		return character.TeamA, false
	}
}

// LivingCharacters returns the living characters of team.
func (b *Battle) LivingCharacters(team character.Team) []*character.Character {
	var alive []*character.Character
	for _, c := range b.Characters {
		if c.Team == team && c.Alive {
			alive = append(alive, c)
		}
	}
	return alive
}

// OccupiedBy returns the living character standing on pos, skipping any
// character whose id is in exclude. Returns nil when the cell is free.
func (b *Battle) OccupiedBy(pos grid.Position, exclude ...string) *character.Character {
	for _, c := range b.Characters {
		if !c.Alive || c.Position != pos {
			continue
		}
		skipped := false
		for _, ex := range exclude {
			if c.ID == ex {
				skipped = true
				break
			}
		}
		if !skipped {
			return c
		}
	}
	return nil
}

// ObstaclesFor returns the positions of all living characters except those
// whose ids are listed in exclude. Used for path blocking and line of sight.
func (b *Battle) ObstaclesFor(exclude ...string) []grid.Position {
	var obstacles []grid.Position
	for _, c := range b.Characters {
		if !c.Alive {
			continue
		}
		skipped := false
		for _, ex := range exclude {
			if c.ID == ex {
				skipped = true
				break
			}
		}
		if !skipped {
			obstacles = append(obstacles, c.Position)
		}
	}
	return obstacles
}

// Touch stamps UpdatedAt.
func (b *Battle) Touch(now time.Time) {
	b.UpdatedAt = now
}
