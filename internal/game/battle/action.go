package battle

import "github.com/cory-johannsen/skirmish/internal/game/grid"

// ActionKind identifies what the acting party wants to do.
type ActionKind string

const (
	// ActionMove relocates one character along a traversable path.
	ActionMove ActionKind = "move"
	// ActionAttack resolves one attack between two characters.
	ActionAttack ActionKind = "attack"
	// ActionEndTurn hands the turn to the other team.
	ActionEndTurn ActionKind = "end_turn"
	// ActionEquipItem equips a registered item into a character slot.
	ActionEquipItem ActionKind = "equip_item"
	// ActionSurrender concedes the battle to the opponent.
	ActionSurrender ActionKind = "surrender"
)

// Action is one submitted action payload. Only the fields relevant to Kind
// are read by the orchestrator.
type Action struct {
	Kind ActionKind

	// CharacterID is the acting character for move and equip actions.
	CharacterID string
	// To is the movement destination.
	To grid.Position

	// AttackerID and TargetID identify the combatants for attack actions.
	AttackerID string
	TargetID   string

	// ItemID identifies the item definition for equip actions.
	ItemID string
}

// Result is returned from the orchestrator to the caller and handed to the
// network layer for broadcast.
type Result struct {
	Success bool
	// Error is a human-readable failure reason; empty on success.
	Error string
	// Battle is the mutated battle record; nil on failure.
	Battle *Battle

	// Damage is the damage dealt by an attack action.
	Damage int
	// KilledCharacterID is set when an attack killed its target.
	KilledCharacterID string
	// TurnEnded is set when the action ended the turn, including auto-chained
	// turn ends after a team exhausts its actions.
	TurnEnded bool
}

// Failure builds a failed Result with the given reason.
func Failure(reason string) Result {
	return Result{Success: false, Error: reason}
}
