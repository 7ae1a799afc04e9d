// Package character defines the battle character model and the YAML archetype
// templates characters are instantiated from.
package character

import (
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/item"
)

// CombatType distinguishes melee from ranged attackers.
type CombatType string

const (
	// Melee characters attack adjacent cells only.
	Melee CombatType = "melee"
	// Ranged characters attack at a configured distance with line of sight.
	Ranged CombatType = "ranged"
)

// Character is one combatant in a battle. Invariants: CurrentHP in [0, MaxHP];
// Alive iff CurrentHP > 0; MovementPointsLeft >= 0.
type Character struct {
	ID         string
	Name       string
	Archetype  string
	Level      int
	Experience int

	Position   grid.Position
	MaxHP      int
	CurrentHP  int
	BaseDamage int
	BaseArmor  int
	CombatType CombatType

	// Equipped maps each slot to the equipped item's definition ID, or absent.
	Equipped map[item.Slot]string
	// UnlockedSlots is the set of slots this character may equip into.
	UnlockedSlots map[item.Slot]bool

	Team  Team
	Alive bool

	// HasAttacked resets at the start of each own-team turn.
	HasAttacked bool
	// MovementPointsLeft resets to the per-turn budget at the start of each
	// own-team turn and is decremented by executed moves.
	MovementPointsLeft int
}

// Team identifies one of the two sides in a battle.
type Team int

const (
	// TeamA acts first and owns odd half-turns; the turn number increments
	// each time control returns to it.
	TeamA Team = iota
	// TeamB is the second side.
	TeamB
)

// Other returns the opposing team.
func (t Team) Other() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

// String returns "team_a" or "team_b".
func (t Team) String() string {
	if t == TeamA {
		return "team_a"
	}
	return "team_b"
}

// ApplyDamage reduces CurrentHP by amount, flooring at zero, and clears Alive
// when HP reaches zero. Dead characters stay in the battle record for result
// reporting; Alive=false marks removal from play.
//
// Precondition: amount >= 0.
// Postcondition: CurrentHP >= 0; Alive iff CurrentHP > 0.
func (c *Character) ApplyDamage(amount int) {
	c.CurrentHP -= amount
	if c.CurrentHP <= 0 {
		c.CurrentHP = 0
		c.Alive = false
	}
}

// WeaponBonus sums the damage bonuses of all equipped items resolved via reg.
// Unknown item ids contribute nothing.
func (c *Character) WeaponBonus(reg *item.Registry) int {
	total := 0
	for _, id := range c.Equipped {
		if def, ok := reg.Item(id); ok {
			total += def.DamageBonus
		}
	}
	return total
}

// ArmorBonus sums the armor bonuses of all equipped items resolved via reg.
func (c *Character) ArmorBonus(reg *item.Registry) int {
	total := 0
	for _, id := range c.Equipped {
		if def, ok := reg.Item(id); ok {
			total += def.ArmorBonus
		}
	}
	return total
}

// SlotUnlocked reports whether the character may equip into slot.
func (c *Character) SlotUnlocked(slot item.Slot) bool {
	return c.UnlockedSlots[slot]
}
