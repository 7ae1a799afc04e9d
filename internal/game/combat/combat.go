// Package combat implements attack legality and damage resolution for the
// battle engine.
package combat

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/item"
)

// Rule violation sentinels returned by CanAttack, checked with errors.Is.
var (
	ErrAlreadyAttacked = errors.New("character has already attacked this turn")
	ErrTargetDead      = errors.New("target is not alive")
	ErrFriendlyFire    = errors.New("target is on the attacker's team")
	ErrOutOfMeleeRange = errors.New("out of melee range")
	ErrOutOfRange      = errors.New("out of attack range")
	ErrNoLineOfSight   = errors.New("no line of sight to target")
)

// AttackResult reports the outcome of one executed attack.
type AttackResult struct {
	AttackerID string
	TargetID   string
	Damage     int
	// Killed is true when the attack reduced the target to 0 HP.
	Killed bool
}

// System validates and resolves attacks.
type System struct {
	items *item.Registry
	// rangedRange is the maximum grid distance for ranged attacks.
	rangedRange int
}

// NewSystem creates a combat System.
//
// Precondition: items must be non-nil; rangedRange >= 1.
func NewSystem(items *item.Registry, rangedRange int) *System {
	return &System{items: items, rangedRange: rangedRange}
}

// CanAttack checks whether attacker may attack target, short-circuiting on
// the first violated rule. Ranged attacks additionally require an
// unobstructed line of sight; every other living character blocks it.
//
// Postcondition: Returns nil iff the attack is legal; b is never mutated.
func (s *System) CanAttack(attacker, target *character.Character, b *battle.Battle) error {
	if attacker.HasAttacked {
		return ErrAlreadyAttacked
	}
	if !target.Alive {
		return ErrTargetDead
	}
	if target.Team == attacker.Team {
		return ErrFriendlyFire
	}

	dist := grid.Distance(attacker.Position, target.Position)
	switch attacker.CombatType {
	case character.Melee:
		if dist > 1 {
			return fmt.Errorf("%w: distance %d", ErrOutOfMeleeRange, dist)
		}
	case character.Ranged:
		if dist > s.rangedRange {
			return fmt.Errorf("%w: distance %d exceeds %d", ErrOutOfRange, dist, s.rangedRange)
		}
		obstacles := b.ObstaclesFor(attacker.ID, target.ID)
		if !grid.LineOfSight(attacker.Position, target.Position, obstacles) {
			return ErrNoLineOfSight
		}
	}
	return nil
}

// ExecuteAttack resolves the attack: damage is the attacker's base damage
// plus weapon bonuses minus the target's base armor plus armor bonuses,
// floored at 1. The target's HP floors at 0 and death marks it out of play.
// The attacker spends its one attack for the turn. Callers must have already
// passed CanAttack.
//
// Postcondition: result.Damage >= 1; attacker.HasAttacked is true.
func (s *System) ExecuteAttack(attacker, target *character.Character) AttackResult {
	damage := attacker.BaseDamage + attacker.WeaponBonus(s.items) -
		(target.BaseArmor + target.ArmorBonus(s.items))
	if damage < 1 {
		damage = 1
	}

	target.ApplyDamage(damage)
	attacker.HasAttacked = true

	return AttackResult{
		AttackerID: attacker.ID,
		TargetID:   target.ID,
		Damage:     damage,
		Killed:     !target.Alive,
	}
}

// CheckBattleEnd reports whether one team has been eliminated and, if so, the
// winning player's id. Evaluated by the orchestrator after every successful
// attack.
//
// Postcondition: ended is true iff some team has zero living characters;
// winner is the surviving team's player id.
func (s *System) CheckBattleEnd(b *battle.Battle) (ended bool, winner string) {
	if len(b.LivingCharacters(character.TeamA)) == 0 {
		return true, b.PlayerFor(character.TeamB)
	}
	if len(b.LivingCharacters(character.TeamB)) == 0 {
		return true, b.PlayerFor(character.TeamA)
	}
	return false, ""
}

// AvailableTargets returns the living enemies attacker could legally attack
// right now. Presentation helper for the UI and bot layers.
func (s *System) AvailableTargets(attacker *character.Character, b *battle.Battle) []*character.Character {
	var targets []*character.Character
	for _, c := range b.LivingCharacters(attacker.Team.Other()) {
		if err := s.CanAttack(attacker, c, b); err == nil {
			targets = append(targets, c)
		}
	}
	return targets
}
