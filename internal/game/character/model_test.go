package character_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/item"
)

func TestCharacter_ApplyDamage(t *testing.T) {
	c := &character.Character{MaxHP: 20, CurrentHP: 20, Alive: true}

	c.ApplyDamage(5)
	assert.Equal(t, 15, c.CurrentHP)
	assert.True(t, c.Alive)

	c.ApplyDamage(15)
	assert.Equal(t, 0, c.CurrentHP)
	assert.False(t, c.Alive)
}

func TestCharacter_ApplyDamage_FloorsAtZero(t *testing.T) {
	c := &character.Character{MaxHP: 10, CurrentHP: 3, Alive: true}
	c.ApplyDamage(100)
	assert.Equal(t, 0, c.CurrentHP)
	assert.False(t, c.Alive)
}

func TestCharacter_AliveMatchesHP(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxHP := rapid.IntRange(1, 200).Draw(rt, "maxHP")
		c := &character.Character{MaxHP: maxHP, CurrentHP: maxHP, Alive: true}
		for i := 0; i < rapid.IntRange(0, 10).Draw(rt, "hits"); i++ {
			c.ApplyDamage(rapid.IntRange(0, 60).Draw(rt, "dmg"))
		}
		if c.CurrentHP < 0 || c.CurrentHP > c.MaxHP {
			rt.Errorf("HP %d outside [0, %d]", c.CurrentHP, c.MaxHP)
		}
		if c.Alive != (c.CurrentHP > 0) {
			rt.Errorf("Alive=%v with HP=%d", c.Alive, c.CurrentHP)
		}
	})
}

func TestCharacter_EquipmentBonuses(t *testing.T) {
	reg := item.NewRegistry()
	require.NoError(t, reg.Register(&item.Def{ID: "sword", Name: "Sword", Slot: item.SlotWeapon, DamageBonus: 5}))
	require.NoError(t, reg.Register(&item.Def{ID: "plate", Name: "Plate", Slot: item.SlotArmor, ArmorBonus: 3}))
	require.NoError(t, reg.Register(&item.Def{ID: "ring", Name: "Ring", Slot: item.SlotAccessory1, DamageBonus: 1, ArmorBonus: 1}))

	c := &character.Character{
		Equipped: map[item.Slot]string{
			item.SlotWeapon:     "sword",
			item.SlotArmor:      "plate",
			item.SlotAccessory1: "ring",
		},
	}
	assert.Equal(t, 6, c.WeaponBonus(reg))
	assert.Equal(t, 4, c.ArmorBonus(reg))
}

func TestCharacter_EquipmentBonuses_UnknownItemIgnored(t *testing.T) {
	reg := item.NewRegistry()
	c := &character.Character{Equipped: map[item.Slot]string{item.SlotWeapon: "ghost"}}
	assert.Equal(t, 0, c.WeaponBonus(reg))
	assert.Equal(t, 0, c.ArmorBonus(reg))
}

func TestTeam_Other(t *testing.T) {
	assert.Equal(t, character.TeamB, character.TeamA.Other())
	assert.Equal(t, character.TeamA, character.TeamB.Other())
	assert.Equal(t, "team_a", character.TeamA.String())
	assert.Equal(t, "team_b", character.TeamB.String())
}
