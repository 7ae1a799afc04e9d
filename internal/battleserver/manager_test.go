package battleserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/item"
	"github.com/cory-johannsen/skirmish/internal/game/movement"
	"github.com/cory-johannsen/skirmish/internal/game/session"
	"github.com/cory-johannsen/skirmish/internal/game/timer"
	"github.com/cory-johannsen/skirmish/internal/game/turn"
)

const (
	testPerCharMovement = 5
	testTeamMovement    = 15
	testRangedRange     = 4
)

// testTemplates spawn the warriors adjacent across the center line so attack
// paths are exercisable without long marches.
func testTemplates() []*character.Template {
	warrior := &character.Template{
		ID: "warrior", Name: "Warrior", Level: 1, MaxHP: 100, BaseDamage: 20,
		BaseArmor: 5, CombatType: character.Melee,
		UnlockedSlots: []item.Slot{item.SlotWeapon, item.SlotArmor},
	}
	warrior.Spawn.X, warrior.Spawn.Y = 4, 4

	archer := &character.Template{
		ID: "archer", Name: "Archer", Level: 1, MaxHP: 70, BaseDamage: 15,
		BaseArmor: 2, CombatType: character.Ranged,
		UnlockedSlots: []item.Slot{item.SlotWeapon},
	}
	archer.Spawn.X, archer.Spawn.Y = 3, 2

	knight := &character.Template{
		ID: "knight", Name: "Knight", Level: 1, MaxHP: 120, BaseDamage: 15,
		BaseArmor: 8, CombatType: character.Melee,
	}
	knight.Spawn.X, knight.Spawn.Y = 0, 6

	return []*character.Template{archer, knight, warrior}
}

func testManager(t *testing.T, items *item.Registry, turnLimit, battleLimit time.Duration) *Manager {
	t.Helper()
	g := grid.Grid{Width: 10, Height: 10}
	return NewManager(
		zaptest.NewLogger(t),
		session.NewManager(),
		movement.NewSystem(),
		combat.NewSystem(items, testRangedRange),
		turn.NewManager(testPerCharMovement, testTeamMovement),
		timer.NewManager(),
		items,
		testTemplates(),
		g,
		turnLimit,
		battleLimit,
	)
}

func newTestBattle(t *testing.T) (*Manager, *battle.Battle) {
	t.Helper()
	mgr := testManager(t, item.NewRegistry(), time.Hour, time.Hour)
	b, err := mgr.CreateBattle("alice", "bob")
	require.NoError(t, err)
	t.Cleanup(func() { mgr.timers.ClearAllTimers(b.ID) })
	return mgr, b
}

func TestCreateBattle_Roster(t *testing.T) {
	mgr, b := newTestBattle(t)

	assert.Equal(t, battle.StatusActive, b.Status)
	assert.Equal(t, character.TeamA, b.CurrentTurn)
	assert.Equal(t, 1, b.TurnNumber)
	assert.Equal(t, testTeamMovement, b.TeamMovementLeft)
	require.Len(t, b.Characters, 6)
	assert.Len(t, b.LivingCharacters(character.TeamA), 3)
	assert.Len(t, b.LivingCharacters(character.TeamB), 3)

	// Team B spawns mirror team A across the grid width.
	wa := b.CharacterByID("warrior_a")
	wb := b.CharacterByID("warrior_b")
	require.NotNil(t, wa)
	require.NotNil(t, wb)
	assert.Equal(t, grid.Position{X: 4, Y: 4}, wa.Position)
	assert.Equal(t, grid.Position{X: 5, Y: 4}, wb.Position)

	// Team A starts with granted budgets; team B waits for its turn.
	assert.Equal(t, testPerCharMovement, wa.MovementPointsLeft)
	assert.Equal(t, 0, wb.MovementPointsLeft)

	got, ok := mgr.sessions.BattleForPlayer("alice")
	require.True(t, ok)
	assert.Same(t, b, got)
}

func TestCreateBattle_PlayerAlreadyInBattle(t *testing.T) {
	mgr, _ := newTestBattle(t)

	_, err := mgr.CreateBattle("alice", "carol")
	assert.Error(t, err)
}

func TestCreateBattle_InvalidPlayers(t *testing.T) {
	mgr := testManager(t, item.NewRegistry(), time.Hour, time.Hour)

	_, err := mgr.CreateBattle("", "bob")
	assert.Error(t, err)
	_, err = mgr.CreateBattle("alice", "alice")
	assert.Error(t, err)
}

func TestProcessAction_UnknownBattle(t *testing.T) {
	mgr := testManager(t, item.NewRegistry(), time.Hour, time.Hour)

	res := mgr.ProcessAction("missing", battle.ActorPlayer1, battle.Action{Kind: battle.ActionEndTurn})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not found")
}

func TestProcessAction_WrongTurnRejected(t *testing.T) {
	mgr, b := newTestBattle(t)
	before := *b.CharacterByID("warrior_b")

	res := mgr.ProcessAction(b.ID, battle.ActorPlayer2, battle.Action{
		Kind: battle.ActionMove, CharacterID: "warrior_b", To: grid.Position{X: 6, Y: 4},
	})
	assert.False(t, res.Success)
	assert.Equal(t, "not your turn", res.Error)
	assert.Equal(t, before, *b.CharacterByID("warrior_b"))
	assert.Equal(t, testTeamMovement, b.TeamMovementLeft)
}

func TestProcessAction_Move(t *testing.T) {
	mgr, b := newTestBattle(t)

	res := mgr.ProcessAction(b.ID, battle.ActorPlayer1, battle.Action{
		Kind: battle.ActionMove, CharacterID: "warrior_a", To: grid.Position{X: 4, Y: 6},
	})
	require.True(t, res.Success, res.Error)

	wa := b.CharacterByID("warrior_a")
	assert.Equal(t, grid.Position{X: 4, Y: 6}, wa.Position)
	assert.Equal(t, testPerCharMovement-2, wa.MovementPointsLeft)
	assert.Equal(t, testTeamMovement-2, b.TeamMovementLeft)
	assert.False(t, res.TurnEnded)
}

func TestProcessAction_MoveOpponentCharacter(t *testing.T) {
	mgr, b := newTestBattle(t)

	res := mgr.ProcessAction(b.ID, battle.ActorPlayer1, battle.Action{
		Kind: battle.ActionMove, CharacterID: "warrior_b", To: grid.Position{X: 6, Y: 4},
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not yours")
}

func TestProcessAction_DeadCharacterCannotAct(t *testing.T) {
	mgr, b := newTestBattle(t)
	// Killed on the opponent's turn: budgets were granted at turn start and
	// are still on the record, but the corpse must not get to spend them.
	wa := b.CharacterByID("warrior_a")
	wa.ApplyDamage(wa.CurrentHP)
	require.False(t, wa.Alive)

	res := mgr.ProcessAction(b.ID, battle.ActorPlayer1, battle.Action{
		Kind: battle.ActionAttack, AttackerID: "warrior_a", TargetID: "warrior_b",
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "dead")
	assert.Equal(t, 100, b.CharacterByID("warrior_b").CurrentHP)

	res = mgr.ProcessAction(b.ID, battle.ActorPlayer1, battle.Action{
		Kind: battle.ActionMove, CharacterID: "warrior_a", To: grid.Position{X: 4, Y: 6},
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "dead")
	assert.Equal(t, grid.Position{X: 4, Y: 4}, wa.Position)
	assert.Equal(t, testTeamMovement, b.TeamMovementLeft)

	res = mgr.ProcessAction(b.ID, battle.ActorPlayer1, battle.Action{
		Kind: battle.ActionEquipItem, CharacterID: "warrior_a", ItemID: "steel_sword",
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "dead")
}

func TestProcessAction_MoveWithoutPoints(t *testing.T) {
	mgr, b := newTestBattle(t)
	b.CharacterByID("warrior_a").MovementPointsLeft = 0

	res := mgr.ProcessAction(b.ID, battle.ActorPlayer1, battle.Action{
		Kind: battle.ActionMove, CharacterID: "warrior_a", To: grid.Position{X: 4, Y: 5},
	})
	assert.False(t, res.Success)
	assert.Equal(t, movement.ErrNoMovementPoints.Error(), res.Error)
}

func TestProcessAction_Attack(t *testing.T) {
	mgr, b := newTestBattle(t)

	res := mgr.ProcessAction(b.ID, battle.ActorPlayer1, battle.Action{
		Kind: battle.ActionAttack, AttackerID: "warrior_a", TargetID: "warrior_b",
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 15, res.Damage) // 20 - 5
	assert.Empty(t, res.KilledCharacterID)
	assert.Equal(t, 85, b.CharacterByID("warrior_b").CurrentHP)
	assert.True(t, b.CharacterByID("warrior_a").HasAttacked)
}

func TestProcessAction_ArcherRangedAttack(t *testing.T) {
	mgr, b := newTestBattle(t)
	// Distance 3 with clear line of sight.
	b.CharacterByID("archer_a").Position = grid.Position{X: 4, Y: 0}
	b.CharacterByID("warrior_b").Position = grid.Position{X: 7, Y: 0}

	res := mgr.ProcessAction(b.ID, battle.ActorPlayer1, battle.Action{
		Kind: battle.ActionAttack, AttackerID: "archer_a", TargetID: "warrior_b",
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 10, res.Damage) // max(1, 15-5)
	assert.Equal(t, 90, b.CharacterByID("warrior_b").CurrentHP)
}

func TestProcessAction_MeleeAtDistanceTwo(t *testing.T) {
	mgr, b := newTestBattle(t)
	b.CharacterByID("warrior_b").Position = grid.Position{X: 6, Y: 4}

	res := mgr.ProcessAction(b.ID, battle.ActorPlayer1, battle.Action{
		Kind: battle.ActionAttack, AttackerID: "warrior_a", TargetID: "warrior_b",
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, combat.ErrOutOfMeleeRange.Error())
}

func TestProcessAction_AttackEndsBattle(t *testing.T) {
	mgr, b := newTestBattle(t)
	for _, ch := range b.LivingCharacters(character.TeamB) {
		if ch.ID != "warrior_b" {
			ch.Alive = false
		}
	}
	b.CharacterByID("warrior_b").CurrentHP = 1

	res := mgr.ProcessAction(b.ID, battle.ActorPlayer1, battle.Action{
		Kind: battle.ActionAttack, AttackerID: "warrior_a", TargetID: "warrior_b",
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "warrior_b", res.KilledCharacterID)
	assert.Equal(t, battle.StatusFinished, b.Status)
	assert.Equal(t, "alice", b.Winner)

	// The finished battle is unregistered; further actions bounce.
	_, ok := mgr.sessions.Battle(b.ID)
	assert.False(t, ok)
	res = mgr.ProcessAction(b.ID, battle.ActorPlayer2, battle.Action{Kind: battle.ActionEndTurn})
	assert.False(t, res.Success)
}

func TestProcessAction_EndTurnAlternates(t *testing.T) {
	mgr, b := newTestBattle(t)

	res := mgr.ProcessAction(b.ID, battle.ActorPlayer1, battle.Action{Kind: battle.ActionEndTurn})
	require.True(t, res.Success, res.Error)
	assert.True(t, res.TurnEnded)
	assert.Equal(t, character.TeamB, b.CurrentTurn)
	assert.Equal(t, 1, b.TurnNumber)

	res = mgr.ProcessAction(b.ID, battle.ActorPlayer2, battle.Action{Kind: battle.ActionEndTurn})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, character.TeamA, b.CurrentTurn)
	assert.Equal(t, 2, b.TurnNumber)
}

func TestProcessAction_SystemMayEndAnyTurn(t *testing.T) {
	mgr, b := newTestBattle(t)

	res := mgr.ProcessAction(b.ID, battle.ActorSystem, battle.Action{Kind: battle.ActionEndTurn})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, character.TeamB, b.CurrentTurn)
}

func TestProcessAction_AutoEndTurnAfterLastAction(t *testing.T) {
	mgr, b := newTestBattle(t)
	// Leave the adjacent warrior's attack as team A's only remaining action.
	for _, ch := range b.LivingCharacters(character.TeamA) {
		ch.MovementPointsLeft = 0
		ch.HasAttacked = ch.ID != "warrior_a"
	}

	res := mgr.ProcessAction(b.ID, battle.ActorPlayer1, battle.Action{
		Kind: battle.ActionAttack, AttackerID: "warrior_a", TargetID: "warrior_b",
	})
	require.True(t, res.Success, res.Error)
	assert.True(t, res.TurnEnded)
	assert.Equal(t, character.TeamB, b.CurrentTurn)
	// The new team's budgets are granted by the chained turn start.
	assert.Equal(t, testTeamMovement, b.TeamMovementLeft)
}

func TestProcessAction_EquipItem(t *testing.T) {
	items := item.NewRegistry()
	require.NoError(t, items.Register(&item.Def{ID: "steel_sword", Name: "Steel Sword", Slot: item.SlotWeapon, DamageBonus: 5}))
	mgr := testManager(t, items, time.Hour, time.Hour)
	b, err := mgr.CreateBattle("alice", "bob")
	require.NoError(t, err)
	t.Cleanup(func() { mgr.timers.ClearAllTimers(b.ID) })

	res := mgr.ProcessAction(b.ID, battle.ActorPlayer1, battle.Action{
		Kind: battle.ActionEquipItem, CharacterID: "warrior_a", ItemID: "steel_sword",
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "steel_sword", b.CharacterByID("warrior_a").Equipped[item.SlotWeapon])

	// The bonus shows up in the next attack.
	res = mgr.ProcessAction(b.ID, battle.ActorPlayer1, battle.Action{
		Kind: battle.ActionAttack, AttackerID: "warrior_a", TargetID: "warrior_b",
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 20, res.Damage) // (20+5) - 5
}

func TestProcessAction_EquipLockedSlot(t *testing.T) {
	items := item.NewRegistry()
	require.NoError(t, items.Register(&item.Def{ID: "plate", Name: "Plate", Slot: item.SlotArmor, ArmorBonus: 3}))
	mgr := testManager(t, items, time.Hour, time.Hour)
	b, err := mgr.CreateBattle("alice", "bob")
	require.NoError(t, err)
	t.Cleanup(func() { mgr.timers.ClearAllTimers(b.ID) })

	// The knight template unlocks no slots.
	res := mgr.ProcessAction(b.ID, battle.ActorPlayer1, battle.Action{
		Kind: battle.ActionEquipItem, CharacterID: "knight_a", ItemID: "plate",
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "locked")
}

func TestProcessAction_Surrender(t *testing.T) {
	mgr, b := newTestBattle(t)

	res := mgr.ProcessAction(b.ID, battle.ActorPlayer1, battle.Action{Kind: battle.ActionSurrender})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, battle.StatusFinished, b.Status)
	assert.Equal(t, "bob", b.Winner)
}

func TestTurnDeadlineForcesEndTurn(t *testing.T) {
	mgr := testManager(t, item.NewRegistry(), 30*time.Millisecond, time.Hour)
	b, err := mgr.CreateBattle("alice", "bob")
	require.NoError(t, err)
	t.Cleanup(func() { mgr.timers.ClearAllTimers(b.ID) })

	assert.Eventually(t, func() bool {
		info, err := mgr.TurnInfo(b.ID)
		return err == nil && info.ActivePlayer == "bob"
	}, time.Second, 10*time.Millisecond)
}

func TestBattleDeadlineDeterminesWinner(t *testing.T) {
	mgr := testManager(t, item.NewRegistry(), time.Hour, 50*time.Millisecond)
	b, err := mgr.CreateBattle("alice", "bob")
	require.NoError(t, err)

	// Team B loses a character before the clock runs out.
	mu := mgr.locks.forBattle(b.ID)
	mu.Lock()
	b.CharacterByID("archer_b").ApplyDamage(1000)
	mu.Unlock()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return b.Status == battle.StatusFinished
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "alice", b.Winner)
}

func TestAvailableActions(t *testing.T) {
	mgr, b := newTestBattle(t)

	opts, err := mgr.AvailableActions(b.ID, "warrior_a")
	require.NoError(t, err)
	assert.True(t, opts.CanAttack)
	assert.NotEmpty(t, opts.Moves)
	assert.Equal(t, []string{"warrior_b"}, opts.Targets)

	// Off-turn characters report nothing.
	opts, err = mgr.AvailableActions(b.ID, "warrior_b")
	require.NoError(t, err)
	assert.False(t, opts.CanAttack)
	assert.Empty(t, opts.Moves)
	assert.Empty(t, opts.Targets)
}

func TestTurnInfo(t *testing.T) {
	mgr, b := newTestBattle(t)

	info, err := mgr.TurnInfo(b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, info.BattleID)
	assert.Equal(t, "alice", info.ActivePlayer)
	assert.Equal(t, 1, info.TurnNumber)
	assert.Equal(t, testTeamMovement, info.TeamMovementLeft)
	assert.Greater(t, info.TurnTimeLeft, time.Duration(0))
}
