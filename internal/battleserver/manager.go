// Package battleserver orchestrates battles: it owns battle creation, the
// single action entry point, and the timer callbacks that act on expired
// deadlines. All battle mutation flows through here.
package battleserver

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

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

// Manager is the battle orchestrator.
//
// battleMu (per battle id, see locks.go) serialises all mutation of a battle
// record so that player calls, timer callbacks, and bot drivers cannot race on
// shared state. The movement, combat, and turn systems are pure rule engines;
// only the Manager mutates through them.
type Manager struct {
	logger    *zap.Logger
	sessions  *session.Manager
	movement  *movement.System
	combat    *combat.System
	turns     *turn.Manager
	timers    *timer.Manager
	items     *item.Registry
	templates []*character.Template

	grid            grid.Grid
	turnTimeLimit   time.Duration
	battleTimeLimit time.Duration

	locks *battleLocks
}

// NewManager creates a Manager wired to its rule systems.
//
// Precondition: all pointer arguments must be non-nil; templates must be the
// per-team roster (instantiated once per team at battle creation); both time
// limits must be > 0.
func NewManager(
	logger *zap.Logger,
	sessions *session.Manager,
	movementSys *movement.System,
	combatSys *combat.System,
	turns *turn.Manager,
	timers *timer.Manager,
	items *item.Registry,
	templates []*character.Template,
	g grid.Grid,
	turnTimeLimit time.Duration,
	battleTimeLimit time.Duration,
) *Manager {
	return &Manager{
		logger:          logger,
		sessions:        sessions,
		movement:        movementSys,
		combat:          combatSys,
		turns:           turns,
		timers:          timers,
		items:           items,
		templates:       templates,
		grid:            g,
		turnTimeLimit:   turnTimeLimit,
		battleTimeLimit: battleTimeLimit,
		locks:           newBattleLocks(),
	}
}

// CreateBattle starts a new battle between two players, instantiating the
// archetype roster for each team at mirrored spawns and arming both deadlines.
//
// Precondition: player1 and player2 must be distinct non-empty ids.
// Postcondition: Returns the registered battle with team A to act, or an error
// if either player is already in a battle.
func (m *Manager) CreateBattle(player1, player2 string) (*battle.Battle, error) {
	if player1 == "" || player2 == "" || player1 == player2 {
		return nil, fmt.Errorf("creating battle: players must be two distinct non-empty ids")
	}

	now := time.Now()
	b := &battle.Battle{
		ID:              uuid.NewString(),
		Player1:         player1,
		Player2:         player2,
		Grid:            m.grid,
		CurrentTurn:     character.TeamA,
		TurnNumber:      1,
		Status:          battle.StatusActive,
		TurnTimeLimit:   m.turnTimeLimit,
		StartedAt:       now,
		BattleTimeLimit: m.battleTimeLimit,
		UpdatedAt:       now,
	}

	for _, t := range m.templates {
		b.Characters = append(b.Characters,
			t.Instantiate(fmt.Sprintf("%s_a", t.ID), character.TeamA, m.grid),
			t.Instantiate(fmt.Sprintf("%s_b", t.ID), character.TeamB, m.grid),
		)
	}

	m.turns.StartTurn(b, now)

	if err := m.sessions.Add(b); err != nil {
		return nil, fmt.Errorf("creating battle: %w", err)
	}

	m.timers.StartTurnTimer(b.ID, m.turnTimeLimit, m.onTurnExpired)
	m.timers.StartBattleTimer(b.ID, m.battleTimeLimit, m.onBattleExpired)

	m.logger.Info("battle created",
		zap.String("battle_id", b.ID),
		zap.String("player1", player1),
		zap.String("player2", player2),
		zap.Int("characters", len(b.Characters)))

	return b, nil
}

// ProcessAction is the single entry point for all battle mutation. It resolves
// the battle, serialises on its lock, gates on turn ownership, dispatches the
// action, and runs the auto-end-turn and battle-end checks afterwards.
//
// Postcondition: Returns a Result; a panic in dispatch is recovered into a
// failed Result rather than propagating into the caller or timer goroutine.
func (m *Manager) ProcessAction(battleID string, actor battle.Actor, action battle.Action) (result battle.Result) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("panic processing action",
				zap.String("battle_id", battleID),
				zap.String("actor", actor.String()),
				zap.String("kind", string(action.Kind)),
				zap.Any("panic", r))
			result = battle.Failure("internal error processing action")
		}
	}()

	b, ok := m.sessions.Battle(battleID)
	if !ok {
		return battle.Failure(fmt.Sprintf("battle %q not found", battleID))
	}

	mu := m.locks.forBattle(battleID)
	mu.Lock()
	defer mu.Unlock()

	if b.Status != battle.StatusActive {
		return battle.Failure("battle is already finished")
	}
	if !m.turns.CanAct(actor, b) {
		return battle.Failure("not your turn")
	}

	now := time.Now()
	switch action.Kind {
	case battle.ActionMove:
		result = m.handleMove(b, actor, action)
	case battle.ActionAttack:
		result = m.handleAttack(b, actor, action)
	case battle.ActionEndTurn:
		m.turns.EndTurn(b, now)
		m.timers.StartTurnTimer(b.ID, m.turnTimeLimit, m.onTurnExpired)
		result = battle.Result{Success: true, Battle: b, TurnEnded: true}
	case battle.ActionEquipItem:
		result = m.handleEquip(b, actor, action)
	case battle.ActionSurrender:
		result = m.handleSurrender(b, actor)
	default:
		return battle.Failure(fmt.Sprintf("unknown action kind %q", action.Kind))
	}

	if !result.Success {
		return result
	}
	b.Touch(now)

	// One authoritative check after every accepted action: when the active
	// team has nothing left to do, its turn ends here and nowhere else.
	if b.Status == battle.StatusActive && !result.TurnEnded {
		if m.turns.AutoEndTurnIfNeeded(b, now) {
			m.timers.StartTurnTimer(b.ID, m.turnTimeLimit, m.onTurnExpired)
			result.TurnEnded = true
		}
	}

	return result
}

// ownCharacter resolves the action's character and checks the actor controls
// it and the character is still in play. The system actor controls no
// characters. StartTurn skips dead characters when restoring budgets, so a
// character killed mid-cycle may carry stale movement points and an unspent
// attack; rejecting here keeps those from ever being used.
func (m *Manager) ownCharacter(b *battle.Battle, actor battle.Actor, characterID string) (*character.Character, error) {
	team, ok := battle.TeamFor(actor)
	if !ok {
		return nil, fmt.Errorf("actor %q controls no characters", actor)
	}
	ch := b.CharacterByID(characterID)
	if ch == nil {
		return nil, fmt.Errorf("character %q not found", characterID)
	}
	if ch.Team != team {
		return nil, fmt.Errorf("character %q is not yours", characterID)
	}
	if !ch.Alive {
		return nil, fmt.Errorf("character %q is dead", characterID)
	}
	return ch, nil
}

func (m *Manager) handleMove(b *battle.Battle, actor battle.Actor, action battle.Action) battle.Result {
	ch, err := m.ownCharacter(b, actor, action.CharacterID)
	if err != nil {
		return battle.Failure(err.Error())
	}

	path, err := m.movement.CanMove(ch, action.To, b)
	if err != nil {
		return battle.Failure(err.Error())
	}
	m.movement.ExecuteMove(ch, path, b)

	m.logger.Debug("character moved",
		zap.String("battle_id", b.ID),
		zap.String("character_id", ch.ID),
		zap.Int("cost", len(path)),
		zap.Int("x", ch.Position.X),
		zap.Int("y", ch.Position.Y))

	return battle.Result{Success: true, Battle: b}
}

func (m *Manager) handleAttack(b *battle.Battle, actor battle.Actor, action battle.Action) battle.Result {
	attacker, err := m.ownCharacter(b, actor, action.AttackerID)
	if err != nil {
		return battle.Failure(err.Error())
	}
	target := b.CharacterByID(action.TargetID)
	if target == nil {
		return battle.Failure(fmt.Sprintf("character %q not found", action.TargetID))
	}

	if err := m.combat.CanAttack(attacker, target, b); err != nil {
		return battle.Failure(err.Error())
	}
	res := m.combat.ExecuteAttack(attacker, target)

	m.logger.Debug("attack resolved",
		zap.String("battle_id", b.ID),
		zap.String("attacker_id", attacker.ID),
		zap.String("target_id", target.ID),
		zap.Int("damage", res.Damage),
		zap.Bool("killed", res.Killed))

	result := battle.Result{Success: true, Battle: b, Damage: res.Damage}
	if res.Killed {
		result.KilledCharacterID = target.ID
	}

	if ended, winner := m.combat.CheckBattleEnd(b); ended {
		m.finishBattleLocked(b, winner, "elimination")
	}
	return result
}

func (m *Manager) handleEquip(b *battle.Battle, actor battle.Actor, action battle.Action) battle.Result {
	ch, err := m.ownCharacter(b, actor, action.CharacterID)
	if err != nil {
		return battle.Failure(err.Error())
	}

	def, ok := m.items.Item(action.ItemID)
	if !ok {
		return battle.Failure(fmt.Sprintf("item %q not found", action.ItemID))
	}
	if !ch.SlotUnlocked(def.Slot) {
		return battle.Failure(fmt.Sprintf("slot %q is locked for %q", def.Slot, ch.ID))
	}

	if ch.Equipped == nil {
		ch.Equipped = make(map[item.Slot]string)
	}
	ch.Equipped[def.Slot] = def.ID

	m.logger.Debug("item equipped",
		zap.String("battle_id", b.ID),
		zap.String("character_id", ch.ID),
		zap.String("item_id", def.ID),
		zap.String("slot", string(def.Slot)))

	return battle.Result{Success: true, Battle: b}
}

func (m *Manager) handleSurrender(b *battle.Battle, actor battle.Actor) battle.Result {
	team, ok := battle.TeamFor(actor)
	if !ok {
		return battle.Failure("only players may surrender")
	}
	m.finishBattleLocked(b, b.PlayerFor(team.Other()), "surrender")
	return battle.Result{Success: true, Battle: b}
}

// finishBattleLocked resolves the battle. Caller must hold the battle lock.
//
// Postcondition: the battle is finished with a winner, both deadlines are
// cancelled, and the battle is unregistered so its players may rematch.
func (m *Manager) finishBattleLocked(b *battle.Battle, winner, reason string) {
	b.Status = battle.StatusFinished
	b.Winner = winner
	b.Touch(time.Now())

	m.timers.ClearAllTimers(b.ID)
	if err := m.sessions.Remove(b.ID); err != nil {
		m.logger.Warn("removing finished battle", zap.String("battle_id", b.ID), zap.Error(err))
	}

	m.logger.Info("battle finished",
		zap.String("battle_id", b.ID),
		zap.String("winner", winner),
		zap.String("reason", reason),
		zap.Int("turns", b.TurnNumber))
}

// onTurnExpired is the turn deadline callback. It re-resolves the battle
// before acting: the deadline may have fired just as the battle finished or
// the turn was ended through the normal path.
func (m *Manager) onTurnExpired(battleID string) {
	if _, ok := m.sessions.Battle(battleID); !ok {
		return
	}
	m.logger.Info("turn deadline expired", zap.String("battle_id", battleID))

	res := m.ProcessAction(battleID, battle.ActorSystem, battle.Action{Kind: battle.ActionEndTurn})
	if !res.Success {
		m.logger.Warn("forced turn end rejected",
			zap.String("battle_id", battleID),
			zap.String("error", res.Error))
	}
}

// onBattleExpired is the battle deadline callback. The clock decides the
// winner: more living characters, then more remaining HP, then team A.
func (m *Manager) onBattleExpired(battleID string) {
	b, ok := m.sessions.Battle(battleID)
	if !ok {
		return
	}

	mu := m.locks.forBattle(battleID)
	mu.Lock()
	defer mu.Unlock()

	if b.Status != battle.StatusActive {
		return
	}

	winnerTeam := timer.DetermineWinnerByTime(b)
	m.logger.Info("battle deadline expired",
		zap.String("battle_id", battleID),
		zap.String("winner_team", winnerTeam.String()))
	m.finishBattleLocked(b, b.PlayerFor(winnerTeam), "time")
}
