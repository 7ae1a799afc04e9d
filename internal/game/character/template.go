package character

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/item"
)

// Template defines a reusable character archetype loaded from YAML.
// Spawn is the starting cell for team A; team B spawns are mirrored across
// the grid width at battle creation.
type Template struct {
	ID         string     `yaml:"id"`
	Name       string     `yaml:"name"`
	Level      int        `yaml:"level"`
	MaxHP      int        `yaml:"max_hp"`
	BaseDamage int        `yaml:"base_damage"`
	BaseArmor  int        `yaml:"base_armor"`
	CombatType CombatType `yaml:"combat_type"`
	Spawn      struct {
		X int `yaml:"x"`
		Y int `yaml:"y"`
	} `yaml:"spawn"`
	// UnlockedSlots lists the equipment slots available at level 1.
	UnlockedSlots []item.Slot `yaml:"unlocked_slots"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Level >= 1,
// MaxHP >= 1, BaseDamage >= 1, BaseArmor >= 0, CombatType is melee or ranged,
// and every unlocked slot is a known slot; returns an error on the first
// violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("character template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("character template %q: name must not be empty", t.ID)
	}
	if t.Level < 1 {
		return fmt.Errorf("character template %q: level must be >= 1", t.ID)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("character template %q: max_hp must be >= 1", t.ID)
	}
	if t.BaseDamage < 1 {
		return fmt.Errorf("character template %q: base_damage must be >= 1", t.ID)
	}
	if t.BaseArmor < 0 {
		return fmt.Errorf("character template %q: base_armor must be >= 0", t.ID)
	}
	if t.CombatType != Melee && t.CombatType != Ranged {
		return fmt.Errorf("character template %q: combat_type must be melee or ranged, got %q", t.ID, t.CombatType)
	}
	for _, s := range t.UnlockedSlots {
		if !item.ValidSlot(s) {
			return fmt.Errorf("character template %q: unknown slot %q", t.ID, s)
		}
	}
	return nil
}

// Instantiate builds a live Character from the template for the given team.
// Team A uses the template spawn directly; team B mirrors it across the grid
// width and spawns facing team A.
//
// Precondition: id must be unique within the battle; g must contain the spawn.
// Postcondition: The character is alive, at full HP, with a zeroed action
// budget (the turn manager grants budgets when the team's turn starts).
func (t *Template) Instantiate(id string, team Team, g grid.Grid) *Character {
	pos := grid.Position{X: t.Spawn.X, Y: t.Spawn.Y}
	if team == TeamB {
		pos.X = g.Width - 1 - t.Spawn.X
	}

	unlocked := make(map[item.Slot]bool, len(t.UnlockedSlots))
	for _, s := range t.UnlockedSlots {
		unlocked[s] = true
	}

	return &Character{
		ID:            id,
		Name:          t.Name,
		Archetype:     t.ID,
		Level:         t.Level,
		Position:      pos,
		MaxHP:         t.MaxHP,
		CurrentHP:     t.MaxHP,
		BaseDamage:    t.BaseDamage,
		BaseArmor:     t.BaseArmor,
		CombatType:    t.CombatType,
		Equipped:      make(map[item.Slot]string),
		UnlockedSlots: unlocked,
		Team:          team,
		Alive:         true,
	}
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed
// templates sorted by ID for a stable roster order.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading archetype dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		var tmpl Template
		if err := yaml.Unmarshal(data, &tmpl); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := tmpl.Validate(); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, &tmpl)
	}

	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })
	return templates, nil
}
