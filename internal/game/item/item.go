// Package item provides equipment item definitions and the registry used to
// resolve equipped item bonuses during damage resolution.
package item

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Slot identifies an equipment slot on a character.
type Slot string

const (
	// SlotWeapon is the single weapon slot.
	SlotWeapon Slot = "weapon"
	// SlotArmor is the single body armor slot.
	SlotArmor Slot = "armor"
	// SlotAccessory1 is the first accessory slot.
	SlotAccessory1 Slot = "accessory1"
	// SlotAccessory2 is the second accessory slot.
	SlotAccessory2 Slot = "accessory2"
)

// ValidSlot reports whether s names a known equipment slot.
func ValidSlot(s Slot) bool {
	switch s {
	case SlotWeapon, SlotArmor, SlotAccessory1, SlotAccessory2:
		return true
	default:
		return false
	}
}

// Def defines an equippable item loaded from YAML.
type Def struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Slot Slot   `yaml:"slot"`
	// DamageBonus is added to the wearer's base damage when attacking.
	DamageBonus int `yaml:"damage_bonus"`
	// ArmorBonus is added to the wearer's base armor when defending.
	ArmorBonus int `yaml:"armor_bonus"`
}

// Validate checks that the definition satisfies basic invariants.
//
// Postcondition: Returns nil iff ID and Name are non-empty, Slot is valid, and
// both bonuses are >= 0.
func (d *Def) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("item def: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("item def %q: name must not be empty", d.ID)
	}
	if !ValidSlot(d.Slot) {
		return fmt.Errorf("item def %q: unknown slot %q", d.ID, d.Slot)
	}
	if d.DamageBonus < 0 {
		return fmt.Errorf("item def %q: damage_bonus must be >= 0", d.ID)
	}
	if d.ArmorBonus < 0 {
		return fmt.Errorf("item def %q: armor_bonus must be >= 0", d.ID)
	}
	return nil
}

// Registry holds all loaded item definitions indexed by ID.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

// Register adds d to the registry.
//
// Precondition:  d must not be nil.
// Postcondition: Item(d.ID) returns (d, true); returns error if d.ID already registered.
func (r *Registry) Register(d *Def) error {
	if _, exists := r.defs[d.ID]; exists {
		return fmt.Errorf("item: Registry.Register: item ID %q already registered", d.ID)
	}
	r.defs[d.ID] = d
	return nil
}

// Item returns the Def for the given id and whether it was found.
func (r *Registry) Item(id string) (*Def, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int { return len(r.defs) }

// LoadDefs reads all *.yaml files in dir and registers the parsed definitions
// into a new Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a populated Registry, or an error on the first parse,
// validate, or duplicate-ID failure; on error the partial result is discarded.
func LoadDefs(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading item dir %q: %w", dir, err)
	}

	reg := NewRegistry()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		var def Def
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if err := reg.Register(&def); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return reg, nil
}
