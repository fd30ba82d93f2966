// Package npc provides NPC template definitions, live instances with threat
// tracking and grudge memory, respawn scheduling, and heartbeat target
// acquisition.
package npc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emberholt/mud/internal/game/combatant"
	"github.com/emberholt/mud/internal/game/dice"
)

// NaturalAttack defines the unarmed strike an NPC template fights with.
// A template without one falls back to the level-scaled unarmed range.
type NaturalAttack struct {
	Name   string  `yaml:"name"`
	Damage string  `yaml:"damage"`
	Type   string  `yaml:"type"`
	Speed  float64 `yaml:"speed"`
}

// WimpyConfig defines the template's automatic defensive reaction.
type WimpyConfig struct {
	// ThresholdPercent triggers the reaction when health drops below it.
	// Zero disables wimpy entirely.
	ThresholdPercent float64 `yaml:"threshold_percent"`
	// Reaction names a scripted reaction to try before fleeing.
	Reaction string `yaml:"reaction"`
}

// Template defines a reusable NPC archetype loaded from YAML.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Level        int     `yaml:"level"`
	MaxHP        int     `yaml:"max_hp"`
	Strength     int     `yaml:"strength"`
	Dexterity    int     `yaml:"dexterity"`
	Intelligence int     `yaml:"intelligence"`
	Luck         int     `yaml:"luck"`
	AttackSpeed  float64 `yaml:"attack_speed"`

	ToHit      int `yaml:"to_hit"`
	ToDodge    int `yaml:"to_dodge"`
	ToCritical int `yaml:"to_critical"`
	ArmorBonus int `yaml:"armor_bonus"`

	Attack *NaturalAttack `yaml:"attack"`
	Wimpy  WimpyConfig    `yaml:"wimpy"`

	// Aggressive NPCs initiate combat against players on sight.
	Aggressive bool `yaml:"aggressive"`
	// RespawnDelay is a duration string (e.g. "5m") before a dead NPC of this
	// template respawns. Empty means the NPC does not respawn.
	RespawnDelay string `yaml:"respawn_delay"`
}

// damageTypes maps the YAML damage-type names onto the combat model.
var damageTypes = map[string]combatant.DamageType{
	"slashing":    combatant.Slashing,
	"piercing":    combatant.Piercing,
	"bludgeoning": combatant.Bludgeoning,
	"fire":        combatant.Fire,
	"cold":        combatant.Cold,
	"lightning":   combatant.Lightning,
	"acid":        combatant.Acid,
	"poison":      combatant.Poison,
	"arcane":      combatant.Arcane,
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Level >= 1,
// MaxHP >= 1, all attributes >= 1, the natural attack (if any) carries a
// parseable dice expression and known damage type, the wimpy threshold is in
// [0, 100], and RespawnDelay (if set) parses as a duration.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("npc template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("npc template %q: name must not be empty", t.ID)
	}
	if t.Level < 1 {
		return fmt.Errorf("npc template %q: level must be >= 1", t.ID)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("npc template %q: max_hp must be >= 1", t.ID)
	}
	for name, v := range map[string]int{
		"strength": t.Strength, "dexterity": t.Dexterity,
		"intelligence": t.Intelligence, "luck": t.Luck,
	} {
		if v < 1 {
			return fmt.Errorf("npc template %q: %s must be >= 1", t.ID, name)
		}
	}
	if t.Attack != nil {
		if t.Attack.Name == "" {
			return fmt.Errorf("npc template %q: attack.name must not be empty", t.ID)
		}
		if _, err := dice.Parse(t.Attack.Damage); err != nil {
			return fmt.Errorf("npc template %q: attack.damage: %w", t.ID, err)
		}
		if _, ok := damageTypes[t.Attack.Type]; !ok {
			return fmt.Errorf("npc template %q: attack.type %q is not a known damage type", t.ID, t.Attack.Type)
		}
	}
	if t.Wimpy.ThresholdPercent < 0 || t.Wimpy.ThresholdPercent > 100 {
		return fmt.Errorf("npc template %q: wimpy.threshold_percent must be in [0, 100]", t.ID)
	}
	if t.RespawnDelay != "" {
		if _, err := time.ParseDuration(t.RespawnDelay); err != nil {
			return fmt.Errorf("npc template %q: respawn_delay %q is not a valid duration: %w", t.ID, t.RespawnDelay, err)
		}
	}
	return nil
}

// weapon converts the template's natural attack into the combat weapon model.
// Returns nil for templates without a natural attack.
func (t *Template) weapon() *combatant.Weapon {
	if t.Attack == nil {
		return nil
	}
	return &combatant.Weapon{
		Name:   t.Attack.Name,
		Damage: t.Attack.Damage,
		Type:   damageTypes[t.Attack.Type],
		Speed:  t.Attack.Speed,
	}
}

// LoadTemplateFromBytes parses a single NPC template from raw YAML bytes.
//
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
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

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// TemplateIndex builds a by-ID map from a template slice.
//
// Postcondition: Returns an error on duplicate IDs.
func TemplateIndex(templates []*Template) (map[string]*Template, error) {
	idx := make(map[string]*Template, len(templates))
	for _, t := range templates {
		if _, exists := idx[t.ID]; exists {
			return nil, fmt.Errorf("duplicate npc template ID: %q", t.ID)
		}
		idx[t.ID] = t
	}
	return idx, nil
}
