package world

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlZoneFile struct {
	Zone yamlZone `yaml:"zone"`
}

type yamlZone struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	StartRoom   string     `yaml:"start_room"`
	Rooms       []yamlRoom `yaml:"rooms"`
}

type yamlRoom struct {
	ID          string      `yaml:"id"`
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Exits       []yamlExit  `yaml:"exits"`
	Spawns      []yamlSpawn `yaml:"spawns"`
}

type yamlExit struct {
	Direction string `yaml:"direction"`
	Target    string `yaml:"target"`
	Locked    bool   `yaml:"locked"`
	Hidden    bool   `yaml:"hidden"`
}

type yamlSpawn struct {
	Template     string `yaml:"template"`
	Count        int    `yaml:"count"`
	RespawnAfter string `yaml:"respawn_after"`
}

// LoadZoneFromBytes parses a single zone from raw YAML bytes and validates it.
//
// Postcondition: Returns a validated *Zone or an error.
func LoadZoneFromBytes(data []byte) (*Zone, error) {
	var yf yamlZoneFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("parsing zone YAML: %w", err)
	}
	z := convertYAMLZone(yf.Zone)
	if err := z.Validate(); err != nil {
		return nil, err
	}
	return z, nil
}

// LoadZoneFromFile reads and parses a single zone YAML file.
//
// Precondition: path must reference a readable YAML file.
func LoadZoneFromFile(path string) (*Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zone file %q: %w", path, err)
	}
	z, err := LoadZoneFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("zone file %q: %w", path, err)
	}
	return z, nil
}

// LoadZonesFromDir loads every .yaml/.yml file in dir as a zone.
//
// Postcondition: Returns all loaded zones or the first error encountered.
func LoadZonesFromDir(dir string) ([]*Zone, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading zones directory %q: %w", dir, err)
	}

	var zones []*Zone
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		z, err := LoadZoneFromFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, nil
}

func convertYAMLZone(yz yamlZone) *Zone {
	z := &Zone{
		ID:          yz.ID,
		Name:        yz.Name,
		Description: yz.Description,
		StartRoom:   yz.StartRoom,
		Rooms:       make(map[string]*Room, len(yz.Rooms)),
	}
	for _, yr := range yz.Rooms {
		room := &Room{
			ID:          yr.ID,
			ZoneID:      yz.ID,
			Title:       yr.Title,
			Description: yr.Description,
		}
		for _, ye := range yr.Exits {
			room.Exits = append(room.Exits, Exit{
				Direction:  Direction(ye.Direction),
				TargetRoom: ye.Target,
				Locked:     ye.Locked,
				Hidden:     ye.Hidden,
			})
		}
		for _, ys := range yr.Spawns {
			count := ys.Count
			if count < 1 {
				count = 1
			}
			room.Spawns = append(room.Spawns, SpawnConfig{
				Template:     ys.Template,
				Count:        count,
				RespawnAfter: ys.RespawnAfter,
			})
		}
		z.Rooms[yr.ID] = room
	}
	return z
}
