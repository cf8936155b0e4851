package world

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/lilwins/internal/grid"
)

// yamlWorldFile is the top-level YAML structure for theme files.
type yamlWorldFile struct {
	World yamlWorld `yaml:"world"`
}

// yamlWorld is the YAML representation of a theme.
type yamlWorld struct {
	ID          string              `yaml:"id"`
	Name        string              `yaml:"name"`
	Grid        yamlGrid            `yaml:"grid"`
	Policy      string              `yaml:"policy"`
	Frontier    yamlFrontier        `yaml:"frontier"`
	DefaultTile string              `yaml:"default_tile"`
	Labels      yamlLabels          `yaml:"labels"`
	Tiles       []yamlTile          `yaml:"tiles"`
	Structures  []yamlStructure     `yaml:"structures"`
	Bands       []yamlBand          `yaml:"bands"`
	OuterZone   string              `yaml:"outer_zone"`
	Zones       map[string]yamlZone `yaml:"zones"`
	Anchor      *yamlAnchor         `yaml:"anchor"`
	Template    *yamlTemplate       `yaml:"template"`
	Roads       *yamlRoads          `yaml:"roads"`
	Script      *yamlScript         `yaml:"script"`
}

type yamlGrid struct {
	Topology   string  `yaml:"topology"`
	Projection string  `yaml:"projection"`
	Scale      float64 `yaml:"scale"`
	Radius     int     `yaml:"radius"`
}

type yamlFrontier struct {
	Strategy string `yaml:"strategy"`
	Closest  int    `yaml:"closest"`
}

type yamlLabels struct {
	Bare     string `yaml:"bare"`
	Road     string `yaml:"road"`
	Complete string `yaml:"complete"`
}

type yamlTile struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Connective bool   `yaml:"connective"`
}

type yamlStructure struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

type yamlBand struct {
	Zone        string `yaml:"zone"`
	MaxDistance int    `yaml:"max_distance"`
}

// yamlEntry is a weighted table entry. A missing id means "tile only".
type yamlEntry struct {
	ID     string  `yaml:"id"`
	Weight float64 `yaml:"weight"`
}

type yamlZone struct {
	Tile        string           `yaml:"tile"`
	Table       []yamlEntry      `yaml:"table"`
	GroundCover *yamlGroundCover `yaml:"ground_cover"`
}

type yamlGroundCover struct {
	Chance   float64     `yaml:"chance"`
	BareOnly bool        `yaml:"bare_only"`
	Tiles    []yamlEntry `yaml:"tiles"`
	Noise    *yamlNoise  `yaml:"noise"`
}

type yamlNoise struct {
	Seed      int64   `yaml:"seed"`
	Frequency float64 `yaml:"frequency"`
}

type yamlAnchor struct {
	Tile      string `yaml:"tile"`
	Structure string `yaml:"structure"`
}

type yamlTemplate struct {
	Exhaustion string              `yaml:"exhaustion"`
	Entries    []yamlTemplateEntry `yaml:"entries"`
}

type yamlTemplateEntry struct {
	At        [2]int  `yaml:"at"`
	Tile      string  `yaml:"tile"`
	Structure string  `yaml:"structure"`
	Rotation  float64 `yaml:"rotation"`
}

type yamlRoads struct {
	Warmup         int               `yaml:"warmup"`
	Every          int               `yaml:"every"`
	RoadCandidates int               `yaml:"road_candidates"`
	LotCandidates  int               `yaml:"lot_candidates"`
	Variants       map[string]string `yaml:"variants"`
}

type yamlScript struct {
	Dir              string `yaml:"dir"`
	InstructionLimit int    `yaml:"instruction_limit"`
}

// LoadThemeFromFile reads and validates a single theme YAML file.
//
// Precondition: path must point to a valid YAML theme file.
// Postcondition: Returns a validated Theme or a non-nil error.
func LoadThemeFromFile(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading world file %s: %w", path, err)
	}
	return LoadThemeFromBytes(data)
}

// LoadThemeFromBytes parses and validates a theme from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the theme schema.
// Postcondition: Returns a validated Theme or a non-nil error.
func LoadThemeFromBytes(data []byte) (*Theme, error) {
	var file yamlWorldFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing world YAML: %w", err)
	}

	theme := convertYAMLWorld(file.World)
	if err := theme.Validate(); err != nil {
		return nil, fmt.Errorf("validating world: %w", err)
	}
	return theme, nil
}

// LoadThemesFromDir loads all YAML files in a directory as themes.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns all validated themes or the first error encountered.
func LoadThemesFromDir(dir string) ([]*Theme, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading world directory %s: %w", dir, err)
	}

	var themes []*Theme
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		theme, err := LoadThemeFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading world from %s: %w", name, err)
		}
		if prev, dup := seen[theme.ID]; dup {
			return nil, fmt.Errorf("duplicate world ID %q in %s and %s", theme.ID, prev, name)
		}
		seen[theme.ID] = name
		themes = append(themes, theme)
	}

	if len(themes) == 0 {
		return nil, fmt.Errorf("no world files found in %s", dir)
	}
	return themes, nil
}

// convertYAMLWorld converts the parsed YAML structures into domain types and
// applies defaults.
func convertYAMLWorld(yw yamlWorld) *Theme {
	t := &Theme{
		ID:   yw.ID,
		Name: yw.Name,
		Grid: GridSpec{
			Topology:   yw.Grid.Topology,
			Projection: yw.Grid.Projection,
			Scale:      yw.Grid.Scale,
			Radius:     yw.Grid.Radius,
		},
		Policy:      yw.Policy,
		Frontier:    FrontierSpec{Strategy: yw.Frontier.Strategy, Closest: yw.Frontier.Closest},
		DefaultTile: yw.DefaultTile,
		OuterZone:   yw.OuterZone,
		Zones:       make(map[string]ZoneContent, len(yw.Zones)),
		Labels: Labels{
			Bare:     yw.Labels.Bare,
			Road:     yw.Labels.Road,
			Complete: yw.Labels.Complete,
		},
	}
	if t.Grid.Projection == "" {
		t.Grid.Projection = t.Grid.Topology
	}
	if t.Grid.Scale == 0 {
		t.Grid.Scale = 1
	}
	if t.Policy == "" {
		t.Policy = PolicyZones
	}
	if t.Frontier.Strategy == "" {
		t.Frontier.Strategy = FrontierSpiral
	}
	if t.Labels.Bare == "" {
		t.Labels.Bare = "Land"
	}
	if t.Labels.Road == "" {
		t.Labels.Road = "Road"
	}
	if t.Labels.Complete == "" {
		t.Labels.Complete = t.Name + " Complete!"
	}

	for _, yt := range yw.Tiles {
		t.Tiles = append(t.Tiles, TileDef{ID: yt.ID, Name: yt.Name, Connective: yt.Connective})
	}
	for _, ys := range yw.Structures {
		t.Structures = append(t.Structures, StructureDef{ID: ys.ID, Name: ys.Name, Category: ys.Category})
	}
	for _, yb := range yw.Bands {
		t.Bands = append(t.Bands, Band{Zone: yb.Zone, MaxDistance: yb.MaxDistance})
	}
	for name, yz := range yw.Zones {
		z := ZoneContent{Tile: yz.Tile, Table: convertEntries(yz.Table)}
		if gc := yz.GroundCover; gc != nil {
			z.Cover = &GroundCover{Chance: gc.Chance, BareOnly: gc.BareOnly, Tiles: convertEntries(gc.Tiles)}
			if gc.Noise != nil {
				z.Cover.Noise = &NoiseSpec{Seed: gc.Noise.Seed, Frequency: gc.Noise.Frequency}
			}
		}
		t.Zones[name] = z
	}
	if yw.Anchor != nil {
		t.Anchor = &Anchor{Tile: yw.Anchor.Tile, Structure: yw.Anchor.Structure}
	}
	if yt := yw.Template; yt != nil {
		tpl := &Template{Exhaustion: Exhaustion(yt.Exhaustion)}
		if tpl.Exhaustion == "" {
			tpl.Exhaustion = ExhaustRandom
		}
		for _, ye := range yt.Entries {
			tpl.Entries = append(tpl.Entries, TemplateEntry{
				Coord:     grid.FromPair(ye.At),
				Tile:      ye.Tile,
				Structure: ye.Structure,
				Rotation:  ye.Rotation,
			})
		}
		t.Template = tpl
	}
	if yr := yw.Roads; yr != nil {
		rs := &RoadSpec{
			Warmup:         yr.Warmup,
			Every:          yr.Every,
			RoadCandidates: yr.RoadCandidates,
			LotCandidates:  yr.LotCandidates,
			Variants:       make(map[Variant]string, len(yr.Variants)),
		}
		for k, v := range yr.Variants {
			rs.Variants[Variant(k)] = v
		}
		t.Roads = rs
	}
	if ys := yw.Script; ys != nil {
		t.Script = &ScriptSpec{Dir: ys.Dir, InstructionLimit: ys.InstructionLimit}
	}
	return t
}

func convertEntries(ys []yamlEntry) Table {
	out := make(Table, 0, len(ys))
	for _, e := range ys {
		out = append(out, Entry{ID: e.ID, Weight: e.Weight})
	}
	return out
}
