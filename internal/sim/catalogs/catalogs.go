package catalogs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Catalogs struct {
	Items      ItemCatalog
	Activities ActivityCatalog
	Levels     LevelCurve
	Pets       PetCatalog
	Events     EventCatalog
}

// Item categories.
const (
	CategoryFood     = "FOOD"
	CategoryMedicine = "MEDICINE"
	CategoryCleaning = "CLEANING"
	CategoryToy      = "TOY"
)

type ItemCatalog struct {
	ByID   map[string]ItemDef
	Names  []string // sorted ids, for deterministic iteration
	Digest string
}

// GaugeDelta holds per-gauge amounts. Item effects are added to the gauge;
// activity costs are subtracted from it. All magnitudes are positive.
type GaugeDelta struct {
	Hunger      int `json:"hunger,omitempty"`
	Happiness   int `json:"happiness,omitempty"`
	Cleanliness int `json:"cleanliness,omitempty"`
	Health      int `json:"health,omitempty"`
}

type ItemDef struct {
	ID          string     `json:"id"`
	Category    string     `json:"category"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Price       int        `json:"price"`
	UnlockLevel int        `json:"unlock_level"`
	Effect      GaugeDelta `json:"effect"`
}

type ActivityCatalog struct {
	ByID   map[string]ActivityDef
	Names  []string
	Digest string
}

type ActivityDef struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	RewardCoins     int        `json:"reward_coins"`
	RewardExp       int        `json:"reward_exp"`
	Cost            GaugeDelta `json:"cost"`
	UnlockLevel     int        `json:"unlock_level"`
}

// LevelCurve maps level to the experience needed to clear it. Levels past
// the table all use Fallback.
type LevelCurve struct {
	Thresholds []int `json:"thresholds"`
	Fallback   int   `json:"fallback"`

	Digest string `json:"-"`
}

// Threshold returns the experience required to clear the given level.
// It is always positive for a curve that passed Load validation.
func (c LevelCurve) Threshold(level int) int {
	if level >= 1 && level <= len(c.Thresholds) {
		return c.Thresholds[level-1]
	}
	return c.Fallback
}

// PetCatalog indexes pet name to its ordered pose image URLs.
type PetCatalog struct {
	Poses  map[string][]string
	Names  []string
	Digest string
}

// DefaultPet is the pet assigned to a fresh profile: first name in sorted order.
func (p PetCatalog) DefaultPet() string {
	if len(p.Names) == 0 {
		return ""
	}
	return p.Names[0]
}

// Random event kinds.
const (
	EventKindCoins     = "COINS"
	EventKindHappiness = "HAPPINESS"
	EventKindSickness  = "SICKNESS"
	EventKindFlavor    = "FLAVOR"
)

type EventCatalog struct {
	ByID   map[string]EventDef
	Names  []string
	Digest string
}

type EventDef struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Weight  int    `json:"weight"`
	Coins   int    `json:"coins,omitempty"`
	Happy   int    `json:"happiness,omitempty"`
	Health  int    `json:"health,omitempty"` // damage, subtracted from the gauge
	Message string `json:"message"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadActivities(filepath.Join(configDir, "activities.json"), &c.Activities); err != nil {
		return nil, err
	}
	if err := loadLevels(filepath.Join(configDir, "levels.json"), &c.Levels); err != nil {
		return nil, err
	}
	if err := loadPets(filepath.Join(configDir, "pets.json"), &c.Pets); err != nil {
		return nil, err
	}
	if err := loadEvents(filepath.Join(configDir, "events"), &c.Events); err != nil {
		return nil, err
	}

	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

var knownCategories = map[string]struct{}{
	CategoryFood:     {},
	CategoryMedicine: {},
	CategoryCleaning: {},
	CategoryToy:      {},
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.ByID = map[string]ItemDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
		if _, ok := knownCategories[d.Category]; !ok {
			return fmt.Errorf("items.json: %s: unknown category %q", d.ID, d.Category)
		}
		if d.Price <= 0 {
			return fmt.Errorf("items.json: %s: non-positive price", d.ID)
		}
		if d.UnlockLevel < 1 {
			d.UnlockLevel = 1
		}
		out.ByID[d.ID] = d
	}

	out.Names = sortedKeys(out.ByID)
	return nil
}

func loadActivities(path string, out *ActivityCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []ActivityDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("activities.json: %w", err)
	}
	out.ByID = map[string]ActivityDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("activities.json: empty id")
		}
		if d.DurationMinutes <= 0 {
			return fmt.Errorf("activities.json: %s: non-positive duration", d.ID)
		}
		if d.UnlockLevel < 1 {
			d.UnlockLevel = 1
		}
		out.ByID[d.ID] = d
	}

	out.Names = sortedKeys(out.ByID)
	return nil
}

func loadLevels(path string, out *LevelCurve) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("levels.json: %w", err)
	}
	if len(out.Thresholds) == 0 {
		return fmt.Errorf("levels.json: empty thresholds")
	}
	for i, th := range out.Thresholds {
		if th <= 0 {
			return fmt.Errorf("levels.json: threshold for level %d is not positive", i+1)
		}
	}
	if out.Fallback <= 0 {
		return fmt.Errorf("levels.json: non-positive fallback")
	}
	out.Digest = sha256Hex(raw)
	return nil
}

func loadPets(path string, out *PetCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	if err := json.Unmarshal(raw, &out.Poses); err != nil {
		return fmt.Errorf("pets.json: %w", err)
	}
	if len(out.Poses) == 0 {
		return fmt.Errorf("pets.json: no pets")
	}
	for name, poses := range out.Poses {
		if name == "" {
			return fmt.Errorf("pets.json: empty pet name")
		}
		if len(poses) == 0 {
			return fmt.Errorf("pets.json: pet %q has no poses", name)
		}
	}

	out.Names = sortedKeys(out.Poses)
	return nil
}

func loadEvents(dir string, out *EventCatalog) error {
	out.ByID = map[string]EventDef{}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		// Allow running without an events directory; the tick loop then
		// simply never fires random events.
		if os.IsNotExist(err) {
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	sort.Strings(files)

	var concat bytes.Buffer
	for _, p := range files {
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		concat.Write(b)
		concat.WriteByte('\n')

		var ev EventDef
		if err := json.Unmarshal(b, &ev); err != nil {
			return fmt.Errorf("event %s: %w", filepath.Base(p), err)
		}
		if ev.ID == "" {
			return fmt.Errorf("event %s: missing id", filepath.Base(p))
		}
		if ev.Weight <= 0 {
			return fmt.Errorf("event %s: non-positive weight", filepath.Base(p))
		}
		out.ByID[ev.ID] = ev
	}
	out.Names = sortedKeys(out.ByID)
	out.Digest = sha256Hex(concat.Bytes())
	return nil
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
