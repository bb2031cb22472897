package companion

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"

	"pocketpet.app/internal/protocol"
	"pocketpet.app/internal/sim/catalogs"
	"pocketpet.app/internal/sim/tuning"
)

// Store is the persistence gateway the engine writes through after every
// mutating command or tick. The state is always saved whole.
type Store interface {
	LoadState() ([]byte, bool, error)
	SaveState([]byte) error
}

// Journal receives an entry per command, settlement, and random event.
// Implementations must tolerate being called from the engine lock.
type Journal interface {
	Write(v any) error
}

// Result reports a single command's outcome. Code is empty on success;
// otherwise it is one of the protocol E_* codes.
type Result struct {
	Code    string
	Message string
}

func (r Result) OK() bool { return r.Code == "" }

func ok(format string, args ...any) Result {
	return Result{Message: fmt.Sprintf(format, args...)}
}

func reject(code, format string, args ...any) Result {
	return Result{Code: code, Message: fmt.Sprintf(format, args...)}
}

// TickEvent is something a tick produced that the UI should hear about.
type TickEvent struct {
	Kind    string // "SETTLED", "RANDOM", "HOSTING", "PLAYED"
	Message string

	Activity string
	Coins    int
	Exp      int
}

const (
	TickEventSettled = "SETTLED"
	TickEventRandom  = "RANDOM"
	TickEventHosting = "HOSTING"
	TickEventPlayed  = "PLAYED"
)

type Options struct {
	Catalogs *catalogs.Catalogs
	Tuning   tuning.Tuning
	Store    Store
	Journal  Journal
	Logger   *log.Logger
	Rand     *rand.Rand
	Now      func() time.Time
}

// Engine owns the in-memory state and is the only component that mutates
// it. All exported methods serialize on one lock: a command or a tick runs
// to completion, including its persistence write, before the next begins.
type Engine struct {
	mu sync.Mutex

	cats  *catalogs.Catalogs
	tune  tuning.Tuning
	store Store
	jrn   Journal
	log   *log.Logger
	rng   *rand.Rand
	now   func() time.Time

	st State

	// playEndsAt is deliberately not persisted; a restart mid-play
	// resolves to idle at load.
	playEndsAt int64
}

func New(opts Options) (*Engine, error) {
	if opts.Catalogs == nil {
		return nil, fmt.Errorf("companion: nil catalogs")
	}
	if len(opts.Catalogs.Pets.Names) == 0 {
		return nil, fmt.Errorf("companion: no pet data")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("companion: nil store")
	}
	e := &Engine{
		cats:  opts.Catalogs,
		tune:  opts.Tuning,
		store: opts.Store,
		jrn:   opts.Journal,
		log:   opts.Logger,
		rng:   opts.Rand,
		now:   opts.Now,
	}
	if e.log == nil {
		e.log = log.New(os.Stdout, "[engine] ", log.LstdFlags|log.Lmicroseconds)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.now == nil {
		e.now = time.Now
	}

	nowMs := e.now().UnixMilli()
	fresh, err := e.loadState(nowMs)
	if err != nil {
		return nil, err
	}

	// Settle anything that expired while the process was not running,
	// before any caller observes the state. Loading alone must not touch
	// LastUpdate, or the offline decay step would never fire.
	e.mu.Lock()
	e.settle(nowMs)
	if fresh {
		e.persist()
	}
	e.mu.Unlock()

	return e, nil
}

func (e *Engine) loadState(nowMs int64) (fresh bool, err error) {
	raw, found, err := e.store.LoadState()
	if err != nil {
		return false, fmt.Errorf("load state: %w", err)
	}

	st := NewState(e.cats, nowMs)
	fresh = !found
	if found {
		if err := json.Unmarshal(raw, &st); err != nil {
			// Corrupt blob is the same as no prior state.
			e.log.Printf("warn: stored state unparsable, starting fresh: %v", err)
			st = NewState(e.cats, nowMs)
			fresh = true
		}
	}
	e.st = st
	e.repair(nowMs)
	return fresh, nil
}

// repair normalizes a loaded state so every invariant holds before the
// first command runs. Invalid identity references reset to defaults.
func (e *Engine) repair(nowMs int64) {
	s := &e.st

	s.Hunger = clampGauge(s.Hunger)
	s.Happiness = clampGauge(s.Happiness)
	s.Cleanliness = clampGauge(s.Cleanliness)
	s.Health = clampGauge(s.Health)

	if s.Level < 1 {
		s.Level = 1
	}
	if s.Exp < 0 {
		s.Exp = 0
	}
	if s.Coins < 0 {
		s.Coins = 0
	}
	if s.Inventory == nil {
		s.Inventory = map[string]int{}
	}
	for name, qty := range s.Inventory {
		if qty <= 0 {
			delete(s.Inventory, name)
			continue
		}
		if _, known := e.cats.Items.ByID[name]; !known {
			e.log.Printf("warn: dropping unknown inventory item %q", name)
			delete(s.Inventory, name)
		}
	}

	poses, known := e.cats.Pets.Poses[s.PetID]
	if !known {
		e.log.Printf("warn: stored pet %q not in catalog, resetting", s.PetID)
		s.PetID = e.cats.Pets.DefaultPet()
		s.PoseIndex = 0
		poses = e.cats.Pets.Poses[s.PetID]
	}
	if s.PoseIndex < 0 || s.PoseIndex >= len(poses) {
		e.log.Printf("warn: stored pose index %d out of range, resetting", s.PoseIndex)
		s.PoseIndex = 0
	}

	if !s.Status.Valid() {
		e.log.Printf("warn: stored status %q invalid, resetting to idle", s.Status)
		s.Status = StatusIdle
	}
	// A play deadline never survives a restart.
	if s.Status == StatusPlaying {
		s.Status = StatusIdle
	}
	if s.Status == StatusWorking && s.Activity == nil {
		e.log.Printf("warn: working without an activity, resetting to idle")
		s.Status = StatusIdle
	}
	if s.Activity != nil && s.Status != StatusWorking && s.Status != StatusHosting {
		s.Activity = nil
	}

	if s.LastUpdate <= 0 || s.LastUpdate > nowMs {
		s.LastUpdate = nowMs
	}

	// Re-run the level loop so exp < threshold holds even for a blob
	// written mid-level-up.
	e.levelUps()
}

// persist writes the whole state through the gateway. Failures are logged,
// never fatal; the in-memory state stays authoritative. LastUpdate is the
// decay clock and is advanced only by the tick's decay stage.
func (e *Engine) persist() {
	raw, err := json.Marshal(e.st)
	if err != nil {
		e.log.Printf("warn: marshal state: %v", err)
		return
	}
	if err := e.store.SaveState(raw); err != nil {
		e.log.Printf("warn: save state: %v", err)
	}
}

func (e *Engine) journal(kind string, fields map[string]any) {
	if e.jrn == nil {
		return
	}
	entry := map[string]any{"t": e.now().UnixMilli(), "kind": kind}
	for k, v := range fields {
		entry[k] = v
	}
	if err := e.jrn.Write(entry); err != nil {
		e.log.Printf("warn: journal write: %v", err)
	}
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.Clone()
}

// StateJSON returns the current state as the persisted JSON document.
func (e *Engine) StateJSON() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	raw, _ := json.Marshal(e.st)
	return raw
}

// Pets exposes the catalog media index for the WELCOME message.
func (e *Engine) Pets() map[string][]string { return e.cats.Pets.Poses }

// CatalogInfo reports the loaded catalog digests.
func (e *Engine) CatalogInfo() protocol.CatalogInfo {
	return protocol.CatalogInfo{
		ItemsDigest:      e.cats.Items.Digest,
		ActivitiesDigest: e.cats.Activities.Digest,
		LevelsDigest:     e.cats.Levels.Digest,
		PetsDigest:       e.cats.Pets.Digest,
		EventsDigest:     e.cats.Events.Digest,
	}
}

// SelectPet switches the companion identity and resets the pose.
func (e *Engine) SelectPet(name string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, known := e.cats.Pets.Poses[name]; !known {
		return reject(protocol.ErrUnknownPet, "no pet named %q%s", name, suggest(name, e.cats.Pets.Names))
	}
	if name == e.st.PetID {
		return ok("already with %s", name)
	}
	e.st.PetID = name
	e.st.PoseIndex = 0
	e.persist()
	e.journal("select_pet", map[string]any{"pet": name})
	return ok("now with %s", name)
}

// NextPose cycles to the next pose image, wrapping at the end.
func (e *Engine) NextPose() Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	poses := e.cats.Pets.Poses[e.st.PetID]
	e.st.PoseIndex = (e.st.PoseIndex + 1) % len(poses)
	e.persist()
	return ok("pose %d/%d", e.st.PoseIndex+1, len(poses))
}

// suggest returns a " (did you mean X?)" suffix when a close match exists.
func suggest(input string, candidates []string) string {
	best := ""
	bestDist := len(input)/3 + 2
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(input, c)
		if d < bestDist {
			best = c
			bestDist = d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %s?)", best)
}
