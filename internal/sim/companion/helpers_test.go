package companion

import (
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pocketpet.app/internal/sim/catalogs"
	"pocketpet.app/internal/sim/tuning"
)

func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find repo root from %s", dir)
		}
		dir = parent
	}
}

func loadTestCatalogs(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load(filepath.Join(findRepoRoot(t), "configs"))
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return cats
}

type memStore struct {
	raw   []byte
	saves int
}

func (m *memStore) LoadState() ([]byte, bool, error) {
	if m.raw == nil {
		return nil, false, nil
	}
	return append([]byte(nil), m.raw...), true, nil
}

func (m *memStore) SaveState(raw []byte) error {
	m.raw = append([]byte(nil), raw...)
	m.saves++
	return nil
}

type fakeClock struct {
	ms int64
}

func (c *fakeClock) now() time.Time { return time.UnixMilli(c.ms) }

func (c *fakeClock) advance(d time.Duration) { c.ms += d.Milliseconds() }

const testEpochMs = int64(1_700_000_000_000)

// newTestEngine builds an engine on the shipped catalogs with random
// events disabled and a controllable clock.
func newTestEngine(t *testing.T) (*Engine, *memStore, *fakeClock) {
	t.Helper()
	return newTestEngineOn(t, &memStore{}, &fakeClock{ms: testEpochMs})
}

func newTestEngineOn(t *testing.T, store *memStore, clock *fakeClock) (*Engine, *memStore, *fakeClock) {
	t.Helper()
	tune := tuning.Defaults()
	tune.Events.ChancePermille = 0

	e, err := New(Options{
		Catalogs: loadTestCatalogs(t),
		Tuning:   tune,
		Store:    store,
		Logger:   log.New(os.Stderr, "[engine-test] ", 0),
		Rand:     rand.New(rand.NewSource(1)),
		Now:      clock.now,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e, store, clock
}
