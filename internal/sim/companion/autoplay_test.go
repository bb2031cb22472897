package companion

import (
	"strings"
	"testing"
	"time"
)

func enterHosting(t *testing.T, e *Engine) {
	t.Helper()
	if res := e.ToggleHosting(); !res.OK() {
		t.Fatalf("enter hosting: %v", res)
	}
}

func TestAutoplay_PicksShortWorkWhenHealthy(t *testing.T) {
	e, _, clock := newTestEngine(t)
	enterHosting(t, e)

	evs := e.Tick(clock.now())
	if len(evs) != 1 || evs[0].Kind != TickEventHosting {
		t.Fatalf("events: got %v want one HOSTING", evs)
	}
	if evs[0].Activity != "STREET_SHOW" {
		t.Fatalf("picked %q want STREET_SHOW (shortest within the cap)", evs[0].Activity)
	}

	st := e.Snapshot()
	if st.Status != StatusHosting {
		t.Fatalf("status: got %q want hosting", st.Status)
	}
	if st.Activity == nil || st.Activity.Name != "STREET_SHOW" {
		t.Fatalf("activity: got %v", st.Activity)
	}
	if st.Coins != 49 {
		t.Fatalf("upkeep: got %d coins want 49", st.Coins)
	}
}

func TestAutoplay_SettlesItsOwnWork(t *testing.T) {
	e, _, clock := newTestEngine(t)
	enterHosting(t, e)

	e.Tick(clock.now())
	clock.advance(6 * time.Minute)
	evs := e.Tick(clock.now())

	var settled bool
	for _, ev := range evs {
		if ev.Kind == TickEventSettled && ev.Activity == "STREET_SHOW" {
			settled = true
		}
	}
	if !settled {
		t.Fatalf("hosted work never settled: %v", evs)
	}
	// 50 - 2 upkeep + 8 reward.
	if got := e.Snapshot().Coins; got != 56 {
		t.Fatalf("coins: got %d want 56", got)
	}
	if e.Snapshot().Status != StatusHosting {
		t.Fatalf("left hosting after settling")
	}
}

func TestAutoplay_FeedsBeforeWorking(t *testing.T) {
	e, _, clock := newTestEngine(t)
	e.st.Hunger = 10 // below the hunger floor
	enterHosting(t, e)

	evs := e.Tick(clock.now())
	if len(evs) != 1 || evs[0].Kind != TickEventHosting {
		t.Fatalf("events: got %v", evs)
	}
	if !strings.Contains(evs[0].Message, "went shopping") {
		t.Fatalf("expected a shop run, got %q", evs[0].Message)
	}

	st := e.Snapshot()
	// 50 - 1 upkeep - 5 for the cheapest food.
	if st.Coins != 44 {
		t.Fatalf("coins: got %d want 44", st.Coins)
	}
	if st.Hunger != 25 {
		t.Fatalf("hunger: got %d want 25 (10 + biscuit 15)", st.Hunger)
	}
	if st.Activity != nil {
		t.Fatalf("care and work in the same tick: %v", st.Activity)
	}
}

func TestAutoplay_UsesOwnedItemBeforeBuying(t *testing.T) {
	e, _, clock := newTestEngine(t)
	e.st.Hunger = 10
	e.st.Inventory["JERKY"] = 1
	enterHosting(t, e)

	evs := e.Tick(clock.now())
	if len(evs) != 1 || !strings.Contains(evs[0].Message, "helped itself") {
		t.Fatalf("expected the bag first, got %v", evs)
	}
	st := e.Snapshot()
	if st.Coins != 49 {
		t.Fatalf("coins: got %d want 49 (upkeep only)", st.Coins)
	}
	if _, ok := st.Inventory["JERKY"]; ok {
		t.Fatalf("owned food not consumed")
	}
}

func TestAutoplay_HealComesFirst(t *testing.T) {
	e, _, clock := newTestEngine(t)
	e.st.Health = 40      // below the health floor
	e.st.Hunger = 10      // also below the hunger floor
	e.st.Cleanliness = 10 // and the clean floor
	e.st.Inventory["TONIC"] = 1
	enterHosting(t, e)

	e.Tick(clock.now())
	st := e.Snapshot()
	if st.Health != 75 {
		t.Fatalf("health: got %d want 75 (tonic first)", st.Health)
	}
	if st.Hunger != 10 || st.Cleanliness != 10 {
		t.Fatalf("more than one care action in a tick: hunger %d cleanliness %d", st.Hunger, st.Cleanliness)
	}
}

func TestAutoplay_UnaffordableCareFallsThroughToWork(t *testing.T) {
	e, _, clock := newTestEngine(t)
	e.st.Health = 40 // below the health floor
	e.st.Coins = 10  // cannot afford any medicine
	enterHosting(t, e)

	evs := e.Tick(clock.now())
	if len(evs) != 1 || evs[0].Activity != "STREET_SHOW" {
		t.Fatalf("expected work despite low health, got %v", evs)
	}
	if got := e.Snapshot().Health; got != 40 {
		t.Fatalf("health: got %d want 40 (no care possible)", got)
	}
}

func TestAutoplay_BrokeEndsHosting(t *testing.T) {
	e, _, clock := newTestEngine(t)
	e.st.Coins = 0
	enterHosting(t, e)

	evs := e.Tick(clock.now())
	if len(evs) != 1 || evs[0].Kind != TickEventHosting {
		t.Fatalf("events: got %v", evs)
	}
	if !strings.Contains(evs[0].Message, "not enough coins") {
		t.Fatalf("message: got %q", evs[0].Message)
	}
	if e.Snapshot().Status != StatusIdle {
		t.Fatalf("status: got %q want idle", e.Snapshot().Status)
	}
}

func TestAutoplay_BrokeWithPendingActivityBecomesWork(t *testing.T) {
	e, _, clock := newTestEngine(t)
	enterHosting(t, e)

	e.Tick(clock.now()) // schedules STREET_SHOW
	e.st.Coins = 0

	clock.advance(1 * time.Minute)
	e.Tick(clock.now())

	st := e.Snapshot()
	if st.Status != StatusWorking {
		t.Fatalf("status: got %q want working", st.Status)
	}
	if st.Activity == nil || st.Activity.Name != "STREET_SHOW" {
		t.Fatalf("activity lost: %v", st.Activity)
	}
}
