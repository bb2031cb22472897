package companion

import (
	"strings"
	"testing"

	"pocketpet.app/internal/protocol"
)

func TestBuy_DeductsCoinsAndGrantsExp(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.st.Level = 3 // DELUXE_FEAST unlocks at 3

	res := e.Buy("DELUXE_FEAST")
	if !res.OK() {
		t.Fatalf("buy: %v", res)
	}
	st := e.Snapshot()
	if st.Coins != 30 {
		t.Fatalf("coins: got %d want 30", st.Coins)
	}
	if st.Inventory["DELUXE_FEAST"] != 1 {
		t.Fatalf("inventory: got %d want 1", st.Inventory["DELUXE_FEAST"])
	}
	if st.Exp != 10 {
		t.Fatalf("exp: got %d want 10 (half price)", st.Exp)
	}
}

func TestBuy_ExactCoinsSucceeds(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.st.Coins = 5

	if res := e.Buy("BISCUIT"); !res.OK() {
		t.Fatalf("exact-price buy rejected: %v", res)
	}
	if got := e.Snapshot().Coins; got != 0 {
		t.Fatalf("coins: got %d want 0", got)
	}
}

func TestBuy_Rejections(t *testing.T) {
	e, _, _ := newTestEngine(t)

	e.st.Coins = 4
	res := e.Buy("BISCUIT")
	if res.Code != protocol.ErrNoCoins {
		t.Fatalf("short funds: got %q want %q", res.Code, protocol.ErrNoCoins)
	}

	e.st.Coins = 1000
	res = e.Buy("RUBBER_BALL") // unlocks at level 5
	if res.Code != protocol.ErrLocked {
		t.Fatalf("locked: got %q want %q", res.Code, protocol.ErrLocked)
	}

	res = e.Buy("BISCUT")
	if res.Code != protocol.ErrUnknownItem {
		t.Fatalf("unknown: got %q want %q", res.Code, protocol.ErrUnknownItem)
	}
	if !strings.Contains(res.Message, "did you mean BISCUIT?") {
		t.Fatalf("missing suggestion in %q", res.Message)
	}

	st := e.Snapshot()
	if len(st.Inventory) != 0 || st.Coins != 1000 {
		t.Fatalf("rejected buys changed state: %v coins %d", st.Inventory, st.Coins)
	}
}

func TestUseItem_AppliesEffectAndConsumes(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.st.Hunger = 40
	e.st.Inventory["BISCUIT"] = 2

	if res := e.UseItem("BISCUIT"); !res.OK() {
		t.Fatalf("use: %v", res)
	}
	st := e.Snapshot()
	if st.Hunger != 55 {
		t.Fatalf("hunger: got %d want 55", st.Hunger)
	}
	if st.Inventory["BISCUIT"] != 1 {
		t.Fatalf("quantity: got %d want 1", st.Inventory["BISCUIT"])
	}
	if st.Exp != 10 {
		t.Fatalf("exp: got %d want 10", st.Exp)
	}

	if res := e.UseItem("BISCUIT"); !res.OK() {
		t.Fatalf("use: %v", res)
	}
	if _, ok := e.Snapshot().Inventory["BISCUIT"]; ok {
		t.Fatalf("zero-quantity entry not removed")
	}

	res := e.UseItem("BISCUIT")
	if res.Code != protocol.ErrNoItem {
		t.Fatalf("empty bag: got %q want %q", res.Code, protocol.ErrNoItem)
	}
}

func TestUseItem_EffectClampsAtHundred(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.st.Happiness = 95
	e.st.Inventory["RUBBER_BALL"] = 1

	if res := e.UseItem("RUBBER_BALL"); !res.OK() {
		t.Fatalf("use: %v", res)
	}
	if got := e.Snapshot().Happiness; got != 100 {
		t.Fatalf("happiness: got %d want 100", got)
	}
}

func TestUseItem_SickOnlyAcceptsMedicine(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.st.Status = StatusSick
	e.st.Health = 20
	e.st.Inventory["BISCUIT"] = 1
	e.st.Inventory["TONIC"] = 1

	res := e.UseItem("BISCUIT")
	if res.Code != protocol.ErrSick {
		t.Fatalf("food while sick: got %q want %q", res.Code, protocol.ErrSick)
	}
	if e.Snapshot().Inventory["BISCUIT"] != 1 {
		t.Fatalf("rejected use consumed the item")
	}

	if res := e.UseItem("TONIC"); !res.OK() {
		t.Fatalf("medicine: %v", res)
	}
	st := e.Snapshot()
	if st.Status != StatusIdle {
		t.Fatalf("cure: got %q want idle", st.Status)
	}
	if st.Health != 55 {
		t.Fatalf("health: got %d want 55", st.Health)
	}
}

func TestFeedCleanHeal_ResolveByCategory(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.st.Hunger = 10
	e.st.Cleanliness = 10
	e.st.Inventory["JERKY"] = 1
	e.st.Inventory["SOAP"] = 1

	if res := e.Feed(); !res.OK() {
		t.Fatalf("feed: %v", res)
	}
	if got := e.Snapshot().Hunger; got != 40 {
		t.Fatalf("hunger: got %d want 40", got)
	}

	if res := e.Clean(); !res.OK() {
		t.Fatalf("clean: %v", res)
	}
	if got := e.Snapshot().Cleanliness; got != 100 {
		t.Fatalf("cleanliness: got %d want 100", got)
	}

	res := e.Heal()
	if res.Code != protocol.ErrNoItem {
		t.Fatalf("heal without medicine: got %q want %q", res.Code, protocol.ErrNoItem)
	}
}

func TestFeed_DrainsLexicographicallyFirstItem(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.st.Inventory["JERKY"] = 1
	e.st.Inventory["BISCUIT"] = 1

	if res := e.Feed(); !res.OK() {
		t.Fatalf("feed: %v", res)
	}
	st := e.Snapshot()
	if _, ok := st.Inventory["BISCUIT"]; ok {
		t.Fatalf("expected BISCUIT consumed first")
	}
	if st.Inventory["JERKY"] != 1 {
		t.Fatalf("JERKY consumed out of order")
	}
}

func TestAddExperience_LevelUpPaysCoins(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.st.Exp = 95
	e.st.Coins = 0

	e.AddExperience(10)

	st := e.Snapshot()
	if st.Level != 2 || st.Exp != 5 {
		t.Fatalf("got level %d exp %d want 2/5", st.Level, st.Exp)
	}
	if st.Coins != 200 {
		t.Fatalf("coins: got %d want 200", st.Coins)
	}
}

func TestAddExperience_SplitEqualsLumpSum(t *testing.T) {
	lump, _, _ := newTestEngine(t)
	split, _, _ := newTestEngine(t)

	lump.AddExperience(700)
	for i := 0; i < 7; i++ {
		split.AddExperience(100)
	}

	a, b := lump.Snapshot(), split.Snapshot()
	if a.Level != b.Level || a.Exp != b.Exp || a.Coins != b.Coins {
		t.Fatalf("lump %d/%d/%d != split %d/%d/%d",
			a.Level, a.Exp, a.Coins, b.Level, b.Exp, b.Coins)
	}
}

func TestAddExperience_ExpAlwaysBelowThreshold(t *testing.T) {
	e, _, _ := newTestEngine(t)

	for i := 0; i < 40; i++ {
		e.AddExperience(777)
		st := e.Snapshot()
		if th := e.cats.Levels.Threshold(st.Level); st.Exp >= th {
			t.Fatalf("step %d: exp %d >= threshold %d at level %d", i, st.Exp, th, st.Level)
		}
	}
}

func TestAddExperience_IgnoresNonPositive(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.AddExperience(0)
	e.AddExperience(-10)
	if got := e.Snapshot().Exp; got != 0 {
		t.Fatalf("exp: got %d want 0", got)
	}
}
