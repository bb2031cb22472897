package companion

import (
	"fmt"

	"pocketpet.app/internal/sim/catalogs"
)

// autoplay runs one step of the hosting policy: pay upkeep, then the first
// matching care priority wins. At most one action per tick.
func (e *Engine) autoplay() *TickEvent {
	upkeep := e.tune.Hosting.UpkeepCoins
	if e.st.Coins < upkeep {
		if e.st.Activity != nil {
			e.st.Status = StatusWorking
		} else {
			e.st.Status = StatusIdle
		}
		e.persist()
		e.journal("hosting_broke", nil)
		return &TickEvent{Kind: TickEventHosting, Message: "hosting ended: not enough coins for upkeep"}
	}
	e.st.Coins -= upkeep

	// A priority that cannot act (nothing owned or affordable) falls
	// through to the next one.
	if e.st.Health < e.tune.Hosting.HealthFloor {
		if ev := e.autoCare(catalogs.CategoryMedicine); ev != nil {
			return ev
		}
	}
	if e.st.Cleanliness < e.tune.Hosting.CleanFloor {
		if ev := e.autoCare(catalogs.CategoryCleaning); ev != nil {
			return ev
		}
	}
	if e.st.Hunger < e.tune.Hosting.HungerFloor {
		if ev := e.autoCare(catalogs.CategoryFood); ev != nil {
			return ev
		}
	}
	if e.st.Activity == nil {
		if name, found := e.pickAutoWork(); found {
			if res := e.startActivity(name, StatusHosting); res.OK() {
				return &TickEvent{Kind: TickEventHosting, Message: res.Message, Activity: name}
			}
		}
	}

	// No action fired; still owe the upkeep deduction a write.
	e.persist()
	return nil
}

// autoCare uses an owned item of the category, or buys the cheapest
// affordable unlocked one and uses it. Nil when neither is possible.
func (e *Engine) autoCare(category string) *TickEvent {
	if name, found := e.ownedInCategory(category); found {
		if res := e.useItem(name); res.OK() {
			return &TickEvent{Kind: TickEventHosting, Message: fmt.Sprintf("%s helped itself: %s", e.st.PetID, res.Message)}
		}
	}

	name, found := e.cheapestAffordable(category)
	if !found {
		return nil
	}
	if res := e.buy(name); !res.OK() {
		return nil
	}
	if res := e.useItem(name); res.OK() {
		return &TickEvent{Kind: TickEventHosting, Message: fmt.Sprintf("%s went shopping: %s", e.st.PetID, res.Message)}
	}
	return nil
}

// cheapestAffordable walks item ids in sorted order; strict price
// comparison makes the lexicographically first id win ties.
func (e *Engine) cheapestAffordable(category string) (string, bool) {
	best := ""
	bestPrice := 0
	for _, name := range e.cats.Items.Names {
		d := e.cats.Items.ByID[name]
		if d.Category != category {
			continue
		}
		if e.st.Level < d.UnlockLevel || e.st.Coins < d.Price {
			continue
		}
		if best == "" || d.Price < bestPrice {
			best = name
			bestPrice = d.Price
		}
	}
	return best, best != ""
}

// pickAutoWork selects the shortest unlocked option within the hosting
// duration cap that the companion can currently afford in hunger.
func (e *Engine) pickAutoWork() (string, bool) {
	best := ""
	bestDur := 0
	for _, name := range e.cats.Activities.Names {
		d := e.cats.Activities.ByID[name]
		if d.DurationMinutes > e.tune.Hosting.WorkMaxMinutes {
			continue
		}
		if e.st.Level < d.UnlockLevel || e.st.Hunger < d.Cost.Hunger {
			continue
		}
		if best == "" || d.DurationMinutes < bestDur {
			best = name
			bestDur = d.DurationMinutes
		}
	}
	return best, best != ""
}
