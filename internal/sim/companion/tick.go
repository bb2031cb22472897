package companion

import (
	"time"

	"pocketpet.app/internal/sim/catalogs"
)

// Tick advances the simulation to now: hosting policy, settlement, decay,
// then a possible random event, in that order. The host process drives it
// on a wall-clock ticker; tests call it directly with any timestamp.
func (e *Engine) Tick(now time.Time) []TickEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	nowMs := now.UnixMilli()
	// Snapshot the decay gap before anything else mutates state this tick.
	elapsed := nowMs - e.st.LastUpdate

	var evs []TickEvent

	if e.st.Status == StatusHosting {
		if ev := e.autoplay(); ev != nil {
			evs = append(evs, *ev)
		}
	}

	evs = append(evs, e.settle(nowMs)...)

	period := int64(e.tune.DecayEveryMinutes) * 60_000
	if period <= 0 {
		period = 60_000
	}
	if elapsed >= period {
		// One step regardless of how many periods elapsed; long gaps
		// collapse to a single application.
		changed := e.decayStep()
		e.st.LastUpdate = nowMs
		if changed {
			e.persist()
		}
	}

	if e.st.Status == StatusIdle && e.tune.Events.ChancePermille > 0 &&
		e.rng.Intn(1000) < e.tune.Events.ChancePermille {
		if ev := e.fireRandomEvent(); ev != nil {
			evs = append(evs, *ev)
			e.persist()
			e.journal("random_event", map[string]any{"message": ev.Message})
		}
	}

	return evs
}

func (e *Engine) decayStep() bool {
	s := &e.st
	before := *s

	s.Hunger = clampGauge(s.Hunger - e.tune.Decay.Hunger)
	s.Happiness = clampGauge(s.Happiness - e.tune.Decay.Happiness)
	s.Cleanliness = clampGauge(s.Cleanliness - e.tune.Decay.Cleanliness)

	if s.Hunger < e.tune.Decay.LowHungerThreshold {
		s.Health = clampGauge(s.Health - e.tune.Decay.LowHungerHealthPenalty)
	}
	if s.Cleanliness < e.tune.Decay.LowCleanThreshold {
		s.Health = clampGauge(s.Health - e.tune.Decay.LowCleanHealthPenalty)
	}

	return s.Hunger != before.Hunger || s.Happiness != before.Happiness ||
		s.Cleanliness != before.Cleanliness || s.Health != before.Health
}

// fireRandomEvent picks one event weighted by the catalog table and
// applies it. Returns nil when the table is empty.
func (e *Engine) fireRandomEvent() *TickEvent {
	total := 0
	for _, name := range e.cats.Events.Names {
		total += e.cats.Events.ByID[name].Weight
	}
	if total <= 0 {
		return nil
	}

	n := e.rng.Intn(total)
	var picked catalogs.EventDef
	for _, name := range e.cats.Events.Names {
		def := e.cats.Events.ByID[name]
		if n < def.Weight {
			picked = def
			break
		}
		n -= def.Weight
	}

	out := &TickEvent{Kind: TickEventRandom, Message: picked.Message}
	switch picked.Kind {
	case catalogs.EventKindCoins:
		e.st.Coins += picked.Coins
		out.Coins = picked.Coins
	case catalogs.EventKindHappiness:
		e.st.Happiness = clampGauge(e.st.Happiness + picked.Happy)
	case catalogs.EventKindSickness:
		e.st.Health = clampGauge(e.st.Health - picked.Health)
		if e.st.Health < e.tune.Events.SickHealthThreshold && e.st.Status == StatusIdle {
			e.st.Status = StatusSick
		}
	case catalogs.EventKindFlavor:
		// Message only.
	}
	return out
}
