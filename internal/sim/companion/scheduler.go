package companion

import (
	"fmt"

	"pocketpet.app/internal/protocol"
)

// Play starts the short play interaction. The effect lands when the play
// window resolves on a later tick.
func (e *Engine) Play() Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st.Status == StatusSick {
		return reject(protocol.ErrSick, "%s is too sick to play", e.st.PetID)
	}
	if e.st.Status != StatusIdle {
		return reject(protocol.ErrBusy, "%s is busy (%s)", e.st.PetID, e.st.Status)
	}
	if e.st.Hunger < e.tune.Play.MinHunger {
		return reject(protocol.ErrTooHungry, "%s is too hungry to play", e.st.PetID)
	}

	nowMs := e.now().UnixMilli()
	e.st.Status = StatusPlaying
	e.playEndsAt = nowMs + int64(e.tune.Play.DurationSeconds)*1000
	e.persist()
	e.journal("play", nil)
	return ok("playing with %s", e.st.PetID)
}

// StartWork schedules a work activity with a deadline.
func (e *Engine) StartWork(name string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st.Status == StatusSick {
		return reject(protocol.ErrSick, "%s is too sick to work", e.st.PetID)
	}
	if e.st.Status != StatusIdle {
		return reject(protocol.ErrBusy, "%s is busy (%s)", e.st.PetID, e.st.Status)
	}
	return e.startActivity(name, StatusWorking)
}

// startActivity validates the option and records the deadline. The caller
// has already checked status exclusivity; keepStatus is the status to hold
// while the activity runs (working, or hosting for autonomy-issued work).
func (e *Engine) startActivity(name string, keep Status) Result {
	opt, known := e.cats.Activities.ByID[name]
	if !known {
		return reject(protocol.ErrUnknownActivity, "unknown activity %q%s", name, suggest(name, e.cats.Activities.Names))
	}
	if e.st.Level < opt.UnlockLevel {
		return reject(protocol.ErrLocked, "%s unlocks at level %d", opt.Title, opt.UnlockLevel)
	}
	if e.st.Hunger < opt.Cost.Hunger {
		return reject(protocol.ErrTooHungry, "%s is too hungry for %s", e.st.PetID, opt.Title)
	}

	nowMs := e.now().UnixMilli()
	e.st.Status = keep
	e.st.Activity = &Activity{
		Kind:    ActivityKindWork,
		Name:    opt.ID,
		EndTime: nowMs + int64(opt.DurationMinutes)*60_000,
	}
	e.persist()
	e.journal("start_work", map[string]any{"activity": opt.ID, "end_time": e.st.Activity.EndTime})
	return ok("%s started: %s (%d min)", e.st.PetID, opt.Title, opt.DurationMinutes)
}

// Cancel abandons the pending activity. No reward, no refund.
func (e *Engine) Cancel() Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st.Activity == nil {
		return reject(protocol.ErrNoActivity, "nothing to cancel")
	}
	e.st.Activity = nil
	if e.st.Status == StatusWorking {
		e.st.Status = StatusIdle
	}
	e.persist()
	e.journal("cancel", nil)
	return ok("activity cancelled")
}

// ToggleHosting enters or leaves autonomous mode.
func (e *Engine) ToggleHosting() Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st.Status == StatusHosting {
		// A hosting-issued activity keeps running as plain work.
		if e.st.Activity != nil {
			e.st.Status = StatusWorking
		} else {
			e.st.Status = StatusIdle
		}
		e.persist()
		e.journal("hosting_off", nil)
		return ok("%s is back under your care", e.st.PetID)
	}
	if e.st.Status == StatusSick {
		return reject(protocol.ErrSick, "%s is too sick to host", e.st.PetID)
	}
	if e.st.Status != StatusIdle {
		return reject(protocol.ErrBusy, "%s is busy (%s)", e.st.PetID, e.st.Status)
	}
	e.st.Status = StatusHosting
	e.persist()
	e.journal("hosting_on", nil)
	return ok("%s is now looking after itself", e.st.PetID)
}

// settle resolves any expired deadline. Idempotent: once an activity is
// cleared, later calls see nothing to do and pay nothing twice.
func (e *Engine) settle(nowMs int64) []TickEvent {
	var evs []TickEvent

	if e.st.Status == StatusPlaying && e.playEndsAt > 0 && nowMs >= e.playEndsAt {
		e.playEndsAt = 0
		e.st.Status = StatusIdle
		e.st.Happiness = clampGauge(e.st.Happiness + e.tune.Play.Happiness)
		e.st.Hunger = clampGauge(e.st.Hunger - e.tune.Play.HungerCost)
		e.addExperience(e.tune.Play.Exp)
		evs = append(evs, TickEvent{
			Kind:    TickEventPlayed,
			Message: "you had a great time together",
			Exp:     e.tune.Play.Exp,
		})
	}

	if a := e.st.Activity; a != nil && nowMs >= a.EndTime {
		e.st.Activity = nil
		if e.st.Status == StatusWorking {
			e.st.Status = StatusIdle
		}
		if opt, known := e.cats.Activities.ByID[a.Name]; known {
			e.st.Coins += opt.RewardCoins
			e.st.applyCost(opt.Cost)
			e.addExperience(opt.RewardExp)
			evs = append(evs, TickEvent{
				Kind:     TickEventSettled,
				Message:  fmt.Sprintf("%s finished: +%d coins", opt.Title, opt.RewardCoins),
				Activity: opt.ID,
				Coins:    opt.RewardCoins,
				Exp:      opt.RewardExp,
			})
		} else {
			// Activity removed from the catalog between runs: drop it.
			e.log.Printf("warn: settling unknown activity %q, no reward", a.Name)
		}
	}

	if len(evs) > 0 {
		e.persist()
		for _, ev := range evs {
			e.journal("settle", map[string]any{"event": ev.Kind, "activity": ev.Activity, "coins": ev.Coins, "exp": ev.Exp})
		}
	}
	return evs
}
