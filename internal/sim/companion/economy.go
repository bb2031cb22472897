package companion

import (
	"pocketpet.app/internal/protocol"
	"pocketpet.app/internal/sim/catalogs"
)

// UseItem consumes one owned item and applies its effect.
func (e *Engine) UseItem(name string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.useItem(name)
}

func (e *Engine) useItem(name string) Result {
	if e.st.Inventory[name] <= 0 {
		return reject(protocol.ErrNoItem, "you have no %s, visit the shop", name)
	}
	item, known := e.cats.Items.ByID[name]
	if !known {
		return reject(protocol.ErrUnknownItem, "unknown item %q%s", name, suggest(name, e.cats.Items.Names))
	}
	if e.st.Status == StatusSick && item.Category != catalogs.CategoryMedicine {
		return reject(protocol.ErrSick, "%s is sick and only wants medicine", e.st.PetID)
	}

	e.st.Inventory[name]--
	if e.st.Inventory[name] == 0 {
		delete(e.st.Inventory, name)
	}
	e.st.applyEffect(item.Effect)
	cured := e.st.Status == StatusSick && item.Category == catalogs.CategoryMedicine && item.Effect.Health > 0
	if cured {
		e.st.Status = StatusIdle
	}
	e.addExperience(e.tune.Economy.UseItemExp)
	e.persist()
	e.journal("use_item", map[string]any{"item": name})
	if cured {
		return ok("%s took the %s and feels better", e.st.PetID, item.Title)
	}
	return ok("used %s", item.Title)
}

// Buy purchases one item from the shop. Locked items and short funds are
// distinct rejections.
func (e *Engine) Buy(name string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buy(name)
}

func (e *Engine) buy(name string) Result {
	item, known := e.cats.Items.ByID[name]
	if !known {
		return reject(protocol.ErrUnknownItem, "the shop has no %q%s", name, suggest(name, e.cats.Items.Names))
	}
	if e.st.Level < item.UnlockLevel {
		return reject(protocol.ErrLocked, "%s unlocks at level %d", item.Title, item.UnlockLevel)
	}
	if e.st.Coins < item.Price {
		return reject(protocol.ErrNoCoins, "not enough coins for %s (%d needed)", item.Title, item.Price)
	}

	e.st.Coins -= item.Price
	e.st.Inventory[name]++
	e.addExperience(item.Price / 2)
	e.persist()
	e.journal("buy", map[string]any{"item": name, "price": item.Price})
	return ok("bought %s for %d coins", item.Title, item.Price)
}

// Feed, Clean, and Heal resolve to the owned item of the matching
// category. The tie-break among owned items is lexicographic by id.
func (e *Engine) Feed() Result { return e.useCategory(catalogs.CategoryFood) }

func (e *Engine) Clean() Result { return e.useCategory(catalogs.CategoryCleaning) }

func (e *Engine) Heal() Result { return e.useCategory(catalogs.CategoryMedicine) }

func (e *Engine) useCategory(category string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	name, found := e.ownedInCategory(category)
	if !found {
		return reject(protocol.ErrNoItem, "no %s item in the bag, visit the shop", category)
	}
	return e.useItem(name)
}

// ownedInCategory walks item ids in sorted order so repeated calls drain
// the same item first.
func (e *Engine) ownedInCategory(category string) (string, bool) {
	for _, name := range e.cats.Items.Names {
		if e.st.Inventory[name] <= 0 {
			continue
		}
		if e.cats.Items.ByID[name].Category == category {
			return name, true
		}
	}
	return "", false
}

// AddExperience grants experience and applies any resulting level-ups.
func (e *Engine) AddExperience(amount int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.addExperience(amount)
	e.persist()
}

func (e *Engine) addExperience(amount int) {
	if amount <= 0 {
		return
	}
	e.st.Exp += amount
	e.levelUps()
}

// levelUps applies level-ups until exp sits below the current threshold.
// Terminates because every loaded curve threshold is positive.
func (e *Engine) levelUps() {
	for {
		th := e.cats.Levels.Threshold(e.st.Level)
		if th <= 0 {
			e.log.Printf("warn: non-positive threshold for level %d", e.st.Level)
			return
		}
		if e.st.Exp < th {
			return
		}
		e.st.Level++
		e.st.Exp -= th
		e.st.Coins += e.tune.Economy.LevelUpCoinsPerLv * e.st.Level
		e.log.Printf("level up: now level %d", e.st.Level)
	}
}
