package companion

import (
	"pocketpet.app/internal/sim/catalogs"
)

// Status is the companion's exclusive activity state. Exactly one value
// holds at any time; anything else read from disk is repaired to idle.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPlaying Status = "playing"
	StatusWorking Status = "working"
	StatusSick    Status = "sick"
	StatusHosting Status = "hosting"
)

func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusPlaying, StatusWorking, StatusSick, StatusHosting:
		return true
	}
	return false
}

const ActivityKindWork = "work"

// Activity is a scheduled job with a deadline. Present only while an
// activity is pending settlement.
type Activity struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	EndTime int64  `json:"end_time"` // unix millis
}

// State is the single persisted document of truth for one companion.
type State struct {
	Hunger      int `json:"hunger"`
	Happiness   int `json:"happiness"`
	Cleanliness int `json:"cleanliness"`
	Health      int `json:"health"`

	Level int `json:"level"`
	Exp   int `json:"exp"`

	Coins     int            `json:"coins"`
	Inventory map[string]int `json:"inventory"`

	PetID     string `json:"pet_id"`
	PoseIndex int    `json:"pose_index"`

	Status   Status    `json:"status"`
	Activity *Activity `json:"activity,omitempty"`

	LastUpdate int64 `json:"last_update"` // unix millis
}

// NewState seeds a fresh profile.
func NewState(cats *catalogs.Catalogs, nowMs int64) State {
	return State{
		Hunger:      80,
		Happiness:   90,
		Cleanliness: 70,
		Health:      100,

		Level: 1,
		Exp:   0,

		Coins:     50,
		Inventory: map[string]int{},

		PetID:     cats.Pets.DefaultPet(),
		PoseIndex: 0,

		Status:     StatusIdle,
		LastUpdate: nowMs,
	}
}

// Clone returns a deep copy safe to hand outside the engine lock.
func (s State) Clone() State {
	out := s
	out.Inventory = make(map[string]int, len(s.Inventory))
	for k, v := range s.Inventory {
		out.Inventory[k] = v
	}
	if s.Activity != nil {
		a := *s.Activity
		out.Activity = &a
	}
	return out
}

func clampGauge(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func (s *State) applyEffect(d catalogs.GaugeDelta) {
	s.Hunger = clampGauge(s.Hunger + d.Hunger)
	s.Happiness = clampGauge(s.Happiness + d.Happiness)
	s.Cleanliness = clampGauge(s.Cleanliness + d.Cleanliness)
	s.Health = clampGauge(s.Health + d.Health)
}

func (s *State) applyCost(d catalogs.GaugeDelta) {
	s.Hunger = clampGauge(s.Hunger - d.Hunger)
	s.Happiness = clampGauge(s.Happiness - d.Happiness)
	s.Cleanliness = clampGauge(s.Cleanliness - d.Cleanliness)
	s.Health = clampGauge(s.Health - d.Health)
}
