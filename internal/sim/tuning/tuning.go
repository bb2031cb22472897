package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickIntervalMs    int `yaml:"tick_interval_ms"`
	DecayEveryMinutes int `yaml:"decay_every_minutes"`

	Decay   Decay   `yaml:"decay"`
	Play    Play    `yaml:"play"`
	Economy Economy `yaml:"economy"`
	Events  Events  `yaml:"events"`
	Hosting Hosting `yaml:"hosting"`
}

type Decay struct {
	Hunger      int `yaml:"hunger"`
	Happiness   int `yaml:"happiness"`
	Cleanliness int `yaml:"cleanliness"`

	LowHungerThreshold     int `yaml:"low_hunger_threshold"`
	LowHungerHealthPenalty int `yaml:"low_hunger_health_penalty"`
	LowCleanThreshold      int `yaml:"low_clean_threshold"`
	LowCleanHealthPenalty  int `yaml:"low_clean_health_penalty"`
}

type Play struct {
	DurationSeconds int `yaml:"duration_seconds"`
	MinHunger       int `yaml:"min_hunger"`
	Happiness       int `yaml:"happiness"`
	HungerCost      int `yaml:"hunger_cost"`
	Exp             int `yaml:"exp"`
}

type Economy struct {
	UseItemExp        int `yaml:"use_item_exp"`
	LevelUpCoinsPerLv int `yaml:"level_up_coins_per_level"`
}

type Events struct {
	ChancePermille      int `yaml:"chance_permille"`
	SickHealthThreshold int `yaml:"sick_health_threshold"`
}

type Hosting struct {
	UpkeepCoins    int `yaml:"upkeep_coins"`
	HealthFloor    int `yaml:"health_floor"`
	CleanFloor     int `yaml:"clean_floor"`
	HungerFloor    int `yaml:"hunger_floor"`
	WorkMaxMinutes int `yaml:"work_max_minutes"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Defaults mirror the shipped tuning.yaml.
func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:   "1.0",
		TickIntervalMs:    30_000,
		DecayEveryMinutes: 1,
		Decay: Decay{
			Hunger:      1,
			Happiness:   1,
			Cleanliness: 1,

			LowHungerThreshold:     20,
			LowHungerHealthPenalty: 2,
			LowCleanThreshold:      20,
			LowCleanHealthPenalty:  1,
		},
		Play: Play{
			DurationSeconds: 5,
			MinHunger:       10,
			Happiness:       15,
			HungerCost:      10,
			Exp:             15,
		},
		Economy: Economy{
			UseItemExp:        10,
			LevelUpCoinsPerLv: 100,
		},
		Events: Events{
			ChancePermille:      20,
			SickHealthThreshold: 30,
		},
		Hosting: Hosting{
			UpkeepCoins:    1,
			HealthFloor:    50,
			CleanFloor:     30,
			HungerFloor:    40,
			WorkMaxMinutes: 10,
		},
	}
}
