// Package tuning loads the numeric knobs of a deployment from YAML. Every
// field has a default equal to the engine's built-in constant, so a missing
// file or a partial file is fine.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	MaxTalkDistance int `yaml:"max_talk_distance"`
	LOSRange        int `yaml:"los_range"`

	DefaultViewDistance  int `yaml:"default_view_distance"`
	DefaultMovementRange int `yaml:"default_movement_range"`
	DefaultMaxHP         int `yaml:"default_max_hp"`

	ContractMinExpiry int `yaml:"contract_min_expiry"`
	ContractMaxExpiry int `yaml:"contract_max_expiry"`

	TurnTimeoutMs      int `yaml:"turn_timeout_ms"`
	SnapshotEveryTurns int `yaml:"snapshot_every_turns"`
}

func Defaults() Tuning {
	return Tuning{
		MaxTalkDistance:      15,
		LOSRange:             20,
		DefaultViewDistance:  8,
		DefaultMovementRange: 5,
		DefaultMaxHP:         20,
		ContractMinExpiry:    1,
		ContractMaxExpiry:    20,
		TurnTimeoutMs:        60_000,
		SnapshotEveryTurns:   50,
	}
}

// Load reads a tuning file over the defaults. A missing path returns the
// defaults without error.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
