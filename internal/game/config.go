package game

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"time"
)

type Limits struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (l Limits) Contains(v int) bool {
	return v >= l.Min && v <= l.Max
}

var (
	RequiredPlayersLimits = Limits{Min: 2, Max: 15}
	KillCooldownLimits    = Limits{Min: 10, Max: 600}
	ImpostorsLimits       = Limits{Min: 1, Max: 3}
	MeetingDurationLimits = Limits{Min: 30, Max: 600}
)

// Config is the per-lobby setup the leader edits before a round.
type Config struct {
	RequiredPlayers int            `json:"required_players"`
	Impostors       int            `json:"impostors"`
	TaskCounts      map[string]int `json:"task_counts"`
	KillCooldown    int            `json:"kill_cooldown_seconds"`
	MeetingDuration int            `json:"meeting_duration_seconds"`
	SupportRole     bool           `json:"support_role"`
}

func (c Config) clone() Config {
	c.TaskCounts = maps.Clone(c.TaskCounts)
	return c
}

type ConfigLimits struct {
	RequiredPlayers Limits `json:"required_players"`
	KillCooldown    Limits `json:"kill_cooldown_seconds"`
	Impostors       Limits `json:"impostors"`
	MeetingDuration Limits `json:"meeting_duration_seconds"`
}

func CurrentLimits() ConfigLimits {
	return ConfigLimits{
		RequiredPlayers: RequiredPlayersLimits,
		KillCooldown:    KillCooldownLimits,
		Impostors:       ImpostorsLimits,
		MeetingDuration: MeetingDurationLimits,
	}
}

// Timings are the fixed windows shared by every session on a server.
type Timings struct {
	VoteDelay           time.Duration
	SabotageWindow      time.Duration
	StatusCheckWindow   time.Duration
	DefaultKillCooldown int
	DefaultMeeting      int
}

func DefaultTimings() Timings {
	return Timings{
		VoteDelay:           10 * time.Second,
		SabotageWindow:      30 * time.Second,
		StatusCheckWindow:   15 * time.Second,
		DefaultKillCooldown: 120,
		DefaultMeeting:      150,
	}
}

// ConfigField is one requested setting value as the client sent it.
// Malformed is set when the value could not be read as an integer.
type ConfigField struct {
	Value     int
	Malformed bool
}

func IntField(v int) *ConfigField {
	return &ConfigField{Value: v}
}

// UnmarshalJSON accepts only JSON integers. Fractions, strings and any other
// type are kept as Malformed so the update reports them.
func (f *ConfigField) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*f = ConfigField{Malformed: true}
	if v, ok := raw.(json.Number); ok {
		if n, err := strconv.ParseInt(v.String(), 10, 0); err == nil {
			*f = ConfigField{Value: int(n)}
		}
	}
	return nil
}

// ConfigUpdate carries only the fields the leader asked to change.
type ConfigUpdate struct {
	RequiredPlayers *ConfigField `json:"required_players"`
	KillCooldown    *ConfigField `json:"kill_cooldown_seconds"`
	Impostors       *ConfigField `json:"impostors"`
	MeetingDuration *ConfigField `json:"meeting_duration_seconds"`
	SupportRole     *bool        `json:"support_role"`
}

// applyConfigUpdate validates and applies each field on its own. Fields that
// pass are written even when another field fails.
func applyConfigUpdate(cfg *Config, upd ConfigUpdate) []string {
	var errs []string
	apply := func(field *ConfigField, lim Limits, label, unit string, dst *int) {
		if field == nil {
			return
		}
		if field.Malformed {
			errs = append(errs, fmt.Sprintf("Invalid %s.", label))
			return
		}
		if !lim.Contains(field.Value) {
			errs = append(errs, fmt.Sprintf("The %s must be between %d and %d%s.", label, lim.Min, lim.Max, unit))
			return
		}
		*dst = field.Value
	}
	apply(upd.RequiredPlayers, RequiredPlayersLimits, "number of players", "", &cfg.RequiredPlayers)
	apply(upd.KillCooldown, KillCooldownLimits, "kill cooldown", " seconds", &cfg.KillCooldown)
	apply(upd.Impostors, ImpostorsLimits, "number of impostors", "", &cfg.Impostors)
	apply(upd.MeetingDuration, MeetingDurationLimits, "meeting duration", " seconds", &cfg.MeetingDuration)
	if upd.SupportRole != nil {
		cfg.SupportRole = *upd.SupportRole
	}
	return errs
}
