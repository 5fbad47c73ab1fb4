package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// GameConfig holds the timings every session shares. Lobby leaders cannot
// change these; per-lobby settings live in game.Config.
type GameConfig struct {
	VoteDelaySeconds           int `env:"VOTE_DELAY_SECONDS" envDefault:"10"`
	SabotageSeconds            int `env:"SABOTAGE_SECONDS" envDefault:"30"`
	StatusCheckSeconds         int `env:"STATUS_CHECK_SECONDS" envDefault:"15"`
	DefaultKillCooldownSeconds int `env:"DEFAULT_KILL_COOLDOWN_SECONDS" envDefault:"120"`
	DefaultMeetingSeconds      int `env:"DEFAULT_MEETING_SECONDS" envDefault:"150"`
}

func LoadGame() (GameConfig, error) {
	var cfg GameConfig
	err := env.Parse(&cfg)
	return cfg, err
}

func (c GameConfig) VoteDelay() time.Duration {
	return time.Duration(c.VoteDelaySeconds) * time.Second
}

func (c GameConfig) SabotageWindow() time.Duration {
	return time.Duration(c.SabotageSeconds) * time.Second
}

func (c GameConfig) StatusCheckWindow() time.Duration {
	return time.Duration(c.StatusCheckSeconds) * time.Second
}
