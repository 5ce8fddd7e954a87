package settings

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

const REDIS_KEY_SITE_SETTINGS = "skyhigh:site_settings"

// Settings is the operator-tunable game configuration. The engine takes a
// fresh snapshot at the start of every round, so admin changes apply from the
// next round onward.
type Settings struct {
	MinBet                      float64 `json:"min_bet"`
	MaxBet                      float64 `json:"max_bet"`
	GameDifficultyPercent       float64 `json:"game_difficulty_percent"`
	HighStakesThreshold         float64 `json:"high_stakes_threshold"`
	HighStakesDifficultyPercent float64 `json:"high_stakes_difficulty_percent"`
	MaintenanceMode             bool    `json:"maintenance_mode"`
}

func Defaults() Settings {
	return Settings{
		MinBet:                      1,
		MaxBet:                      100,
		GameDifficultyPercent:       70,
		HighStakesThreshold:         50,
		HighStakesDifficultyPercent: 85,
		MaintenanceMode:             false,
	}
}

// Source supplies a settings snapshot per round start.
type Source interface {
	Snapshot(ctx context.Context) Settings
}

// Static always returns the same settings. Used in tests and as a fallback.
type Static struct {
	Settings Settings
}

func (s Static) Snapshot(ctx context.Context) Settings {
	return s.Settings
}

// RedisStore keeps settings as a JSON blob in redis, falling back to
// Defaults when the key is missing or unreadable.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Snapshot(ctx context.Context) Settings {
	raw, err := s.client.Get(ctx, REDIS_KEY_SITE_SETTINGS).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[SETTINGS] Read failed, using defaults: %v", err)
		}
		return Defaults()
	}

	parsed := Defaults()
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		log.Printf("[SETTINGS] Corrupt settings blob, using defaults: %v", err)
		return Defaults()
	}
	return parsed
}

func (s *RedisStore) Save(ctx context.Context, settings Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, REDIS_KEY_SITE_SETTINGS, data, 0).Err()
}
