package settings

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestDefaults(t *testing.T) {
	d := Defaults()

	if d.MinBet != 1 || d.MaxBet != 100 {
		t.Errorf("bet limits = %v..%v, want 1..100", d.MinBet, d.MaxBet)
	}
	if d.GameDifficultyPercent != 70 {
		t.Errorf("difficulty = %v, want 70", d.GameDifficultyPercent)
	}
	if d.HighStakesThreshold != 50 || d.HighStakesDifficultyPercent != 85 {
		t.Errorf("high stakes = %v @ %v, want 50 @ 85", d.HighStakesThreshold, d.HighStakesDifficultyPercent)
	}
	if d.MaintenanceMode {
		t.Error("maintenance mode should default off")
	}
}

func TestStatic_Snapshot(t *testing.T) {
	s := Static{Settings: Settings{MinBet: 2, MaxBet: 50}}
	snap := s.Snapshot(context.Background())
	if snap.MinBet != 2 || snap.MaxBet != 50 {
		t.Errorf("Snapshot = %+v", snap)
	}
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() {
		client.Del(ctx, REDIS_KEY_SITE_SETTINGS)
		client.Close()
	})

	store := NewRedisStore(client)

	t.Run("missing key falls back to defaults", func(t *testing.T) {
		client.Del(ctx, REDIS_KEY_SITE_SETTINGS)
		if got := store.Snapshot(ctx); got != Defaults() {
			t.Errorf("Snapshot = %+v, want defaults", got)
		}
	})

	t.Run("save then snapshot", func(t *testing.T) {
		want := Defaults()
		want.MaxBet = 500
		want.MaintenanceMode = true

		if err := store.Save(ctx, want); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if got := store.Snapshot(ctx); got != want {
			t.Errorf("Snapshot = %+v, want %+v", got, want)
		}
	})

	t.Run("corrupt blob falls back to defaults", func(t *testing.T) {
		client.Set(ctx, REDIS_KEY_SITE_SETTINGS, "not json", 0)
		if got := store.Snapshot(ctx); got != Defaults() {
			t.Errorf("Snapshot = %+v, want defaults", got)
		}
	})
}
