package cache

import (
	"os"
	"testing"
)

func TestGetEnv(t *testing.T) {
	t.Run("set variable wins", func(t *testing.T) {
		t.Setenv("CACHE_TEST_KEY", "custom")
		if got := getEnv("CACHE_TEST_KEY", "fallback"); got != "custom" {
			t.Errorf("getEnv() = %v, want custom", got)
		}
	})

	t.Run("unset variable falls back", func(t *testing.T) {
		os.Unsetenv("CACHE_TEST_MISSING")
		if got := getEnv("CACHE_TEST_MISSING", "fallback"); got != "fallback" {
			t.Errorf("getEnv() = %v, want fallback", got)
		}
	})
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     int
	}{
		{"valid integer", "42", 42},
		{"invalid integer", "not_a_number", 7},
		{"empty value", "", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "CACHE_TEST_INT"
			os.Unsetenv(key)
			if tt.envValue != "" {
				t.Setenv(key, tt.envValue)
			}
			if got := getEnvAsInt(key, 7); got != tt.want {
				t.Errorf("getEnvAsInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew_ReturnsNilWithoutRedis(t *testing.T) {
	if cacheInstance != nil {
		t.Skip("cache singleton already initialized")
	}

	svc := New()
	if svc == nil {
		t.Skip("redis not available, nil service is the documented behavior")
	}

	t.Run("health reports up", func(t *testing.T) {
		stats := svc.Health()
		if stats["status"] != "up" {
			t.Errorf("status = %v, want up", stats["status"])
		}
	})
}
