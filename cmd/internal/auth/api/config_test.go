package authapi

import (
	"testing"
	"time"
)

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("NIMBUS_AUTH_TRUST_PROXY", "")
	t.Setenv("NIMBUS_AUTH_MAX_BODY_BYTES", "")
	t.Setenv("NIMBUS_AUTH_SIGNIN_IP_MAX", "")
	t.Setenv("NIMBUS_AUTH_SIGNIN_IP_WINDOW", "")

	cfg := LoadConfigFromEnv()
	if cfg.TrustProxy {
		t.Fatal("TrustProxy should default to false")
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("MaxBodyBytes = %d, want %d", cfg.MaxBodyBytes, 1<<20)
	}
	if cfg.SignInIPMax != 20 {
		t.Fatalf("SignInIPMax = %d, want 20", cfg.SignInIPMax)
	}
	if cfg.VisitorCookieName != "nimbus_vid" {
		t.Fatalf("VisitorCookieName = %q", cfg.VisitorCookieName)
	}
	if cfg.ScopeIdleTTL != 30*time.Minute {
		t.Fatalf("ScopeIdleTTL = %v, want 30m", cfg.ScopeIdleTTL)
	}
}

func TestLoadConfigFromEnvOverridesAndClamps(t *testing.T) {
	t.Setenv("NIMBUS_AUTH_TRUST_PROXY", "true")
	t.Setenv("NIMBUS_AUTH_MAX_BODY_BYTES", "2048")
	t.Setenv("NIMBUS_AUTH_SIGNIN_IP_MAX", "-3")
	t.Setenv("NIMBUS_AUTH_SIGNIN_IP_WINDOW", "90s")
	t.Setenv("NIMBUS_AUTH_SCOPE_IDLE_TTL", "10m")

	cfg := LoadConfigFromEnv()
	if !cfg.TrustProxy {
		t.Fatal("TrustProxy not applied")
	}
	if cfg.MaxBodyBytes != 2048 {
		t.Fatalf("MaxBodyBytes = %d, want 2048", cfg.MaxBodyBytes)
	}
	if cfg.SignInIPMax != 20 {
		t.Fatalf("invalid SignInIPMax should fall back to default, got %d", cfg.SignInIPMax)
	}
	if cfg.SignInIPWindow != 90*time.Second {
		t.Fatalf("SignInIPWindow = %v, want 90s", cfg.SignInIPWindow)
	}
	if cfg.ScopeIdleTTL != 10*time.Minute {
		t.Fatalf("ScopeIdleTTL = %v, want 10m", cfg.ScopeIdleTTL)
	}
}
