package infra

import (
	"testing"
	"time"

	"possessher/internal/domain"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BACKEND_BASE_URL", "https://api.example.com/")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("COOKIE_SECRET", "cookie-secret")
	t.Setenv("UPSELL_MODE", "")
	t.Setenv("UPGRADE_URL", "")
	t.Setenv("INCLUDE_REFERRAL", "")
	t.Setenv("INCLUDE_EMAIL", "")
	t.Setenv("IMAGE_SOURCE_HOST_ALLOWLIST", "")
	t.Setenv("BACKEND_TIMEOUT_SECONDS", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.BackendBaseURL != "https://api.example.com" {
		t.Fatalf("BackendBaseURL = %q, want trailing slash trimmed", cfg.BackendBaseURL)
	}
	if cfg.BackendTimeout != 60*time.Second {
		t.Fatalf("BackendTimeout = %s, want 60s", cfg.BackendTimeout)
	}
	want := domain.Variant{Upsell: domain.UpsellModal, IncludeReferral: true, IncludeEmail: true}
	if cfg.Variant != want {
		t.Fatalf("Variant = %+v, want %+v", cfg.Variant, want)
	}
	if len(cfg.ImageHostAllowlist) != 1 || cfg.ImageHostAllowlist[0] != "api.example.com" {
		t.Fatalf("ImageHostAllowlist mismatch: %#v", cfg.ImageHostAllowlist)
	}
}

func TestLoadConfigVariantFlags(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("UPSELL_MODE", "external-link")
	t.Setenv("UPGRADE_URL", "https://pay.example.com")
	t.Setenv("INCLUDE_REFERRAL", "false")
	t.Setenv("INCLUDE_EMAIL", "0")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	want := domain.Variant{Upsell: domain.UpsellExternalLink, UpgradeURL: "https://pay.example.com"}
	if cfg.Variant != want {
		t.Fatalf("Variant = %+v, want %+v", cfg.Variant, want)
	}
}

func TestLoadConfigExternalLinkRequiresURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("UPSELL_MODE", "external-link")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when UPGRADE_URL is missing")
	}
}

func TestLoadConfigRejectsUnknownUpsell(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("UPSELL_MODE", "popup")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unsupported upsell mode")
	}
}

func TestLoadConfigRequiresBackend(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BACKEND_BASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing BACKEND_BASE_URL")
	}
}

func TestLoadConfigMergesExplicitAllowlist(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("IMAGE_SOURCE_HOST_ALLOWLIST", "media.example.com, API.example.com ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"api.example.com", "media.example.com"}
	if len(cfg.ImageHostAllowlist) != len(expected) {
		t.Fatalf("ImageHostAllowlist mismatch: got %#v want %#v", cfg.ImageHostAllowlist, expected)
	}
	for i, host := range expected {
		if cfg.ImageHostAllowlist[i] != host {
			t.Fatalf("ImageHostAllowlist[%d] = %q, want %q", i, cfg.ImageHostAllowlist[i], host)
		}
	}
}
