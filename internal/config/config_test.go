package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("FACETAG_MATCH_THRESHOLD")
	os.Unsetenv("FACETAG_QUEUE_WAIT_SECONDS")
	os.Unsetenv("FACETAG_ALLOWED_MIME_TYPES")

	cfg := Load()

	if cfg.Recognition.MatchThreshold != 80 {
		t.Errorf("expected default threshold 80, got %f", cfg.Recognition.MatchThreshold)
	}

	if cfg.Queue.WaitSeconds != 20 {
		t.Errorf("expected default wait 20, got %d", cfg.Queue.WaitSeconds)
	}

	if !cfg.Storage.Allows("image/jpeg") || !cfg.Storage.Allows("image/png") {
		t.Errorf("expected jpeg and png in default allowed types, got %v", cfg.Storage.AllowedMimeTypes)
	}

	if cfg.Storage.Allows("image/tiff") {
		t.Error("tiff should not be allowed by default")
	}
}

func TestLoad_CustomThreshold(t *testing.T) {
	t.Setenv("FACETAG_MATCH_THRESHOLD", "92.5")

	cfg := Load()

	if cfg.Recognition.MatchThreshold != 92.5 {
		t.Errorf("expected threshold 92.5, got %f", cfg.Recognition.MatchThreshold)
	}
}

func TestLoad_InvalidThreshold(t *testing.T) {
	t.Setenv("FACETAG_MATCH_THRESHOLD", "not-a-number")

	cfg := Load()

	if cfg.Recognition.MatchThreshold != 80 {
		t.Errorf("expected fallback threshold 80 for invalid input, got %f", cfg.Recognition.MatchThreshold)
	}
}

func TestLoad_NegativeWaitSeconds(t *testing.T) {
	t.Setenv("FACETAG_QUEUE_WAIT_SECONDS", "-5")

	cfg := Load()

	if cfg.Queue.WaitSeconds != 20 {
		t.Errorf("expected fallback wait 20 for negative input, got %d", cfg.Queue.WaitSeconds)
	}
}

func TestLoad_AllowedMimeTypesList(t *testing.T) {
	t.Setenv("FACETAG_ALLOWED_MIME_TYPES", "image/jpeg, image/webp")

	cfg := Load()

	if !cfg.Storage.Allows("image/webp") {
		t.Errorf("expected webp to be allowed, got %v", cfg.Storage.AllowedMimeTypes)
	}

	if cfg.Storage.Allows("image/png") {
		t.Error("png should not be allowed when overridden")
	}
}

func TestLoad_Durations(t *testing.T) {
	t.Setenv("FACETAG_MODEL_START_TIMEOUT", "90s")
	t.Setenv("FACETAG_MODEL_POLL_INTERVAL", "2s")

	cfg := Load()

	if cfg.Recognition.StartTimeout != 90*time.Second {
		t.Errorf("expected start timeout 90s, got %v", cfg.Recognition.StartTimeout)
	}

	if cfg.Recognition.PollInterval != 2*time.Second {
		t.Errorf("expected poll interval 2s, got %v", cfg.Recognition.PollInterval)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("FACETAG_ITEM_TIMEOUT", "soon")

	cfg := Load()

	if cfg.Worker.ItemTimeout != 2*time.Minute {
		t.Errorf("expected fallback item timeout 2m, got %v", cfg.Worker.ItemTimeout)
	}
}

func TestIdentityNames_Loaded(t *testing.T) {
	cfg := Load()

	if len(cfg.Identities.Identities) == 0 {
		t.Fatal("expected identity names to be loaded from embedded YAML")
	}

	if got := cfg.Identities.Name("apostle-petr"); got != "Petr Novák" {
		t.Errorf("expected display name for apostle-petr, got '%s'", got)
	}
}

func TestIdentityNames_UnknownId(t *testing.T) {
	cfg := Load()

	if got := cfg.Identities.Name("user-xyz"); got != "user-xyz" {
		t.Errorf("expected unknown id to be returned verbatim, got '%s'", got)
	}
}

func TestLoad_NuxeoConfig(t *testing.T) {
	t.Setenv("NUXEO_URL", "https://dam.example.com/nuxeo")
	t.Setenv("NUXEO_USERNAME", "automation")
	t.Setenv("NUXEO_PASSWORD", "secret")

	cfg := Load()

	if cfg.Nuxeo.URL != "https://dam.example.com/nuxeo" {
		t.Errorf("unexpected Nuxeo URL '%s'", cfg.Nuxeo.URL)
	}

	if cfg.Nuxeo.Username != "automation" {
		t.Errorf("unexpected Nuxeo username '%s'", cfg.Nuxeo.Username)
	}

	if cfg.Nuxeo.Password != "secret" {
		t.Errorf("unexpected Nuxeo password")
	}
}
