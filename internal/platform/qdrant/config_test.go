package qdrant

import (
	"testing"
	"time"
)

func TestConfigFromEnvReadsTimeout(t *testing.T) {
	t.Setenv("QDRANT_TIMEOUT_SECONDS", "25")

	cfg := ConfigFromEnv()
	if cfg.Timeout != 25*time.Second {
		t.Fatalf("timeout: want=%v got=%v", 25*time.Second, cfg.Timeout)
	}
}

func TestConfigFromEnvTimeoutDefault(t *testing.T) {
	t.Setenv("QDRANT_TIMEOUT_SECONDS", "")

	cfg := ConfigFromEnv()
	if cfg.Timeout != 10*time.Second {
		t.Fatalf("timeout: want=%v got=%v", 10*time.Second, cfg.Timeout)
	}
}

func TestNewStoreAppliesConfiguredTimeout(t *testing.T) {
	st, err := NewStore(newTestLogger(t), Config{
		URL:        "http://qdrant.local",
		Collection: "advice_knowledge",
		Timeout:    42 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if got := st.(*store).http.Timeout; got != 42*time.Second {
		t.Fatalf("http client timeout: want=%v got=%v", 42*time.Second, got)
	}
}

func TestNewStoreDefaultsZeroTimeout(t *testing.T) {
	st, err := NewStore(newTestLogger(t), Config{
		URL:        "http://qdrant.local",
		Collection: "advice_knowledge",
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if got := st.(*store).http.Timeout; got != 10*time.Second {
		t.Fatalf("http client timeout: want=%v got=%v", 10*time.Second, got)
	}
}
