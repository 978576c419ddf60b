package qdrant

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/letter5700/backend/internal/platform/envutil"
)

type Config struct {
	URL        string
	Collection string
	Timeout    time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		URL:        envutil.String("QDRANT_URL", "http://localhost:6333"),
		Collection: envutil.String("QDRANT_COLLECTION", "advice_knowledge"),
		Timeout:    time.Duration(envutil.Int("QDRANT_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}

func ValidateConfig(cfg Config) error {
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		return fmt.Errorf("QDRANT_URL is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return fmt.Errorf("invalid QDRANT_URL=%q; expected absolute URL like http://qdrant:6333", raw)
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return fmt.Errorf("QDRANT_COLLECTION is required")
	}
	return nil
}
