// Package settings reads the user settings document.
package settings

import (
	"encoding/json"
	"fmt"
	"os"

	"finreport/internal/core"
	"finreport/internal/log"
)

// Load reads the settings file at path and returns an error when it is
// missing, malformed or not a JSON object.
func Load(path string) (core.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return core.Settings{}, fmt.Errorf("decode settings %s: %w", path, err)
	}
	if raw == nil {
		return core.Settings{}, fmt.Errorf("decode settings %s: document is not an object", path)
	}

	var s core.Settings
	if v, ok := raw["user_currencies"]; ok {
		if err := json.Unmarshal(v, &s.Currencies); err != nil {
			return core.Settings{}, fmt.Errorf("decode user_currencies: %w", err)
		}
	}
	if v, ok := raw["user_stocks"]; ok {
		if err := json.Unmarshal(v, &s.Stocks); err != nil {
			return core.Settings{}, fmt.Errorf("decode user_stocks: %w", err)
		}
	}
	return s, nil
}

// Read is Load for callers that must keep going: any failure is logged and
// empty settings are returned.
func Read(path string, logger *log.Logger) core.Settings {
	logger = log.OrDiscard(logger).WithComponent(log.ComponentSettings)
	s, err := Load(path)
	if err != nil {
		logger.Error("Failed to read user settings", log.FieldFile, path, log.FieldError, err)
		return core.Settings{}
	}
	if s.IsEmpty() {
		logger.Warn("User settings list no currencies or stocks", log.FieldFile, path)
	}
	return s
}
