package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/TLSLime/Puppeteer/internal/model"
)

// LoadScript reads a recorded action script from a YAML file.
func LoadScript(path string) (model.Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Script{}, fmt.Errorf("read script: %w", err)
	}
	var s model.Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return model.Script{}, fmt.Errorf("parse script %s: %w", path, err)
	}
	if len(s.Actions) == 0 {
		return model.Script{}, fmt.Errorf("script %s contains no actions", path)
	}
	return s, nil
}

// SaveScript writes a script to a YAML file.
func SaveScript(path string, s model.Script) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode script: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	return nil
}
