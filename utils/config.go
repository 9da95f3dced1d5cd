package utils

import (
	"fmt"
	"os"

	"varsearch/api/models"

	"github.com/kelseyhightower/envconfig"
	yaml "gopkg.in/yaml.v2"
)

// LoadConfig applies defaults and the environment, then overlays the
// optional YAML file; keys present in the file win.
func LoadConfig(path string) (*models.Config, error) {
	var cfg models.Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config %s: %w", path, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	return &cfg, nil
}
