package config

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/service"
	"gopkg.in/yaml.v3"
)

// Tables holds per-intent overrides for the chunking strategies and the
// answer instructions. Intents left out keep their defaults.
type Tables struct {
	Strategies map[domain.Intent]domain.ChunkingPolicy `yaml:"strategies"`
	Prompts    map[domain.Intent]string                `yaml:"prompts"`
}

// LoadTables reads a tables file. An empty path yields no overrides.
func LoadTables(path string) (*Tables, error) {
	if path == "" {
		return &Tables{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}

	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse tables file %s: %w", path, err)
	}
	return &t, nil
}

// Build applies the overrides to the default tables.
func (t *Tables) Build() (service.StrategyTable, service.PromptTable, error) {
	strategies, err := service.DefaultStrategyTable().WithOverrides(t.Strategies)
	if err != nil {
		return service.StrategyTable{}, service.PromptTable{}, err
	}
	prompts, err := service.DefaultPromptTable().WithOverrides(t.Prompts)
	if err != nil {
		return service.StrategyTable{}, service.PromptTable{}, err
	}
	return strategies, prompts, nil
}

// SaveTables writes the tables as YAML, for dumping the effective defaults.
func SaveTables(path string, t *Tables) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
