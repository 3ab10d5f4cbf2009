package content

import (
	"fmt"
	"os"

	"go_4_interview_prep/internal/model"

	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Tracks []model.Track `yaml:"tracks"`
}

// LoadYAML は `tracks:` 配下にトラックを並べたYAMLを読む
func LoadYAML(path string) ([]model.Track, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file: %w", err)
	}
	var f yamlFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to parse content file %s: %w", path, err)
	}
	return f.Tracks, nil
}
