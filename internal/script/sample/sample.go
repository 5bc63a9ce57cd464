// Package sample ships the built-in demo script.
package sample

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/chattersim/chattersim/internal/script/models"
	v1 "github.com/chattersim/chattersim/pkg/api/v1"
)

//go:embed script.yaml
var scriptYAML []byte

type sampleFile struct {
	Items []sampleItem `yaml:"items"`
}

type sampleItem struct {
	Sender        string `yaml:"sender"`
	Type          string `yaml:"type"`
	Content       string `yaml:"content"`
	DelayAfter    int    `yaml:"delayAfter"`
	AudioDuration int    `yaml:"audioDuration"`
	VideoDuration int    `yaml:"videoDuration"`
}

// Load parses the embedded demo script into queue items.
func Load() ([]*models.QueueItem, error) {
	var file sampleFile
	if err := yaml.Unmarshal(scriptYAML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse embedded sample script: %w", err)
	}

	items := make([]*models.QueueItem, 0, len(file.Items))
	for i, raw := range file.Items {
		item := &models.QueueItem{
			Sender:          v1.Sender(raw.Sender),
			Kind:            v1.Kind(raw.Type),
			Content:         raw.Content,
			DelayAfterMs:    raw.DelayAfter,
			AudioDurationMs: raw.AudioDuration,
			VideoDurationMs: raw.VideoDuration,
		}
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("sample script item %d is invalid: %w", i+1, err)
		}
		items = append(items, item)
	}
	return items, nil
}
