package ai

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Labels maps model class IDs to human-readable names.
type Labels map[int]string

// Name returns the label for classID, or "unknown_<id>" when the table has no entry.
func (l Labels) Name(classID int) string {
	if label, exists := l[classID]; exists {
		return label
	}
	return fmt.Sprintf("unknown_%d", classID)
}

// LoadLabels reads a label table. YAML files use the Ultralytics dataset
// layout ("names:" as a list or an id -> name map); any other file is read
// as one label per line.
func LoadLabels(path string) (Labels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read labels %s", path)
	}

	var labels Labels
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		labels, err = parseYAMLLabels(data)
	default:
		labels = parseTextLabels(data)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse labels %s", path)
	}
	if len(labels) == 0 {
		return nil, errors.Errorf("no labels found in %s", path)
	}
	return labels, nil
}

func parseYAMLLabels(data []byte) (Labels, error) {
	var doc struct {
		Names yaml.Node `yaml:"names"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	labels := make(Labels)
	switch doc.Names.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := doc.Names.Decode(&names); err != nil {
			return nil, err
		}
		for i, name := range names {
			labels[i] = name
		}
	case yaml.MappingNode:
		var names map[int]string
		if err := doc.Names.Decode(&names); err != nil {
			return nil, err
		}
		for id, name := range names {
			if id < 0 {
				return nil, errors.Errorf("negative class id %d", id)
			}
			labels[id] = name
		}
	case 0:
		return nil, errors.New("missing names key")
	default:
		return nil, errors.New("names must be a list or a map")
	}
	return labels, nil
}

func parseTextLabels(data []byte) Labels {
	labels := make(Labels)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	id := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		labels[id] = line
		id++
	}
	return labels
}
