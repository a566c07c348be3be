// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ErrEmptyTopicFile is returned when a topic file lists no usable topic.
var ErrEmptyTopicFile = errors.New("topic file lists no topics")

// TopicFile is the on-disk form of a topic catalogue, the same document
// "trendgraph topics --yaml" prints.
type TopicFile struct {
	Topics []Topic `yaml:"topics"`
}

// WriteTopicFile encodes topics as a TopicFile to w.
func WriteTopicFile(w io.Writer, topics []Topic) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(TopicFile{Topics: topics}); err != nil {
		return fmt.Errorf("encoding topics: %w", err)
	}
	return enc.Close()
}

// ReadTopicFile loads a topic catalogue from path. Topics with a blank name
// are dropped, repeated names keep their first entry, and a missing trend
// defaults to established.
func ReadTopicFile(path string) ([]Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topic file: %w", err)
	}
	var tf TopicFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing topic file %s: %w", path, err)
	}

	var topics []Topic
	seen := make(map[string]bool)
	for _, t := range tf.Topics {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" || seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		switch t.Trend {
		case TrendEmerging, TrendEstablished, TrendDeclining:
		case "":
			t.Trend = TrendEstablished
		default:
			return nil, fmt.Errorf("topic %q: unknown trend %q", t.Name, t.Trend)
		}
		topics = append(topics, t)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyTopicFile)
	}
	return topics, nil
}
