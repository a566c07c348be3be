// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTopics(t *testing.T) {
	topics := DefaultTopics()
	require.Len(t, topics, 30)
	assert.Equal(t, Topic{Name: "Retrieval-Augmented Generation", Trend: TrendEmerging}, topics[0])
	assert.Equal(t, Topic{Name: "Image Super-Resolution", Trend: TrendDeclining}, topics[29])

	perTrend := map[string]int{}
	for _, tp := range topics {
		perTrend[tp.Trend]++
	}
	assert.Equal(t, map[string]int{TrendEmerging: 10, TrendEstablished: 10, TrendDeclining: 10}, perTrend)
}

func TestTopicQueries(t *testing.T) {
	qs := TopicQueries([]Topic{{Name: "Diffusion Models", Trend: TrendEmerging}})
	require.Len(t, qs, 1)
	assert.Equal(t, "Diffusion Models", qs[0].Text)
	assert.Equal(t, "Diffusion Models", qs[0].Topic)
}

func TestTextQueries(t *testing.T) {
	qs := TextQueries([]string{" graph nets ", "", "graph nets", "transformers"})
	require.Len(t, qs, 2)
	assert.Equal(t, "graph nets", qs[0].Text)
	assert.Equal(t, "transformers", qs[1].Topic)
}

func TestPrependTopic(t *testing.T) {
	assert.Equal(t, []string{"seed", "a", "b"}, prependTopic("seed", []string{"a", "seed", "b"}))
	assert.Equal(t, []string{"a"}, prependTopic("", []string{"a", "a"}))
	assert.Equal(t, []string{}, prependTopic("", nil))
}
