package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/papillon-fyi/feedgen/core"
)

// feedSpec is one feed definition in the feeds file.
type feedSpec struct {
	OwnerDID    string       `json:"owner_did"`
	FeedID      string       `json:"feed_id"`
	AccessToken string       `json:"access_token,omitempty"`
	Weights     *weightsSpec `json:"weights,omitempty"`
	Sources     []sourceSpec `json:"sources"`
}

type weightsSpec struct {
	Relevance  float64 `json:"relevance"`
	Popularity float64 `json:"popularity"`
	Recency    float64 `json:"recency"`
}

type sourceSpec struct {
	Kind       string  `json:"kind"`
	Identifier string  `json:"identifier"`
	Weight     float64 `json:"weight,omitempty"`
	IsAcronym  bool    `json:"is_acronym,omitempty"`
	Context    string  `json:"context,omitempty"`
}

// loadFeeds reads and validates the feeds file, a JSON array of feed
// definitions. Feeds without weights get the defaults.
func loadFeeds(path string) ([]*core.FeedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feeds file: %w", err)
	}

	var specs []feedSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parsing feeds file: %w", err)
	}

	configs := make([]*core.FeedConfig, 0, len(specs))
	for _, spec := range specs {
		cfg := spec.toConfig()
		if err := core.ValidateFeedConfig(cfg); err != nil {
			return nil, fmt.Errorf("feed %s/%s: %w", spec.OwnerDID, spec.FeedID, err)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func (s feedSpec) toConfig() *core.FeedConfig {
	cfg := &core.FeedConfig{
		OwnerDID:    s.OwnerDID,
		FeedID:      s.FeedID,
		AccessToken: s.AccessToken,
		Weights:     core.DefaultRankingWeights(),
	}
	if s.Weights != nil {
		cfg.Weights = core.RankingWeights{
			Relevance:  s.Weights.Relevance,
			Popularity: s.Weights.Popularity,
			Recency:    s.Weights.Recency,
		}
	}
	for _, src := range s.Sources {
		cfg.Sources = append(cfg.Sources, core.FeedSource{
			Kind:       core.SourceKind(src.Kind),
			Identifier: src.Identifier,
			Weight:     src.Weight,
			IsAcronym:  src.IsAcronym,
			Context:    src.Context,
		})
	}
	return cfg
}
