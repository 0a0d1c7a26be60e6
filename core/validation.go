// Copyright 2026 Papillon FYI
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// ValidateFeedConfig checks that a feed configuration is well-formed.
// All returned errors wrap ErrConfigInvalid.
func ValidateFeedConfig(cfg *FeedConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrConfigInvalid)
	}
	if cfg.OwnerDID == "" || cfg.FeedID == "" {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, ErrMissingFeedIdentity)
	}

	for i, src := range cfg.Sources {
		if err := validateSource(src); err != nil {
			return fmt.Errorf("%w: source %d: %w", ErrConfigInvalid, i, err)
		}
	}

	if err := validateWeight("relevance", cfg.Weights.Relevance); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	if err := validateWeight("popularity", cfg.Weights.Popularity); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	if err := validateWeight("recency", cfg.Weights.Recency); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}

	return nil
}

func validateSource(src FeedSource) error {
	switch src.Kind {
	case SourceTopicPreference, SourceProfilePreference,
		SourceTopicFilter, SourceProfileFilter:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSourceKind, src.Kind)
	}

	if src.Identifier == "" {
		return ErrEmptySourceIdentifier
	}

	if src.Kind == SourceTopicPreference {
		if err := validateWeight("source", src.Weight); err != nil {
			return err
		}
	}

	return nil
}

func validateWeight(name string, w float64) error {
	if w < 0 || w > 1 {
		return fmt.Errorf("%w: %s weight %v", ErrWeightOutOfRange, name, w)
	}
	return nil
}
