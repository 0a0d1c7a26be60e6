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


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papillon-fyi/feedgen/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// AcronymClassifier implements ai.AcronymClassifier using OpenAI-compatible
// chat APIs.
type AcronymClassifier struct {
	client llms.Model
	logger *slog.Logger
}

// classification is an internal type used for JSON unmarshaling.
// It matches the structure requested from the LLM.
type classification struct {
	IsAcronym bool   `json:"is_acronym"`
	Expansion string `json:"expansion"`
}

// newAcronymClassifier is an internal constructor that returns the concrete
// type. Used by Provider to manage the instance.
func newAcronymClassifier(config *ai.Config) (*AcronymClassifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ClassifierHost),
		openai.WithToken(config.APIToken),
		openai.WithModel(config.ClassifierModel),
	)
	if err != nil {
		return nil, err
	}

	return &AcronymClassifier{
		client: client,
		logger: slog.Default().With("component", "openai-classifier"),
	}, nil
}

// NewAcronymClassifier creates a new acronym classifier using the provided
// configuration.
//
// Returns ai.AcronymClassifier interface to enforce abstraction.
func NewAcronymClassifier(config *ai.Config) (ai.AcronymClassifier, error) {
	return newAcronymClassifier(config)
}

// ClassifyAcronym decides whether a topic label is an acronym and produces
// an expansion phrase from the user's stated intent.
func (c *AcronymClassifier) ClassifyAcronym(ctx context.Context, label, intent string) (ai.AcronymResult, error) {
	userPrompt := fmt.Sprintf("label %q", label)
	if intent != "" {
		userPrompt = fmt.Sprintf("label %q, intent %q", label, intent)
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(acronymSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(userPrompt),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result classification
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			c.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return ai.AcronymResult{}, err
		}

		if len(response.Choices) < 1 {
			c.logger.Debug("no choices returned from model", "label", label)
			return ai.AcronymResult{}, nil
		}

		choice := response.Choices[0]

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(choice.Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			c.logger.Warn("error parsing classifier response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		// Success
		lastErr = nil
		break
	}

	if lastErr != nil {
		c.logger.Error("failed to parse classifier response after retries", "err", lastErr)
		return ai.AcronymResult{}, lastErr
	}

	if !result.IsAcronym {
		result.Expansion = ""
	}

	c.logger.Debug("classified label",
		"label", label,
		"isAcronym", result.IsAcronym)

	return ai.AcronymResult{
		IsAcronym: result.IsAcronym,
		Expansion: strings.TrimSpace(result.Expansion),
	}, nil
}
