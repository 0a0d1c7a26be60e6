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


// Package ai provides abstractions for the AI services used by the feed
// engine.
//
// The engine needs two opaque capabilities: turning text into fixed-length
// vectors for semantic ranking, and deciding whether a short topic label is
// an acronym that should be expanded before semantic search. Both are
// defined as narrow interfaces so the engine has zero dependency on any
// specific inference technology.
//
//   - Embedder: generates vector embeddings from text (batched)
//   - AcronymClassifier: classifies a label and returns an expansion
//   - Provider: aggregates both for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder) return
// interface types to enforce abstraction. Mock constructors return concrete
// types so tests can inject behavior and assert call counts.
package ai
