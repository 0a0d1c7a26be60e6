// Package mock provides test double implementations of the AI service
// interfaces.
//
// This package contains mock implementations of ai.Embedder,
// ai.AcronymClassifier, and ai.Provider for use in unit tests. The mocks
// allow tests to run without external AI services and enable controlled,
// deterministic behavior.
//
// # Default Behavior
//
//   - MockEmbedder: returns deterministic vectors based on a text hash
//   - MockAcronymClassifier: treats short all-uppercase labels as acronyms
//   - MockProvider: aggregates mock embedder and classifier
package mock
