package mock

import (
	"context"
	"strings"

	"github.com/papillon-fyi/feedgen/ai"
)

// MockAcronymClassifier is a test double for ai.AcronymClassifier.
// It allows custom behavior injection via a function field.
type MockAcronymClassifier struct {
	// ClassifyFunc is called by ClassifyAcronym if set.
	// If nil, uses default heuristic behavior.
	ClassifyFunc func(ctx context.Context, label, intent string) (ai.AcronymResult, error)

	callCount int
}

// NewMockAcronymClassifier creates a mock classifier with default behavior.
// Returns the concrete type to allow test assertions.
func NewMockAcronymClassifier() *MockAcronymClassifier {
	return &MockAcronymClassifier{}
}

// ClassifyAcronym treats short all-uppercase labels as acronyms and expands
// them with the supplied intent.
func (m *MockAcronymClassifier) ClassifyAcronym(ctx context.Context, label, intent string) (ai.AcronymResult, error) {
	m.callCount++

	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, label, intent)
	}

	if len(label) <= 5 && label == strings.ToUpper(label) && label != strings.ToLower(label) {
		expansion := strings.TrimSpace(label + " " + intent)
		return ai.AcronymResult{IsAcronym: true, Expansion: expansion}, nil
	}
	return ai.AcronymResult{}, nil
}

// CallCount returns the number of times ClassifyAcronym was called.
func (m *MockAcronymClassifier) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockAcronymClassifier) Reset() {
	m.callCount = 0
	m.ClassifyFunc = nil
}
