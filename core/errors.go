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

import "errors"

// Domain validation errors
var (
	// ErrConfigInvalid indicates a malformed feed configuration.
	// Builds fail synchronously on it and are never partially applied.
	ErrConfigInvalid = errors.New("invalid feed configuration")

	// ErrUnknownSourceKind indicates a FeedSource with an unrecognized kind.
	ErrUnknownSourceKind = errors.New("unknown source kind")

	// ErrEmptySourceIdentifier indicates a FeedSource without an identifier.
	ErrEmptySourceIdentifier = errors.New("source identifier cannot be empty")

	// ErrWeightOutOfRange indicates a weight outside [0, 1].
	ErrWeightOutOfRange = errors.New("weight must be between 0 and 1")

	// ErrMissingFeedIdentity indicates a FeedConfig without owner or feed id.
	ErrMissingFeedIdentity = errors.New("feed owner and id are required")

	// ErrInvalidFeedURI indicates a feed URI that cannot be parsed.
	ErrInvalidFeedURI = errors.New("invalid feed URI")
)
