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


package server

import "errors"

var (
	// ErrRegistryRequired is returned when a feed registry is not provided.
	ErrRegistryRequired = errors.New("feed registry required")

	// ErrGateRequired is returned when a cache gate is not provided.
	ErrGateRequired = errors.New("cache gate required")

	// ErrHostnameRequired is returned when a hostname is not provided.
	ErrHostnameRequired = errors.New("hostname required")
)
