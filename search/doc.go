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


// Package search turns configured feed sources into candidate content items.
//
// Routing decides per source which search modes apply:
//   - Keyword search against the content API's text index
//   - Semantic search over batched embeddings with a similarity floor
//   - Author-feed retrieval for followed profiles
//
// The Executor fans routed queries out over a bounded worker pool and
// memoizes results in a short-lived cache so that rapid successive builds
// of the same feed do not repeat upstream calls.
package search
