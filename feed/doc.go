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


// Package feed builds, caches and paginates feed skeletons.
//
// The Builder runs one full build: route sources, execute searches, enrich
// candidates, score and assemble an ordered skeleton. The Gate sits in
// front of the cache store and decides per request whether to serve the
// cached skeleton as-is, serve it stale while refreshing in the
// background, or rebuild synchronously.
package feed
