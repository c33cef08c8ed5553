// Copyright 2025 Poiesic Systems
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

// Package search provides hybrid semantic and keyword search over indexed records.
//
// The Searcher combines two signals:
//   - Semantic search over the stored chunk embeddings, scored by each
//     record's best matching chunk
//   - Verbatim keyword matching over the indexed text with stop-word filtering
//
// Records found both ways get a boost. Results can be narrowed to a set of
// tables and to documents carrying text in a given locale.
package search
