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


package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/poiesic/enricher/core"
)

// indexingStateJSON is the wire form of core.IndexingState shared by every
// cache backend, so a Redis entry written by one process is readable by another.
type indexingStateJSON struct {
	Table     string      `json:"table"`
	Key       string      `json:"key"`
	Sync      bool        `json:"sync,omitempty"`
	Required  []core.Step `json:"required"`
	Completed []core.Step `json:"completed,omitempty"`
	Failed    []core.Step `json:"failed,omitempty"`
	CreatedAt int64       `json:"created_at"`
	UpdatedAt int64       `json:"updated_at"`
}

// MarshalIndexingState serializes an IndexingState to bytes.
func MarshalIndexingState(state *core.IndexingState) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: nil state", ErrSerializationFailed)
	}
	data, err := json.Marshal(indexingStateJSON{
		Table:     state.Ref.Table,
		Key:       state.Ref.Key,
		Sync:      state.Sync,
		Required:  state.Required,
		Completed: state.Completed,
		Failed:    state.Failed,
		CreatedAt: state.CreatedAt.UnixMicro(),
		UpdatedAt: state.UpdatedAt.UnixMicro(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalIndexingState deserializes an IndexingState from bytes.
func UnmarshalIndexingState(data []byte) (*core.IndexingState, error) {
	var raw indexingStateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	for _, steps := range [][]core.Step{raw.Required, raw.Completed, raw.Failed} {
		for _, step := range steps {
			if err := core.ValidateStep(step); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
			}
		}
	}
	return &core.IndexingState{
		Ref:       core.Ref{Table: raw.Table, Key: raw.Key},
		Sync:      raw.Sync,
		Required:  raw.Required,
		Completed: raw.Completed,
		Failed:    raw.Failed,
		CreatedAt: time.UnixMicro(raw.CreatedAt),
		UpdatedAt: time.UnixMicro(raw.UpdatedAt),
	}, nil
}
