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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidRecord indicates a Record failed validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidModelDef indicates a ModelDef failed validation.
	ErrInvalidModelDef = errors.New("invalid model definition")

	// ErrInvalidMessage indicates a conversation Message failed validation.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrEmptyTable indicates the Table field is empty.
	ErrEmptyTable = errors.New("table cannot be empty")

	// ErrEmptyKey indicates the Key field is empty.
	ErrEmptyKey = errors.New("key cannot be empty")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidRole indicates an invalid message Role value.
	ErrInvalidRole = errors.New("invalid role")

	// ErrUnknownStep indicates an unrecognized pre-processing step.
	ErrUnknownStep = errors.New("unknown pre-processing step")

	// ErrUnknownModel indicates no registered model matches a name or table.
	ErrUnknownModel = errors.New("unknown model")

	// ErrAmbiguousModel indicates a model name matches several registered models.
	ErrAmbiguousModel = errors.New("ambiguous model name")

	// ErrDuplicateModel indicates a model name or table is registered twice.
	ErrDuplicateModel = errors.New("model already registered")

	// ErrUnknownField indicates a model field list references a field twice or is blank.
	ErrUnknownField = errors.New("invalid field name")
)
