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

import (
	"fmt"
	"strings"
)

// ValidateRecord validates a Record according to domain rules.
//
// Validation rules:
//   - Table and Key must not be empty
//   - Key must not contain ':' (it is part of composite cache keys)
//
// NOT validated:
//   - Fields (a record may be saved empty and filled later)
//   - Translations (owned by translation jobs)
func ValidateRecord(record *Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}
	if record.Table == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyTable)
	}
	if record.Key == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyKey)
	}
	if strings.Contains(record.Key, ":") {
		return fmt.Errorf("%w: key %q contains ':'", ErrInvalidRecord, record.Key)
	}
	return nil
}

// ValidateModelDef validates a ModelDef.
//
// Validation rules:
//   - Name and Table must not be empty
//   - Field lists must not contain blank or duplicate names
func ValidateModelDef(def *ModelDef) error {
	if def == nil {
		return fmt.Errorf("%w: definition is nil", ErrInvalidModelDef)
	}
	if def.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidModelDef)
	}
	if def.Table == "" {
		return fmt.Errorf("%w: %w", ErrInvalidModelDef, ErrEmptyTable)
	}
	for _, fields := range [][]string{def.EmbedFields, def.TranslatableFields} {
		seen := make(map[string]struct{}, len(fields))
		for _, f := range fields {
			if strings.TrimSpace(f) == "" {
				return fmt.Errorf("%w: %w: blank", ErrInvalidModelDef, ErrUnknownField)
			}
			if _, dup := seen[f]; dup {
				return fmt.Errorf("%w: %w: %q listed twice", ErrInvalidModelDef, ErrUnknownField, f)
			}
			seen[f] = struct{}{}
		}
	}
	return nil
}

// ValidateMessage validates a conversation Message.
func ValidateMessage(msg *Message) error {
	if msg == nil {
		return fmt.Errorf("%w: message is nil", ErrInvalidMessage)
	}
	if msg.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyContent)
	}
	if err := ValidateRole(msg.Role); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return nil
}

// ValidateRole validates that a Role has a valid value.
func ValidateRole(role Role) error {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return nil
	}
	return fmt.Errorf("%w: value %q", ErrInvalidRole, role)
}

// ValidateStep validates that a Step is known.
func ValidateStep(step Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	return nil
}
