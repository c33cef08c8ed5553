package core

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registry holds the registered model definitions.
type Registry struct {
	mu      sync.RWMutex
	byTable map[string]*ModelDef
	order   []string
}

// NewRegistry creates a registry holding defs.
func NewRegistry(defs ...*ModelDef) (*Registry, error) {
	r := &Registry{byTable: make(map[string]*ModelDef)}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates and adds def.
func (r *Registry) Register(def *ModelDef) error {
	if err := ValidateModelDef(def); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byTable[def.Table]; ok {
		return fmt.Errorf("%w: table %q", ErrDuplicateModel, def.Table)
	}
	for _, existing := range r.byTable {
		if existing.Name == def.Name {
			return fmt.Errorf("%w: name %q", ErrDuplicateModel, def.Name)
		}
	}
	r.byTable[def.Table] = def
	r.order = append(r.order, def.Table)
	return nil
}

// ByTable returns the model stored in table.
func (r *Registry) ByTable(table string) (*ModelDef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.byTable[table]
	if !ok {
		return nil, fmt.Errorf("%w: table %q", ErrUnknownModel, table)
	}
	return def, nil
}

// All returns the models in registration order.
func (r *Registry) All() []*ModelDef {
	return r.Filter(nil)
}

// Filter returns the models accepted by keep, in registration order.
// A nil keep accepts every model.
func (r *Registry) Filter(keep func(*ModelDef) bool) []*ModelDef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*ModelDef, 0, len(r.order))
	for _, table := range r.order {
		def := r.byTable[table]
		if keep == nil || keep(def) {
			defs = append(defs, def)
		}
	}
	return defs
}

// Resolve finds the model among those accepted by keep whose name ends
// with the given name on a namespace boundary, so "Post" matches both
// "Post" and "Blog\\Post" but not "BlogPost".
func (r *Registry) Resolve(name string, keep func(*ModelDef) bool) (*ModelDef, error) {
	name = strings.TrimLeft(name, `\`)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownModel)
	}

	var matches []*ModelDef
	for _, def := range r.Filter(keep) {
		if def.Name == name || strings.HasSuffix(def.Name, `\`+name) {
			matches = append(matches, def)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	case 1:
		return matches[0], nil
	}
	names := make([]string, len(matches))
	for i, def := range matches {
		names[i] = def.Name
	}
	slices.Sort(names)
	return nil, fmt.Errorf("%w: %s", ErrAmbiguousModel, strings.Join(names, ", "))
}
