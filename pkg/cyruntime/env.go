// Package cyruntime interprets a compiled cyplan.Node execution tree against
// a graphstore.Graph, maintaining a variable environment, the function
// registry, aggregation contexts, and the open iterator stack described in
// SPEC_FULL §4.5. Grounded on original_source/graph/src/runtime.rs.
package cyruntime

import "github.com/lucidgraph/lucid/pkg/cyvalue"

// Env is the runtime's variable binding table, indexed by cyparse.VarId.ID.
// It is sparse: an id never written reads back as Null (§9 "Env is a dense
// sparse array indexed by id").
type Env struct {
	vars map[uint32]cyvalue.Value
}

// NewEnv returns an empty environment.
func NewEnv() *Env { return &Env{vars: make(map[uint32]cyvalue.Value)} }

// Get returns the value bound to id, or Null if unbound.
func (e *Env) Get(id uint32) cyvalue.Value {
	if id == 0 {
		return cyvalue.Null
	}
	if v, ok := e.vars[id]; ok {
		return v
	}
	return cyvalue.Null
}

// Set binds id to v.
func (e *Env) Set(id uint32, v cyvalue.Value) { e.vars[id] = v }

// Unset clears id's binding, making it read back as Null again.
func (e *Env) Unset(id uint32) { delete(e.vars, id) }
