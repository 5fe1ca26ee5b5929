package cyruntime

import (
	"fmt"
	"strings"
	"sync"

	"github.com/lucidgraph/lucid/pkg/cyerr"
	"github.com/lucidgraph/lucid/pkg/cyvalue"
)

// FuncKind partitions the registry the way SPEC_FULL §4.5 describes:
// ordinary scalar/list functions (the write-flagged create_node,
// set_property, ... among them), internal planner-only helpers
// (create_node_iter, property, ...), the db.* introspection procedures, and
// aggregations.
type FuncKind int

const (
	KindFunction FuncKind = iota
	KindInternal
	KindProcedure
	KindAggregation
)

// Handler evaluates a scalar/internal/procedure function given its already-
// evaluated arguments. Write handlers stage mutations on rt.Pending rather
// than the graph directly.
type Handler func(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error)

// AccumulatorFactory builds a fresh Accumulator for one aggregation context
// slot; called once per (group, aggregate-slot) the first time that group
// is seen.
type AccumulatorFactory func() Accumulator

// entry is one function-table row: (min_args, max_args, write_flag, kind,
// handler) per §4.5. max = -1 means unbounded.
type entry struct {
	name        string
	min, max    int
	write       bool
	kind        FuncKind
	handler     Handler
	accumulator AccumulatorFactory
}

// registry is the global function table. Init fills it exactly once, on
// first use, and it is never mutated afterward (§9 "Global mutable state for the
// function table... initialise once... reject re-initialisation").
var registry = map[string]entry{}
var registryOnce sync.Once
var registryInitialized bool

func register(e entry) {
	registry[strings.ToLower(e.name)] = e
}

// Init populates the global function registry exactly once; a second call
// is a no-op, matching the "reject re-initialisation" guidance — callers
// that need a fresh table for testing should not call Init twice and expect
// different behavior.
func Init() {
	registryOnce.Do(func() {
		registerScalarFunctions()
		registerInternalFunctions()
		registerWriteFunctions()
		registerAggregations()
		registryInitialized = true
	})
}

func lookup(name string) (entry, bool) {
	Init()
	e, ok := registry[strings.ToLower(name)]
	return e, ok
}

// checkArity validates a call's argument count against an entry's bounds.
// Aggregate functions in this registry never carry an implicit trailing
// "chunk" argument (that concept belongs to the host's batched procedure
// surface, out of scope here per §1), so arity is checked uniformly.
func checkArity(e entry, got int) error {
	if got < e.min || (e.max >= 0 && got > e.max) {
		return &cyerr.ArityError{Name: e.name, Got: got, Min: e.min, Max: e.max}
	}
	return nil
}

func typeMismatch(expected string, got cyvalue.Value) error {
	return fmt.Errorf("Type mismatch: expected %s but was %s", expected, got.TypeName())
}
