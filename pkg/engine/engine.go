// Package engine ties the lexer, parser, validator, planner, plan cache
// and runtime together behind the single host command this repository
// implements: `graph.query <key> <query> [<debug>]` (§6). It also exposes
// the same semantics through an in-process Server usable without a real
// host module, since the host module ABI itself is an external
// collaborator (§1) this repo cannot depend on directly.
package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lucidgraph/lucid/internal/config"
	"github.com/lucidgraph/lucid/internal/logging"
	"github.com/lucidgraph/lucid/pkg/cyerr"
	"github.com/lucidgraph/lucid/pkg/cyparse"
	"github.com/lucidgraph/lucid/pkg/cyplan"
	"github.com/lucidgraph/lucid/pkg/cyruntime"
	"github.com/lucidgraph/lucid/pkg/cyvalue"
	"github.com/lucidgraph/lucid/pkg/graphstore"
)

// Server dispatches graph.query against a set of named in-memory graphs,
// auto-creating a graph (§6: initial capacity 1024/1024) on first use.
// Grounded on the teacher's cmd/nornicdb server-construction pattern: one
// long-lived object holding every open graph, guarded by a single mutex
// (teacher's own server keys its databases the same way).
type Server struct {
	mu     sync.Mutex
	cfg    *config.Config
	graphs map[string]*graphstore.Graph
	log    *logging.Logger
}

// NewServer returns a Server using cfg's capacity/cache knobs for every
// graph it creates.
func NewServer(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{cfg: cfg, graphs: make(map[string]*graphstore.Graph), log: logging.New("engine")}
}

func (s *Server) graphFor(key string) *graphstore.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.graphs[key]
	if !ok {
		g = graphstore.NewWithCache(s.cfg.InitialNodes, s.cfg.InitialRelationships, s.cfg.CacheSize, s.cfg.CacheTTL)
		s.graphs[key] = g
		s.log.Debugf("created graph %q (nodes=%d rels=%d)", key, s.cfg.InitialNodes, s.cfg.InitialRelationships)
	}
	return g
}

// Result is one successful graph.query reply: the wire-encoded rows (§6's
// value rendering table) and, if debug was requested, a plan dump.
type Result struct {
	Rows []Row
	Plan string
	Stats graphstore.Stats
}

// Row is one result row's wire-encoded columns.
type Row []any

// Query runs query against the named graph, auto-creating it if this is
// its first use. debug, if true, includes a plan dump in the Result.
func (s *Server) Query(key, query string, debug bool) (*Result, error) {
	g := s.graphFor(key)

	q, err := cyparse.Parse(query)
	if err != nil {
		return nil, err
	}
	params, err := evalParams(q.Params)
	if err != nil {
		return nil, err
	}

	root, err := s.plan(g, query, q)
	if err != nil {
		return nil, err
	}

	rt := cyruntime.New(g, params, false)
	var rows []Row
	runErr := rt.Run(root, func(r cyruntime.Row) {
		row := make(Row, len(r))
		for i, v := range r {
			row[i] = encodeValue(rt, v)
		}
		rows = append(rows, row)
	})
	if runErr != nil {
		return nil, runErr
	}

	result := &Result{Rows: rows, Stats: *rt.Stats}
	if debug {
		result.Plan = root.String()
	}
	return result, nil
}

// plan retrieves query's compiled IR from the graph's plan cache, compiling
// and inserting it on a miss (§4.8). The cache key is the query text
// verbatim, including any leading CYPHER parameter prefix, so two calls that
// differ only in parameter values are cached as separate entries. The tree
// itself holds no parameter values; they are looked up by name at eval time.
func (s *Server) plan(g *graphstore.Graph, query string, q *cyparse.Query) (*cyplan.Node, error) {
	if cached, ok := g.Cache().Get(query); ok {
		return cached.(*cyplan.Node), nil
	}
	root, err := cyplan.Plan(q)
	if err != nil {
		return nil, err
	}
	g.Cache().Put(query, root)
	return root, nil
}

// evalParams evaluates a parsed query's CYPHER-prefix parameter literals
// into runtime values. §6 restricts these to literal forms (null, bool,
// int, float, string, list, map — "no expressions"), so each Expr is
// converted directly rather than run through the full planner/runtime.
func evalParams(params map[string]*cyparse.Expr) (map[string]cyvalue.Value, error) {
	out := make(map[string]cyvalue.Value, len(params))
	for name, e := range params {
		v, err := evalLiteral(e)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

func evalLiteral(e *cyparse.Expr) (cyvalue.Value, error) {
	switch e.Kind {
	case cyparse.ExprNull:
		return cyvalue.Null, nil
	case cyparse.ExprBool:
		return cyvalue.Bool(e.Bool), nil
	case cyparse.ExprInteger:
		return cyvalue.Int(e.Int), nil
	case cyparse.ExprFloat:
		return cyvalue.Float(e.Float), nil
	case cyparse.ExprString:
		return cyvalue.Str(e.Str), nil
	case cyparse.ExprList:
		items := make([]cyvalue.Value, len(e.Children))
		for i, c := range e.Children {
			v, err := evalLiteral(c)
			if err != nil {
				return cyvalue.Null, err
			}
			items[i] = v
		}
		return cyvalue.List(items), nil
	case cyparse.ExprMap:
		m := make(map[string]cyvalue.Value, len(e.Children))
		for i, c := range e.Children {
			v, err := evalLiteral(c)
			if err != nil {
				return cyvalue.Null, err
			}
			m[e.MapKeys[i]] = v
		}
		return cyvalue.Map(m), nil
	default:
		return cyvalue.Null, &cyerr.SyntaxError{Msg: "query parameters accept only literal values"}
	}
}

// encodeValue renders a runtime value into its §6 wire form: nodes and
// relationships expand into {id, labels/type, properties} maps, paths into
// an alternating array, everything else passes through structurally.
func encodeValue(rt *cyruntime.Runtime, v cyvalue.Value) any {
	switch v.Kind {
	case cyvalue.KindNull:
		return nil
	case cyvalue.KindBool:
		return v.Bool
	case cyvalue.KindInt:
		return v.Int
	case cyvalue.KindFloat:
		return v.Float
	case cyvalue.KindString:
		return v.String
	case cyvalue.KindList:
		out := make([]any, len(v.List))
		for i, e := range v.List {
			out[i] = encodeValue(rt, e)
		}
		return out
	case cyvalue.KindMap:
		out := make(map[string]any, len(v.Map))
		for k, e := range v.Map {
			out[k] = encodeValue(rt, e)
		}
		return out
	case cyvalue.KindNode:
		return encodeNode(rt, v.Node)
	case cyvalue.KindRelationship:
		return encodeRelationship(rt, v)
	case cyvalue.KindPath:
		out := make([]any, len(v.Path))
		for i, e := range v.Path {
			out[i] = encodeValue(rt, e)
		}
		return out
	case cyvalue.KindVecF32:
		out := make([]any, len(v.VecF32))
		for i, f := range v.VecF32 {
			out[i] = f
		}
		return out
	default:
		return nil
	}
}

func encodeNode(rt *cyruntime.Runtime, id uint64) map[string]any {
	labelIDs := rt.Pending.NodeLabelIDs(id, rt.Graph.LabelCount())
	labels := make([]string, len(labelIDs))
	for i, lid := range labelIDs {
		labels[i] = rt.Graph.LabelName(lid)
	}
	sort.Strings(labels)
	props := map[string]any{}
	for _, attrID := range rt.Pending.NodeAttrKeys(id) {
		props[rt.Graph.AttrName(attrID)] = encodeValue(rt, rt.Pending.NodeAttr(id, attrID))
	}
	return map[string]any{"id": id, "labels": labels, "properties": props}
}

func encodeRelationship(rt *cyruntime.Runtime, v cyvalue.Value) map[string]any {
	typeName := ""
	if typeID, _, _, ok := rt.Pending.RelEndpoints(v.RelID); ok {
		typeName = rt.Graph.TypeName(typeID)
	}
	props := map[string]any{}
	for _, attrID := range rt.Pending.RelAttrKeys(v.RelID) {
		props[rt.Graph.AttrName(attrID)] = encodeValue(rt, rt.Pending.RelAttr(v.RelID, attrID))
	}
	return map[string]any{
		"id":         v.RelID,
		"type":       typeName,
		"src":        v.RelSrc,
		"dest":       v.RelDst,
		"properties": props,
	}
}

// FormatError renders err as the single inline error string the host
// command surface returns on failure (§6: "on query error the module
// returns an inline error string").
func FormatError(err error) string {
	return strings.TrimSpace(fmt.Sprintf("%v", err))
}
