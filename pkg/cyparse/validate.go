package cyparse

import "fmt"

// Validate walks a parsed Query's clauses in order, threading a set of
// currently-bound VarIds through them. It rejects queries that reference
// unbound variables, redeclare a bound alias in a CREATE/MERGE pattern, or
// end on a clause that can't terminate a query, and it prunes MATCH/MERGE
// node slots whose alias is already bound into plain references (so the
// planner sees them as lookups, not fresh pattern matches).
//
// This mirrors how a human reads the query top to bottom: by the time
// clause N is reached, every alias introduced by clauses 1..N-1 is in
// scope, and WITH/RETURN narrow that scope down to exactly what they
// project.
func Validate(q *Query) error {
	if len(q.Clauses) == 0 {
		return fmt.Errorf("empty query")
	}
	env := make(map[uint32]bool)
	for i, c := range q.Clauses {
		if err := validateClause(c, env); err != nil {
			return err
		}
		isLast := i == len(q.Clauses)-1
		if isLast {
			switch c.Kind {
			case ClauseMatch, ClauseOptionalMatch:
				return fmt.Errorf("query cannot conclude with MATCH (must be a RETURN clause, an update clause, a procedure call or a non-returning subquery)")
			case ClauseUnwind:
				return fmt.Errorf("query cannot conclude with UNWIND (must be a RETURN clause, an update clause, a procedure call or a non-returning subquery)")
			}
		}
	}
	return nil
}

func validateClause(c *Clause, env map[uint32]bool) error {
	switch c.Kind {
	case ClauseCall:
		for _, arg := range c.CallArgs {
			if err := validateExpr(arg, env); err != nil {
				return err
			}
		}
		return nil

	case ClauseMatch, ClauseOptionalMatch:
		return validateMatchPattern(&c.Pattern, env)

	case ClauseUnwind:
		if err := validateExpr(c.UnwindList, env); err != nil {
			return err
		}
		if env[c.UnwindVar.ID] {
			return fmt.Errorf("duplicate alias %s", c.UnwindVar)
		}
		env[c.UnwindVar.ID] = true
		return nil

	case ClauseMerge:
		return validateMergePattern(&c.Pattern, env)

	case ClauseWhere:
		return validateExpr(c.Where, env)

	case ClauseCreate:
		return validateCreatePattern(&c.Pattern, env)

	case ClauseDelete, ClauseDetachDelete:
		for _, e := range c.DeleteExprs {
			if err := validateExpr(e, env); err != nil {
				return err
			}
		}
		return nil

	case ClauseSet:
		for _, item := range c.SetItems {
			if err := validateExpr(item.Target, env); err != nil {
				return err
			}
			if err := validateExpr(item.Value, env); err != nil {
				return err
			}
		}
		return nil

	case ClauseRemove:
		for _, e := range c.RemoveExprs {
			if err := validateExpr(e, env); err != nil {
				return err
			}
		}
		return nil

	case ClauseWith, ClauseReturn:
		for _, e := range c.Projection.Exprs {
			if err := validateExpr(e, env); err != nil {
				return err
			}
		}
		if len(c.Projection.Exprs) > 0 {
			for k := range env {
				delete(env, k)
			}
			for _, e := range c.Projection.Exprs {
				env[e.Var.ID] = true
			}
		}
		for _, ob := range c.Projection.OrderBy {
			if err := validateExpr(ob.Expr, env); err != nil {
				return err
			}
		}
		if c.Projection.Skip != nil {
			if err := validateExpr(c.Projection.Skip, env); err != nil {
				return err
			}
		}
		if c.Projection.Limit != nil {
			if err := validateExpr(c.Projection.Limit, env); err != nil {
				return err
			}
		}
		return nil

	default:
		return nil
	}
}

// validateMatchPattern applies MATCH's pruning quirk: a node alias already
// bound by an earlier clause is removed from the pattern's node list (it
// becomes a reference to the existing binding, not a new pattern slot),
// while relationships and path aliases are always freshly bound.
func validateMatchPattern(p *Pattern, env map[uint32]bool) error {
	kept := p.Nodes[:0:0]
	for _, node := range p.Nodes {
		alreadyBound := env[node.Alias.ID]
		if err := validateAttrs(node.Attrs, env); err != nil {
			return err
		}
		env[node.Alias.ID] = true
		if !alreadyBound {
			kept = append(kept, node)
		}
	}
	p.Nodes = kept
	for _, rel := range p.Relationships {
		if err := validateAttrs(rel.Attrs, env); err != nil {
			return err
		}
		env[rel.Alias.ID] = true
	}
	for _, path := range p.Paths {
		if env[path.Var.ID] {
			return fmt.Errorf("duplicate alias %s", path.Var)
		}
		env[path.Var.ID] = true
	}
	return nil
}

// validateMergePattern: a bound node alias is only legal to reuse when the
// pattern also has a relationship (MERGE is matching an existing edge
// through it); with no relationships at all, reusing a bound alias is
// rejected exactly like CREATE would. Every relationship in a MERGE
// pattern must carry exactly one type.
func validateMergePattern(p *Pattern, env map[uint32]bool) error {
	kept := p.Nodes[:0:0]
	for _, node := range p.Nodes {
		alreadyBound := env[node.Alias.ID]
		if alreadyBound && len(p.Relationships) == 0 {
			return fmt.Errorf("the bound variable %s can't be redeclared in a create clause", node.Alias)
		}
		if err := validateAttrs(node.Attrs, env); err != nil {
			return err
		}
		if !alreadyBound {
			kept = append(kept, node)
		}
	}
	p.Nodes = kept
	for _, node := range p.Nodes {
		env[node.Alias.ID] = true
	}
	for _, rel := range p.Relationships {
		if len(rel.Types) != 1 {
			return fmt.Errorf("exactly one relationship type must be specified for each relation in a MERGE pattern")
		}
		if err := validateAttrs(rel.Attrs, env); err != nil {
			return err
		}
		env[rel.Alias.ID] = true
	}
	return nil
}

// validateCreatePattern rejects any reuse of an already-bound node alias
// unless the pattern also relates it through a relationship, rejects any
// reuse of a bound relationship alias outright, and requires exactly one
// type per relationship.
func validateCreatePattern(p *Pattern, env map[uint32]bool) error {
	for _, path := range p.Paths {
		if env[path.Var.ID] {
			return fmt.Errorf("the bound variable %s can't be redeclared in a create clause", path.Var)
		}
		env[path.Var.ID] = true
	}
	kept := p.Nodes[:0:0]
	for _, node := range p.Nodes {
		alreadyBound := env[node.Alias.ID]
		if alreadyBound && len(p.Relationships) == 0 {
			return fmt.Errorf("the bound variable %s can't be redeclared in a create clause", node.Alias)
		}
		if err := validateAttrs(node.Attrs, env); err != nil {
			return err
		}
		if !alreadyBound {
			kept = append(kept, node)
		}
	}
	p.Nodes = kept
	for _, node := range p.Nodes {
		env[node.Alias.ID] = true
	}
	for _, rel := range p.Relationships {
		if env[rel.Alias.ID] {
			return fmt.Errorf("the bound variable %s can't be redeclared in a CREATE clause", rel.Alias)
		}
		if len(rel.Types) != 1 {
			return fmt.Errorf("exactly one relationship type must be specified for each relation in a CREATE pattern")
		}
		if err := validateAttrs(rel.Attrs, env); err != nil {
			return err
		}
		env[rel.Alias.ID] = true
	}
	return nil
}

func validateAttrs(attrs map[string]*Expr, env map[uint32]bool) error {
	for _, v := range attrs {
		if err := validateExpr(v, env); err != nil {
			return err
		}
	}
	return nil
}

// validateExpr recurses an expression tree checking that every Var
// reference is bound, that boolean connectives aren't fed obviously
// non-boolean literals, and threading scope for binding forms
// (Distinct, Quantifier) that introduce a variable only for their subtree.
func validateExpr(e *Expr, env map[uint32]bool) error {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ExprNull, ExprBool, ExprInteger, ExprFloat, ExprString, ExprParameter:
		return nil
	case ExprVar:
		if env[e.Var.ID] {
			return nil
		}
		return fmt.Errorf("'%s' not defined", e.Var)
	case ExprAnd, ExprOr, ExprXor:
		if len(e.Children) < 2 {
			return fmt.Errorf("and/or/xor require at least two operands")
		}
		for _, child := range e.Children {
			switch child.Kind {
			case ExprInteger, ExprFloat, ExprString, ExprList, ExprMap:
				return fmt.Errorf("type mismatch: expected bool")
			}
			if err := validateExpr(child, env); err != nil {
				return err
			}
		}
		return nil
	case ExprDistinct:
		env[e.Var.ID] = true
		err := validateExpr(e.Children[0], env)
		delete(env, e.Var.ID)
		return err
	case ExprQuantifier:
		if err := validateExpr(e.Children[0], env); err != nil {
			return err
		}
		env[e.Var.ID] = true
		err := validateExpr(e.Children[1], env)
		delete(env, e.Var.ID)
		return err
	case ExprListComprehension:
		if err := validateExpr(e.Children[0], env); err != nil {
			return err
		}
		env[e.Var.ID] = true
		defer delete(env, e.Var.ID)
		if err := validateExpr(e.Children[1], env); err != nil {
			return err
		}
		return validateExpr(e.Children[2], env)
	case ExprNamed:
		return validateExpr(e.Children[0], env)
	default:
		for _, child := range e.Children {
			if err := validateExpr(child, env); err != nil {
				return err
			}
		}
		return nil
	}
}
