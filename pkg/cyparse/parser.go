package cyparse

import (
	"fmt"
	"strings"

	"github.com/lucidgraph/lucid/pkg/cyerr"
	"github.com/lucidgraph/lucid/pkg/cylex"
)

// Parser drives a cylex.Lexer through the query grammar, resolving named
// variables to stable VarIds as it goes: the first mention of a name
// anywhere in the query allocates its id, every later mention of the same
// name reuses it. Anonymous pattern slots ("(n)-[]->()") always get a
// fresh id.
type Parser struct {
	lex    *cylex.Lexer
	names  map[string]uint32
	nextID uint32
	anon   int
}

func New(src string) *Parser {
	return &Parser{lex: cylex.New(src), names: make(map[string]uint32)}
}

// Parse lexes and parses src, then validates the resulting clause tree.
func Parse(src string) (*Query, error) {
	p := New(src)
	params, rest, err := p.parseParamPrefix()
	if err != nil {
		return nil, &cyerr.SyntaxError{Msg: err.Error()}
	}
	p.lex = cylex.New(rest)
	clauses, err := p.parseClauses()
	if err != nil {
		return nil, &cyerr.SyntaxError{Msg: err.Error()}
	}
	q := &Query{Params: params, Clauses: clauses}
	if err := Validate(q); err != nil {
		return nil, &cyerr.SemanticError{Msg: err.Error()}
	}
	return q, nil
}

func (p *Parser) err(msg string) error {
	return fmt.Errorf("%s", p.lex.FormatError(msg))
}

func (p *Parser) errf(format string, args ...any) error {
	return p.err(fmt.Sprintf(format, args...))
}

func (p *Parser) current() cylex.Token { return p.lex.Current() }

func (p *Parser) advance(tok cylex.Token) { p.lex.Next(tok.Len) }

func (p *Parser) expect(kind cylex.Kind) error {
	tok := p.current()
	if tok.Kind != kind {
		return p.errf("unexpected token %s", tok.String())
	}
	p.advance(tok)
	return nil
}

func (p *Parser) optional(kind cylex.Kind) bool {
	tok := p.current()
	if tok.Kind == kind {
		p.advance(tok)
		return true
	}
	return false
}

func (p *Parser) varFor(name string) VarId {
	if id, ok := p.names[name]; ok {
		return VarId{Name: name, ID: id}
	}
	p.nextID++
	p.names[name] = p.nextID
	return VarId{Name: name, ID: p.nextID}
}

func (p *Parser) anonVar() VarId {
	p.nextID++
	p.anon++
	return VarId{Name: fmt.Sprintf("@anon%d", p.anon), ID: p.nextID}
}

func (p *Parser) parseIdent() (string, error) {
	tok := p.current()
	if tok.Kind != cylex.Ident {
		return "", p.errf("unexpected token %s", tok.String())
	}
	p.advance(tok)
	return tok.Ident, nil
}

func (p *Parser) parseDottedIdent() (string, error) {
	ident, err := p.parseIdent()
	if err != nil {
		return "", err
	}
	for p.current().Kind == cylex.Dot {
		p.advance(p.current())
		next, err := p.parseIdent()
		if err != nil {
			return "", err
		}
		ident += "." + next
	}
	return ident, nil
}

// parseParamPrefix consumes a leading "CYPHER k=v k2=v2 " parameter block,
// if present, and returns the remainder of the source string unconsumed.
func (p *Parser) parseParamPrefix() (map[string]*Expr, string, error) {
	tok := p.current()
	if tok.Kind != cylex.Ident || tok.Ident != "CYPHER" {
		return map[string]*Expr{}, p.lex.SrcFrom(0), nil
	}
	p.advance(tok)
	params := make(map[string]*Expr)
	for {
		t := p.current()
		if t.Kind != cylex.Ident {
			break
		}
		p.advance(t)
		if err := p.expect(cylex.Equal); err != nil {
			return nil, "", err
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, "", err
		}
		params[t.Ident] = v
	}
	return params, p.lex.SrcFrom(p.lex.Pos()), nil
}

func (p *Parser) parseClauses() ([]*Clause, error) {
	var clauses []*Clause
	for {
		tok := p.current()
		switch tok.Kind {
		case cylex.KwCall:
			p.advance(tok)
			c, err := p.parseCallClause()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case cylex.KwMatch:
			p.advance(tok)
			c, err := p.parseMatchClause(false)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case cylex.Ident:
			if strings.EqualFold(tok.Ident, "OPTIONAL") {
				p.advance(tok)
				if err := p.expect(cylex.KwMatch); err != nil {
					return nil, err
				}
				c, err := p.parseMatchClause(true)
				if err != nil {
					return nil, err
				}
				clauses = append(clauses, c)
				continue
			}
			return nil, p.errf("unexpected token %s", tok.String())
		case cylex.KwUnwind:
			p.advance(tok)
			c, err := p.parseUnwindClause()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case cylex.KwMerge:
			p.advance(tok)
			c, err := p.parseMergeClause()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case cylex.KwCreate:
			p.advance(tok)
			c, err := p.parseCreateClause()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case cylex.KwDetach:
			p.advance(tok)
			if err := p.expect(cylex.KwDelete); err != nil {
				return nil, err
			}
			c, err := p.parseDeleteClause(true)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case cylex.KwDelete:
			p.advance(tok)
			c, err := p.parseDeleteClause(false)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case cylex.KwSet:
			p.advance(tok)
			c, err := p.parseSetClause()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case cylex.KwRemove:
			p.advance(tok)
			c, err := p.parseRemoveClause()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case cylex.KwWhere:
			p.advance(tok)
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, &Clause{Kind: ClauseWhere, Where: expr})
		case cylex.KwWith:
			p.advance(tok)
			c, err := p.parseProjectionClause(ClauseWith)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case cylex.KwReturn:
			p.advance(tok)
			c, err := p.parseProjectionClause(ClauseReturn)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		case cylex.EOF:
			return clauses, nil
		default:
			return nil, p.errf("unexpected token %s", tok.String())
		}
	}
}

func (p *Parser) parseCallClause() (*Clause, error) {
	name, err := p.parseDottedIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expect(cylex.LParen); err != nil {
		return nil, err
	}
	if p.current().Kind == cylex.RParen {
		p.advance(p.current())
		return &Clause{Kind: ClauseCall, CallName: name}, nil
	}
	args, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if err := p.expect(cylex.RParen); err != nil {
		return nil, err
	}
	return &Clause{Kind: ClauseCall, CallName: name, CallArgs: args}, nil
}

func (p *Parser) parseMatchClause(optional bool) (*Clause, error) {
	pat, err := p.parsePattern(cylex.KwMatch)
	if err != nil {
		return nil, err
	}
	kind := ClauseMatch
	if optional {
		kind = ClauseOptionalMatch
	}
	return &Clause{Kind: kind, Pattern: pat}, nil
}

func (p *Parser) parseMergeClause() (*Clause, error) {
	pat, err := p.parsePattern(cylex.KwMerge)
	if err != nil {
		return nil, err
	}
	return &Clause{Kind: ClauseMerge, Pattern: pat}, nil
}

func (p *Parser) parseCreateClause() (*Clause, error) {
	pat, err := p.parsePattern(cylex.KwCreate)
	if err != nil {
		return nil, err
	}
	return &Clause{Kind: ClauseCreate, Pattern: pat}, nil
}

func (p *Parser) parseUnwindClause() (*Clause, error) {
	list, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(cylex.KwAs); err != nil {
		return nil, err
	}
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	return &Clause{Kind: ClauseUnwind, UnwindList: list, UnwindVar: p.varFor(name)}, nil
}

func (p *Parser) parseDeleteClause(detach bool) (*Clause, error) {
	exprs, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	kind := ClauseDelete
	if detach {
		kind = ClauseDetachDelete
	}
	return &Clause{Kind: kind, DeleteExprs: exprs}, nil
}

func (p *Parser) parseSetClause() (*Clause, error) {
	var items []SetItem
	for {
		target, err := p.parsePropertyExpr()
		if err != nil {
			return nil, err
		}
		merge := false
		if p.current().Kind == cylex.Plus {
			p.advance(p.current())
			merge = true
		}
		if err := p.expect(cylex.Equal); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, SetItem{Target: target, Value: value, Merge: merge})
		if !p.optional(cylex.Comma) {
			break
		}
	}
	return &Clause{Kind: ClauseSet, SetItems: items}, nil
}

func (p *Parser) parseRemoveClause() (*Clause, error) {
	exprs, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	return &Clause{Kind: ClauseRemove, RemoveExprs: exprs}, nil
}

func (p *Parser) parseProjectionClause(kind ClauseKind) (*Clause, error) {
	exprs, err := p.parseNamedExprList()
	if err != nil {
		return nil, err
	}
	proj := Projection{Exprs: exprs}
	if p.current().Kind == cylex.KwOrderBy {
		p.advance(p.current())
		by, err := p.parseIdent()
		if err != nil || !strings.EqualFold(by, "BY") {
			return nil, p.errf("expected BY after ORDER")
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			desc := false
			if t := p.current(); t.Kind == cylex.Ident && (strings.EqualFold(t.Ident, "DESC") || strings.EqualFold(t.Ident, "DESCENDING")) {
				p.advance(t)
				desc = true
			} else if t.Kind == cylex.Ident && (strings.EqualFold(t.Ident, "ASC") || strings.EqualFold(t.Ident, "ASCENDING")) {
				p.advance(t)
			}
			proj.OrderBy = append(proj.OrderBy, OrderItem{Expr: e, Descending: desc})
			if !p.optional(cylex.Comma) {
				break
			}
		}
	}
	if p.current().Kind == cylex.KwSkip {
		p.advance(p.current())
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		proj.Skip = e
	}
	if p.current().Kind == cylex.KwLimit {
		p.advance(p.current())
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		proj.Limit = e
	}
	return &Clause{Kind: kind, Projection: proj}, nil
}

// parsePattern parses one or more comma-separated node/relationship chains,
// optionally preceded by "alias = " to name the whole path. clauseKeyword
// lets a pattern span multiple MATCH/CREATE/MERGE keywords joined without a
// comma, matching the source grammar's loop.
func (p *Parser) parsePattern(clauseKeyword cylex.Kind) (Pattern, error) {
	var pat Pattern
	seen := make(map[uint32]bool)
	addNode := func(n *NodePattern) {
		if !seen[n.Alias.ID] {
			seen[n.Alias.ID] = true
			pat.Nodes = append(pat.Nodes, n)
		}
	}
	for {
		pathName := ""
		if p.current().Kind == cylex.Ident {
			save := p.lex.Pos()
			name := p.current()
			p.advance(name)
			if p.current().Kind == cylex.Equal {
				p.advance(p.current())
				pathName = name.Ident
			} else {
				p.lex.Seek(save)
			}
		}

		var vars []VarId
		left, err := p.parseNodePattern()
		if err != nil {
			return pat, err
		}
		addNode(left)
		vars = append(vars, left.Alias)
		leftAlias := left.Alias

		for p.current().Kind == cylex.Dash || p.current().Kind == cylex.LessThan {
			rel, right, err := p.parseRelationshipPattern(leftAlias)
			if err != nil {
				return pat, err
			}
			vars = append(vars, rel.Alias, right.Alias)
			leftAlias = right.Alias
			pat.Relationships = append(pat.Relationships, rel)
			addNode(right)
		}

		if pathName != "" {
			pv := p.varFor(pathName)
			pat.Paths = append(pat.Paths, &PathPattern{Var: pv, Vars: vars})
		}

		if p.current().Kind == cylex.Comma {
			p.advance(p.current())
			continue
		}
		if p.current().Kind == clauseKeyword {
			p.advance(p.current())
			continue
		}
		break
	}
	return pat, nil
}

func (p *Parser) parseNodePattern() (*NodePattern, error) {
	if err := p.expect(cylex.LParen); err != nil {
		return nil, err
	}
	alias := p.anonVar()
	if p.current().Kind == cylex.Ident {
		name := p.current()
		p.advance(name)
		alias = p.varFor(name.Ident)
	}
	labels, err := p.parseLabels()
	if err != nil {
		return nil, err
	}
	attrs, err := p.parseMap()
	if err != nil {
		return nil, err
	}
	if err := p.expect(cylex.RParen); err != nil {
		return nil, err
	}
	return &NodePattern{Alias: alias, Labels: labels, Attrs: attrs}, nil
}

func (p *Parser) parseRelationshipPattern(src VarId) (*RelationshipPattern, *NodePattern, error) {
	incoming := p.optional(cylex.LessThan)
	if err := p.expect(cylex.Dash); err != nil {
		return nil, nil, err
	}
	var alias VarId
	var types []string
	attrs := map[string]*Expr{}
	if p.current().Kind == cylex.LBracket {
		p.advance(p.current())
		alias = p.anonVar()
		if p.current().Kind == cylex.Ident {
			name := p.current()
			p.advance(name)
			alias = p.varFor(name.Ident)
		}
		if p.current().Kind == cylex.Colon {
			p.advance(p.current())
			t, err := p.parseIdent()
			if err != nil {
				return nil, nil, err
			}
			types = append(types, t)
		}
		var err error
		attrs, err = p.parseMap()
		if err != nil {
			return nil, nil, err
		}
		if err := p.expect(cylex.RBracket); err != nil {
			return nil, nil, err
		}
	} else {
		alias = p.anonVar()
	}
	if err := p.expect(cylex.Dash); err != nil {
		return nil, nil, err
	}
	outgoing := p.optional(cylex.GreaterThan)
	dst, err := p.parseNodePattern()
	if err != nil {
		return nil, nil, err
	}

	// From/To keep the order written; only a left-to-right arrow sets
	// Outgoing, so (a)<-[]-(b) and an undirected (a)-[]-(b) both leave it false.
	rel := &RelationshipPattern{Alias: alias, Types: types, Attrs: attrs, From: src, To: dst.Alias, Outgoing: outgoing && !incoming}
	return rel, dst, nil
}

func (p *Parser) parseLabels() ([]string, error) {
	var labels []string
	for p.current().Kind == cylex.Colon {
		p.advance(p.current())
		l, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, nil
}

func (p *Parser) parseMap() (map[string]*Expr, error) {
	attrs := map[string]*Expr{}
	if p.current().Kind != cylex.LBrace {
		return attrs, nil
	}
	p.advance(p.current())
	if p.current().Kind == cylex.RBrace {
		p.advance(p.current())
		return attrs, nil
	}
	for {
		key, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expect(cylex.Colon); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		attrs[key] = val
		if p.optional(cylex.Comma) {
			continue
		}
		if err := p.expect(cylex.RBrace); err != nil {
			return nil, err
		}
		return attrs, nil
	}
}

func (p *Parser) parseExprList() ([]*Expr, error) {
	var exprs []*Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if !p.optional(cylex.Comma) {
			return exprs, nil
		}
	}
}

func (p *Parser) parseNamedExprList() ([]*Expr, error) {
	var exprs []*Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.current().Kind == cylex.KwAs {
			p.advance(p.current())
			name, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			e = &Expr{Kind: ExprNamed, Var: p.varFor(name), Children: []*Expr{e}}
		} else if e.Kind == ExprVar {
			// bare passthrough vars keep referring to the same binding
		} else {
			// an unnamed computed projection gets an internal anonymous binding
			e = &Expr{Kind: ExprNamed, Var: p.anonVar(), Children: []*Expr{e}}
		}
		exprs = append(exprs, e)
		if !p.optional(cylex.Comma) {
			return exprs, nil
		}
	}
}

// ---- expression grammar, precedence-climbing from primary outward ----

func (p *Parser) parseExpr() (*Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (*Expr, error) {
	return p.parseLeftAssocN(cylex.KwOr, ExprOr, p.parseXor)
}

func (p *Parser) parseXor() (*Expr, error) {
	return p.parseLeftAssocN(cylex.KwXor, ExprXor, p.parseAnd)
}

func (p *Parser) parseAnd() (*Expr, error) {
	return p.parseLeftAssocN(cylex.KwAnd, ExprAnd, p.parseNot)
}

// parseLeftAssocN folds a run of same-precedence infix operators into one
// N-ary node, matching the grammar's "keep collecting while the operator
// token repeats" shape.
func (p *Parser) parseLeftAssocN(op cylex.Kind, kind ExprKind, next func() (*Expr, error)) (*Expr, error) {
	first, err := next()
	if err != nil {
		return nil, err
	}
	items := []*Expr{first}
	for p.current().Kind == op {
		p.advance(p.current())
		e, err := next()
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return &Expr{Kind: kind, Children: items}, nil
}

func (p *Parser) parseNot() (*Expr, error) {
	count := 0
	for p.current().Kind == cylex.KwNot {
		p.advance(p.current())
		count++
	}
	e, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if count%2 == 0 {
		return e, nil
	}
	return &Expr{Kind: ExprNot, Children: []*Expr{e}}, nil
}

var comparisonKinds = map[cylex.Kind]ExprKind{
	cylex.Equal: ExprEq, cylex.NotEqual: ExprNeq, cylex.LessThan: ExprLt,
	cylex.GreaterThan: ExprGt, cylex.LessEqual: ExprLe, cylex.GreaterEqual: ExprGe,
}

func (p *Parser) parseComparison() (*Expr, error) {
	first, err := p.parseIn()
	if err != nil {
		return nil, err
	}
	tok := p.current()
	kind, isCmp := comparisonKinds[tok.Kind]
	if !isCmp {
		return first, nil
	}
	items := []*Expr{first}
	for {
		tok = p.current()
		k, ok := comparisonKinds[tok.Kind]
		if !ok || k != kind {
			break
		}
		p.advance(tok)
		e, err := p.parseIn()
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return &Expr{Kind: kind, Children: items}, nil
}

func (p *Parser) parseIn() (*Expr, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	if p.current().Kind == cylex.KwIn {
		p.advance(p.current())
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprIn, Children: []*Expr{left, right}}, nil
	}
	return left, nil
}

func (p *Parser) parseAdd() (*Expr, error) {
	items := []*Expr{}
	first, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	items = append(items, first)
	for {
		tok := p.current()
		if tok.Kind == cylex.Plus {
			p.advance(tok)
			e, err := p.parseMul()
			if err != nil {
				return nil, err
			}
			items = append(items, e)
			continue
		}
		if tok.Kind == cylex.Dash {
			p.advance(tok)
			e, err := p.parseMul()
			if err != nil {
				return nil, err
			}
			items = append(items, &Expr{Kind: ExprNegate, Children: []*Expr{e}})
			continue
		}
		break
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return &Expr{Kind: ExprAdd, Children: items}, nil
}

// parseMul folds a left-associative run of *, /, % at equal precedence.
// A run of plain '*' collapses into one flat ExprMul node (matching the
// grammar's n-ary Mul); any '/' or '%' in the run instead combines with
// whatever has been accumulated so far as a binary node, left to right.
func (p *Parser) parseMul() (*Expr, error) {
	left, err := p.parsePow()
	if err != nil {
		return nil, err
	}
	mulRun := []*Expr{left}
	flushMul := func() *Expr {
		if len(mulRun) == 1 {
			e := mulRun[0]
			mulRun = mulRun[:0]
			return e
		}
		e := &Expr{Kind: ExprMul, Children: append([]*Expr(nil), mulRun...)}
		mulRun = mulRun[:0]
		return e
	}
	for {
		tok := p.current()
		switch tok.Kind {
		case cylex.Star:
			p.advance(tok)
			e, err := p.parsePow()
			if err != nil {
				return nil, err
			}
			mulRun = append(mulRun, e)
		case cylex.Slash, cylex.Percent:
			p.advance(tok)
			rhs, err := p.parsePow()
			if err != nil {
				return nil, err
			}
			lhs := flushMul()
			kind := ExprDiv
			if tok.Kind == cylex.Percent {
				kind = ExprModulo
			}
			mulRun = []*Expr{{Kind: kind, Children: []*Expr{lhs, rhs}}}
		default:
			return flushMul(), nil
		}
	}
}

func (p *Parser) parsePow() (*Expr, error) {
	base, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.current().Kind == cylex.Caret {
		p.advance(p.current())
		exp, err := p.parsePow()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprPow, Children: []*Expr{base, exp}}, nil
	}
	return base, nil
}

func (p *Parser) parseUnary() (*Expr, error) {
	if p.current().Kind == cylex.Dash {
		p.advance(p.current())
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprNegate, Children: []*Expr{e}}, nil
	}
	return p.parseNullOp()
}

func (p *Parser) parseNullOp() (*Expr, error) {
	e, err := p.parseListOp()
	if err != nil {
		return nil, err
	}
	if p.current().Kind == cylex.KwIs {
		p.advance(p.current())
		not := p.optional(cylex.KwNot)
		if err := p.expect(cylex.Null); err != nil {
			return nil, err
		}
		isNull := &Expr{Kind: ExprIsNull, Children: []*Expr{e}}
		if not {
			return &Expr{Kind: ExprNot, Children: []*Expr{isNull}}, nil
		}
		return isNull, nil
	}
	return e, nil
}

func (p *Parser) parseListOp() (*Expr, error) {
	e, err := p.parseProperty()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == cylex.LBracket {
		p.advance(p.current())
		if p.optional(cylex.DotDot) {
			end, _ := p.parseExpr()
			if err := p.expect(cylex.RBracket); err != nil {
				return nil, err
			}
			e = &Expr{Kind: ExprGetElements, Children: []*Expr{e, nil, end}, HasEnd: end != nil}
			continue
		}
		idx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.optional(cylex.DotDot) {
			end, _ := p.parseExpr()
			if err := p.expect(cylex.RBracket); err != nil {
				return nil, err
			}
			e = &Expr{Kind: ExprGetElements, Children: []*Expr{e, idx, end}, HasStart: true, HasEnd: end != nil}
			continue
		}
		if err := p.expect(cylex.RBracket); err != nil {
			return nil, err
		}
		e = &Expr{Kind: ExprGetElement, Children: []*Expr{e, idx}}
	}
	return e, nil
}

func (p *Parser) parseProperty() (*Expr, error) {
	return p.parsePropertyExpr()
}

func (p *Parser) parsePropertyExpr() (*Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == cylex.Dot {
		p.advance(p.current())
		key, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		e = &Expr{Kind: ExprProperty, Key: key, Children: []*Expr{e}}
	}
	return e, nil
}

func quantifierWord(lower string) (QuantifierType, bool) {
	switch lower {
	case "all":
		return QuantifierAll, true
	case "any":
		return QuantifierAny, true
	case "none":
		return QuantifierNone, true
	case "single":
		return QuantifierSingle, true
	}
	return 0, false
}

// tryParseQuantifier attempts "(ALL|ANY|NONE|SINGLE)(var IN list [WHERE pred])"
// starting at the current Ident token. On a shape mismatch it rewinds the
// lexer and reports no match, so a quantifier keyword used as an ordinary
// variable or function name still parses correctly.
func (p *Parser) tryParseQuantifier(qt QuantifierType) (*Expr, bool, error) {
	start := p.lex.Pos()
	p.advance(p.current())
	if p.current().Kind != cylex.LParen {
		p.lex.Seek(start)
		return nil, false, nil
	}
	p.advance(p.current())
	if p.current().Kind != cylex.Ident {
		p.lex.Seek(start)
		return nil, false, nil
	}
	varTok := p.current()
	p.advance(varTok)
	if p.current().Kind != cylex.KwIn {
		p.lex.Seek(start)
		return nil, false, nil
	}
	p.advance(p.current())
	v := p.varFor(varTok.Ident)
	list, err := p.parseExpr()
	if err != nil {
		return nil, true, err
	}
	predicate := &Expr{Kind: ExprBool, Bool: true}
	if p.optional(cylex.KwWhere) {
		predicate, err = p.parseExpr()
		if err != nil {
			return nil, true, err
		}
	}
	if err := p.expect(cylex.RParen); err != nil {
		return nil, true, err
	}
	return &Expr{Kind: ExprQuantifier, Quant: qt, Var: v, Children: []*Expr{list, predicate}}, true, nil
}

// tryParseListComprehension attempts "var IN list [WHERE pred] [| proj]"
// immediately after the opening '[' has been consumed. On a shape mismatch
// it rewinds the lexer so the caller falls back to a plain list literal.
func (p *Parser) tryParseListComprehension() (*Expr, bool, error) {
	start := p.lex.Pos()
	if p.current().Kind != cylex.Ident {
		return nil, false, nil
	}
	varTok := p.current()
	p.advance(varTok)
	if p.current().Kind != cylex.KwIn {
		p.lex.Seek(start)
		return nil, false, nil
	}
	p.advance(p.current())
	v := p.varFor(varTok.Ident)
	list, err := p.parseExpr()
	if err != nil {
		return nil, true, err
	}
	var predicate, projection *Expr
	if p.optional(cylex.KwWhere) {
		predicate, err = p.parseExpr()
		if err != nil {
			return nil, true, err
		}
	}
	if p.optional(cylex.Pipe) {
		projection, err = p.parseExpr()
		if err != nil {
			return nil, true, err
		}
	}
	if err := p.expect(cylex.RBracket); err != nil {
		return nil, true, err
	}
	return &Expr{Kind: ExprListComprehension, Var: v, Children: []*Expr{list, predicate, projection}}, true, nil
}

func (p *Parser) parsePrimary() (*Expr, error) {
	tok := p.current()
	switch tok.Kind {
	case cylex.Ident:
		if qt, ok := quantifierWord(strings.ToLower(tok.Ident)); ok {
			e, matched, err := p.tryParseQuantifier(qt)
			if err != nil {
				return nil, err
			}
			if matched {
				return e, nil
			}
		}
		p.advance(tok)
		if p.current().Kind == cylex.LParen {
			p.advance(p.current())
			distinct := p.optional(cylex.KwDistinct)
			var args []*Expr
			if p.current().Kind == cylex.Star {
				p.advance(p.current())
				args = []*Expr{{Kind: ExprStar}}
			} else if p.current().Kind != cylex.RParen {
				var err error
				args, err = p.parseExprList()
				if err != nil {
					return nil, err
				}
			}
			if err := p.expect(cylex.RParen); err != nil {
				return nil, err
			}
			call := &Expr{Kind: ExprFuncInvocation, Func: tok.Ident, Children: args}
			if distinct {
				return &Expr{Kind: ExprDistinct, Children: []*Expr{call}}, nil
			}
			return call, nil
		}
		return &Expr{Kind: ExprVar, Var: p.varFor(tok.Ident)}, nil
	case cylex.Parameter:
		p.advance(tok)
		return &Expr{Kind: ExprParameter, Param: tok.Param}, nil
	case cylex.Null:
		p.advance(tok)
		return &Expr{Kind: ExprNull}, nil
	case cylex.Bool:
		p.advance(tok)
		return &Expr{Kind: ExprBool, Bool: tok.Bool}, nil
	case cylex.Integer:
		p.advance(tok)
		return &Expr{Kind: ExprInteger, Int: tok.Int}, nil
	case cylex.Float:
		p.advance(tok)
		return &Expr{Kind: ExprFloat, Float: tok.Float}, nil
	case cylex.String:
		p.advance(tok)
		return &Expr{Kind: ExprString, Str: tok.String}, nil
	case cylex.LBracket:
		p.advance(tok)
		if p.current().Kind == cylex.RBracket {
			p.advance(p.current())
			return &Expr{Kind: ExprList}, nil
		}
		if lc, matched, err := p.tryParseListComprehension(); err != nil {
			return nil, err
		} else if matched {
			return lc, nil
		}
		items, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		if err := p.expect(cylex.RBracket); err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprList, Children: items}, nil
	case cylex.LBrace:
		attrs, err := p.parseMap()
		if err != nil {
			return nil, err
		}
		keys := make([]string, 0, len(attrs))
		children := make([]*Expr, 0, len(attrs))
		for k, v := range attrs {
			keys = append(keys, k)
			children = append(children, v)
		}
		return &Expr{Kind: ExprMap, MapKeys: keys, Children: children}, nil
	case cylex.LParen:
		p.advance(tok)
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(cylex.RParen); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, p.errf("unexpected token %s", tok.String())
	}
}
