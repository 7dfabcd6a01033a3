// Package expressions implements the step guard grammar and the ${name}
// command interpolation scanner.
//
// The guard grammar is intentionally minimal: equality and inequality
// comparisons between variable references and string literals, combined with
// &&, ||, and unary !. Expressions are parsed into an explicit tree and
// evaluated by a pure tree walk against a Scope snapshot; there is no
// dynamic evaluation of any kind.
package expressions

import (
	"fmt"

	"github.com/flowkit-io/flowkit/pkg/schema"
)

// Expr is a node in a parsed guard expression.
type Expr interface {
	// Eval evaluates the node to a boolean against the given scope. Eval is
	// pure: the same expression and scope always produce the same result.
	Eval(scope Scope) bool
}

// operand is a node usable on either side of == / !=.
type operand interface {
	Expr
	value(scope Scope) string
}

// Literal is a quoted string literal, or one of the bare words true/false.
type Literal struct {
	Text string
}

func (l Literal) value(Scope) string { return l.Text }
func (l Literal) Eval(s Scope) bool  { return truthy(l.Text) }

// VarRef reads a context variable by name. Unknown variables read as "".
type VarRef struct {
	Name string
}

func (v VarRef) value(s Scope) string { return s.Lookup(v.Name) }
func (v VarRef) Eval(s Scope) bool    { return truthy(s.Lookup(v.Name)) }

// Eq compares two operands for string equality.
type Eq struct {
	Left, Right operand
}

func (e Eq) Eval(s Scope) bool { return e.Left.value(s) == e.Right.value(s) }

// Neq compares two operands for string inequality.
type Neq struct {
	Left, Right operand
}

func (n Neq) Eval(s Scope) bool { return n.Left.value(s) != n.Right.value(s) }

// And is short-circuit conjunction.
type And struct {
	Left, Right Expr
}

func (a And) Eval(s Scope) bool { return a.Left.Eval(s) && a.Right.Eval(s) }

// Or is short-circuit disjunction.
type Or struct {
	Left, Right Expr
}

func (o Or) Eval(s Scope) bool { return o.Left.Eval(s) || o.Right.Eval(s) }

// Not is unary negation.
type Not struct {
	Expr Expr
}

func (n Not) Eval(s Scope) bool { return !n.Expr.Eval(s) }

// truthy reports whether a string value counts as true in boolean position:
// non-empty and not the word "false". Matches shell flag conventions.
func truthy(s string) bool {
	return s != "" && s != "false"
}

// ParseCondition parses a guard expression into an expression tree. The
// returned error carries code CONDITION_ERROR and includes the offending
// expression text.
func ParseCondition(text string) (Expr, error) {
	p := &condParser{lexer: newLexer(text)}
	if err := p.advance(); err != nil {
		return nil, condError(text, err)
	}
	expr, err := p.parseOr()
	if err != nil {
		return nil, condError(text, err)
	}
	if p.tok.kind != tokEOF {
		return nil, condError(text, fmt.Errorf("unexpected %s at position %d", p.tok, p.tok.pos))
	}
	return expr, nil
}

// CheckCondition reports whether a guard expression is syntactically
// well-formed. Used by the validator; never evaluates anything.
func CheckCondition(text string) error {
	_, err := ParseCondition(text)
	return err
}

func condError(text string, err error) error {
	return schema.NewErrorf(schema.ErrCodeCondition, "invalid condition %q: %v", text, err)
}

// condParser is a recursive-descent parser over the guard grammar:
//
//	expr    := or
//	or      := and ("||" and)*
//	and     := unary ("&&" unary)*
//	unary   := "!" unary | cmp
//	cmp     := primary (("==" | "!=") primary)?
//	primary := "(" expr ")" | STRING | IDENT
type condParser struct {
	lexer *lexer
	tok   token
}

func (p *condParser) advance() error {
	tok, err := p.lexer.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *condParser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *condParser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
	return left, nil
}

func (p *condParser) parseUnary() (Expr, error) {
	if p.tok.kind == tokNot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not{Expr: inner}, nil
	}
	return p.parseCmp()
}

func (p *condParser) parseCmp() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEq && p.tok.kind != tokNeq {
		return left, nil
	}
	op := p.tok.kind
	opPos := p.tok.pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	lop, lok := left.(operand)
	rop, rok := right.(operand)
	if !lok || !rok {
		return nil, fmt.Errorf("comparison at position %d requires variable or string literal operands", opPos)
	}
	if op == tokEq {
		return Eq{Left: lop, Right: rop}, nil
	}
	return Neq{Left: lop, Right: rop}, nil
}

func (p *condParser) parsePrimary() (Expr, error) {
	switch p.tok.kind {
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis at position %d", p.tok.pos)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return inner, nil

	case tokString:
		lit := Literal{Text: p.tok.text}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return lit, nil

	case tokIdent:
		text := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		// true and false are literals, everything else is a variable.
		if text == "true" || text == "false" {
			return Literal{Text: text}, nil
		}
		return VarRef{Name: text}, nil

	case tokEOF:
		return nil, fmt.Errorf("unexpected end of expression")

	default:
		return nil, fmt.Errorf("unexpected %s at position %d", p.tok, p.tok.pos)
	}
}
