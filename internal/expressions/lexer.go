package expressions

import "fmt"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokEq
	tokNeq
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of expression"
	case tokIdent:
		return fmt.Sprintf("identifier %q", t.text)
	case tokString:
		return fmt.Sprintf("string %q", t.text)
	case tokEq:
		return `"=="`
	case tokNeq:
		return `"!="`
	case tokAnd:
		return `"&&"`
	case tokOr:
		return `"||"`
	case tokNot:
		return `"!"`
	case tokLParen:
		return `"("`
	case tokRParen:
		return `")"`
	}
	return "unknown token"
}

type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]
	switch {
	case c == '(':
		l.pos++
		return token{kind: tokLParen, pos: start}, nil
	case c == ')':
		l.pos++
		return token{kind: tokRParen, pos: start}, nil
	case c == '&':
		if l.peek(1) != '&' {
			return token{}, fmt.Errorf("single '&' at position %d, expected \"&&\"", start)
		}
		l.pos += 2
		return token{kind: tokAnd, pos: start}, nil
	case c == '|':
		if l.peek(1) != '|' {
			return token{}, fmt.Errorf("single '|' at position %d, expected \"||\"", start)
		}
		l.pos += 2
		return token{kind: tokOr, pos: start}, nil
	case c == '=':
		if l.peek(1) != '=' {
			return token{}, fmt.Errorf("single '=' at position %d, expected \"==\"", start)
		}
		l.pos += 2
		return token{kind: tokEq, pos: start}, nil
	case c == '!':
		if l.peek(1) == '=' {
			l.pos += 2
			return token{kind: tokNeq, pos: start}, nil
		}
		l.pos++
		return token{kind: tokNot, pos: start}, nil
	case c == '"':
		return l.lexString()
	case isIdentStart(c):
		return l.lexIdent()
	}
	return token{}, fmt.Errorf("unexpected character %q at position %d", c, start)
}

func (l *lexer) peek(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *lexer) lexString() (token, error) {
	start := l.pos
	l.pos++ // opening quote
	var out []byte
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch c {
		case '"':
			l.pos++
			return token{kind: tokString, text: string(out), pos: start}, nil
		case '\\':
			esc := l.peek(1)
			switch esc {
			case '"', '\\':
				out = append(out, esc)
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			default:
				return token{}, fmt.Errorf("unknown escape \\%c at position %d", esc, l.pos)
			}
			l.pos += 2
		default:
			out = append(out, c)
			l.pos++
		}
	}
	return token{}, fmt.Errorf("unterminated string starting at position %d", start)
}

func (l *lexer) lexIdent() (token, error) {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	return token{kind: tokIdent, text: l.input[start:l.pos], pos: start}, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
