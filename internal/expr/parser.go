package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrParseFailure is matched by every error returned from Extract and
// Parse.
var ErrParseFailure = errors.New("parse failure")

// ParseError describes malformed rate-function source text.
type ParseError struct {
	Pos Pos
	Msg string
}

func (e *ParseError) Error() string {
	if e.Pos.Line == 0 {
		return "parse error: " + e.Msg
	}
	return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Msg)
}

// Unwrap lets callers match ParseError with errors.Is(err, ErrParseFailure).
func (e *ParseError) Unwrap() error { return ErrParseFailure }

func errorf(pos Pos, format string, args ...any) error {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

type parser struct {
	toks    []Token
	pos     int
	param   string
	skipped []*ParseError
}

func (p *parser) peek() Token { return p.peekAt(0) }

func (p *parser) peekAt(n int) Token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() Token {
	tok := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind TokenKind, context string) (Token, error) {
	tok := p.next()
	if tok.Kind != kind {
		want := kind.String()
		if context != "" {
			want += " " + context
		}
		return tok, errorf(tok.Pos, "expected %s, found %s", want, tok)
	}
	return tok, nil
}

// ParseLambda parses `lambda <param>: <expr>` starting at the lambda
// keyword.
func ParseLambda(src string) (*RateExpr, error) {
	p := &parser{toks: Lex(src)}
	for p.peek().Kind == TokNewline {
		p.next()
	}
	e, err := p.parseLambda()
	if err != nil {
		return nil, err
	}
	for p.peek().Kind == TokNewline {
		p.next()
	}
	if tok := p.peek(); tok.Kind != TokEOF {
		return nil, errorf(tok.Pos, "unexpected %s after rate expression", tok)
	}
	return e, nil
}

func (p *parser) parseLambda() (*RateExpr, error) {
	kw := p.next()
	if kw.Kind != TokIdent || kw.Text != "lambda" {
		return nil, errorf(kw.Pos, "expected lambda, found %s", kw)
	}
	param, err := p.expect(TokIdent, "as lambda parameter")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokColon, "after lambda parameter"); err != nil {
		return nil, err
	}
	p.param = param.Text
	p.skipped = nil
	e, err := p.parseRateExpr(kw.Pos)
	if err != nil {
		return nil, err
	}
	e.Skipped = p.skipped
	return e, nil
}

// parseRateExpr parses a sum of bare numbers and terms up to the end of
// the enclosing argument. Items outside the grammar are skipped and
// recorded; only unbalanced brackets are fatal.
func (p *parser) parseRateExpr(pos Pos) (*RateExpr, error) {
	e := &RateExpr{Param: p.param, Pos: pos}
	for {
		start := p.pos
		if err := p.parseItem(e); err != nil {
			p.pos = start
			if err := p.skipItem(err); err != nil {
				return nil, err
			}
		}
		more, err := p.sep(false)
		if err != nil {
			return nil, err
		}
		if !more {
			return e, nil
		}
	}
}

// parseItem parses one bare number or term and adds it to e.
func (p *parser) parseItem(e *RateExpr) error {
	if p.peek().Kind == TokNumber && p.peekAt(1).Kind != TokStar {
		n, err := p.parseNumber()
		if err != nil {
			return err
		}
		e.Base = append(e.Base, n)
		return nil
	}
	t, err := p.parseTerm()
	if err != nil {
		return err
	}
	e.Terms = append(e.Terms, t)
	return nil
}

// sep consumes the separator after an item and reports whether another
// item follows. Anything other than '+' before the end of the sum is
// skipped. In a group the closing ')' is consumed.
func (p *parser) sep(inGroup bool) (bool, error) {
	for {
		tok := p.peek()
		switch tok.Kind {
		case TokPlus:
			p.next()
			return true, nil
		case TokRParen:
			if inGroup {
				p.next()
			}
			return false, nil
		case TokEOF:
			if inGroup {
				return false, errorf(tok.Pos, "unbalanced '(' in rate expression")
			}
			return false, nil
		case TokComma, TokNewline:
			if !inGroup {
				return false, nil
			}
			p.next()
		}

		cause := errorf(tok.Pos, "unexpected %s between terms", tok)
		if tok.Kind == TokMinus {
			cause = errorf(tok.Pos, "subtracted term is not supported")
		}
		if err := p.skipItem(cause); err != nil {
			return false, err
		}
	}
}

// skipItem records cause and consumes tokens up to the next '+', ',', ')'
// or newline outside brackets.
func (p *parser) skipItem(cause error) error {
	if pe, ok := cause.(*ParseError); ok {
		p.skipped = append(p.skipped, pe)
	}
	depth := 0
	for {
		switch tok := p.peek(); tok.Kind {
		case TokEOF:
			if depth > 0 {
				return errorf(tok.Pos, "unbalanced '(' in rate expression")
			}
			return nil
		case TokLParen:
			depth++
		case TokRParen:
			if depth == 0 {
				return nil
			}
			depth--
		case TokPlus, TokComma, TokNewline:
			if depth == 0 {
				return nil
			}
		}
		p.next()
	}
}

// parseTerm parses [NUMBER '*'] (gaussian | group).
func (p *parser) parseTerm() (*Term, error) {
	t := &Term{Pos: p.peek().Pos}
	if p.peek().Kind == TokNumber {
		n, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokStar, "after coefficient"); err != nil {
			return nil, err
		}
		t.Coef = n
	}

	switch tok := p.peek(); tok.Kind {
	case TokLParen:
		g, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		t.Body = g
	case TokIdent:
		g, err := p.parseGaussian()
		if err != nil {
			return nil, err
		}
		t.Body = g
	default:
		return nil, errorf(tok.Pos, "expected exp(...) term or '(', found %s", tok)
	}
	return t, nil
}

func (p *parser) parseGroup() (*Group, error) {
	open, err := p.expect(TokLParen, "to open group")
	if err != nil {
		return nil, err
	}
	g := &Group{Pos: open.Pos}
	for {
		start := p.pos
		if t, err := p.parseTerm(); err != nil {
			p.pos = start
			if err := p.skipItem(err); err != nil {
				return nil, err
			}
		} else {
			g.Terms = append(g.Terms, t)
		}
		more, err := p.sep(true)
		if err != nil {
			return nil, err
		}
		if !more {
			return g, nil
		}
	}
}

// parseGaussian parses exp(-((param - C)**2) / W). The outer parentheses
// around the square are optional, and the function may be qualified
// (np.exp, numpy.exp, math.exp).
func (p *parser) parseGaussian() (*Gaussian, error) {
	start := p.peek().Pos
	var name []string
	for {
		id, err := p.expect(TokIdent, "in function name")
		if err != nil {
			return nil, err
		}
		name = append(name, id.Text)
		if p.peek().Kind != TokDot {
			break
		}
		p.next()
	}
	fn := strings.Join(name, ".")
	if !IsExpFunc(fn) {
		return nil, errorf(start, "unsupported function %s, only exp is recognised", fn)
	}

	if _, err := p.expect(TokLParen, "after "+fn); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokMinus, "before squared distance"); err != nil {
		return nil, err
	}

	wrapped := p.peek().Kind == TokLParen && p.peekAt(1).Kind == TokLParen
	if wrapped {
		p.next()
	}
	center, err := p.parseSquare()
	if err != nil {
		return nil, err
	}
	if wrapped {
		if _, err := p.expect(TokRParen, "after squared distance"); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(TokSlash, "before width"); err != nil {
		return nil, err
	}
	width, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	if width.Value <= 0 {
		return nil, errorf(width.Pos, "peak width must be positive, got %s", width.Text)
	}
	if _, err := p.expect(TokRParen, "to close "+fn); err != nil {
		return nil, err
	}

	return &Gaussian{Func: fn, Center: center.Value, Width: width.Value, Pos: start}, nil
}

// parseSquare parses (param - C)**2 and returns C.
func (p *parser) parseSquare() (*Number, error) {
	if _, err := p.expect(TokLParen, "before distance"); err != nil {
		return nil, err
	}
	v, err := p.expect(TokIdent, "as time variable")
	if err != nil {
		return nil, err
	}
	if v.Text != p.param {
		return nil, errorf(v.Pos, "unknown variable %s, lambda parameter is %s", v.Text, p.param)
	}
	if _, err := p.expect(TokMinus, "between time and center"); err != nil {
		return nil, err
	}
	center, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRParen, "after center"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokPower, "for square"); err != nil {
		return nil, err
	}
	exp, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	if exp.Value != 2 {
		return nil, errorf(exp.Pos, "expected exponent 2, found %s", exp.Text)
	}
	return center, nil
}

func (p *parser) parseNumber() (*Number, error) {
	tok, err := p.expect(TokNumber, "")
	if err != nil {
		return nil, err
	}
	v, err := parseFloat(tok.Text)
	if err != nil {
		return nil, errorf(tok.Pos, "invalid number %s", tok.Text)
	}
	return &Number{Value: v, Text: tok.Text, Pos: tok.Pos}, nil
}

// IsExpFunc reports whether name is exp, optionally qualified by a dotted
// module path such as np.exp or math.exp.
func IsExpFunc(name string) bool {
	parts := strings.Split(name, ".")
	for _, part := range parts {
		if !isIdent(part) {
			return false
		}
	}
	return parts[len(parts)-1] == "exp"
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, "_", ""), 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, strconv.ErrRange
	}
	return v, nil
}
