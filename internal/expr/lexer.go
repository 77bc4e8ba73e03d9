package expr

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind classifies a lexed token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokNumber
	TokIdent
	TokString
	TokPlus   // +
	TokMinus  // -
	TokStar   // *
	TokPower  // **
	TokSlash  // /
	TokLParen // (
	TokRParen // )
	TokComma  // ,
	TokColon  // :
	TokAssign // =
	TokDot    // .
	TokNewline
	TokOther
)

var tokenNames = map[TokenKind]string{
	TokEOF:     "end of input",
	TokNumber:  "number",
	TokIdent:   "identifier",
	TokString:  "string",
	TokPlus:    "'+'",
	TokMinus:   "'-'",
	TokStar:    "'*'",
	TokPower:   "'**'",
	TokSlash:   "'/'",
	TokLParen:  "'('",
	TokRParen:  "')'",
	TokComma:   "','",
	TokColon:   "':'",
	TokAssign:  "'='",
	TokDot:     "'.'",
	TokNewline: "newline",
	TokOther:   "symbol",
}

func (k TokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Pos is a 1-based line and column in the source text.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// Token is a lexed unit of source text.
type Token struct {
	Kind TokenKind
	Text string
	Pos  Pos
}

func (t Token) String() string {
	switch t.Kind {
	case TokEOF, TokNewline:
		return t.Kind.String()
	}
	return fmt.Sprintf("%q", t.Text)
}

// Lex splits src into tokens. Comments are dropped, and newlines inside
// brackets are dropped the way a Python tokenizer joins bracketed lines.
// Lex never fails: anything it does not recognise becomes TokOther.
func Lex(src string) []Token {
	l := &lexer{src: src, line: 1, col: 1}
	var toks []Token
	depth := 0
	for {
		tok := l.next()
		switch tok.Kind {
		case TokLParen:
			depth++
		case TokRParen:
			if depth > 0 {
				depth--
			}
		case TokNewline:
			if depth > 0 {
				continue
			}
			if n := len(toks); n > 0 && toks[n-1].Kind == TokNewline {
				continue
			}
		}
		toks = append(toks, tok)
		if tok.Kind == TokEOF {
			return toks
		}
	}
}

type lexer struct {
	src  string
	off  int
	line int
	col  int
}

func (l *lexer) peek() rune {
	if l.off >= len(l.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.off:])
	return r
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) next() Token {
	for {
		r := l.peek()
		switch {
		case r == '#':
			for r := l.peek(); r != -1 && r != '\n'; r = l.peek() {
				l.advance()
			}
			continue
		case r == '\\' && strings.HasPrefix(l.src[l.off:], "\\\n"):
			// explicit line continuation
			l.advance()
			l.advance()
			continue
		case r == ' ' || r == '\t' || r == '\r' || r == '\f':
			l.advance()
			continue
		}
		break
	}

	pos := Pos{Line: l.line, Col: l.col}
	start := l.off
	r := l.peek()
	if r == -1 {
		return Token{Kind: TokEOF, Pos: pos}
	}

	switch {
	case r == '\n':
		l.advance()
		return Token{Kind: TokNewline, Text: "\n", Pos: pos}
	case isDigit(r) || (r == '.' && l.off+1 < len(l.src) && isDigit(rune(l.src[l.off+1]))):
		l.lexNumber()
		return Token{Kind: TokNumber, Text: l.src[start:l.off], Pos: pos}
	case r == '_' || unicode.IsLetter(r):
		for r := l.peek(); r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r); r = l.peek() {
			l.advance()
		}
		return Token{Kind: TokIdent, Text: l.src[start:l.off], Pos: pos}
	case r == '"' || r == '\'':
		l.lexString(r)
		return Token{Kind: TokString, Text: l.src[start:l.off], Pos: pos}
	}

	l.advance()
	kind := TokOther
	switch r {
	case '+':
		kind = TokPlus
	case '-':
		kind = TokMinus
	case '*':
		kind = TokStar
		if l.peek() == '*' {
			l.advance()
			kind = TokPower
		}
	case '/':
		kind = TokSlash
	case '(':
		kind = TokLParen
	case ')':
		kind = TokRParen
	case ',':
		kind = TokComma
	case ':':
		kind = TokColon
	case '.':
		kind = TokDot
	case '=':
		kind = TokAssign
		if l.peek() == '=' {
			l.advance()
			kind = TokOther
		}
	}
	return Token{Kind: kind, Text: l.src[start:l.off], Pos: pos}
}

// isIdent reports whether s lexes as a single identifier.
func isIdent(s string) bool {
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return s != ""
}

func (l *lexer) lexNumber() {
	for isDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	if l.peek() == '.' {
		l.advance()
		for isDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
	}
	if r := l.peek(); r == 'e' || r == 'E' {
		rest := l.src[l.off+1:]
		if len(rest) > 0 && (rest[0] == '+' || rest[0] == '-') {
			rest = rest[1:]
		}
		if len(rest) == 0 || !isDigit(rune(rest[0])) {
			return
		}
		l.advance()
		if r := l.peek(); r == '+' || r == '-' {
			l.advance()
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}
}

func (l *lexer) lexString(quote rune) {
	l.advance()
	for {
		r := l.peek()
		switch r {
		case -1, '\n':
			return
		case '\\':
			l.advance()
			if l.peek() != -1 {
				l.advance()
			}
			continue
		}
		l.advance()
		if r == quote {
			return
		}
	}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
