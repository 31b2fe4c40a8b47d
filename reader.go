package metta

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/mettatron/metta/engine"
)

// Token is a lexical unit of program text.
type Token struct {
	Kind TokenKind
	Val  string
}

func (t Token) String() string {
	if t.Val == "" {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s %q", t.Kind, t.Val)
}

type TokenKind byte

const (
	TokenEOS TokenKind = iota
	TokenLParen
	TokenRParen
	TokenBang
	TokenSymbol
	TokenInteger
	TokenString
	TokenURI
	TokenInvalid
)

func (k TokenKind) String() string {
	switch k {
	case TokenEOS:
		return "eos"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenBang:
		return "!"
	case TokenSymbol:
		return "symbol"
	case TokenInteger:
		return "integer"
	case TokenString:
		return "string"
	case TokenURI:
		return "uri"
	case TokenInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

type lexState func(rune) lexState

// Lexer tokenizes program text. Line comments run from ; or // to end of
// line, block comments from /* to */ without nesting.
type Lexer struct {
	input  *bufio.Reader
	state  lexState
	tokens []Token
	buf    strings.Builder
	width  int
}

func NewLexer(input *bufio.Reader) *Lexer {
	l := Lexer{input: input}
	l.state = l.program
	return &l
}

// Next returns the next token. Once the input is exhausted it returns
// TokenEOS forever.
func (l *Lexer) Next() Token {
	for l.state != nil && len(l.tokens) == 0 {
		l.state = l.state(l.next())
	}

	if len(l.tokens) > 0 {
		var t Token
		t, l.tokens = l.tokens[0], l.tokens[1:]
		return t
	}

	return Token{Kind: TokenEOS}
}

const eof = rune(-1)

func (l *Lexer) next() rune {
	r, w, err := l.input.ReadRune()
	if err != nil {
		l.width = 0
		return eof
	}
	l.width = w
	return r
}

func (l *Lexer) backup() {
	if l.width > 0 {
		_ = l.input.UnreadRune()
	}
}

func (l *Lexer) emit(t Token) {
	l.tokens = append(l.tokens, t)
}

func (l *Lexer) program(r rune) lexState {
	switch {
	case r == eof:
		l.emit(Token{Kind: TokenEOS})
		return nil
	case unicode.IsSpace(r):
		return l.program
	case r == ';':
		return l.lineComment
	case r == '(':
		l.emit(Token{Kind: TokenLParen})
		return l.program
	case r == ')':
		l.emit(Token{Kind: TokenRParen})
		return l.program
	case r == '!':
		return l.bang
	case r == '"':
		l.buf.Reset()
		return l.str
	case r == '`':
		l.buf.Reset()
		return l.uri
	case r == '/':
		return l.slash
	case r == '-':
		l.buf.Reset()
		l.buf.WriteRune(r)
		return l.minus
	case unicode.IsDigit(r):
		l.buf.Reset()
		l.buf.WriteRune(r)
		return l.integer
	default:
		l.buf.Reset()
		l.buf.WriteRune(r)
		return l.symbol
	}
}

func (l *Lexer) lineComment(r rune) lexState {
	switch r {
	case eof:
		l.emit(Token{Kind: TokenEOS})
		return nil
	case '\n':
		return l.program
	default:
		return l.lineComment
	}
}

// bang emits the evaluation marker only when ! stands alone before an
// expression; otherwise it starts a symbol such as !=.
func (l *Lexer) bang(r rune) lexState {
	if r == eof || unicode.IsSpace(r) || r == '(' {
		l.backup()
		l.emit(Token{Kind: TokenBang})
		if r == eof {
			l.emit(Token{Kind: TokenEOS})
			return nil
		}
		return l.program
	}
	l.buf.Reset()
	l.buf.WriteRune('!')
	return l.symbol(r)
}

// slash disambiguates the two comment openers from a symbol starting with /.
func (l *Lexer) slash(r rune) lexState {
	if r == '*' {
		return l.blockComment
	}
	if r == '/' {
		return l.lineComment
	}
	l.buf.Reset()
	l.buf.WriteRune('/')
	if r == eof {
		l.emit(Token{Kind: TokenSymbol, Val: l.buf.String()})
		l.emit(Token{Kind: TokenEOS})
		return nil
	}
	return l.symbol(r)
}

func (l *Lexer) blockComment(r rune) lexState {
	switch r {
	case eof:
		l.emit(Token{Kind: TokenInvalid, Val: "unterminated block comment"})
		return nil
	case '*':
		return l.blockCommentStar
	default:
		return l.blockComment
	}
}

func (l *Lexer) blockCommentStar(r rune) lexState {
	switch r {
	case eof:
		l.emit(Token{Kind: TokenInvalid, Val: "unterminated block comment"})
		return nil
	case '/':
		return l.program
	case '*':
		return l.blockCommentStar
	default:
		return l.blockComment
	}
}

// minus distinguishes negative integers from symbols like - and ->.
func (l *Lexer) minus(r rune) lexState {
	if unicode.IsDigit(r) {
		l.buf.WriteRune(r)
		return l.integer
	}
	if r == eof {
		l.emit(Token{Kind: TokenSymbol, Val: l.buf.String()})
		l.emit(Token{Kind: TokenEOS})
		return nil
	}
	return l.symbol(r)
}

func (l *Lexer) integer(r rune) lexState {
	if unicode.IsDigit(r) {
		l.buf.WriteRune(r)
		return l.integer
	}
	l.backup()
	l.emit(Token{Kind: TokenInteger, Val: l.buf.String()})
	return l.program
}

func (l *Lexer) symbol(r rune) lexState {
	if r == eof || unicode.IsSpace(r) || r == '(' || r == ')' || r == ';' || r == '"' || r == '`' {
		l.backup()
		l.emit(Token{Kind: TokenSymbol, Val: l.buf.String()})
		if r == eof {
			l.emit(Token{Kind: TokenEOS})
			return nil
		}
		return l.program
	}
	l.buf.WriteRune(r)
	return l.symbol
}

func (l *Lexer) str(r rune) lexState {
	switch r {
	case eof:
		l.emit(Token{Kind: TokenInvalid, Val: "unterminated string"})
		return nil
	case '\\':
		return l.strEscape
	case '"':
		l.emit(Token{Kind: TokenString, Val: l.buf.String()})
		return l.program
	default:
		l.buf.WriteRune(r)
		return l.str
	}
}

func (l *Lexer) strEscape(r rune) lexState {
	switch r {
	case eof:
		l.emit(Token{Kind: TokenInvalid, Val: "unterminated string"})
		return nil
	case 'n':
		l.buf.WriteRune('\n')
	case 't':
		l.buf.WriteRune('\t')
	case '\\', '"':
		l.buf.WriteRune(r)
	default:
		l.buf.WriteRune('\\')
		l.buf.WriteRune(r)
	}
	return l.str
}

func (l *Lexer) uri(r rune) lexState {
	switch r {
	case eof:
		l.emit(Token{Kind: TokenInvalid, Val: "unterminated uri"})
		return nil
	case '`':
		l.emit(Token{Kind: TokenURI, Val: l.buf.String()})
		return l.program
	default:
		l.buf.WriteRune(r)
		return l.uri
	}
}

// Parser builds terms from a token stream. A top-level expression marked
// with ! is wrapped as (! expr) so later stages can tell evaluations from
// definitions.
type Parser struct {
	lexer  *Lexer
	peeked *Token
}

func NewParser(input *bufio.Reader) *Parser {
	return &Parser{lexer: NewLexer(input)}
}

// Parse reads a whole program into its top-level terms.
func Parse(text string) ([]engine.Term, error) {
	p := NewParser(bufio.NewReader(strings.NewReader(text)))
	var terms []engine.Term
	for {
		t, err := p.Term()
		if err != nil {
			return nil, err
		}
		if t == nil {
			return terms, nil
		}
		terms = append(terms, t)
	}
}

func (p *Parser) peek() Token {
	if p.peeked == nil {
		t := p.lexer.Next()
		p.peeked = &t
	}
	return *p.peeked
}

func (p *Parser) advance() Token {
	t := p.peek()
	p.peeked = nil
	return t
}

// Term parses one top-level term; nil with no error means end of input.
func (p *Parser) Term() (engine.Term, error) {
	if p.peek().Kind == TokenEOS {
		return nil, nil
	}
	return p.expr()
}

func (p *Parser) expr() (engine.Term, error) {
	t := p.advance()
	switch t.Kind {
	case TokenEOS:
		return nil, fmt.Errorf("unexpected end of input")
	case TokenInvalid:
		return nil, fmt.Errorf("lex error: %s", t.Val)
	case TokenBang:
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		return engine.List{engine.Atom("!"), inner}, nil
	case TokenInteger:
		n, err := strconv.ParseInt(t.Val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("integer %s out of range", t.Val)
		}
		return engine.Int(n), nil
	case TokenString:
		return engine.Str(t.Val), nil
	case TokenURI:
		return engine.URI(t.Val), nil
	case TokenSymbol:
		switch t.Val {
		case "true":
			return engine.Bool(true), nil
		case "false":
			return engine.Bool(false), nil
		}
		return engine.Atom(t.Val), nil
	case TokenLParen:
		return p.list()
	case TokenRParen:
		return nil, fmt.Errorf("unexpected )")
	default:
		return nil, fmt.Errorf("unexpected token %s", t)
	}
}

func (p *Parser) list() (engine.Term, error) {
	var elems []engine.Term
	for {
		switch p.peek().Kind {
		case TokenRParen:
			p.advance()
			return finishList(elems), nil
		case TokenEOS:
			return nil, fmt.Errorf("unterminated list")
		case TokenInvalid:
			return nil, fmt.Errorf("lex error: %s", p.peek().Val)
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
}

// finishList turns the parsed elements into the term kind their shape
// denotes: () is Nil and (, goal...) is a conjunction.
func finishList(elems []engine.Term) engine.Term {
	if len(elems) == 0 {
		return engine.Nil{}
	}
	if head, ok := elems[0].(engine.Atom); ok && string(head) == "," {
		return engine.Conjunction(elems[1:])
	}
	return engine.List(elems)
}
