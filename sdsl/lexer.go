package sdsl

import (
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes fragment source code.
type Lexer struct {
	source string
	pos    int
	line   int
	column int
	start  int
	tokens []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	estTokens := len(source) / 6
	if estTokens < 16 {
		estTokens = 16
	}
	return &Lexer{
		source: source,
		line:   1,
		column: 1,
		tokens: make([]Token, 0, estTokens),
	}
}

// Tokenize returns all tokens from the source. Unknown characters produce
// TokenError tokens that the parser reports.
func (l *Lexer) Tokenize() []Token {
	for !l.isAtEnd() {
		l.start = l.pos
		l.scanToken()
	}
	l.tokens = append(l.tokens, Token{
		Kind:   TokenEOF,
		Line:   l.line,
		Column: l.column,
	})
	return l.tokens
}

func (l *Lexer) scanToken() {
	r := l.advance()

	switch r {
	case '(':
		l.addToken(TokenLeftParen)
	case ')':
		l.addToken(TokenRightParen)
	case '{':
		l.addToken(TokenLeftBrace)
	case '}':
		l.addToken(TokenRightBrace)
	case '[':
		l.addToken(TokenLeftBracket)
	case ']':
		l.addToken(TokenRightBracket)
	case ',':
		l.addToken(TokenComma)
	case ':':
		l.addToken(TokenColon)
	case ';':
		l.addToken(TokenSemicolon)
	case '~':
		l.addToken(TokenTilde)
	case '?':
		l.addToken(TokenQuestion)
	case '.':
		if isDigit(l.peek()) {
			l.number()
		} else {
			l.addToken(TokenDot)
		}
	case '"':
		l.str()
	case '%':
		l.addOp('=', TokenPercentEqual, TokenPercent)
	case '^':
		l.addOp('=', TokenCaretEqual, TokenCaret)
	case '*':
		l.addOp('=', TokenStarEqual, TokenStar)
	case '=':
		l.addOp('=', TokenEqualEqual, TokenEqual)
	case '!':
		l.addOp('=', TokenBangEqual, TokenBang)
	case '+':
		if l.match('+') {
			l.addToken(TokenPlusPlus)
		} else {
			l.addOp('=', TokenPlusEqual, TokenPlus)
		}
	case '-':
		if l.match('-') {
			l.addToken(TokenMinusMinus)
		} else {
			l.addOp('=', TokenMinusEqual, TokenMinus)
		}
	case '/':
		if l.match('/') {
			for l.peek() != '\n' && !l.isAtEnd() {
				l.advance()
			}
		} else if l.match('*') {
			l.blockComment()
		} else {
			l.addOp('=', TokenSlashEqual, TokenSlash)
		}
	case '<':
		if l.match('<') {
			l.addOp('=', TokenLessLessEqual, TokenLessLess)
		} else {
			l.addOp('=', TokenLessEqual, TokenLess)
		}
	case '>':
		if l.match('>') {
			l.addOp('=', TokenGreaterGreaterEqual, TokenGreaterGreater)
		} else {
			l.addOp('=', TokenGreaterEqual, TokenGreater)
		}
	case '&':
		if l.match('&') {
			l.addToken(TokenAmpAmp)
		} else {
			l.addOp('=', TokenAmpEqual, TokenAmpersand)
		}
	case '|':
		if l.match('|') {
			l.addToken(TokenPipePipe)
		} else {
			l.addOp('=', TokenPipeEqual, TokenPipe)
		}

	case ' ', '\r', '\t':
	case '\n':
		l.line++
		l.column = 1

	default:
		if isDigit(r) {
			l.number()
		} else if isAlpha(r) || r == '_' {
			l.identifier()
		} else {
			l.addToken(TokenError)
		}
	}
}

func (l *Lexer) addOp(next rune, withNext, alone TokenKind) {
	if l.match(next) {
		l.addToken(withNext)
	} else {
		l.addToken(alone)
	}
}

func (l *Lexer) blockComment() {
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		if l.peek() == '\n' {
			l.line++
			l.column = 0
		}
		l.advance()
	}
}

func (l *Lexer) str() {
	for l.peek() != '"' && !l.isAtEnd() {
		if l.peek() == '\n' {
			l.addToken(TokenError)
			return
		}
		l.advance()
	}
	if l.isAtEnd() {
		l.addToken(TokenError)
		return
	}
	l.advance()
	l.addToken(TokenStringLiteral)
}

func (l *Lexer) number() {
	if l.source[l.start] == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.advance()
		for isHexDigit(l.peek()) {
			l.advance()
		}
		l.intSuffix()
		l.addToken(TokenIntLiteral)
		return
	}

	isFloat := l.source[l.start] == '.'
	for isDigit(l.peek()) {
		l.advance()
	}
	if !isFloat && l.peek() == '.' && !isAlpha(l.peekNext()) && l.peekNext() != '_' {
		isFloat = true
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		isFloat = true
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if l.peek() == 'f' || l.peek() == 'F' || l.peek() == 'h' || l.peek() == 'H' {
		l.advance()
		isFloat = true
	}
	if isFloat {
		l.addToken(TokenFloatLiteral)
		return
	}
	l.intSuffix()
	l.addToken(TokenIntLiteral)
}

func (l *Lexer) intSuffix() {
	for l.peek() == 'u' || l.peek() == 'U' || l.peek() == 'l' || l.peek() == 'L' {
		l.advance()
	}
}

func (l *Lexer) identifier() {
	for isAlphaNumeric(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	text := l.source[l.start:l.pos]
	if kind, ok := keywords[text]; ok {
		l.addToken(kind)
		return
	}
	l.addToken(TokenIdent)
}

func (l *Lexer) addToken(kind TokenKind) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.pos],
		Line:   l.line,
		Column: l.column - (l.pos - l.start),
	})
}

func (l *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	l.pos += size
	l.column++
	return r
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
	return r
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.pos:])
	r, _ := utf8.DecodeRuneInString(l.source[l.pos+size:])
	return r
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() {
		return false
	}
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	if r != expected {
		return false
	}
	l.pos += size
	l.column++
	return true
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isAlpha(r rune) bool {
	return unicode.IsLetter(r)
}

func isAlphaNumeric(r rune) bool {
	return isAlpha(r) || isDigit(r)
}
