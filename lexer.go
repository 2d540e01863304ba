package scpi

import (
	"math"
	"strconv"
	"strings"
)

// MaxIdentifierLength bounds a single identifier token to 255 bytes, per
// spec.md §4.A/§6 (this supersedes original_source's unused 12-byte
// types.h constant — see DESIGN.md's Open Question ledger).
const MaxIdentifierLength = 255

// DefaultMaxBlockSize is the default hard cap on a single definite block's
// declared length, per spec.md §6 (100 MiB).
const DefaultMaxBlockSize = 100 * 1024 * 1024

// LexErrorKind classifies why a Lexer produced a TokenError.
type LexErrorKind int

const (
	LexErrNone LexErrorKind = iota
	LexErrInvalidCharacter
	LexErrSyntaxError
	LexErrOutOfMemory
	LexErrBlockTooLarge
)

// BlockTerminatorFunc decides whether a byte ends an indefinite block.
type BlockTerminatorFunc func(b byte) bool

func defaultBlockTerminator(b byte) bool {
	return b == '\n' || b == '\r'
}

// Lexer turns an immutable byte buffer into a pull-based stream of Tokens
// via Next/Peek. A Lexer is single-use for a given input; Reset rewinds it.
type Lexer struct {
	input  []byte
	pos    int
	line   int
	column int

	hasPeeked bool
	peeked    Token

	errKind LexErrorKind
	errMsg  string

	blockTerminator     BlockTerminatorFunc
	maxBlockSize        int
	maxIdentifierLength int
}

// NewLexer creates a Lexer over input. The input is not copied; callers
// must not mutate it while the Lexer is in use.
func NewLexer(input []byte) *Lexer {
	return &Lexer{
		input:               input,
		line:                1,
		column:              1,
		blockTerminator:     defaultBlockTerminator,
		maxBlockSize:        DefaultMaxBlockSize,
		maxIdentifierLength: MaxIdentifierLength,
	}
}

// NewLexerString is a convenience constructor over a string.
func NewLexerString(input string) *Lexer {
	return NewLexer([]byte(input))
}

// SetBlockTerminator overrides the byte predicate used to end an
// indefinite block (#0...). The default accepts LF or CR, resolving
// spec.md §9's open question about CR in favor of the original
// implementation's actual behavior — see DESIGN.md.
func (l *Lexer) SetBlockTerminator(fn BlockTerminatorFunc) {
	if fn == nil {
		fn = defaultBlockTerminator
	}
	l.blockTerminator = fn
}

// SetMaxBlockSize overrides the hard cap on a definite block's declared
// length.
func (l *Lexer) SetMaxBlockSize(n int) {
	if n < 0 {
		n = 0
	}
	l.maxBlockSize = n
}

// SetMaxIdentifierLength overrides the per-identifier length cap enforced
// by readIdentifier.
func (l *Lexer) SetMaxIdentifierLength(n int) {
	if n < 0 {
		n = 0
	}
	l.maxIdentifierLength = n
}

// Reset rewinds the Lexer to the start of its input and clears any error.
func (l *Lexer) Reset() {
	l.pos = 0
	l.line = 1
	l.column = 1
	l.hasPeeked = false
	l.errKind = LexErrNone
	l.errMsg = ""
}

// HasError reports whether the lexer has produced an error token.
func (l *Lexer) HasError() bool { return l.errKind != LexErrNone }

// ErrorKind returns the classification of the last lexer error.
func (l *Lexer) ErrorKind() LexErrorKind { return l.errKind }

// ErrorMessage returns the human-readable text of the last lexer error.
func (l *Lexer) ErrorMessage() string { return l.errMsg }

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.input) }

func (l *Lexer) peekByte(offset int) byte {
	idx := l.pos + offset
	if idx < 0 || idx >= len(l.input) {
		return 0
	}
	return l.input[idx]
}

func (l *Lexer) advance() byte {
	if l.isAtEnd() {
		return 0
	}
	c := l.input[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

// skipInlineWhitespace consumes space, tab, and a lone carriage return —
// spec.md §4.A: "Carriage return alone is treated as inline whitespace."
func (l *Lexer) skipInlineWhitespace() {
	for !l.isAtEnd() {
		c := l.peekByte(0)
		if c == ' ' || c == '\t' || c == '\r' {
			l.advance()
		} else {
			break
		}
	}
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool {
	return isAlpha(c) || isDigitByte(c)
}

func (l *Lexer) errorToken(kind LexErrorKind, message string) Token {
	l.errKind = kind
	l.errMsg = message
	return Token{Type: TokenError, ErrorMessage: message, Pos: l.pos, Line: l.line, Column: l.column}
}

// Next returns the next token, advancing the lexer. At end of input it
// returns a TokenEnd token repeatedly.
func (l *Lexer) Next() Token {
	if l.hasPeeked {
		l.hasPeeked = false
		return l.peeked
	}
	return l.lex()
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() Token {
	if !l.hasPeeked {
		l.peeked = l.lex()
		l.hasPeeked = true
	}
	return l.peeked
}

func (l *Lexer) lex() Token {
	l.skipInlineWhitespace()

	if l.isAtEnd() {
		return Token{Type: TokenEnd, Pos: l.pos, Line: l.line, Column: l.column}
	}

	startPos, startLine, startCol := l.pos, l.line, l.column
	c := l.peekByte(0)

	simple := func(tt TokenType, ch byte) Token {
		l.advance()
		return Token{Type: tt, Value: string(ch), Pos: startPos, Line: startLine, Column: startCol, Length: 1}
	}

	switch c {
	case ':':
		return simple(TokenColon, c)
	case ';':
		return simple(TokenSemicolon, c)
	case ',':
		return simple(TokenComma, c)
	case '?':
		return simple(TokenQuestion, c)
	case '*':
		return simple(TokenAsterisk, c)
	case '(':
		return simple(TokenLParen, c)
	case ')':
		return simple(TokenRParen, c)
	case '@':
		return simple(TokenAt, c)
	case '\n':
		return simple(TokenNewline, c)
	case '#':
		return l.readHashPrefixed()
	case '"', '\'':
		return l.readString(c)
	}

	if isDigitByte(c) || c == '+' || c == '-' || c == '.' {
		if c == '+' || c == '-' {
			next := l.peekByte(1)
			if isDigitByte(next) || next == '.' {
				return l.readNumber()
			}
			l.advance()
			return Token{Type: TokenIdentifier, Value: string(c), BaseName: string(c),
				Pos: startPos, Line: startLine, Column: startCol, Length: 1}
		}
		if c == '.' {
			next := l.peekByte(1)
			if isDigitByte(next) {
				return l.readNumber()
			}
			l.advance()
			return l.errorToken(LexErrSyntaxError, "unexpected character '.'")
		}
		return l.readNumber()
	}

	if isAlpha(c) || c == '_' {
		return l.readIdentifier()
	}

	l.advance()
	return l.errorToken(LexErrInvalidCharacter, "unexpected character '"+string(c)+"'")
}

func (l *Lexer) readIdentifier() Token {
	startPos, startLine, startCol := l.pos, l.line, l.column
	var sb strings.Builder

	for !l.isAtEnd() {
		c := l.peekByte(0)
		if isAlnum(c) || c == '_' {
			sb.WriteByte(l.advance())
			if sb.Len() > l.maxIdentifierLength {
				return l.errorToken(LexErrSyntaxError, "identifier too long (> "+strconv.Itoa(l.maxIdentifierLength)+")")
			}
		} else {
			break
		}
	}

	value := sb.String()
	baseName, suffix, hasSuffix := splitNumericSuffix(value)

	return Token{
		Type:             TokenIdentifier,
		Value:            value,
		Pos:              startPos,
		Line:             startLine,
		Column:           startCol,
		Length:           len(value),
		BaseName:         baseName,
		NumericSuffix:    suffix,
		HasNumericSuffix: hasSuffix,
	}
}

// splitNumericSuffix splits the trailing run of decimal digits off name,
// provided at least one non-digit byte precedes it. Overflow of an int32
// is reported as "no suffix", with the full original string kept as the
// base name — matching original_source's splitNumericSuffix in both
// lexer.cpp and command_node.cpp.
func splitNumericSuffix(name string) (baseName string, suffix int32, hasSuffix bool) {
	i := len(name)
	for i > 0 && isDigitByte(name[i-1]) {
		i--
	}

	if i < len(name) && i > 0 {
		digits := name[i:]
		val, err := strconv.ParseInt(digits, 10, 64)
		if err != nil || val > math.MaxInt32 || val < math.MinInt32 {
			return name, 0, false
		}
		return name[:i], int32(val), true
	}

	return name, 0, false
}

func (l *Lexer) readNumber() Token {
	startPos, startLine, startCol := l.pos, l.line, l.column
	var sb strings.Builder

	isNegative := false
	if c := l.peekByte(0); c == '+' || c == '-' {
		isNegative = c == '-'
		sb.WriteByte(l.advance())
	}

	for !l.isAtEnd() && isDigitByte(l.peekByte(0)) {
		sb.WriteByte(l.advance())
	}

	isInteger := true

	if l.peekByte(0) == '.' {
		isInteger = false
		sb.WriteByte(l.advance())
		for !l.isAtEnd() && isDigitByte(l.peekByte(0)) {
			sb.WriteByte(l.advance())
		}
	}

	if c := l.peekByte(0); c == 'e' || c == 'E' {
		isInteger = false
		sb.WriteByte(l.advance())
		if c := l.peekByte(0); c == '+' || c == '-' {
			sb.WriteByte(l.advance())
		}
		if !isDigitByte(l.peekByte(0)) {
			return l.errorToken(LexErrSyntaxError, "malformed exponent")
		}
		for !l.isAtEnd() && isDigitByte(l.peekByte(0)) {
			sb.WriteByte(l.advance())
		}
	}

	text := sb.String()
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return l.errorToken(LexErrSyntaxError, "malformed number literal")
	}

	return Token{
		Type:        TokenNumber,
		Value:       text,
		Pos:         startPos,
		Line:        startLine,
		Column:      startCol,
		Length:      len(text),
		NumberValue: value,
		IsInteger:   isInteger,
		IsNegative:  isNegative,
	}
}

func (l *Lexer) readString(quote byte) Token {
	startPos, startLine, startCol := l.pos, l.line, l.column
	l.advance() // opening quote

	var sb strings.Builder
	for {
		if l.isAtEnd() {
			return l.errorToken(LexErrSyntaxError, "unterminated string")
		}
		c := l.peekByte(0)
		if c == '\n' {
			return l.errorToken(LexErrSyntaxError, "unterminated string (embedded newline)")
		}
		if c == quote {
			l.advance()
			if l.peekByte(0) == quote {
				sb.WriteByte(l.advance())
				continue
			}
			break
		}
		sb.WriteByte(l.advance())
	}

	text := sb.String()
	return Token{Type: TokenString, Value: text, Pos: startPos, Line: startLine, Column: startCol, Length: l.pos - startPos}
}

// readHashPrefixed dispatches '#' into a radix literal (#B/#H/#Q -> a
// TokenNumber), a definite block (#<n><n-digit length><bytes>), or an
// indefinite block (#0<bytes><terminator>).
func (l *Lexer) readHashPrefixed() Token {
	startPos, startLine, startCol := l.pos, l.line, l.column
	l.advance() // '#'

	if l.isAtEnd() {
		return l.errorToken(LexErrSyntaxError, "truncated # form")
	}

	switch c := l.peekByte(0); {
	case c == 'B' || c == 'b':
		l.advance()
		return l.readRadixNumber(startPos, startLine, startCol, 2, func(c byte) bool { return c == '0' || c == '1' })
	case c == 'H' || c == 'h':
		l.advance()
		return l.readRadixNumber(startPos, startLine, startCol, 16, func(c byte) bool {
			return isDigitByte(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		})
	case c == 'Q' || c == 'q':
		l.advance()
		return l.readRadixNumber(startPos, startLine, startCol, 8, func(c byte) bool { return c >= '0' && c <= '7' })
	case c == '0':
		l.advance()
		return l.readIndefiniteBlock(startPos, startLine, startCol)
	case isDigitByte(c):
		return l.readDefiniteBlock(startPos, startLine, startCol)
	default:
		return l.errorToken(LexErrSyntaxError, "invalid # form")
	}
}

func (l *Lexer) readRadixNumber(startPos, startLine, startCol, base int, isDigit func(byte) bool) Token {
	var sb strings.Builder
	for !l.isAtEnd() && isDigit(l.peekByte(0)) {
		sb.WriteByte(l.advance())
	}
	if sb.Len() == 0 {
		return l.errorToken(LexErrSyntaxError, "empty radix literal")
	}
	val, err := strconv.ParseInt(sb.String(), base, 64)
	if err != nil {
		return l.errorToken(LexErrSyntaxError, "malformed radix literal")
	}
	return Token{
		Type:        TokenNumber,
		Value:       sb.String(),
		Pos:         startPos,
		Line:        startLine,
		Column:      startCol,
		Length:      l.pos - startPos,
		NumberValue: float64(val),
		IsInteger:   true,
	}
}

func (l *Lexer) readDefiniteBlock(startPos, startLine, startCol int) Token {
	nDigitsChar := l.advance()
	nDigits := int(nDigitsChar - '0')
	if nDigits < 1 || nDigits > 9 {
		return l.errorToken(LexErrSyntaxError, "invalid block length-digit count")
	}

	var lenBuf strings.Builder
	for i := 0; i < nDigits; i++ {
		if l.isAtEnd() || !isDigitByte(l.peekByte(0)) {
			return l.errorToken(LexErrSyntaxError, "truncated block length")
		}
		lenBuf.WriteByte(l.advance())
	}

	length, err := strconv.Atoi(lenBuf.String())
	if err != nil || length < 0 {
		return l.errorToken(LexErrSyntaxError, "malformed block length")
	}
	if length > l.maxBlockSize {
		return l.errorToken(LexErrBlockTooLarge, "block data exceeds maximum size")
	}
	if l.pos+length < l.pos {
		return l.errorToken(LexErrOutOfMemory, "block length overflow")
	}
	if l.pos+length > len(l.input) {
		return l.errorToken(LexErrSyntaxError, "truncated block data")
	}

	data := make([]byte, length)
	for i := 0; i < length; i++ {
		data[i] = l.advance()
	}

	return Token{
		Type:      TokenBlockData,
		Pos:       startPos,
		Line:      startLine,
		Column:    startCol,
		Length:    l.pos - startPos,
		BlockData: data,
	}
}

func (l *Lexer) readIndefiniteBlock(startPos, startLine, startCol int) Token {
	var data []byte
	for !l.isAtEnd() && !l.blockTerminator(l.peekByte(0)) {
		data = append(data, l.advance())
	}
	if !l.isAtEnd() {
		l.advance() // consume the terminator
	}

	return Token{
		Type:            TokenBlockData,
		Pos:             startPos,
		Line:            startLine,
		Column:          startCol,
		Length:          l.pos - startPos,
		BlockData:       data,
		BlockIndefinite: true,
	}
}
