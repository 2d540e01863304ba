package scpi

import "fmt"

// TokenType identifies the lexical category of a Token. The zero value is
// TokenColon.
type TokenType int

const (
	TokenColon TokenType = iota
	TokenSemicolon
	TokenComma
	TokenWhitespace
	TokenNewline
	TokenQuestion
	TokenAsterisk
	TokenHash
	TokenLParen
	TokenRParen
	TokenAt
	TokenIdentifier
	TokenNumber
	TokenString
	TokenBlockData
	TokenEnd
	TokenError
)

func (t TokenType) String() string {
	switch t {
	case TokenColon:
		return "COLON"
	case TokenSemicolon:
		return "SEMICOLON"
	case TokenComma:
		return "COMMA"
	case TokenWhitespace:
		return "WHITESPACE"
	case TokenNewline:
		return "NEWLINE"
	case TokenQuestion:
		return "QUESTION"
	case TokenAsterisk:
		return "ASTERISK"
	case TokenHash:
		return "HASH"
	case TokenLParen:
		return "LPAREN"
	case TokenRParen:
		return "RPAREN"
	case TokenAt:
		return "AT"
	case TokenIdentifier:
		return "IDENTIFIER"
	case TokenNumber:
		return "NUMBER"
	case TokenString:
		return "STRING"
	case TokenBlockData:
		return "BLOCK_DATA"
	case TokenEnd:
		return "END_OF_INPUT"
	case TokenError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Token is the lexer's sum type: the Type field selects which payload
// fields are meaningful, mirroring the tagged-union design called out in
// spec.md's design notes.
type Token struct {
	Type  TokenType
	Value string

	// Position tracking, kept independently of Value for diagnostics.
	Pos    int // byte offset of the first byte of this token
	Line   int
	Column int
	Length int

	// Populated for TokenNumber.
	NumberValue float64
	IsInteger   bool
	IsNegative  bool

	// Populated for TokenIdentifier: the name with any trailing decimal
	// digit run split off into NumericSuffix.
	BaseName        string
	NumericSuffix   int32
	HasNumericSuffix bool

	// Populated for TokenBlockData.
	BlockData       []byte
	BlockIndefinite bool

	// Populated for TokenError.
	ErrorMessage string
}

// End returns the byte offset one past the last byte of this token
// (Pos+Length, the quantity the command splitter's strict adjacency check
// compares).
func (t Token) End() int {
	return t.Pos + t.Length
}

func (t Token) Is(tt TokenType) bool {
	return t.Type == tt
}

func (t Token) String() string {
	if t.Type == TokenError {
		return fmt.Sprintf("ERROR(%s)@%d", t.ErrorMessage, t.Pos)
	}
	return fmt.Sprintf("%s(%q)@%d", t.Type, t.Value, t.Pos)
}
