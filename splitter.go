package scpi

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultMaxCommandLength caps the combined length of a number+unit token
// glued during parameter parsing, guarding against pathological input.
const DefaultMaxCommandLength = 1024

// MaxChannelExpansion caps how many channel numbers a single (@...) list may
// expand to, guarding against e.g. "(@1:999999999)".
const MaxChannelExpansion = 100000

// PathNode is one level of a command header: a base name plus an optional
// numeric suffix, e.g. "MEAS2" -> name="MEAS", suffix=2.
type PathNode struct {
	Name      string
	Suffix    int32
	HasSuffix bool
}

func (n PathNode) String() string {
	if n.HasSuffix {
		return n.Name + strconv.Itoa(int(n.Suffix))
	}
	return n.Name
}

// ParsedCommand is one command line split and header-parsed, but not yet
// matched against a command tree.
type ParsedCommand struct {
	IsAbsolute bool
	IsQuery    bool
	IsCommon   bool

	Path   []PathNode
	Params ParameterList

	StartPos int
	EndPos   int
}

// PathString renders the command's header the way it would appear on the
// wire, e.g. ":MEASure:VOLTage?" or "*IDN?".
func (c ParsedCommand) PathString() string {
	var b strings.Builder
	if c.IsCommon {
		b.WriteByte('*')
		if len(c.Path) > 0 {
			b.WriteString(c.Path[0].String())
		}
	} else {
		if c.IsAbsolute {
			b.WriteByte(':')
		}
		for i, n := range c.Path {
			if i > 0 {
				b.WriteByte(':')
			}
			b.WriteString(n.String())
		}
	}
	if c.IsQuery {
		b.WriteByte('?')
	}
	return b.String()
}

// CommandSplitter turns a raw SCPI command line into one or more
// ParsedCommand values, separated by ';' or newline.
type CommandSplitter struct {
	hasError      bool
	errorCode     int
	errorMessage  string
	errorPosition int

	maxCommandLength    int
	maxChannelExpansion int
	maxIdentifierLength int
	blockTerminator     BlockTerminatorFunc
}

// NewCommandSplitter creates a splitter with default limits.
func NewCommandSplitter() *CommandSplitter {
	return &CommandSplitter{
		maxCommandLength:    DefaultMaxCommandLength,
		maxChannelExpansion: MaxChannelExpansion,
		maxIdentifierLength: MaxIdentifierLength,
	}
}

// SetMaxCommandLength overrides the glued number+unit length cap.
func (s *CommandSplitter) SetMaxCommandLength(n int) { s.maxCommandLength = n }

// SetMaxChannelExpansion overrides how many channel numbers a single
// (@...) list may expand to.
func (s *CommandSplitter) SetMaxChannelExpansion(n int) { s.maxChannelExpansion = n }

// SetMaxIdentifierLength overrides the lexer's per-identifier length cap
// for every Lexer this splitter constructs in Split.
func (s *CommandSplitter) SetMaxIdentifierLength(n int) { s.maxIdentifierLength = n }

// SetBlockTerminator overrides the indefinite-block terminator predicate
// used by every Lexer this splitter constructs in Split.
func (s *CommandSplitter) SetBlockTerminator(fn BlockTerminatorFunc) { s.blockTerminator = fn }

func (s *CommandSplitter) setError(code int, msg string, pos int) bool {
	s.hasError = true
	s.errorCode = code
	s.errorMessage = msg
	s.errorPosition = pos
	return false
}

func (s *CommandSplitter) HasError() bool      { return s.hasError }
func (s *CommandSplitter) ErrorCode() int      { return s.errorCode }
func (s *CommandSplitter) ErrorMessage() string { return s.errorMessage }
func (s *CommandSplitter) ErrorPosition() int  { return s.errorPosition }

// Split lexes input and returns every command line found in it. It stops and
// returns false at the first syntax error, leaving error details accessible
// via ErrorCode/ErrorMessage/ErrorPosition.
func (s *CommandSplitter) Split(input string) ([]ParsedCommand, bool) {
	s.hasError = false
	s.errorCode = ErrNoError
	s.errorMessage = ""
	s.errorPosition = 0

	lexer := NewLexerString(input)
	lexer.SetMaxIdentifierLength(s.maxIdentifierLength)
	if s.blockTerminator != nil {
		lexer.SetBlockTerminator(s.blockTerminator)
	}
	var commands []ParsedCommand

	for {
		t := lexer.Peek()
		for t.Is(TokenNewline) || t.Is(TokenWhitespace) {
			lexer.Next()
			t = lexer.Peek()
		}

		if t.Is(TokenEnd) {
			break
		}

		cmd, ok := s.parseOneCommand(lexer)
		if !ok {
			return nil, false
		}
		commands = append(commands, cmd)

		t = lexer.Peek()
		switch {
		case t.Is(TokenSemicolon), t.Is(TokenNewline):
			lexer.Next()
		case t.Is(TokenEnd):
			return commands, true
		default:
			s.setError(ErrSyntaxError, "expected ';' or newline or end of input", t.Pos)
			return nil, false
		}
	}

	return commands, true
}

func (s *CommandSplitter) parseOneCommand(lexer *Lexer) (ParsedCommand, bool) {
	var cmd ParsedCommand
	cmd.StartPos = lexer.Peek().Pos

	if !s.parseHeader(lexer, &cmd) {
		return cmd, false
	}

	t := lexer.Peek()
	if !t.Is(TokenSemicolon) && !t.Is(TokenNewline) && !t.Is(TokenEnd) {
		if !s.parseParameters(lexer, &cmd) {
			return cmd, false
		}
	}

	cmd.EndPos = lexer.Peek().Pos
	return cmd, true
}

func (s *CommandSplitter) parseHeader(lexer *Lexer, cmd *ParsedCommand) bool {
	t := lexer.Peek()

	if t.Is(TokenAsterisk) {
		cmd.IsCommon = true
		lexer.Next()

		nameTok := lexer.Next()
		if !nameTok.Is(TokenIdentifier) {
			return s.setError(ErrSyntaxError, "expected common command mnemonic after '*'", nameTok.Pos)
		}

		cmd.Path = append(cmd.Path, PathNode{Name: nameTok.Value})

		t = lexer.Peek()
		if t.Is(TokenQuestion) {
			cmd.IsQuery = true
			lexer.Next()
		}
		return true
	}

	if t.Is(TokenColon) {
		cmd.IsAbsolute = true
		lexer.Next()
	}

	gotAny := false
	for {
		id := lexer.Next()
		if !id.Is(TokenIdentifier) {
			if !gotAny {
				return s.setError(ErrSyntaxError, "expected command identifier", id.Pos)
			}
			return s.setError(ErrSyntaxError, "unexpected token in command header", id.Pos)
		}
		gotAny = true

		var pn PathNode
		if id.HasNumericSuffix {
			pn = PathNode{Name: id.BaseName, Suffix: id.NumericSuffix, HasSuffix: true}
		} else {
			pn = PathNode{Name: id.Value}
		}
		cmd.Path = append(cmd.Path, pn)

		t = lexer.Peek()
		if t.Is(TokenQuestion) {
			cmd.IsQuery = true
			lexer.Next()
			break
		}

		if t.Is(TokenColon) {
			lexer.Next()
			continue
		}

		break
	}

	return true
}

func (s *CommandSplitter) skipParamSeparators(lexer *Lexer) {
	for {
		t := lexer.Peek()
		if t.Is(TokenWhitespace) || t.Is(TokenComma) {
			lexer.Next()
			continue
		}
		break
	}
}

func areAdjacent(a, b Token) bool { return a.Pos+a.Length == b.Pos }

func (s *CommandSplitter) parseParameters(lexer *Lexer, cmd *ParsedCommand) bool {
	for {
		t := lexer.Peek()
		if t.Is(TokenSemicolon) || t.Is(TokenNewline) || t.Is(TokenEnd) {
			break
		}

		s.skipParamSeparators(lexer)

		t = lexer.Peek()
		if t.Is(TokenSemicolon) || t.Is(TokenNewline) || t.Is(TokenEnd) {
			break
		}

		if !s.parseOneParameter(lexer, cmd) {
			return false
		}
	}
	return true
}

func (s *CommandSplitter) parseOneParameter(lexer *Lexer, cmd *ParsedCommand) bool {
	t := lexer.Peek()

	switch {
	case t.Is(TokenLParen):
		p, ok := s.parseChannelList(lexer)
		if !ok {
			return false
		}
		cmd.Params.Add(p)
		return true

	case t.Is(TokenBlockData):
		bd := lexer.Next()
		cmd.Params.Add(ParameterFromBlockData(bd.BlockData))
		return true

	case t.Is(TokenString):
		str := lexer.Next()
		cmd.Params.Add(ParameterFromString(str.Value))
		return true

	case t.Is(TokenNumber):
		numTok := lexer.Next()
		nextTok := lexer.Peek()

		if nextTok.Is(TokenIdentifier) && areAdjacent(numTok, nextTok) {
			if len(numTok.Value)+len(nextTok.Value) > s.maxCommandLength {
				return s.setError(ErrDataTypeError, "parameter too long", numTok.Pos)
			}
			combined := numTok.Value + nextTok.Value
			if uv, ok := ParseUnitValue(combined); ok && uv.HasUnit {
				lexer.Next()
				cmd.Params.Add(ParameterFromUnitValue(uv))
				return true
			}
		}

		cmd.Params.Add(ParameterFromToken(numTok))
		return true

	case t.Is(TokenIdentifier):
		id1 := lexer.Next()
		id2 := lexer.Peek()

		if (id1.Value == "+" || id1.Value == "-") && id2.Is(TokenIdentifier) && areAdjacent(id1, id2) {
			combined := id1.Value + id2.Value
			lexer.Next()
			cmd.Params.Add(ParameterFromIdentifier(combined))
			return true
		}

		cmd.Params.Add(ParameterFromIdentifier(id1.Value))
		return true

	default:
		return s.setError(ErrSyntaxError, fmt.Sprintf("unexpected token in parameters: %s", t.Type), t.Pos)
	}
}

func (s *CommandSplitter) parseChannelList(lexer *Lexer) (Parameter, bool) {
	lp := lexer.Next()
	if !lp.Is(TokenLParen) {
		s.setError(ErrSyntaxError, "expected '(' to start channel list", lp.Pos)
		return Parameter{}, false
	}

	s.skipParamSeparators(lexer)

	at := lexer.Next()
	if !at.Is(TokenAt) {
		s.setError(ErrSyntaxError, "expected '@' after '(' in channel list", at.Pos)
		return Parameter{}, false
	}

	var channels []int

	for {
		s.skipParamSeparators(lexer)

		t := lexer.Peek()
		if t.Is(TokenRParen) {
			lexer.Next()
			break
		}

		n1 := lexer.Next()
		if !n1.Is(TokenNumber) || !n1.IsInteger {
			s.setError(ErrDataTypeError, "expected integer in channel list", n1.Pos)
			return Parameter{}, false
		}
		start := int(n1.NumberValue)

		maybeColon := lexer.Peek()
		if maybeColon.Is(TokenColon) {
			lexer.Next()
			n2 := lexer.Next()
			if !n2.Is(TokenNumber) || !n2.IsInteger {
				s.setError(ErrDataTypeError, "expected integer range end in channel list", n2.Pos)
				return Parameter{}, false
			}
			end := int(n2.NumberValue)

			if end < start {
				s.setError(ErrIllegalParameterValue, "invalid channel range: end < start", n2.Pos)
				return Parameter{}, false
			}

			diff := int64(end) - int64(start)
			if diff >= int64(s.maxChannelExpansion) {
				s.setError(ErrTooMuchData, "channel range too large", n1.Pos)
				return Parameter{}, false
			}

			need := int(diff) + 1
			if len(channels)+need > s.maxChannelExpansion {
				s.setError(ErrTooMuchData, "channel range expansion too large", n1.Pos)
				return Parameter{}, false
			}

			for v := start; v <= end; v++ {
				channels = append(channels, v)
			}
		} else {
			if len(channels)+1 > s.maxChannelExpansion {
				s.setError(ErrTooMuchData, "too many channels", n1.Pos)
				return Parameter{}, false
			}
			channels = append(channels, start)
		}

		sep := lexer.Peek()
		switch {
		case sep.Is(TokenComma):
			lexer.Next()
			continue
		case sep.Is(TokenRParen):
			continue
		case sep.Is(TokenWhitespace):
			continue
		}
	}

	return ParameterFromChannelList(channels), true
}
