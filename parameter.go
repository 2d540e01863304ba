package scpi

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParameterKind selects which payload field of a Parameter is meaningful.
type ParameterKind int

const (
	ParamNone ParameterKind = iota
	ParamInteger
	ParamDouble
	ParamBoolean
	ParamString
	ParamIdentifier
	ParamNumericKeyword
	ParamNumericWithUnit
	ParamChannelList
	ParamBlockData
)

func (k ParameterKind) String() string {
	switch k {
	case ParamInteger:
		return "INTEGER"
	case ParamDouble:
		return "DOUBLE"
	case ParamBoolean:
		return "BOOLEAN"
	case ParamString:
		return "STRING"
	case ParamIdentifier:
		return "IDENTIFIER"
	case ParamNumericKeyword:
		return "NUMERIC_KEYWORD"
	case ParamNumericWithUnit:
		return "NUMERIC_WITH_UNIT"
	case ParamChannelList:
		return "CHANNEL_LIST"
	case ParamBlockData:
		return "BLOCK_DATA"
	default:
		return "NONE"
	}
}

// Parameter is a tagged-union value for one command argument. Kind selects
// which payload field is meaningful; factory functions below never leave a
// Parameter in a mixed state.
type Parameter struct {
	kind ParameterKind

	intValue    int64
	doubleValue float64
	boolValue   bool
	stringValue string
	keyword     NumericKeyword
	unitValue   UnitValue
	channelList []int
	blockData   []byte
}

func ParameterFromInt(v int64) Parameter { return Parameter{kind: ParamInteger, intValue: v} }

func ParameterFromDouble(v float64) Parameter { return Parameter{kind: ParamDouble, doubleValue: v} }

func ParameterFromBool(v bool) Parameter { return Parameter{kind: ParamBoolean, boolValue: v} }

func ParameterFromString(v string) Parameter { return Parameter{kind: ParamString, stringValue: v} }

// ParameterFromIdentifier resolves a bare identifier token to its natural
// variant: ON/OFF/TRUE/FALSE to boolean, MIN/MAX/DEF/INF/NINF/NAN/UP/DOWN to
// a numeric keyword, falling back to a plain identifier — matching
// original_source/src/parameter.cpp's fromIdentifier.
func ParameterFromIdentifier(v string) Parameter {
	if b, ok := parseBoolLiteral(v); ok {
		return ParameterFromBool(b)
	}
	if kw := ParseNumericKeyword(v); kw != KeywordNone {
		return ParameterFromKeyword(kw)
	}
	return Parameter{kind: ParamIdentifier, stringValue: v}
}

func ParameterFromKeyword(k NumericKeyword) Parameter {
	return Parameter{kind: ParamNumericKeyword, keyword: k}
}

func ParameterFromUnitValue(uv UnitValue) Parameter {
	return Parameter{kind: ParamNumericWithUnit, unitValue: uv}
}

func ParameterFromChannelList(channels []int) Parameter {
	return Parameter{kind: ParamChannelList, channelList: channels}
}

func ParameterFromBlockData(data []byte) Parameter {
	return Parameter{kind: ParamBlockData, blockData: data}
}

// parseBoolLiteral recognises SCPI's boolean literal forms, case-insensitive.
func parseBoolLiteral(s string) (bool, bool) {
	switch strings.ToUpper(s) {
	case "ON", "TRUE", "1":
		return true, true
	case "OFF", "FALSE", "0":
		return false, true
	default:
		return false, false
	}
}

// ParameterFromToken maps a lexer Token to its natural Parameter variant.
// Identifiers are probed, in order, as a unit-value, then (through
// ParameterFromIdentifier) a boolean literal, then a numeric keyword,
// before falling back to a plain identifier.
func ParameterFromToken(t Token) Parameter {
	switch t.Type {
	case TokenNumber:
		if t.IsInteger {
			return ParameterFromInt(int64(t.NumberValue))
		}
		return ParameterFromDouble(t.NumberValue)
	case TokenString:
		return ParameterFromString(t.Value)
	case TokenBlockData:
		return ParameterFromBlockData(t.BlockData)
	case TokenIdentifier:
		if uv, ok := ParseUnitValue(t.Value); ok && uv.HasUnit {
			return ParameterFromUnitValue(uv)
		}
		return ParameterFromIdentifier(t.Value)
	default:
		return ParameterFromIdentifier(t.Value)
	}
}

func (p Parameter) Kind() ParameterKind { return p.kind }

func (p Parameter) IsNumeric() bool { return p.kind == ParamInteger || p.kind == ParamDouble }
func (p Parameter) IsInteger() bool { return p.kind == ParamInteger }
func (p Parameter) IsDouble() bool  { return p.kind == ParamDouble }
func (p Parameter) IsBoolean() bool { return p.kind == ParamBoolean }
func (p Parameter) IsString() bool  { return p.kind == ParamString }
func (p Parameter) IsIdentifier() bool { return p.kind == ParamIdentifier }
func (p Parameter) IsNumericKeyword() bool { return p.kind == ParamNumericKeyword }
func (p Parameter) HasUnit() bool      { return p.kind == ParamNumericWithUnit }
func (p Parameter) IsChannelList() bool { return p.kind == ParamChannelList }
func (p Parameter) IsBlockData() bool   { return p.kind == ParamBlockData }

func (p Parameter) NumericKeyword() NumericKeyword {
	if p.kind == ParamNumericKeyword {
		return p.keyword
	}
	return KeywordNone
}

func (p Parameter) IsMin() bool    { return p.NumericKeyword() == KeywordMinimum }
func (p Parameter) IsMax() bool    { return p.NumericKeyword() == KeywordMaximum }
func (p Parameter) IsDef() bool    { return p.NumericKeyword() == KeywordDefault }
func (p Parameter) IsInf() bool    { return IsInfinityKeyword(p.NumericKeyword()) }
func (p Parameter) IsPosInf() bool { return p.NumericKeyword() == KeywordInfinityPos }
func (p Parameter) IsNegInf() bool { return p.NumericKeyword() == KeywordInfinityNeg }
func (p Parameter) IsNan() bool    { return p.NumericKeyword() == KeywordNotANumber }
func (p Parameter) IsUp() bool     { return p.NumericKeyword() == KeywordUp }
func (p Parameter) IsDown() bool   { return p.NumericKeyword() == KeywordDown }

// ToInt64 coerces the parameter to an int64, truncating floats and parsing
// strings/identifiers lazily; def is returned when no numeric form exists.
// Numeric keywords other than ±INF (MIN, MAX, DEF, UP, DOWN, NAN) give 0.
func (p Parameter) ToInt64(def int64) int64 {
	switch p.kind {
	case ParamInteger:
		return p.intValue
	case ParamDouble:
		return int64(p.doubleValue)
	case ParamBoolean:
		if p.boolValue {
			return 1
		}
		return 0
	case ParamNumericWithUnit:
		return int64(p.unitValue.ScaledValue)
	case ParamNumericKeyword:
		switch p.keyword {
		case KeywordInfinityPos:
			return math.MaxInt64
		case KeywordInfinityNeg:
			return math.MinInt64
		case KeywordNotANumber:
			return 0
		default:
			return 0
		}
	case ParamString, ParamIdentifier:
		if v, err := strconv.ParseInt(strings.TrimSpace(p.stringValue), 10, 64); err == nil {
			return v
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(p.stringValue), 64); err == nil {
			return int64(f)
		}
	}
	return def
}

// ToInt32 behaves as ToInt64 but saturates the result to the int32 range.
func (p Parameter) ToInt32(def int32) int32 {
	v := p.ToInt64(int64(def))
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

// ToDouble coerces the parameter to a float64; def is returned for
// non-numeric, non-parseable variants. ±INF and NAN map to their float
// values; MIN, MAX, DEF, UP and DOWN give 0.
func (p Parameter) ToDouble(def float64) float64 {
	switch p.kind {
	case ParamInteger:
		return float64(p.intValue)
	case ParamDouble:
		return p.doubleValue
	case ParamBoolean:
		if p.boolValue {
			return 1
		}
		return 0
	case ParamNumericWithUnit:
		return p.unitValue.ScaledValue
	case ParamNumericKeyword:
		switch p.keyword {
		case KeywordInfinityPos:
			return math.Inf(1)
		case KeywordInfinityNeg:
			return math.Inf(-1)
		case KeywordNotANumber:
			return math.NaN()
		default:
			return 0
		}
	case ParamString, ParamIdentifier:
		if f, err := strconv.ParseFloat(strings.TrimSpace(p.stringValue), 64); err == nil {
			return f
		}
	}
	return def
}

// ToBool coerces the parameter to a boolean: the boolean variant directly,
// any non-zero numeric variant, or a case-insensitive ON/OFF/TRUE/FALSE/1/0
// string/identifier; def otherwise.
func (p Parameter) ToBool(def bool) bool {
	switch p.kind {
	case ParamBoolean:
		return p.boolValue
	case ParamInteger:
		return p.intValue != 0
	case ParamDouble:
		return p.doubleValue != 0
	case ParamString, ParamIdentifier:
		if b, ok := parseBoolLiteral(p.stringValue); ok {
			return b
		}
	}
	return def
}

// ToString renders a normal printable form of the parameter. Floats use at
// least 15 significant digits, per spec.md §4.C.
func (p Parameter) ToString() string {
	switch p.kind {
	case ParamInteger:
		return strconv.FormatInt(p.intValue, 10)
	case ParamDouble:
		return strconv.FormatFloat(p.doubleValue, 'g', 15, 64)
	case ParamBoolean:
		if p.boolValue {
			return "1"
		}
		return "0"
	case ParamString, ParamIdentifier:
		return p.stringValue
	case ParamNumericKeyword:
		return KeywordString(p.keyword)
	case ParamNumericWithUnit:
		return strconv.FormatFloat(p.unitValue.RawValue, 'g', 15, 64) + PrefixString(p.unitValue.Prefix) + UnitString(p.unitValue.Unit)
	case ParamChannelList:
		parts := make([]string, len(p.channelList))
		for i, v := range p.channelList {
			parts[i] = strconv.Itoa(v)
		}
		return "(@" + strings.Join(parts, ",") + ")"
	case ParamBlockData:
		return fmt.Sprintf("#%d%d%s", len(strconv.Itoa(len(p.blockData))), len(p.blockData), p.blockData)
	default:
		return ""
	}
}

// ToDoubleOr smart-resolves the parameter to a double: MIN/MAX/DEF map to
// minVal/maxVal/defVal, INF/-INF/NAN map to their IEEE-754 specials, and
// anything else falls through to ToDouble(defVal).
func (p Parameter) ToDoubleOr(minVal, maxVal, defVal float64) float64 {
	if p.kind == ParamNumericKeyword {
		switch p.keyword {
		case KeywordMinimum:
			return minVal
		case KeywordMaximum:
			return maxVal
		case KeywordDefault:
			return defVal
		case KeywordInfinityPos:
			return math.Inf(1)
		case KeywordInfinityNeg:
			return math.Inf(-1)
		case KeywordNotANumber:
			return math.NaN()
		}
	}
	return p.ToDouble(defVal)
}

// ResolveNumeric applies resolver to the parameter's keyword (if it has
// one) or falls back to ToDouble(def).
func (p Parameter) ResolveNumeric(resolver func(NumericKeyword) float64, def float64) float64 {
	if p.kind == ParamNumericKeyword {
		return resolver(p.keyword)
	}
	return p.ToDouble(def)
}

func (p Parameter) UnitValue() UnitValue  { return p.unitValue }
func (p Parameter) ToBaseUnit() float64   { return p.unitValue.ScaledValue }
func (p Parameter) RawValue() float64     { return p.unitValue.RawValue }
func (p Parameter) SiPrefix() SiPrefix    { return p.unitValue.Prefix }
func (p Parameter) BaseUnit() BaseUnit    { return p.unitValue.Unit }
func (p Parameter) UnitMultiplier() float64 { return p.unitValue.Multiplier }

// ToUnit converts the base (scaled) value into targetPrefix's scale.
func (p Parameter) ToUnit(targetPrefix SiPrefix) float64 {
	return p.unitValue.ScaledValue / Multiplier(targetPrefix)
}

func (p Parameter) ToChannelList() []int { return p.channelList }
func (p Parameter) ToBlockData() []byte  { return p.blockData }
func (p Parameter) BlockSize() int       { return len(p.blockData) }
func (p Parameter) BlockBytes() []byte   { return p.blockData }

func (p Parameter) BlockToHex() string {
	const hexDigits = "0123456789ABCDEF"
	out := make([]byte, len(p.blockData)*2)
	for i, b := range p.blockData {
		out[i*2] = hexDigits[b>>4]
		out[i*2+1] = hexDigits[b&0xF]
	}
	return string(out)
}

// TypeName returns the Go-side name of the parameter's kind, for debugging.
func (p Parameter) TypeName() string { return p.kind.String() }

// Dump renders a one-line debug form of the parameter.
func (p Parameter) Dump() string {
	return fmt.Sprintf("Parameter{%s: %s}", p.kind, p.ToString())
}

// ParameterList is an ordered, bounds-safe sequence of Parameters.
type ParameterList struct {
	params []Parameter
}

func (l *ParameterList) Add(p Parameter) { l.params = append(l.params, p) }

func (l *ParameterList) Size() int   { return len(l.params) }
func (l *ParameterList) Count() int  { return len(l.params) }
func (l *ParameterList) Empty() bool { return len(l.params) == 0 }

func (l *ParameterList) At(index int) (Parameter, bool) {
	if index < 0 || index >= len(l.params) {
		return Parameter{}, false
	}
	return l.params[index], true
}

func (l *ParameterList) GetInt(index int, def int32) int32 {
	if p, ok := l.At(index); ok {
		return p.ToInt32(def)
	}
	return def
}

func (l *ParameterList) GetInt64(index int, def int64) int64 {
	if p, ok := l.At(index); ok {
		return p.ToInt64(def)
	}
	return def
}

func (l *ParameterList) GetDouble(index int, def float64) float64 {
	if p, ok := l.At(index); ok {
		return p.ToDouble(def)
	}
	return def
}

func (l *ParameterList) GetBool(index int, def bool) bool {
	if p, ok := l.At(index); ok {
		return p.ToBool(def)
	}
	return def
}

func (l *ParameterList) GetString(index int, def string) string {
	if p, ok := l.At(index); ok {
		return p.ToString()
	}
	return def
}

func (l *ParameterList) GetScaledDouble(index int, def float64) float64 {
	if p, ok := l.At(index); ok {
		if p.HasUnit() {
			return p.ToBaseUnit()
		}
		return p.ToDouble(def)
	}
	return def
}

func (l *ParameterList) GetAsUnit(index int, targetPrefix SiPrefix, def float64) float64 {
	if p, ok := l.At(index); ok && p.HasUnit() {
		return p.ToUnit(targetPrefix)
	}
	return def
}

func (l *ParameterList) GetNumeric(index int, minVal, maxVal, defVal float64) float64 {
	if p, ok := l.At(index); ok {
		return p.ToDoubleOr(minVal, maxVal, defVal)
	}
	return defVal
}

func (l *ParameterList) HasUnit(index int) bool {
	p, ok := l.At(index)
	return ok && p.HasUnit()
}

func (l *ParameterList) GetUnit(index int) BaseUnit {
	if p, ok := l.At(index); ok {
		return p.BaseUnit()
	}
	return UnitNone
}

func (l *ParameterList) HasBlockData(index int) bool {
	p, ok := l.At(index)
	return ok && p.IsBlockData()
}

func (l *ParameterList) GetBlockData(index int) []byte {
	if p, ok := l.At(index); ok {
		return p.ToBlockData()
	}
	return nil
}

func (l *ParameterList) IsKeyword(index int) bool {
	p, ok := l.At(index)
	return ok && p.IsNumericKeyword()
}

func (l *ParameterList) IsMin(index int) bool {
	p, ok := l.At(index)
	return ok && p.IsMin()
}

func (l *ParameterList) IsMax(index int) bool {
	p, ok := l.At(index)
	return ok && p.IsMax()
}

func (l *ParameterList) IsDef(index int) bool {
	p, ok := l.At(index)
	return ok && p.IsDef()
}

func (l *ParameterList) Clear() { l.params = nil }

func (l *ParameterList) All() []Parameter { return l.params }
