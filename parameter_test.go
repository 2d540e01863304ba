package scpi

import (
	"math"
	"testing"
)

func TestParameterFromTokenProbeOrder(t *testing.T) {
	tests := []struct {
		name  string
		token Token
		kind  ParameterKind
	}{
		{"integer", Token{Type: TokenNumber, IsInteger: true, NumberValue: 42}, ParamInteger},
		{"double", Token{Type: TokenNumber, NumberValue: 3.5}, ParamDouble},
		{"string", Token{Type: TokenString, Value: "hi"}, ParamString},
		{"block", Token{Type: TokenBlockData, BlockData: []byte("x")}, ParamBlockData},
		{"unit value", Token{Type: TokenIdentifier, Value: "5kV"}, ParamNumericWithUnit},
		{"keyword", Token{Type: TokenIdentifier, Value: "MIN"}, ParamNumericKeyword},
		{"boolean", Token{Type: TokenIdentifier, Value: "ON"}, ParamBoolean},
		{"identifier", Token{Type: TokenIdentifier, Value: "FOOBAR"}, ParamIdentifier},
	}

	for _, tt := range tests {
		got := ParameterFromToken(tt.token)
		if got.Kind() != tt.kind {
			t.Errorf("%s: ParameterFromToken(...).Kind() = %v, want %v", tt.name, got.Kind(), tt.kind)
		}
	}
}

func TestParameterUnitAmbiguityPrefersUnitOverIdentifier(t *testing.T) {
	// "5kV" looks like it could be a bare identifier, but a numeric head
	// followed by a recognised unit suffix takes priority.
	p := ParameterFromToken(Token{Type: TokenIdentifier, Value: "5kV"})
	if !p.HasUnit() {
		t.Fatalf("HasUnit() = false, want true for %q", "5kV")
	}
	if p.BaseUnit() != UnitVolt || p.SiPrefix() != PrefixKilo {
		t.Errorf("unit=%v prefix=%v, want Volt/Kilo", p.BaseUnit(), p.SiPrefix())
	}
}

func TestParameterToInt64Coercions(t *testing.T) {
	tests := []struct {
		name string
		p    Parameter
		def  int64
		want int64
	}{
		{"int", ParameterFromInt(7), 0, 7},
		{"double truncates", ParameterFromDouble(7.9), 0, 7},
		{"bool true", ParameterFromBool(true), 0, 1},
		{"bool false", ParameterFromBool(false), 9, 0},
		{"parseable string", ParameterFromString("42"), 0, 42},
		{"unparseable string falls to default", ParameterFromString("nope"), -1, -1},
	}

	for _, tt := range tests {
		got := tt.p.ToInt64(tt.def)
		if got != tt.want {
			t.Errorf("%s: ToInt64(%d) = %d, want %d", tt.name, tt.def, got, tt.want)
		}
	}
}

func TestParameterToInt32Saturates(t *testing.T) {
	p := ParameterFromDouble(1e18)
	got := p.ToInt32(0)
	want := int32(2147483647)
	if got != want {
		t.Errorf("ToInt32() = %d, want saturated %d", got, want)
	}
}

func TestParameterToBool(t *testing.T) {
	tests := []struct {
		p    Parameter
		want bool
	}{
		{ParameterFromBool(true), true},
		{ParameterFromInt(5), true},
		{ParameterFromInt(0), false},
		{ParameterFromIdentifier("OFF"), false},
		{ParameterFromIdentifier("true"), true},
	}

	for _, tt := range tests {
		if got := tt.p.ToBool(false); got != tt.want {
			t.Errorf("%v.ToBool(false) = %v, want %v", tt.p.Dump(), got, tt.want)
		}
	}
}

func TestParameterToDoubleOrKeywords(t *testing.T) {
	tests := []struct {
		name string
		p    Parameter
		want float64
	}{
		{"min", ParameterFromKeyword(KeywordMinimum), 1},
		{"max", ParameterFromKeyword(KeywordMaximum), 2},
		{"def", ParameterFromKeyword(KeywordDefault), 3},
		{"plain double", ParameterFromDouble(9), 9},
	}

	for _, tt := range tests {
		got := tt.p.ToDoubleOr(1, 2, 3)
		if got != tt.want {
			t.Errorf("%s: ToDoubleOr(1,2,3) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParameterToDoubleNumericKeyword(t *testing.T) {
	tests := []struct {
		name string
		k    NumericKeyword
		want float64
	}{
		{"pos inf", KeywordInfinityPos, math.Inf(1)},
		{"neg inf", KeywordInfinityNeg, math.Inf(-1)},
		{"min falls to zero", KeywordMinimum, 0},
	}

	for _, tt := range tests {
		got := ParameterFromKeyword(tt.k).ToDouble(-99)
		if got != tt.want {
			t.Errorf("%s: ToDouble(-99) = %v, want %v", tt.name, got, tt.want)
		}
	}

	if got := ParameterFromKeyword(KeywordNotANumber).ToDouble(-99); !math.IsNaN(got) {
		t.Errorf("NAN: ToDouble(-99) = %v, want NaN", got)
	}
}

func TestParameterToInt64NumericKeyword(t *testing.T) {
	if got := ParameterFromKeyword(KeywordInfinityPos).ToInt64(-99); got != math.MaxInt64 {
		t.Errorf("pos inf: ToInt64(-99) = %d, want MaxInt64", got)
	}
	if got := ParameterFromKeyword(KeywordInfinityNeg).ToInt64(-99); got != math.MinInt64 {
		t.Errorf("neg inf: ToInt64(-99) = %d, want MinInt64", got)
	}
	if got := ParameterFromKeyword(KeywordMaximum).ToInt64(-99); got != 0 {
		t.Errorf("max: ToInt64(-99) = %d, want 0", got)
	}
}

func TestParameterFromIdentifierResolvesBoolAndKeyword(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind ParameterKind
	}{
		{"on", "ON", ParamBoolean},
		{"false", "FALSE", ParamBoolean},
		{"max", "MAX", ParamNumericKeyword},
		{"neg inf", "-INF", ParamNumericKeyword},
		{"plain", "FOOBAR", ParamIdentifier},
	}

	for _, tt := range tests {
		got := ParameterFromIdentifier(tt.in)
		if got.Kind() != tt.kind {
			t.Errorf("%s: ParameterFromIdentifier(%q).Kind() = %v, want %v", tt.name, tt.in, got.Kind(), tt.kind)
		}
	}
}

func TestParameterListAccessorsOutOfRangeReturnDefault(t *testing.T) {
	var l ParameterList
	if got := l.GetInt(0, 99); got != 99 {
		t.Errorf("GetInt on empty list = %d, want default 99", got)
	}
	if got := l.GetDouble(3, 1.5); got != 1.5 {
		t.Errorf("GetDouble out of range = %v, want default 1.5", got)
	}
	if l.HasUnit(0) {
		t.Errorf("HasUnit on empty list = true, want false")
	}
}

func TestParameterListGetScaledDouble(t *testing.T) {
	var l ParameterList
	uv, ok := ParseUnitValue("100mV")
	if !ok {
		t.Fatal("ParseUnitValue(100mV) failed")
	}
	l.Add(ParameterFromUnitValue(uv))
	l.Add(ParameterFromDouble(5))

	if got := l.GetScaledDouble(0, 0); got != 0.1 {
		t.Errorf("GetScaledDouble(0) = %v, want 0.1", got)
	}
	if got := l.GetScaledDouble(1, 0); got != 5 {
		t.Errorf("GetScaledDouble(1) = %v, want 5 (no unit, pass-through)", got)
	}
}

func TestParameterChannelListRoundTrip(t *testing.T) {
	p := ParameterFromChannelList([]int{1, 2, 3})
	if !p.IsChannelList() {
		t.Fatal("IsChannelList() = false")
	}
	got := p.ToChannelList()
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("ToChannelList() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ToChannelList()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestParameterBlockDataRoundTrip(t *testing.T) {
	p := ParameterFromBlockData([]byte{0xDE, 0xAD})
	if !p.IsBlockData() {
		t.Fatal("IsBlockData() = false")
	}
	if p.BlockSize() != 2 {
		t.Errorf("BlockSize() = %d, want 2", p.BlockSize())
	}
	if hex := p.BlockToHex(); hex != "DEAD" {
		t.Errorf("BlockToHex() = %q, want %q", hex, "DEAD")
	}
}
