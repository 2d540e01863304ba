package scpi

import "testing"

func okHandler(ctx *Context) int { return ErrNoError }

func TestTreeRegisterCommandAndFind(t *testing.T) {
	tree := NewCommandTree()
	if _, err := tree.RegisterCommand(":SOURce:VOLTage", okHandler); err != nil {
		t.Fatalf("RegisterCommand: %v", err)
	}

	node := tree.FindNode([]string{"SOUR", "VOLT"}, nil)
	if node == nil {
		t.Fatalf("FindNode(short names) = nil")
	}
	if node.Handler() == nil {
		t.Errorf("Handler() = nil, want set handler")
	}

	node2 := tree.FindNode([]string{"SOURce", "VOLTage"}, nil)
	if node2 == nil {
		t.Fatalf("FindNode(long names) = nil")
	}
	if node2 != node {
		t.Errorf("FindNode(long) and FindNode(short) resolved to different nodes")
	}
}

func TestTreeRegisterQueryAppendsQuestionMark(t *testing.T) {
	tree := NewCommandTree()
	if _, err := tree.RegisterQuery(":MEASure:VOLTage", okHandler); err != nil {
		t.Fatalf("RegisterQuery: %v", err)
	}
	node := tree.FindNode([]string{"MEAS", "VOLT"}, nil)
	if node == nil || node.QueryHandler() == nil {
		t.Fatalf("query handler not registered: node=%v", node)
	}
	if node.Handler() != nil {
		t.Errorf("Handler() = non-nil, want nil (query-only registration)")
	}
}

func TestTreeRegisterBothSetsBothSlots(t *testing.T) {
	tree := NewCommandTree()
	if _, err := tree.RegisterBoth(":OUTPut", okHandler, okHandler); err != nil {
		t.Fatalf("RegisterBoth: %v", err)
	}
	node := tree.FindNode([]string{"OUTP"}, nil)
	if node == nil || node.Handler() == nil || node.QueryHandler() == nil {
		t.Fatalf("RegisterBoth did not set both slots: node=%v", node)
	}
}

func TestTreeTrailingOptionalChainReplication(t *testing.T) {
	tree := NewCommandTree()
	if _, err := tree.RegisterQuery(":MEASure:VOLTage[:DC]", okHandler); err != nil {
		t.Fatalf("RegisterQuery: %v", err)
	}

	short := tree.FindNode([]string{"MEAS", "VOLT"}, nil)
	if short == nil || short.QueryHandler() == nil {
		t.Fatalf("short path (without optional node) not registered: %v", short)
	}

	long := tree.FindNode([]string{"MEAS", "VOLT", "DC"}, nil)
	if long == nil || long.QueryHandler() == nil {
		t.Fatalf("long path (with optional node) not registered: %v", long)
	}
}

func TestTreeOptionalChainDoesNotDropRequiredPrefix(t *testing.T) {
	tree := NewCommandTree()
	if _, err := tree.RegisterQuery(":SOURce:VOLTage[:DC][:RANGe]", okHandler); err != nil {
		t.Fatalf("RegisterQuery: %v", err)
	}

	if node := tree.FindNode([]string{"SOUR"}, nil); node != nil && node.QueryHandler() != nil {
		t.Errorf("\"SOURce\" alone resolved to a query handler, want none (VOLTage is a required node)")
	}
	if node := tree.FindNode([]string{"SOUR", "VOLT"}, nil); node == nil || node.QueryHandler() == nil {
		t.Errorf("\"SOURce:VOLTage\" (required prefix) did not resolve to a query handler")
	}
	if node := tree.FindNode([]string{"SOUR", "VOLT", "DC"}, nil); node == nil || node.QueryHandler() == nil {
		t.Errorf("\"SOURce:VOLTage:DC\" did not resolve to a query handler")
	}
	if node := tree.FindNode([]string{"SOUR", "VOLT", "DC", "RANG"}, nil); node == nil || node.QueryHandler() == nil {
		t.Errorf("\"SOURce:VOLTage:DC:RANGe\" did not resolve to a query handler")
	}
}

func TestTreeNumericSuffixNodeParamBinding(t *testing.T) {
	tree := NewCommandTree()
	if _, err := tree.RegisterQuery(":TEST:CHANnel<ch:1-8>:STATe", okHandler); err != nil {
		t.Fatalf("RegisterQuery: %v", err)
	}

	var params NodeParamValues
	node := tree.FindNode([]string{"TEST", "CHAN3", "STAT"}, &params)
	if node == nil {
		t.Fatalf("FindNode with numeric suffix failed")
	}
	if got := params.Get("ch", -1); got != 3 {
		t.Errorf("node param ch = %d, want 3", got)
	}
}

func TestTreeNumericSuffixOutOfRangeFails(t *testing.T) {
	tree := NewCommandTree()
	if _, err := tree.RegisterQuery(":TEST:CHANnel<ch:1-8>:STATe", okHandler); err != nil {
		t.Fatalf("RegisterQuery: %v", err)
	}
	if node := tree.FindNode([]string{"TEST", "CHAN9", "STAT"}, nil); node != nil {
		t.Errorf("FindNode with out-of-range suffix = non-nil, want nil")
	}
}

func TestTreeCommonCommandRegistration(t *testing.T) {
	tree := NewCommandTree()
	tree.RegisterCommonCommand("*IDN?", okHandler)
	tree.RegisterCommonCommand("*RST", okHandler)

	if !tree.HasCommonCommand("*IDN?") {
		t.Errorf("HasCommonCommand(*IDN?) = false, want true")
	}
	if h, ok := tree.FindCommonCommand("*IDN?"); !ok || h == nil {
		t.Errorf("FindCommonCommand(*IDN?) = (%v, %v), want a handler", h, ok)
	}
	if h, ok := tree.FindCommonCommand("*IDN"); ok {
		t.Errorf("FindCommonCommand(*IDN) (set slot) = (%v, %v), want not ok (never registered)", h, ok)
	}
	if _, ok := tree.FindCommonCommand("*RST"); !ok {
		t.Errorf("FindCommonCommand(*RST) = not ok, want ok")
	}
}

func TestTreeFindChildPrefixMatching(t *testing.T) {
	tree := NewCommandTree()
	if _, err := tree.RegisterCommand(":MEASure", okHandler); err != nil {
		t.Fatalf("RegisterCommand: %v", err)
	}

	child, _, ok := tree.Root().FindChild("MEASu")
	if !ok || child == nil {
		t.Errorf("FindChild(MEASu) (valid long-name prefix) failed")
	}
	if _, _, ok := tree.Root().FindChild("ME"); ok {
		t.Errorf("FindChild(ME) (too short, below short-name length) = ok, want not ok")
	}
}
