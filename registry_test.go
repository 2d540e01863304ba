package scpi

import "testing"

func TestRegisterAutoRoutesByPatternShape(t *testing.T) {
	e := NewEngine()

	if _, err := e.RegisterAuto("SOURce:VOLTage", okHandler); err != nil {
		t.Fatalf("RegisterAuto(set pattern): %v", err)
	}
	node := e.Tree().FindNode([]string{"SOUR", "VOLT"}, nil)
	if node == nil || node.Handler() == nil || node.QueryHandler() != nil {
		t.Errorf("RegisterAuto(set pattern) node = %v, want only a set handler", node)
	}

	if _, err := e.RegisterAuto("MEASure:VOLTage?", okHandler); err != nil {
		t.Fatalf("RegisterAuto(query pattern): %v", err)
	}
	qnode := e.Tree().FindNode([]string{"MEAS", "VOLT"}, nil)
	if qnode == nil || qnode.QueryHandler() == nil || qnode.Handler() != nil {
		t.Errorf("RegisterAuto(query pattern) node = %v, want only a query handler", qnode)
	}

	if _, err := e.RegisterAuto("*RST", okHandler); err != nil {
		t.Fatalf("RegisterAuto(common pattern): %v", err)
	}
	if !e.Tree().HasCommonCommand("*RST") {
		t.Errorf("RegisterAuto did not route *RST through RegisterCommonCommand")
	}
}

func TestRegisterAutoBothCommonPatternRegistersBothSlots(t *testing.T) {
	e := NewEngine()
	if _, err := e.RegisterAutoBoth("*ESE", okHandler, okHandler); err != nil {
		t.Fatalf("RegisterAutoBoth: %v", err)
	}
	if _, ok := e.Tree().FindCommonCommand("*ESE"); !ok {
		t.Errorf("set slot for *ESE not registered")
	}
	if _, ok := e.Tree().FindCommonCommand("*ESE?"); !ok {
		t.Errorf("query slot for *ESE? not registered")
	}
}

func TestRegisterAllAccumulatesFailures(t *testing.T) {
	e := NewEngine()
	err := e.RegisterAll([]Registration{
		{Pattern: "SOURce:VOLTage", Handler: okHandler},
		{Pattern: "MEASure<ch", Handler: okHandler},
		{Pattern: "MEASure<ch:5-1>", QueryHandler: okHandler},
	})
	if err == nil {
		t.Fatalf("RegisterAll() = nil, want an error for two malformed patterns")
	}
}

func TestRegisterAllSucceedsWithNoError(t *testing.T) {
	e := NewEngine()
	err := e.RegisterAll([]Registration{
		{Pattern: "SOURce:VOLTage", Handler: okHandler},
		{Pattern: "MEASure:VOLTage", QueryHandler: okHandler},
		{Pattern: "OUTPut", Handler: okHandler, QueryHandler: okHandler},
	})
	if err != nil {
		t.Fatalf("RegisterAll() = %v, want nil", err)
	}
	if node := e.Tree().FindNode([]string{"OUTP"}, nil); node == nil || node.Handler() == nil || node.QueryHandler() == nil {
		t.Errorf("OUTPut registration incomplete: %v", node)
	}
}

func TestMustRegisterAllPanicsOnBadPattern(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("MustRegisterAll did not panic on a malformed pattern")
		}
	}()
	e := NewEngine()
	e.MustRegisterAll([]Registration{{Pattern: "BAD<ch", Handler: okHandler}})
}

func TestRegisterAllQueryOnlyPatternGetsQuerySuffixEnsured(t *testing.T) {
	e := NewEngine()
	err := e.RegisterAll([]Registration{
		{Pattern: "MEASure:CURRent", QueryHandler: okHandler},
	})
	if err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	node := e.Tree().FindNode([]string{"MEAS", "CURR"}, nil)
	if node == nil || node.QueryHandler() == nil {
		t.Errorf("query-only registration without '?' suffix failed: %v", node)
	}
}
