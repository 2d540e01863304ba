package scpi

import "testing"

func TestContextResultBuffersWithoutCallback(t *testing.T) {
	ctx := NewContext()
	ctx.Result("hello")

	if !ctx.HasPendingResponse() {
		t.Fatalf("HasPendingResponse() = false after Result()")
	}
	if got := ctx.PopTextResponse(); got != "hello" {
		t.Errorf("PopTextResponse() = %q, want %q", got, "hello")
	}
	if ctx.HasPendingResponse() {
		t.Errorf("HasPendingResponse() = true after draining the only response")
	}
}

func TestContextResultStreamsViaCallbackInstead(t *testing.T) {
	ctx := NewContext()
	var streamed string
	ctx.SetOutputCallback(func(s string) { streamed = s })

	ctx.Result("streamed-value")
	if streamed != "streamed-value" {
		t.Errorf("callback received %q, want %q", streamed, "streamed-value")
	}
	if ctx.HasPendingResponse() {
		t.Errorf("HasPendingResponse() = true, want false when an output callback is set")
	}
}

func TestContextResultBlockBufferedRoundTrip(t *testing.T) {
	ctx := NewContext()
	ctx.ResultBlock([]byte("AB"))

	got := ctx.PopBinaryResponse()
	want := []byte("#12AB")
	if string(got) != string(want) {
		t.Errorf("PopBinaryResponse() = %q, want %q", got, want)
	}
}

func TestContextResultIndefiniteBlockMarksIndefinite(t *testing.T) {
	ctx := NewContext()
	ctx.ResultIndefiniteBlock([]byte("data"))

	if !ctx.LastResponseWasIndefinite() {
		t.Fatalf("LastResponseWasIndefinite() = false after an indefinite block")
	}
	got := ctx.PopBinaryResponse()
	want := "#0data\n"
	if string(got) != want {
		t.Errorf("PopBinaryResponse() = %q, want %q", got, want)
	}
}

func TestContextPopOnEmptyQueuePushesQueryUnterminated(t *testing.T) {
	ctx := NewContext()
	got := ctx.PopTextResponse()
	if got != "" {
		t.Errorf("PopTextResponse() on empty queue = %q, want \"\"", got)
	}
	entry := ctx.ErrorQueue().Pop()
	if entry.Code != ErrQueryUnterminated {
		t.Errorf("error queue = %d, want %d (Query UNTERMINATED)", entry.Code, ErrQueryUnterminated)
	}
}

func TestContextPushErrorSetsStatusAndQueue(t *testing.T) {
	ctx := NewContext()
	ctx.PushStandardError(ErrCommandError)

	if !ctx.HasTransientError() || ctx.TransientErrorCode() != ErrCommandError {
		t.Errorf("transient error not recorded: code=%d", ctx.TransientErrorCode())
	}
	if ctx.Status().ESR()&(1<<ESBCommandError) == 0 {
		t.Errorf("ESR command-error bit not set after PushStandardError")
	}
	if ctx.ErrorQueue().Count() != 1 {
		t.Errorf("error queue count = %d, want 1", ctx.ErrorQueue().Count())
	}
}

func TestContextResetCommandStateLeavesErrorQueueAndStatusAlone(t *testing.T) {
	ctx := NewContext()
	ctx.Params.Add(ParameterFromInt(1))
	ctx.NodeParams.Add("ch", 2)
	ctx.SetQuery(true)
	ctx.PushStandardError(ErrCommandError)

	ctx.ResetCommandState()

	if ctx.Params.Count() != 0 || ctx.NodeParams.Count() != 0 {
		t.Errorf("ResetCommandState did not clear params/node params")
	}
	if ctx.IsQuery() {
		t.Errorf("ResetCommandState did not clear the query flag")
	}
	if ctx.HasTransientError() {
		t.Errorf("ResetCommandState did not clear the transient error")
	}
	if ctx.ErrorQueue().Count() != 1 {
		t.Errorf("ResetCommandState touched the error queue, want untouched")
	}
}

func TestContextClearStatusForCLS(t *testing.T) {
	ctx := NewContext()
	ctx.PushStandardError(ErrCommandError)
	ctx.Result("pending")
	ctx.Status().SetESE(0xFF)

	ctx.ClearStatus()

	if ctx.ErrorQueue().Count() != 0 {
		t.Errorf("ClearStatus did not clear the error queue")
	}
	if ctx.HasPendingResponse() {
		t.Errorf("ClearStatus did not clear buffered responses")
	}
	if ctx.Status().ESR() != 0 {
		t.Errorf("ClearStatus did not clear ESR")
	}
	if ctx.Status().ESE() != 0xFF {
		t.Errorf("ClearStatus cleared ESE, want it preserved")
	}
}

// The following cover the cross-cutting end-to-end behaviors that the rest
// of the package's unit tests don't individually exercise: path
// continuation across ';', unit scaling into a handler, block round-trips
// through a registered query, error-queue overflow, status-register
// composition, and discarding a pending response.

func TestEndToEndSemicolonPathContinuation(t *testing.T) {
	tree := NewCommandTree()
	tree.RegisterCommand(":SOURce:VOLTage", okHandler)
	tree.RegisterCommand(":SOURce:CURRent", okHandler)
	r := NewPathResolver(tree)

	s := NewCommandSplitter()
	cmds, ok := s.Split("SOUR:VOLT 1;CURR 2")
	if !ok {
		t.Fatalf("Split failed: %s", s.ErrorMessage())
	}

	pc := &PathContext{}
	rr0 := r.Resolve(cmds[0], pc)
	if !rr0.Success {
		t.Fatalf("first command failed to resolve: %s", rr0.ErrorMessage)
	}
	// As the engine does: continue from the parent of the last consumed
	// node (SOURce), not from the leaf.
	pc.SetCurrent(rr0.ConsumedPath[len(rr0.ConsumedPath)-2])

	rr1 := r.Resolve(cmds[1], pc)
	if !rr1.Success {
		t.Fatalf("second (relative) command failed to resolve via path continuation: %s", rr1.ErrorMessage)
	}
}

func TestEndToEndUnitScalingResolution(t *testing.T) {
	s := NewCommandSplitter()
	cmds, ok := s.Split("SOUR:VOLT 100mV")
	if !ok {
		t.Fatalf("Split failed: %s", s.ErrorMessage())
	}
	got := cmds[0].Params.GetScaledDouble(0, -1)
	if got != 0.1 {
		t.Errorf("GetScaledDouble = %v, want 0.1", got)
	}

	s2 := NewCommandSplitter()
	cmds2, ok := s2.Split(":VOLT:RANG MAX")
	if !ok {
		t.Fatalf("Split failed: %s", s2.ErrorMessage())
	}
	p, ok := cmds2[0].Params.At(0)
	if !ok {
		t.Fatalf("Params.At(0) missing")
	}
	if p.Kind() != ParamNumericKeyword || !p.IsMax() {
		t.Errorf("Kind()=%v IsMax()=%v, want ParamNumericKeyword/true", p.Kind(), p.IsMax())
	}
	if got := p.ToDoubleOr(0.1, 1000, 10); got != 1000 {
		t.Errorf("ToDoubleOr(0.1,1000,10) = %v, want 1000", got)
	}

	s3 := NewCommandSplitter()
	cmds3, ok := s3.Split(":CALC:LIM:LOW -INF")
	if !ok {
		t.Fatalf("Split failed: %s", s3.ErrorMessage())
	}
	p3, ok := cmds3[0].Params.At(0)
	if !ok {
		t.Fatalf("Params.At(0) missing")
	}
	if !p3.IsNegInf() {
		t.Errorf("IsNegInf() = false, want true for -INF")
	}
}

func TestEndToEndBlockDataRoundTripThroughHandler(t *testing.T) {
	tree := NewCommandTree()
	tree.RegisterQuery(":TEST:BLOCk", func(ctx *Context) int {
		ctx.ResultBlock([]byte("hi"))
		return ErrNoError
	})
	r := NewPathResolver(tree)

	s := NewCommandSplitter()
	cmds, ok := s.Split(":TEST:BLOC?")
	if !ok {
		t.Fatalf("Split failed: %s", s.ErrorMessage())
	}
	rr := r.Resolve(cmds[0], &PathContext{})
	if !rr.Success {
		t.Fatalf("Resolve failed: %s", rr.ErrorMessage)
	}
	ctx := NewContext()
	rr.Node.QueryHandler()(ctx)
	got := ctx.PopBinaryResponse()
	if string(got) != "#12hi" {
		t.Errorf("PopBinaryResponse() = %q, want %q", got, "#12hi")
	}
}

func TestEndToEndErrorQueueOverflow(t *testing.T) {
	ctx := NewContextWithQueueSize(1)
	ctx.PushStandardError(ErrCommandError)
	ctx.PushStandardError(ErrDataOutOfRange)

	entry := ctx.ErrorQueue().Peek()
	if entry.Code != ErrQueueOverflow {
		t.Errorf("Peek().Code = %d, want %d after overflow", entry.Code, ErrQueueOverflow)
	}
}

func TestEndToEndStatusRegisterComposition(t *testing.T) {
	ctx := NewContext()
	ctx.PushStandardError(ErrCommandError)
	ctx.Status().SetESE(1 << ESBCommandError)

	stb := ctx.ComputeSTB()
	if stb&(1<<STBErrorAvailable) == 0 {
		t.Errorf("ComputeSTB: EAV not set despite a queued error")
	}
	if stb&(1<<STBEventStatus) == 0 {
		t.Errorf("ComputeSTB: ESB not set despite matching ESE")
	}
}

func TestEndToEndQueryInterruptionAbandonsPendingResponse(t *testing.T) {
	ctx := NewContext()
	ctx.Result("first query's answer")
	if !ctx.HasPendingResponse() {
		t.Fatalf("expected a pending response before interruption")
	}

	ctx.ClearResponses()
	if ctx.HasPendingResponse() {
		t.Errorf("HasPendingResponse() = true after ClearResponses (simulated interruption)")
	}
}
