package scpi

import (
	"strconv"
	"strings"
)

// ByteOrder selects the byte order Context.ResultBlockArray swaps numeric
// array elements into before emitting them as a block.
type ByteOrder int

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

// OutputCallback streams a finished text response immediately.
type OutputCallback func(s string)

// BinaryOutputCallback streams a finished block response in chunks: a
// definite block as a header chunk then a data chunk, an indefinite block
// as "#0", the data, then the "\n" terminator (so a transport can frame
// them without reassembling a buffer). Empty data chunks are not written.
type BinaryOutputCallback func(data []byte)

type responseKind int

const (
	responseText responseKind = iota
	responseBinary
)

type responseItem struct {
	kind        responseKind
	text        string
	bin         []byte
	indefinite  bool
}

// Context carries the parameters, captured node-parameters, pending
// response(s), error queue, and status registers for one executing command,
// plus the handler-visible result-emission API.
type Context struct {
	Params     ParameterList
	NodeParams NodeParamValues

	outputCallback       OutputCallback
	binaryOutputCallback BinaryOutputCallback

	errorQueue *ErrorQueue
	status     StatusRegister

	transientErrorCode    int
	transientErrorMessage string

	isQuery   bool
	byteOrder ByteOrder
	userData  interface{}

	responses               []responseItem
	lastResponseIndefinite bool
}

// NewContext creates a Context with the default error queue capacity.
func NewContext() *Context {
	return NewContextWithQueueSize(DefaultErrorQueueSize)
}

// NewContextWithQueueSize creates a Context with a custom error queue
// capacity.
func NewContextWithQueueSize(errorQueueSize int) *Context {
	return &Context{errorQueue: NewErrorQueue(errorQueueSize)}
}

func (c *Context) NodeParam(name string, def int32) int32 { return c.NodeParams.Get(name, def) }
func (c *Context) NodeParamAt(index int, def int32) int32 { return c.NodeParams.GetAt(index, def) }
func (c *Context) NodeParamOf(nodeName string, def int32) int32 {
	return c.NodeParams.GetByNodeName(nodeName, def)
}

// SetOutputCallback installs a streaming text sink. Set it to nil to revert
// to response-buffering mode.
func (c *Context) SetOutputCallback(cb OutputCallback) { c.outputCallback = cb }

// SetBinaryOutputCallback installs a streaming binary sink, used for block
// responses in chunks as BinaryOutputCallback describes. Set it to nil to revert to
// response-buffering mode.
func (c *Context) SetBinaryOutputCallback(cb BinaryOutputCallback) { c.binaryOutputCallback = cb }

func (c *Context) bufferedMode() bool {
	return c.outputCallback == nil && c.binaryOutputCallback == nil
}

func (c *Context) enqueueTextResponse(s string, indefinite bool) {
	if c.bufferedMode() {
		c.responses = append(c.responses, responseItem{kind: responseText, text: s, indefinite: indefinite})
		c.lastResponseIndefinite = indefinite
	}
}

func (c *Context) enqueueBinaryResponse(b []byte, indefinite bool) {
	if c.bufferedMode() {
		c.responses = append(c.responses, responseItem{kind: responseBinary, bin: b, indefinite: indefinite})
		c.lastResponseIndefinite = indefinite
	}
}

// Result emits a text response: immediately via the output callback if one
// is set, and always into the buffered response queue when running
// unattached to a callback.
func (c *Context) Result(s string) {
	if c.outputCallback != nil {
		c.outputCallback(s)
	}
	c.enqueueTextResponse(s, false)
}

func (c *Context) ResultInt(v int32) { c.Result(strconv.FormatInt(int64(v), 10)) }
func (c *Context) ResultInt64(v int64) { c.Result(strconv.FormatInt(v, 10)) }

// ResultFloat emits a floating-point response with precision digits after
// the decimal point.
func (c *Context) ResultFloat(v float64, precision int) {
	c.Result(strconv.FormatFloat(v, 'f', precision, 64))
}

func (c *Context) ResultBool(v bool) {
	if v {
		c.Result("1")
	} else {
		c.Result("0")
	}
}

func makeBlockHeader(length int) string {
	lenStr := strconv.Itoa(length)
	var b strings.Builder
	b.WriteByte('#')
	b.WriteByte(byte('0' + len(lenStr)))
	b.WriteString(lenStr)
	return b.String()
}

// ResultBlock emits a definite-length block response (#<n><len><data>). With
// a binary callback set, the header and data are delivered as two separate
// writes; with a text callback set, they are concatenated into one text
// write; otherwise the combined bytes are buffered for PopBinaryResponse.
func (c *Context) ResultBlock(data []byte) {
	hdr := makeBlockHeader(len(data))

	if c.binaryOutputCallback != nil {
		c.binaryOutputCallback([]byte(hdr))
		if len(data) > 0 {
			c.binaryOutputCallback(data)
		}
		return
	}

	if c.outputCallback != nil {
		c.outputCallback(hdr + string(data))
		return
	}

	b := make([]byte, 0, len(hdr)+len(data))
	b = append(b, hdr...)
	b = append(b, data...)
	c.enqueueBinaryResponse(b, false)
}

// ResultIndefiniteBlock emits an indefinite-length block response
// (#0<data>\n), following the same three-way dispatch as ResultBlock.
func (c *Context) ResultIndefiniteBlock(data []byte) {
	if c.binaryOutputCallback != nil {
		c.binaryOutputCallback([]byte("#0"))
		if len(data) > 0 {
			c.binaryOutputCallback(data)
		}
		c.binaryOutputCallback([]byte("\n"))
		return
	}

	if c.outputCallback != nil {
		c.outputCallback("#0" + string(data) + "\n")
		return
	}

	b := make([]byte, 0, 3+len(data))
	b = append(b, '#', '0')
	b = append(b, data...)
	b = append(b, '\n')
	c.enqueueBinaryResponse(b, true)
}

func swapBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

var hostIsLittleEndian = func() bool {
	var x uint16 = 0x0102
	b := []byte{byte(x), byte(x >> 8)}
	return b[0] == 0x02
}()

// ResultBlockArray packs elementSize-byte numeric elements (already
// serialized in host byte order by toBytes) into a single block response,
// swapping each element into the Context's configured ByteOrder first.
func (c *Context) ResultBlockArray(toBytes func(i int) []byte, count, elementSize int) {
	out := make([]byte, 0, count*elementSize)
	wantLittle := c.byteOrder == LittleEndian
	needSwap := hostIsLittleEndian != wantLittle

	for i := 0; i < count; i++ {
		elem := toBytes(i)
		if needSwap {
			cp := make([]byte, len(elem))
			copy(cp, elem)
			swapBytes(cp)
			out = append(out, cp...)
		} else {
			out = append(out, elem...)
		}
	}
	c.ResultBlock(out)
}

// HasPendingResponse reports whether any buffered response is waiting.
func (c *Context) HasPendingResponse() bool { return len(c.responses) > 0 }

// PopTextResponse removes and returns the oldest buffered response as text.
// If the queue is empty, it pushes a -420 Query UNTERMINATED error and
// returns "".
func (c *Context) PopTextResponse() string {
	if len(c.responses) == 0 {
		c.PushStandardError(ErrQueryUnterminated)
		return ""
	}

	item := c.responses[0]
	c.responses = c.responses[1:]
	if len(c.responses) == 0 {
		c.lastResponseIndefinite = false
	}

	if item.kind == responseText {
		return item.text
	}
	return string(item.bin)
}

// PopBinaryResponse removes and returns the oldest buffered response as
// bytes. If the queue is empty, it pushes a -420 Query UNTERMINATED error
// and returns nil.
func (c *Context) PopBinaryResponse() []byte {
	if len(c.responses) == 0 {
		c.PushStandardError(ErrQueryUnterminated)
		return nil
	}

	item := c.responses[0]
	c.responses = c.responses[1:]
	if len(c.responses) == 0 {
		c.lastResponseIndefinite = false
	}

	if item.kind == responseBinary {
		return item.bin
	}
	return []byte(item.text)
}

// ClearResponses discards every buffered response (used for the Query
// Interrupted rule and by *CLS).
func (c *Context) ClearResponses() {
	c.responses = nil
	c.lastResponseIndefinite = false
}

// LastResponseWasIndefinite reports whether the most recently enqueued
// response was an indefinite block, used to decide between -410 and -440
// when a query is abandoned mid-response.
func (c *Context) LastResponseWasIndefinite() bool { return c.lastResponseIndefinite }

func (c *Context) ErrorQueue() *ErrorQueue { return c.errorQueue }

// PushError records a transient error (for the handler's own return path),
// sets the matching ESR bit, and enqueues it onto the error queue.
func (c *Context) PushError(code int, message, context string) {
	c.transientErrorCode = code
	c.transientErrorMessage = message
	c.status.SetErrorByCode(code)
	c.errorQueue.Push(code, message, context)
}

func (c *Context) PushStandardError(code int) {
	c.PushError(code, StandardMessage(code), "")
}

func (c *Context) PushStandardErrorWithInfo(code int, info string) {
	msg := StandardMessage(code)
	if info != "" {
		msg += "; " + info
	}
	c.PushError(code, msg, "")
}

func (c *Context) HasTransientError() bool       { return c.transientErrorCode != 0 }
func (c *Context) TransientErrorCode() int       { return c.transientErrorCode }
func (c *Context) TransientErrorMessage() string { return c.transientErrorMessage }

func (c *Context) ClearTransientError() {
	c.transientErrorCode = 0
	c.transientErrorMessage = ""
}

func (c *Context) Status() *StatusRegister { return &c.status }

// ComputeSTB computes the status byte; MAV is set only in buffered mode
// (no callback installed) when a response is waiting.
func (c *Context) ComputeSTB() uint8 {
	mav := c.bufferedMode() && len(c.responses) > 0
	return c.status.ComputeSTB(!c.errorQueue.Empty(), mav)
}

func (c *Context) IsQuery() bool     { return c.isQuery }
func (c *Context) SetQuery(q bool)   { c.isQuery = q }

func (c *Context) SetByteOrder(o ByteOrder) { c.byteOrder = o }
func (c *Context) ByteOrder() ByteOrder     { return c.byteOrder }

func (c *Context) SetUserData(v interface{}) { c.userData = v }
func (c *Context) UserData() interface{}     { return c.userData }

// ResetCommandState clears params, node-parameters, the query flag, and any
// transient error ahead of the next command — it does NOT touch the error
// queue, status registers, or buffered responses.
func (c *Context) ResetCommandState() {
	c.Params.Clear()
	c.NodeParams.Clear()
	c.isQuery = false
	c.ClearTransientError()
}

// ClearStatus implements *CLS: clears the error queue, the buffered
// response queue, the ESR, and any transient error.
func (c *Context) ClearStatus() {
	c.errorQueue.Clear()
	c.ClearResponses()
	c.status.ClearForCLS()
	c.ClearTransientError()
}
