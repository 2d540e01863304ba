package scpi

// Engine ties together the command tree, splitter, path resolver, and a
// single execution Context into the end-to-end pipeline: split a message
// into commands, resolve each against the tree (honoring the current path
// context for relative headers), run its handler, and advance the path
// context per SCPI's semicolon-continuation rule.
type Engine struct {
	tree     *CommandTree
	splitter *CommandSplitter
	resolver *PathResolver
	pathCtx  PathContext
	ctx      *Context

	logger  diagnosticLogger
	metrics metricsSink
}

// diagnosticLogger is the minimal surface Engine needs from a logger,
// satisfied by *logrus.Logger via SetLogger in log.go.
type diagnosticLogger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// metricsSink is the minimal surface Engine needs from a metrics collector,
// satisfied by *metrics.Collector via SetMetrics in metrics_wiring.go.
type metricsSink interface {
	ObserveCommand(pathString string, isQuery bool)
	ObserveError(code int)
	ObserveResponseQueueDepth(depth int)
}

// NewEngine creates an Engine with a fresh, empty command tree and a
// default-capacity execution context.
func NewEngine() *Engine {
	tree := NewCommandTree()
	return &Engine{
		tree:     tree,
		splitter: NewCommandSplitter(),
		resolver: NewPathResolver(tree),
		ctx:      NewContext(),
	}
}

// NewEngineWithQueueSize creates an Engine whose context uses a custom
// error queue capacity.
func NewEngineWithQueueSize(errorQueueSize int) *Engine {
	tree := NewCommandTree()
	return &Engine{
		tree:     tree,
		splitter: NewCommandSplitter(),
		resolver: NewPathResolver(tree),
		ctx:      NewContextWithQueueSize(errorQueueSize),
	}
}

func (e *Engine) Tree() *CommandTree { return e.tree }
func (e *Engine) Context() *Context  { return e.ctx }
func (e *Engine) PathContext() *PathContext { return &e.pathCtx }

// classifyAndPushError pushes a standard error for code onto ctx, unless a
// handler already recorded its own transient error — matching spec.md §7's
// propagation policy (fallback to EXECUTION_ERROR for an out-of-range code).
func classifyAndPushError(ctx *Context, code int) {
	if ctx.HasTransientError() {
		return
	}
	switch {
	case IsCommandError(code), IsExecutionError(code), IsDeviceError(code), IsQueryError(code):
		ctx.PushStandardError(code)
	default:
		ctx.PushStandardError(ErrExecutionError)
	}
}

// startNodeFor returns the node a command's relative header would resolve
// from: the root for absolute or common commands, otherwise the path
// context's current node (or root, if none is set yet).
func (e *Engine) startNodeFor(cmd ParsedCommand) *CommandNode {
	if cmd.IsAbsolute || cmd.IsCommon {
		return e.tree.root
	}
	if e.pathCtx.currentNode != nil {
		return e.pathCtx.currentNode
	}
	return e.tree.root
}

// advancePathContext applies spec.md §4.F's post-execution rule. It must
// run only after a successful, non-common resolution.
func (e *Engine) advancePathContext(start *CommandNode, consumed []*CommandNode) {
	switch {
	case len(consumed) >= 2:
		e.pathCtx.SetCurrent(consumed[len(consumed)-2])
	case len(consumed) == 1:
		if start == e.tree.root {
			e.pathCtx.SetCurrent(e.tree.root)
		} else {
			e.pathCtx.SetCurrent(start)
		}
	}
}

// checkQueryInterruption applies spec.md §4.G's query-interruption rule: if
// a prior query's response(s) are still buffered when the next command
// arrives, push -440 (if the pending response was indefinite) or -410,
// then discard everything buffered. A no-op once an output callback is
// installed, since responses are then considered delivered immediately.
func (e *Engine) checkQueryInterruption() {
	if !e.ctx.bufferedMode() || !e.ctx.HasPendingResponse() {
		return
	}
	if e.ctx.LastResponseWasIndefinite() {
		e.ctx.PushStandardError(ErrQueryUnterminatedIndef)
	} else {
		e.ctx.PushStandardError(ErrQueryInterrupted)
	}
	e.ctx.ClearResponses()
}

// ExecuteAll splits input into commands and runs each in turn against this
// Engine's tree and context, returning the last non-zero result code
// produced across the whole message (0 on clean success). A resolver
// failure on one command is recorded as a standard error and execution
// continues with the next command in the message. A splitter failure
// rejects the whole message: its error is recorded and its code returned
// without running any of the message's commands, including those before
// the point of failure.
func (e *Engine) ExecuteAll(input string) int {
	commands, ok := e.splitter.Split(input)
	lastCode := 0

	if !ok {
		e.ctx.PushStandardErrorWithInfo(e.splitter.ErrorCode(), e.splitter.ErrorMessage())
		if e.logger != nil {
			e.logger.Warnf("scpi: split error: %s", e.splitter.ErrorMessage())
		}
		return e.splitter.ErrorCode()
	}

	for _, cmd := range commands {
		e.checkQueryInterruption()
		e.ctx.ResetCommandState()

		start := e.startNodeFor(cmd)
		result := e.resolver.Resolve(cmd, &e.pathCtx)

		if e.logger != nil {
			e.logger.Debugf("scpi: executing %s", cmd.PathString())
		}

		if !result.Success {
			e.ctx.PushStandardErrorWithInfo(result.ErrorCode, cmd.PathString())
			if e.logger != nil {
				e.logger.Warnf("scpi: %s: %s", cmd.PathString(), result.ErrorMessage)
			}
			if e.metrics != nil {
				e.metrics.ObserveError(result.ErrorCode)
			}
			lastCode = result.ErrorCode
			continue
		}

		e.ctx.Params = cmd.Params
		e.ctx.SetQuery(cmd.IsQuery)

		var handler CommandHandler
		if result.IsCommon {
			handler = result.CommonHandler
		} else {
			e.ctx.NodeParams = result.NodeParams
			if cmd.IsQuery {
				handler = result.Node.QueryHandler()
			} else {
				handler = result.Node.Handler()
			}
		}

		if e.metrics != nil {
			e.metrics.ObserveCommand(cmd.PathString(), cmd.IsQuery)
		}

		if handler == nil {
			e.ctx.PushStandardErrorWithInfo(ErrUndefinedHeader, cmd.PathString())
			lastCode = ErrUndefinedHeader
			if !result.IsCommon {
				e.advancePathContext(start, result.ConsumedPath)
			}
			continue
		}

		code := handler(e.ctx)
		if code != ErrNoError {
			classifyAndPushError(e.ctx, code)
		} else if e.ctx.HasTransientError() {
			code = e.ctx.TransientErrorCode()
		}

		if code != ErrNoError {
			lastCode = code
			if e.metrics != nil {
				e.metrics.ObserveError(code)
			}
		}

		if !result.IsCommon {
			e.advancePathContext(start, result.ConsumedPath)
		}

		if e.metrics != nil {
			e.metrics.ObserveResponseQueueDepth(len(e.ctx.responses))
		}
	}

	return lastCode
}
