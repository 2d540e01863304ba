package scpi

// RegisterDefaultCommonCommands wires up the standard IEEE-488.2 common
// commands (*IDN?, *RST, *CLS, *ESE/*ESE?, *ESR?, *SRE/*SRE?, *STB?,
// *OPC/*OPC?) plus the de facto standard :SYSTem:ERRor?/:SYSTem:ERRor:COUNt?
// query pair, on top of whatever the embedder has already registered.
//
// idn supplies the four comma-joined fields of *IDN?'s response
// (manufacturer, model, serial, firmware). onReset, if non-nil, is invoked
// by *RST, which does nothing else; it is the embedder's hook for
// restoring device-specific default settings.
func (e *Engine) RegisterDefaultCommonCommands(idn [4]string, onReset func()) {
	e.RegisterCommonCommand("*IDN?", func(ctx *Context) int {
		ctx.Result(idn[0] + "," + idn[1] + "," + idn[2] + "," + idn[3])
		return ErrNoError
	})

	e.RegisterCommonCommand("*RST", func(ctx *Context) int {
		if onReset != nil {
			onReset()
		}
		return ErrNoError
	})

	e.RegisterCommonCommand("*CLS", func(ctx *Context) int {
		ctx.ClearStatus()
		return ErrNoError
	})

	e.RegisterCommonCommand("*ESE", func(ctx *Context) int {
		v := ctx.Params.GetInt(0, 0)
		ctx.Status().SetESE(uint8(v))
		return ErrNoError
	})
	e.RegisterCommonCommand("*ESE?", func(ctx *Context) int {
		ctx.ResultInt(int32(ctx.Status().ESE()))
		return ErrNoError
	})

	e.RegisterCommonCommand("*ESR?", func(ctx *Context) int {
		ctx.ResultInt(int32(ctx.Status().ReadAndClearESR()))
		return ErrNoError
	})

	e.RegisterCommonCommand("*SRE", func(ctx *Context) int {
		v := ctx.Params.GetInt(0, 0)
		ctx.Status().SetSRE(uint8(v))
		return ErrNoError
	})
	e.RegisterCommonCommand("*SRE?", func(ctx *Context) int {
		ctx.ResultInt(int32(ctx.Status().SRE()))
		return ErrNoError
	})

	e.RegisterCommonCommand("*STB?", func(ctx *Context) int {
		ctx.ResultInt(int32(ctx.ComputeSTB()))
		return ErrNoError
	})

	e.RegisterCommonCommand("*OPC", func(ctx *Context) int {
		ctx.Status().SetOPC()
		return ErrNoError
	})
	e.RegisterCommonCommand("*OPC?", func(ctx *Context) int {
		ctx.ResultBool(true)
		return ErrNoError
	})

	e.MustRegisterAll([]Registration{
		{Pattern: ":SYSTem:ERRor?", QueryHandler: func(ctx *Context) int {
			entry := ctx.ErrorQueue().Pop()
			ctx.Result(entry.ToSCPIString())
			return ErrNoError
		}},
		{Pattern: ":SYSTem:ERRor:COUNt?", QueryHandler: func(ctx *Context) int {
			ctx.ResultInt(int32(ctx.ErrorQueue().Count()))
			return ErrNoError
		}},
	})
}
