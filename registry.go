package scpi

import (
	"strings"

	multierror "github.com/hashicorp/go-multierror"
)

// RegisterCommand registers a set (non-query) handler under pattern.
func (e *Engine) RegisterCommand(pattern string, handler CommandHandler) (*CommandNode, error) {
	return e.tree.RegisterCommand(pattern, handler)
}

// RegisterQuery registers a query handler under pattern (appending '?' if
// the caller omitted it).
func (e *Engine) RegisterQuery(pattern string, handler CommandHandler) (*CommandNode, error) {
	return e.tree.RegisterQuery(pattern, handler)
}

// RegisterBoth registers a set and a query handler under the same pattern.
func (e *Engine) RegisterBoth(pattern string, setHandler, queryHandler CommandHandler) (*CommandNode, error) {
	return e.tree.RegisterBoth(pattern, setHandler, queryHandler)
}

// RegisterCommonCommand registers a handler for an IEEE-488.2 common
// command such as "*IDN?" or "*RST".
func (e *Engine) RegisterCommonCommand(name string, handler CommandHandler) {
	e.tree.RegisterCommonCommand(name, handler)
}

// RegisterAuto registers a single handler, choosing RegisterQuery when
// pattern ends in '?' and RegisterCommand otherwise. For a "*"-prefixed
// pattern it routes to RegisterCommonCommand instead.
func (e *Engine) RegisterAuto(pattern string, handler CommandHandler) (*CommandNode, error) {
	if strings.HasPrefix(pattern, "*") {
		e.tree.RegisterCommonCommand(pattern, handler)
		return nil, nil
	}
	if strings.HasSuffix(pattern, "?") {
		return e.tree.RegisterQuery(pattern, handler)
	}
	return e.tree.RegisterCommand(pattern, handler)
}

// RegisterAutoBoth registers both a set and a query handler at once. For a
// "*"-prefixed pattern it registers both "*X" and "*X?"; otherwise it is
// equivalent to RegisterBoth.
func (e *Engine) RegisterAutoBoth(pattern string, setHandler, queryHandler CommandHandler) (*CommandNode, error) {
	if strings.HasPrefix(pattern, "*") {
		base := strings.TrimSuffix(pattern, "?")
		e.tree.RegisterCommonCommand(base, setHandler)
		e.tree.RegisterCommonCommand(base+"?", queryHandler)
		return nil, nil
	}
	return e.tree.RegisterBoth(pattern, setHandler, queryHandler)
}

// Registration is one entry of a batch passed to RegisterAll: Pattern plus
// whichever of Handler/QueryHandler apply.
type Registration struct {
	Pattern      string
	Handler      CommandHandler
	QueryHandler CommandHandler
}

// RegisterAll applies a batch of registrations via RegisterAuto (single
// handler) or RegisterAutoBoth (both set), accumulating every failure
// instead of stopping at the first. It returns a non-nil *multierror.Error
// (via the error interface) if any registration failed.
func (e *Engine) RegisterAll(regs []Registration) error {
	var result *multierror.Error

	for _, r := range regs {
		var err error
		switch {
		case r.Handler != nil && r.QueryHandler != nil:
			_, err = e.RegisterAutoBoth(r.Pattern, r.Handler, r.QueryHandler)
		case r.Handler != nil:
			_, err = e.RegisterAuto(r.Pattern, r.Handler)
		case r.QueryHandler != nil:
			_, err = e.RegisterAuto(ensureQuerySuffix(r.Pattern), r.QueryHandler)
		}
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// MustRegisterAll is RegisterAll, panicking if any registration failed.
// Intended for program startup, where a malformed pattern is a coding
// error rather than a runtime condition.
func (e *Engine) MustRegisterAll(regs []Registration) {
	if err := e.RegisterAll(regs); err != nil {
		panic(err)
	}
}

func ensureQuerySuffix(pattern string) string {
	if strings.HasSuffix(pattern, "?") {
		return pattern
	}
	return pattern + "?"
}
