package scpi

import (
	"fmt"
	"strings"
)

// CommandHandler executes one matched command or query. It returns
// ErrNoError on success, or a standard SCPI error code to push to the
// context's error queue.
type CommandHandler func(ctx *Context) int

// CommandNode is one level of the registered command tree. A node may carry
// a numeric-suffix parameter definition (e.g. "MEAS2" binds suffix 2 to a
// node-parameter named in ParamDef), and set and/or query handlers.
type CommandNode struct {
	shortName string
	longName  string
	paramDef  NodeParamDef

	isOptional bool

	handler      CommandHandler
	queryHandler CommandHandler

	children map[string]*CommandNode
}

func newCommandNode(shortName, longName string, paramDef NodeParamDef) *CommandNode {
	return &CommandNode{
		shortName: shortName,
		longName:  longName,
		paramDef:  paramDef,
		children:  make(map[string]*CommandNode),
	}
}

func (n *CommandNode) ShortName() string          { return n.shortName }
func (n *CommandNode) LongName() string           { return n.longName }
func (n *CommandNode) HasParam() bool             { return n.paramDef.HasParam() }
func (n *CommandNode) ParamName() string          { return n.paramDef.Name }
func (n *CommandNode) Constraint() NodeParamConstraint { return n.paramDef.Constraint }
func (n *CommandNode) IsOptional() bool           { return n.isOptional }
func (n *CommandNode) SetOptional(v bool)         { n.isOptional = v }
func (n *CommandNode) Handler() CommandHandler      { return n.handler }
func (n *CommandNode) QueryHandler() CommandHandler { return n.queryHandler }
func (n *CommandNode) SetHandler(h CommandHandler)      { n.handler = h }
func (n *CommandNode) SetQueryHandler(h CommandHandler) { n.queryHandler = h }
func (n *CommandNode) Children() map[string]*CommandNode { return n.children }

// addChild creates (or replaces) a child keyed by its upper-cased short name.
func (n *CommandNode) addChild(shortName, longName string, paramDef NodeParamDef) *CommandNode {
	child := newCommandNode(shortName, longName, paramDef)
	n.children[strings.ToUpper(shortName)] = child
	return child
}

// matchName reports whether input equals shortName, equals longName, or is
// a prefix of longName at least as long as shortName — SCPI's short/long
// mnemonic matching rule.
func matchName(input, shortName, longName string) bool {
	upperInput := strings.ToUpper(input)
	upperShort := strings.ToUpper(shortName)
	upperLong := strings.ToUpper(longName)

	if upperInput == upperShort || upperInput == upperLong {
		return true
	}

	if len(upperInput) >= len(upperShort) && len(upperInput) <= len(upperLong) {
		if strings.HasPrefix(upperLong, upperInput) {
			return true
		}
	}

	return false
}

// findChildBySuffix searches children for one matching baseName whose
// numeric-suffix requirement is satisfied by (suffix, hasSuffix), returning
// the resolved suffix value actually bound (the parsed suffix, or the
// node's default when the node's parameter is optional and none was given).
func (n *CommandNode) findChildBySuffix(baseName string, suffix int32, hasSuffix bool) (*CommandNode, int32, bool) {
	upperBase := strings.ToUpper(baseName)

	for _, child := range n.children {
		if !matchName(upperBase, child.shortName, child.longName) {
			continue
		}

		if child.HasParam() {
			if hasSuffix {
				if child.Constraint().Validate(suffix) {
					return child, suffix, true
				}
				continue
			}
			if !child.Constraint().Required {
				return child, child.Constraint().DefaultValue, true
			}
			continue
		}

		if !hasSuffix {
			return child, 0, true
		}
	}

	return nil, 0, false
}

// FindChild splits fullName's trailing numeric suffix and looks up a
// matching child, returning the resolved suffix value if the match bound
// one.
func (n *CommandNode) FindChild(fullName string) (*CommandNode, int32, bool) {
	baseName, suffix, hasSuffix := splitNumericSuffix(fullName)
	return n.findChildBySuffix(baseName, suffix, hasSuffix)
}

// CommandTree holds the full registered command hierarchy plus the separate
// table of IEEE-488.2 common ("*"-prefixed) commands.
type CommandTree struct {
	root           *CommandNode
	commonCommands map[string]commonEntry
	lastError      string
}

type commonEntry struct {
	handler      CommandHandler
	queryHandler CommandHandler
}

// NewCommandTree creates an empty tree whose root node is named "ROOT".
func NewCommandTree() *CommandTree {
	return &CommandTree{
		root:           newCommandNode("ROOT", "ROOT", NodeParamDef{}),
		commonCommands: make(map[string]commonEntry),
	}
}

func (t *CommandTree) Root() *CommandNode  { return t.root }
func (t *CommandTree) LastError() string   { return t.lastError }

func (t *CommandTree) setError(msg string) error {
	t.lastError = msg
	return fmt.Errorf("scpi: %s", msg)
}

// findTrailingOptionalStart returns the index of the first node, from the
// end, in an unbroken run of optional nodes — len(nodes) if the pattern has
// no trailing optional nodes at all.
func findTrailingOptionalStart(nodes []PatternNode) int {
	optionalStart := len(nodes)
	for i := len(nodes); i > 0; i-- {
		if nodes[i-1].IsOptional {
			optionalStart = i - 1
		} else {
			break
		}
	}
	return optionalStart
}

// setHandlersForOptionalChain binds handler at every path length reachable
// by omitting some suffix of the trailing optional-node chain, so a pattern
// like "A:B[:C][:D]" registers at "A:B", "A:B:C", and "A:B:C:D".
func (t *CommandTree) setHandlersForOptionalChain(nodes []PatternNode, optionalStart int, handler CommandHandler, isQuery bool) {
	start := optionalStart
	if start < 1 {
		start = 1
	}

	for i := start; i <= len(nodes); i++ {
		node, err := t.ensurePath(nodes[:i])
		if err != nil || node == nil {
			continue
		}
		if isQuery {
			node.SetQueryHandler(handler)
		} else {
			node.SetHandler(handler)
		}
	}
}

// ensurePath walks from the root creating any missing nodes for each
// pattern node in sequence, returning the final (leaf) node.
func (t *CommandTree) ensurePath(nodes []PatternNode) (*CommandNode, error) {
	if len(nodes) == 0 {
		return nil, t.setError("empty node list")
	}

	current := t.root
	for _, pn := range nodes {
		key := strings.ToUpper(pn.ShortName)
		child, ok := current.children[key]
		if ok {
			if pn.IsOptional {
				child.SetOptional(true)
			}
		} else {
			child = current.addChild(pn.ShortName, pn.LongName, pn.ParamDef())
			child.SetOptional(pn.IsOptional)
		}
		current = child
	}

	return current, nil
}

// RegisterCommand registers a set (non-query) handler under pattern. A
// trailing run of optional nodes is registered at every reachable path
// length, not only the full pattern.
func (t *CommandTree) RegisterCommand(pattern string, handler CommandHandler) (*CommandNode, error) {
	nodes, _, err := ParsePattern(pattern)
	if err != nil {
		t.lastError = err.Error()
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, t.setError("empty node list")
	}

	leaf, err := t.ensurePath(nodes)
	if err != nil {
		return nil, err
	}

	if optionalStart := findTrailingOptionalStart(nodes); optionalStart < len(nodes) {
		t.setHandlersForOptionalChain(nodes, optionalStart, handler, false)
	} else {
		leaf.SetHandler(handler)
	}

	return leaf, nil
}

// RegisterQuery registers a query handler under pattern, appending '?' if
// the caller omitted it.
func (t *CommandTree) RegisterQuery(pattern string, handler CommandHandler) (*CommandNode, error) {
	pat := pattern
	if !strings.HasSuffix(pat, "?") {
		pat += "?"
	}

	nodes, _, err := ParsePattern(pat)
	if err != nil {
		t.lastError = err.Error()
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, t.setError("empty node list")
	}

	leaf, err := t.ensurePath(nodes)
	if err != nil {
		return nil, err
	}

	if optionalStart := findTrailingOptionalStart(nodes); optionalStart < len(nodes) {
		t.setHandlersForOptionalChain(nodes, optionalStart, handler, true)
	} else {
		leaf.SetQueryHandler(handler)
	}

	return leaf, nil
}

// RegisterBoth registers both a set and a query handler under the same
// pattern (stripping a trailing '?' if present).
func (t *CommandTree) RegisterBoth(pattern string, setHandler, queryHandler CommandHandler) (*CommandNode, error) {
	pat := strings.TrimSuffix(pattern, "?")

	nodes, _, err := ParsePattern(pat)
	if err != nil {
		t.lastError = err.Error()
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, t.setError("empty node list")
	}

	leaf, err := t.ensurePath(nodes)
	if err != nil {
		return nil, err
	}

	if optionalStart := findTrailingOptionalStart(nodes); optionalStart < len(nodes) {
		t.setHandlersForOptionalChain(nodes, optionalStart, setHandler, false)
		t.setHandlersForOptionalChain(nodes, optionalStart, queryHandler, true)
	} else {
		leaf.SetHandler(setHandler)
		leaf.SetQueryHandler(queryHandler)
	}

	return leaf, nil
}

func normalizeCommonName(name string) string {
	result := strings.ToUpper(name)
	if !strings.HasPrefix(result, "*") {
		result = "*" + result
	}
	return result
}

// RegisterCommonCommand registers a handler for an IEEE-488.2 common
// command (e.g. "*IDN?"). The trailing '?', if present, routes to the
// query slot; otherwise the set slot.
func (t *CommandTree) RegisterCommonCommand(name string, handler CommandHandler) {
	isQuery := strings.HasSuffix(name, "?")
	base := strings.TrimSuffix(name, "?")
	key := normalizeCommonName(base)

	entry := t.commonCommands[key]
	if isQuery {
		entry.queryHandler = handler
	} else {
		entry.handler = handler
	}
	t.commonCommands[key] = entry
}

// FindCommonCommand looks up the handler (set or query slot, per the name's
// trailing '?') registered for a common command name.
func (t *CommandTree) FindCommonCommand(name string) (CommandHandler, bool) {
	isQuery := strings.HasSuffix(name, "?")
	base := strings.TrimSuffix(name, "?")
	key := normalizeCommonName(base)

	entry, ok := t.commonCommands[key]
	if !ok {
		return nil, false
	}
	if isQuery {
		if entry.queryHandler == nil {
			return nil, false
		}
		return entry.queryHandler, true
	}
	if entry.handler == nil {
		return nil, false
	}
	return entry.handler, true
}

// HasCommonCommand reports whether any handler is registered for name.
func (t *CommandTree) HasCommonCommand(name string) bool {
	_, ok := t.FindCommonCommand(name)
	return ok
}

// FindNode walks path (a sequence of raw, possibly numeric-suffixed names)
// from the root, recording any bound node-parameters into nodeParams if
// non-nil. It returns nil if any step fails to match.
func (t *CommandTree) FindNode(path []string, nodeParams *NodeParamValues) *CommandNode {
	if len(path) == 0 {
		return nil
	}

	current := t.root
	for _, name := range path {
		child, value, ok := current.FindChild(name)
		if !ok {
			return nil
		}

		if nodeParams != nil && child.HasParam() {
			nodeParams.AddNamed(child.ParamName(), child.ShortName(), child.LongName(), value)
		}

		current = child
	}

	return current
}
