package scpi

import "strings"

// maxResolveDepth bounds the path resolver's DFS recursion, guarding
// against pathological optional-node chains.
const maxResolveDepth = 32

// PathContext tracks which node a relative (non-absolute) command header
// should resolve from — as set by the engine after each command, the parent
// of the last node the previous command in the same line consumed, per
// SCPI's semicolon-continuation rule. A nil CurrentNode
// means the root.
type PathContext struct {
	currentNode *CommandNode
}

func (c *PathContext) Reset() { c.currentNode = nil }

func (c *PathContext) SetCurrent(node *CommandNode) { c.currentNode = node }

func (c *PathContext) CurrentNode() *CommandNode { return c.currentNode }

func (c *PathContext) DebugString() string {
	if c.currentNode == nil {
		return "ROOT"
	}
	return c.currentNode.pathDescription()
}

// pathDescription renders a short debug form of a node, e.g. "MEAS(MEASure)<ch>".
func (n *CommandNode) pathDescription() string {
	result := n.shortName
	if n.shortName != n.longName {
		result += "(" + n.longName + ")"
	}
	if n.HasParam() {
		result += "<" + n.ParamName() + ">"
	}
	return result
}

// ResolveResult is the outcome of matching one ParsedCommand's header
// against a CommandTree.
type ResolveResult struct {
	Success bool

	Node         *CommandNode
	MatchedPath  []*CommandNode
	ConsumedPath []*CommandNode
	NodeParams   NodeParamValues

	IsCommon      bool
	CommonHandler CommandHandler

	ErrorCode    int
	ErrorMessage string
}

// PathResolver maps a ParsedCommand's path onto a CommandTree's nodes,
// threading through any optional ("epsilon") nodes along the way.
type PathResolver struct {
	tree     *CommandTree
	maxDepth int
}

func NewPathResolver(tree *CommandTree) *PathResolver {
	return &PathResolver{tree: tree, maxDepth: maxResolveDepth}
}

// SetMaxResolveDepth overrides the DFS recursion depth cap.
func (r *PathResolver) SetMaxResolveDepth(n int) { r.maxDepth = n }

func buildCommonName(cmd ParsedCommand) string {
	name := "*"
	if len(cmd.Path) > 0 {
		name += strings.ToUpper(cmd.Path[0].Name)
	}
	if cmd.IsQuery {
		name += "?"
	}
	return name
}

// Resolve matches cmd's header against the tree, starting from ctx's
// current node for relative paths (or the root, for absolute paths or when
// ctx has none set).
func (r *PathResolver) Resolve(cmd ParsedCommand, ctx *PathContext) ResolveResult {
	var rr ResolveResult

	if len(cmd.Path) == 0 {
		rr.ErrorCode = ErrSyntaxError
		rr.ErrorMessage = "empty command header"
		return rr
	}

	if cmd.IsCommon {
		rr.IsCommon = true
		commonName := buildCommonName(cmd)
		handler, ok := r.tree.FindCommonCommand(commonName)
		if !ok {
			rr.ErrorCode = ErrUndefinedHeader
			rr.ErrorMessage = "unknown common command: " + commonName
			return rr
		}
		rr.CommonHandler = handler
		rr.Success = true
		return rr
	}

	start := r.tree.root
	if !cmd.IsAbsolute && ctx != nil && ctx.currentNode != nil {
		start = ctx.currentNode
	}

	visited := make(map[resolveStateKey]bool)
	ok := r.dfsResolve(start, cmd.Path, 0, NodeParamValues{}, nil, nil, visited, &rr, 0)
	if !ok {
		if rr.ErrorCode == ErrNoError {
			rr.ErrorCode = ErrUndefinedHeader
			rr.ErrorMessage = "undefined header"
		}
		return rr
	}

	rr.Success = true
	return rr
}

type resolveStateKey struct {
	node  *CommandNode
	index int
}

// dfsResolve explores, at each step, every optional ("epsilon") child
// before attempting to consume the next path element — so a shorter
// optional chain is preferred the instant it lets the remaining path match,
// mirroring the original's depth-first, try-epsilon-first search order.
func (r *PathResolver) dfsResolve(
	current *CommandNode,
	path []PathNode,
	index int,
	nodeParams NodeParamValues,
	matchedPath []*CommandNode,
	consumedPath []*CommandNode,
	visited map[resolveStateKey]bool,
	out *ResolveResult,
	depth int,
) bool {
	if depth > r.maxDepth {
		return false
	}

	key := resolveStateKey{current, index}
	if visited[key] {
		return false
	}
	visited[key] = true

	if index >= len(path) {
		out.Node = current
		out.MatchedPath = matchedPath
		out.ConsumedPath = consumedPath
		out.NodeParams = nodeParams
		return true
	}

	for _, child := range current.children {
		if !child.isOptional {
			continue
		}
		mp := append(append([]*CommandNode{}, matchedPath...), child)
		if r.dfsResolve(child, path, index, cloneNodeParams(nodeParams), mp, consumedPath, visited, out, depth+1) {
			return true
		}
	}

	pn := path[index]
	next, extracted, ok := current.findChildBySuffix(pn.Name, pn.Suffix, pn.HasSuffix)
	if ok {
		mp := append(append([]*CommandNode{}, matchedPath...), next)
		cp := append(append([]*CommandNode{}, consumedPath...), next)

		np := cloneNodeParams(nodeParams)
		if next.HasParam() {
			np.AddNamed(next.ParamName(), next.ShortName(), next.LongName(), extracted)
		}

		if r.dfsResolve(next, path, index+1, np, mp, cp, visited, out, depth+1) {
			return true
		}
	}

	out.ErrorCode = ErrUndefinedHeader
	out.ErrorMessage = "undefined header near: " + pn.String()
	return false
}

// cloneNodeParams copies a NodeParamValues by value semantics, since each
// DFS branch must carry its own independent capture set.
func cloneNodeParams(v NodeParamValues) NodeParamValues {
	var out NodeParamValues
	for _, e := range v.entries {
		out.AddNamed(e.ParamName, e.NodeShortName, e.NodeLongName, e.Value)
	}
	return out
}
