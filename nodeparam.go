package scpi

import (
	"math"
	"strconv"
	"strings"
)

// NodeParamConstraint bounds the numeric suffix a pattern node's parameter
// may capture, and whether the suffix may be omitted entirely.
type NodeParamConstraint struct {
	MinValue     int32
	MaxValue     int32
	Required     bool
	DefaultValue int32
}

// DefaultNodeParamConstraint matches a required suffix of 1 or greater,
// defaulting to 1 if ever treated as optional.
func DefaultNodeParamConstraint() NodeParamConstraint {
	return NodeParamConstraint{MinValue: 1, MaxValue: math.MaxInt32, Required: true, DefaultValue: 1}
}

// NewRangeConstraint restricts a required numeric suffix to [min, max].
func NewRangeConstraint(min, max int32) NodeParamConstraint {
	c := DefaultNodeParamConstraint()
	c.MinValue = min
	c.MaxValue = max
	return c
}

// NewOptionalConstraint allows the numeric suffix to be omitted, using
// defaultVal when it is.
func NewOptionalConstraint(defaultVal int32) NodeParamConstraint {
	c := DefaultNodeParamConstraint()
	c.Required = false
	c.DefaultValue = defaultVal
	return c
}

// NewOptionalRangeConstraint combines a range restriction with an optional
// suffix and its default.
func NewOptionalRangeConstraint(min, max, defaultVal int32) NodeParamConstraint {
	c := DefaultNodeParamConstraint()
	c.MinValue = min
	c.MaxValue = max
	c.Required = false
	c.DefaultValue = defaultVal
	return c
}

// Validate reports whether value satisfies the constraint's range.
func (c NodeParamConstraint) Validate(value int32) bool {
	return value >= c.MinValue && value <= c.MaxValue
}

// NodeParamDef is a pattern node's parameter definition, captured at
// registration time.
type NodeParamDef struct {
	Name       string
	Constraint NodeParamConstraint
}

func (d NodeParamDef) HasParam() bool { return d.Name != "" }

// NodeParamEntry is one resolved node-parameter value, captured while
// walking a concrete command path against the tree.
type NodeParamEntry struct {
	ParamName     string
	NodeShortName string
	NodeLongName  string
	Value         int32
}

// NodeParamValues collects every node-parameter captured while resolving one
// command path, indexed by parameter name, node name, and position.
type NodeParamValues struct {
	entries    []NodeParamEntry
	byParam    map[string]int
	byNodeName map[string]int
}

func (v *NodeParamValues) ensureMaps() {
	if v.byParam == nil {
		v.byParam = make(map[string]int)
	}
	if v.byNodeName == nil {
		v.byNodeName = make(map[string]int)
	}
}

// Add records a node parameter under its own name for both param and node
// lookup.
func (v *NodeParamValues) Add(paramName string, value int32) {
	v.AddNamed(paramName, paramName, paramName, value)
}

// AddNamed records a node parameter with distinct parameter and node names.
func (v *NodeParamValues) AddNamed(paramName, nodeShortName, nodeLongName string, value int32) {
	v.ensureMaps()
	entry := NodeParamEntry{ParamName: paramName, NodeShortName: nodeShortName, NodeLongName: nodeLongName, Value: value}
	v.entries = append(v.entries, entry)
	idx := len(v.entries) - 1

	v.byParam[strings.ToUpper(paramName)] = idx
	upperShort := strings.ToUpper(nodeShortName)
	v.byNodeName[upperShort] = idx
	if upperLong := strings.ToUpper(nodeLongName); upperLong != upperShort {
		v.byNodeName[upperLong] = idx
	}
}

// Get returns the value registered under paramName, or def if absent.
func (v *NodeParamValues) Get(paramName string, def int32) int32 {
	if idx, ok := v.byParam[strings.ToUpper(paramName)]; ok {
		return v.entries[idx].Value
	}
	return def
}

// GetAt returns the value at positional index (in capture order), or def.
func (v *NodeParamValues) GetAt(index int, def int32) int32 {
	if index < 0 || index >= len(v.entries) {
		return def
	}
	return v.entries[index].Value
}

// GetByNodeName returns the value captured at the node named nodeName
// (short or long form), or def.
func (v *NodeParamValues) GetByNodeName(nodeName string, def int32) int32 {
	if idx, ok := v.byNodeName[strings.ToUpper(nodeName)]; ok {
		return v.entries[idx].Value
	}
	return def
}

func (v *NodeParamValues) Has(paramName string) bool {
	_, ok := v.byParam[strings.ToUpper(paramName)]
	return ok
}

func (v *NodeParamValues) HasNode(nodeName string) bool {
	_, ok := v.byNodeName[strings.ToUpper(nodeName)]
	return ok
}

func (v *NodeParamValues) Count() int   { return len(v.entries) }
func (v *NodeParamValues) Empty() bool  { return len(v.entries) == 0 }
func (v *NodeParamValues) Entries() []NodeParamEntry { return v.entries }

func (v *NodeParamValues) At(index int) (NodeParamEntry, bool) {
	if index < 0 || index >= len(v.entries) {
		return NodeParamEntry{}, false
	}
	return v.entries[index], true
}

func (v *NodeParamValues) Clear() {
	v.entries = nil
	v.byParam = nil
	v.byNodeName = nil
}

// Dump renders a one-line debug form of every captured node parameter.
func (v *NodeParamValues) Dump() string {
	var b strings.Builder
	b.WriteString("NodeParams[")
	for i, e := range v.entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.ParamName)
		b.WriteByte('(')
		b.WriteString(e.NodeShortName)
		b.WriteString(")=")
		b.WriteString(strconv.Itoa(int(e.Value)))
	}
	b.WriteByte(']')
	return b.String()
}
