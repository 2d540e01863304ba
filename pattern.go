package scpi

import (
	"fmt"
	"strconv"
	"strings"
)

// PatternNode is one colon-separated level of a registration pattern such as
// ":MEASure<ch>:VOLTage[:DC]?".
type PatternNode struct {
	ShortName  string
	LongName   string
	ParamName  string
	Constraint NodeParamConstraint
	IsOptional bool
	HasParam   bool
}

// ParamDef returns this node's NodeParamDef, or the zero value if the node
// carries no parameter.
func (n PatternNode) ParamDef() NodeParamDef {
	if !n.HasParam {
		return NodeParamDef{}
	}
	return NodeParamDef{Name: n.ParamName, Constraint: n.Constraint}
}

// ParsePattern parses a registration pattern into its colon-separated
// nodes, reporting whether the pattern ends in '?'.
//
// Supported syntax:
//
//	:MEASure:VOLTage[:DC]?        plain, with an optional trailing node
//	:MEASure<ch>:VOLTage[:DC]?    a named numeric-suffix parameter
//	:MEASure#:VOLTage[:DC]?       an anonymous parameter (auto-named _1, _2, ...)
//	:MEASure<ch:1-16>:VOLTage?    a range-constrained parameter
//	:MEASure[<ch>]:VOLTage?       an optional node carrying a parameter
func ParsePattern(pattern string) (nodes []PatternNode, isQuery bool, err error) {
	if pattern == "" {
		return nil, false, fmt.Errorf("scpi: empty pattern")
	}

	pat := pattern
	if strings.HasSuffix(pat, "?") {
		isQuery = true
		pat = pat[:len(pat)-1]
	}

	start := 0
	if strings.HasPrefix(pat, ":") {
		start = 1
	}

	parts, err := splitPatternParts(pat[start:])
	if err != nil {
		return nil, false, err
	}
	if len(parts) == 0 {
		return nil, false, fmt.Errorf("scpi: no command nodes found in pattern %q", pattern)
	}

	autoIndex := 1
	nodes = make([]PatternNode, 0, len(parts))
	for _, p := range parts {
		node, err := parsePatternNode(p, &autoIndex)
		if err != nil {
			return nil, false, err
		}
		nodes = append(nodes, node)
	}

	return nodes, isQuery, nil
}

// splitPatternParts splits pat on ':', except inside '[...]' or '<...>'
// nesting, and rewrites a leading "[:X]" optional-colon form into "[X]" as
// its own part.
func splitPatternParts(pat string) ([]string, error) {
	var parts []string
	var current strings.Builder
	bracketDepth := 0
	angleDepth := 0

	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}

	for i := 0; i < len(pat); i++ {
		c := pat[i]

		switch {
		case c == '[' && i+1 < len(pat) && pat[i+1] == ':':
			flush()
			current.WriteByte('[')
			i += 2
			for i < len(pat) && pat[i] != ']' {
				if pat[i] == '<' {
					angleDepth++
				} else if pat[i] == '>' {
					angleDepth--
				}
				current.WriteByte(pat[i])
				i++
			}
			if i < len(pat) && pat[i] == ']' {
				current.WriteByte(']')
			}
			flush()

		case c == '[':
			bracketDepth++
			current.WriteByte(c)

		case c == ']':
			if bracketDepth > 0 {
				bracketDepth--
			}
			current.WriteByte(c)

		case c == '<':
			angleDepth++
			current.WriteByte(c)

		case c == '>':
			angleDepth--
			current.WriteByte(c)

		case c == ':' && bracketDepth == 0 && angleDepth == 0:
			flush()

		default:
			current.WriteByte(c)
		}
	}
	flush()

	if bracketDepth != 0 {
		return nil, fmt.Errorf("scpi: unmatched '[]' in pattern")
	}
	if angleDepth != 0 {
		return nil, fmt.Errorf("scpi: unmatched '<>' in pattern")
	}

	return parts, nil
}

func parsePatternNode(nodeStr string, autoIndex *int) (PatternNode, error) {
	var node PatternNode
	str := nodeStr

	if strings.HasPrefix(str, "[") {
		if !strings.HasSuffix(str, "]") {
			return node, fmt.Errorf("scpi: unmatched '[' in pattern node %q", nodeStr)
		}
		node.IsOptional = true
		str = str[1 : len(str)-1]
	} else if i := strings.Index(str, "[<"); i > 0 && strings.HasSuffix(str, ">]") {
		// "NAME[<param>]" is the same optional node as "[NAME<param>]".
		node.IsOptional = true
		str = str[:i] + str[i+1:len(str)-1]
	}

	if str == "" {
		return node, fmt.Errorf("scpi: empty node after removing brackets")
	}

	paramStart := strings.IndexByte(str, '<')
	hashPos := strings.IndexByte(str, '#')

	switch {
	case paramStart >= 0:
		paramEnd := strings.IndexByte(str[paramStart:], '>')
		if paramEnd < 0 {
			return node, fmt.Errorf("scpi: missing '>' in parameter definition %q", nodeStr)
		}
		paramEnd += paramStart

		baseName := str[:paramStart]
		paramDef := str[paramStart+1 : paramEnd]

		if paramEnd+1 < len(str) {
			return node, fmt.Errorf("scpi: unexpected characters after parameter definition %q", nodeStr)
		}

		node.LongName = baseName
		node.ShortName = extractShortName(baseName)
		node.HasParam = true

		name, constraint, err := parseParamDef(paramDef, autoIndex)
		if err != nil {
			return node, err
		}
		node.ParamName = name
		node.Constraint = constraint

	case hashPos >= 0:
		if hashPos+1 != len(str) {
			return node, fmt.Errorf("scpi: unexpected characters after '#' in %q", nodeStr)
		}
		baseName := str[:hashPos]
		node.LongName = baseName
		node.ShortName = extractShortName(baseName)
		node.HasParam = true
		node.ParamName = "_" + strconv.Itoa(*autoIndex)
		node.Constraint = DefaultNodeParamConstraint()
		*autoIndex++

	default:
		node.LongName = str
		node.ShortName = extractShortName(str)
		node.HasParam = false
	}

	if node.LongName == "" {
		return node, fmt.Errorf("scpi: empty node name")
	}

	return node, nil
}

func parseParamDef(paramStr string, autoIndex *int) (string, NodeParamConstraint, error) {
	constraint := DefaultNodeParamConstraint()

	if paramStr == "" {
		name := "_" + strconv.Itoa(*autoIndex)
		*autoIndex++
		return name, constraint, nil
	}

	var name string
	if colonPos := strings.IndexByte(paramStr, ':'); colonPos >= 0 {
		name = paramStr[:colonPos]
		rangeStr := paramStr[colonPos+1:]

		dashPos := strings.IndexByte(rangeStr, '-')
		if dashPos < 0 {
			return "", constraint, fmt.Errorf("scpi: invalid range format, expected 'min-max': %q", rangeStr)
		}

		minVal, errMin := strconv.Atoi(rangeStr[:dashPos])
		maxVal, errMax := strconv.Atoi(rangeStr[dashPos+1:])
		if errMin != nil || errMax != nil {
			return "", constraint, fmt.Errorf("scpi: invalid range specification: %q", rangeStr)
		}
		if minVal > maxVal {
			return "", constraint, fmt.Errorf("scpi: invalid range: min > max in %q", rangeStr)
		}

		constraint.MinValue = int32(minVal)
		constraint.MaxValue = int32(maxVal)
	} else {
		name = paramStr
	}

	if name == "" {
		name = "_" + strconv.Itoa(*autoIndex)
		*autoIndex++
	}

	return name, constraint, nil
}

// extractShortName keeps only the upper-case letters of name (SCPI's
// short-mnemonic convention, e.g. "MEASure" -> "MEAS"), falling back to the
// whole name upper-cased if it carries no upper-case letters at all.
func extractShortName(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			b.WriteByte(c)
		}
	}
	if b.Len() == 0 {
		return strings.ToUpper(name)
	}
	return b.String()
}

// IsValidPattern reports whether pattern parses without error.
func IsValidPattern(pattern string) bool {
	_, _, err := ParsePattern(pattern)
	return err == nil
}
