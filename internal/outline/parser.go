package outline

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const utf8BOM = "\xef\xbb\xbf"

var (
	listItemRE = regexp.MustCompile(`^([ \t]*)([-*+]|\d+[.)])\s+(.+)`)
	headingRE  = regexp.MustCompile(`^ {0,3}(#{1,6})\s+(.+?)\s*#*\s*$`)
	itemLinkRE = regexp.MustCompile(`^\[([^\]]*)\]\(([^)]*)\)`)
)

// StructuralParseError indicates the outline cannot be turned into any
// tree. It is the only fatal parser failure; every other irregularity is
// captured as a node status for later reporting.
type StructuralParseError struct {
	Line    int
	Message string
}

func (e *StructuralParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("outline line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("outline: %s", e.Message)
}

// Parse parses outline source text into a Tree.
//
// Dialect: list items become chapter nodes, nesting by indentation; a
// "[Title](path)" item references a content document; "[Title]()" and
// bare-text items are placeholders; a bare heading outside any list is a
// section divider. Fenced code blocks are skipped. Entries are never
// silently dropped.
func Parse(src []byte) (*Tree, error) {
	if !utf8.Valid(src) {
		return nil, &StructuralParseError{Message: "outline is not valid UTF-8"}
	}
	src = bytes.TrimPrefix(src, []byte(utf8BOM))

	tree := NewTree()

	// The indent stack holds the chain of open list levels; the sentinel
	// keeps root entries parented to InvalidNode.
	type stackEntry struct {
		indent int
		node   NodeID
	}
	stack := []stackEntry{{indent: -1, node: InvalidNode}}
	resetStack := func() { stack = stack[:1] }

	inFence := false
	fenceMarker := ""

	for i, line := range splitLines(src) {
		lineNum := i + 1

		if !inFence {
			if marker := openFenceMarker(line); marker != "" {
				inFence, fenceMarker = true, marker
				continue
			}
		} else {
			if strings.HasPrefix(strings.TrimLeft(line, " \t"), fenceMarker) {
				inFence, fenceMarker = false, ""
			}
			continue
		}

		if m := headingRE.FindStringSubmatch(line); m != nil {
			// A heading closes any open list and groups nothing by itself.
			resetStack()
			tree.Add(InvalidNode, Node{
				Kind:  KindDivider,
				Title: strings.TrimSpace(m[2]),
				Line:  lineNum,
			})
			continue
		}

		m := listItemRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		indent := indentWidth(m[1])
		content := strings.TrimSpace(m[3])

		node := parseItem(content)
		node.Line = lineNum

		// Find the parent level. Popping past the target indent without
		// hitting an equal level means the item dedents to a column that
		// was never opened, so no depth can be assigned.
		popped := false
		for len(stack) > 1 && stack[len(stack)-1].indent > indent {
			stack = stack[:len(stack)-1]
			popped = true
		}
		top := stack[len(stack)-1]
		switch {
		case top.indent == indent:
			// Sibling of the current top.
			stack = stack[:len(stack)-1]
		case popped:
			return nil, &StructuralParseError{
				Line:    lineNum,
				Message: fmt.Sprintf("list item indented %d column(s) matches no open list level", indent),
			}
		}

		parent := stack[len(stack)-1].node
		id := tree.Add(parent, node)
		stack = append(stack, stackEntry{indent: indent, node: id})
	}

	return tree, nil
}

// parseItem classifies one list item's content.
func parseItem(content string) Node {
	m := itemLinkRE.FindStringSubmatch(content)
	if m == nil {
		// Bare text, declared with no link at all.
		return Node{
			Kind:   KindChapter,
			Status: StatusPlaceholder,
			Title:  fallbackTitle(content, ""),
		}
	}

	title := strings.TrimSpace(m[1])
	target := firstField(m[2])

	switch {
	case target == "":
		return Node{
			Kind:   KindChapter,
			Status: StatusPlaceholder,
			Title:  fallbackTitle(title, ""),
		}
	case strings.HasPrefix(target, "#"):
		return Node{
			Kind:   KindChapter,
			Status: StatusEmptyTarget,
			Title:  fallbackTitle(title, ""),
			Anchor: strings.TrimPrefix(target, "#"),
		}
	default:
		ref, anchor := splitAnchor(target)
		return Node{
			Kind:   KindChapter,
			Title:  fallbackTitle(title, ref),
			Ref:    ref,
			Anchor: anchor,
		}
	}
}

// fallbackTitle guarantees the non-empty title every node carries.
func fallbackTitle(title, ref string) string {
	if title != "" {
		return title
	}
	if stem := stemFromPath(ref); stem != "" {
		return stem
	}
	return "(untitled)"
}

// firstField returns the first whitespace-separated field of the link
// target, dropping an optional quoted tooltip.
func firstField(inner string) string {
	fields := strings.Fields(inner)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// splitAnchor separates a trailing #fragment from a target path.
func splitAnchor(target string) (ref, anchor string) {
	if idx := strings.Index(target, "#"); idx >= 0 {
		return target[:idx], target[idx+1:]
	}
	return target, ""
}

// stemFromPath returns the filename stem (basename without last extension).
func stemFromPath(p string) string {
	if idx := strings.LastIndex(p, "/"); idx >= 0 {
		p = p[idx+1:]
	}
	if idx := strings.LastIndex(p, "."); idx >= 0 {
		p = p[:idx]
	}
	return p
}

// indentWidth measures leading whitespace, counting a tab as four columns.
func indentWidth(ws string) int {
	n := 0
	for _, c := range ws {
		if c == '\t' {
			n += 4
		} else {
			n++
		}
	}
	return n
}

// openFenceMarker returns the fence marker if line opens a fenced code
// block, or "" otherwise.
func openFenceMarker(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "```") {
		return "```"
	}
	if strings.HasPrefix(trimmed, "~~~") {
		return "~~~"
	}
	return ""
}

// splitLines splits src into lines without their endings. A trailing
// newline does not produce an extra empty line.
func splitLines(src []byte) []string {
	if len(src) == 0 {
		return nil
	}
	lines := strings.Split(string(src), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
