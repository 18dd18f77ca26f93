// ABOUTME: Layout helpers that keep inserted and removed markup consistent with surrounding indentation.
// ABOUTME: Works purely on byte offsets from the scanner; never reformats untouched lines.
package patch

import (
	"strconv"
	"strings"

	"github.com/2389-research/pipeflow/flow"
)

const defaultIndentUnit = "\t"

func lineStart(text string, offset int) int {
	return strings.LastIndexByte(text[:offset], '\n') + 1
}

// lineEnd returns the offset of the newline ending offset's line, or len(text).
func lineEnd(text string, offset int) int {
	if i := strings.IndexByte(text[offset:], '\n'); i >= 0 {
		return offset + i
	}
	return len(text)
}

func isBlank(s string) bool {
	return strings.TrimLeft(s, " \t\r\n") == ""
}

func lineBreak(text string) string {
	if strings.Contains(text, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

// ownsLine reports whether el starts its line after nothing but whitespace.
func ownsLine(text string, el *flow.Element) bool {
	return isBlank(text[lineStart(text, el.Range.Start):el.Range.Start])
}

// indentOf returns the leading whitespace of el's start line.
func indentOf(text string, el *flow.Element) string {
	ls := lineStart(text, el.StartTag.Start)
	line := text[ls:el.StartTag.Start]
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// childIndent picks the indentation for a new child of parent: that of its
// last child on its own line, else parent's indent plus one unit.
func childIndent(text string, parent *flow.Element) string {
	for i := len(parent.Children) - 1; i >= 0; i-- {
		if c := parent.Children[i]; ownsLine(text, c) {
			return indentOf(text, c)
		}
	}
	return indentOf(text, parent) + indentUnit(text, parent)
}

func indentUnit(text string, el *flow.Element) string {
	indent := indentOf(text, el)
	if strings.Contains(indent, "\t") {
		return "\t"
	}
	if up := el.Parent; up != nil && up.Name != "" {
		outer := indentOf(text, up)
		if len(indent) > len(outer) && strings.HasPrefix(indent, outer) {
			return indent[len(outer):]
		}
	}
	if strings.Contains(text, "\n  ") && !strings.Contains(text, "\n\t") {
		return "  "
	}
	return defaultIndentUnit
}

// insertChild adds markup as the last child of parent, or just before the
// child element before when it is non-nil. A self-closing parent is expanded
// into a start and end tag pair.
func insertChild(text string, parent *flow.Element, markup string, before *flow.Element) Edit {
	nl := lineBreak(text)
	indent := indentOf(text, parent)

	if parent.SelfClosing {
		return Edit{
			Start: parent.AttrsEnd,
			End:   parent.StartTag.End,
			Text:  ">" + nl + childIndent(text, parent) + markup + nl + indent + "</" + parent.Name + ">",
		}
	}

	if before != nil {
		if ownsLine(text, before) {
			ls := lineStart(text, before.Range.Start)
			return Edit{Start: ls, End: ls, Text: indentOf(text, before) + markup + nl}
		}
		return Edit{Start: before.Range.Start, End: before.Range.Start, Text: markup}
	}

	end := parent.EndTag.Start
	ls := lineStart(text, end)
	if isBlank(text[ls:end]) {
		return Edit{Start: ls, End: ls, Text: childIndent(text, parent) + markup + nl}
	}
	return Edit{Start: end, End: end, Text: nl + childIndent(text, parent) + markup + nl + indent}
}

// insertAfter places markup on a new line after sibling, at sibling's indent.
func insertAfter(text string, sibling *flow.Element, markup string) Edit {
	end := sibling.Range.End
	return Edit{Start: end, End: end, Text: lineBreak(text) + indentOf(text, sibling) + markup}
}

// insertBefore places markup on a new line before sibling, at sibling's indent.
func insertBefore(text string, sibling *flow.Element, markup string) Edit {
	if ownsLine(text, sibling) {
		ls := lineStart(text, sibling.Range.Start)
		return Edit{Start: ls, End: ls, Text: indentOf(text, sibling) + markup + lineBreak(text)}
	}
	return Edit{Start: sibling.Range.Start, End: sibling.Range.Start, Text: markup}
}

// removeElement deletes el. When el sits alone on its lines the whole lines
// go, so no blank line is left behind.
func removeElement(text string, el *flow.Element) Edit {
	ls := lineStart(text, el.Range.Start)
	le := lineEnd(text, el.Range.End)
	if isBlank(text[ls:el.Range.Start]) && isBlank(text[el.Range.End:le]) {
		if le < len(text) {
			le++
		} else if ls > 0 {
			// Last line of the text: take the preceding newline instead.
			ls--
			if ls > 0 && text[ls-1] == '\r' {
				ls--
			}
		}
		return Edit{Start: ls, End: le}
	}
	return Edit{Start: el.Range.Start, End: el.Range.End}
}

// removeAttribute deletes a along with the whitespace that separates it from
// the previous token.
func removeAttribute(text string, a *flow.Attribute) Edit {
	start := a.Range.Start
	for start > 0 && strings.IndexByte(" \t\r\n", text[start-1]) >= 0 {
		start--
	}
	return Edit{Start: start, End: a.Range.End}
}

// replaceValue rewrites an attribute's value in place, keeping its quotes.
func replaceValue(a *flow.Attribute, value string) Edit {
	return Edit{Start: a.ValueRange.Start, End: a.ValueRange.End, Text: flow.EscapeAttr(value, a.Quote)}
}

// appendAttrs inserts attributes after the last existing attribute of el.
func appendAttrs(el *flow.Element, attrs ...string) Edit {
	return Edit{Start: el.AttrsEnd, End: el.AttrsEnd, Text: " " + strings.Join(attrs, " ")}
}

func attr(name, value string) string {
	return name + `="` + flow.EscapeAttr(value, '"') + `"`
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
