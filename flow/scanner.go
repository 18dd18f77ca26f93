// ABOUTME: Recursive descent scanner for pipeline configuration markup.
// ABOUTME: Builds an element tree with byte ranges, line/column data, and decoded attribute values.
package flow

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Range is a half-open byte span [Start, End) into the scanned text.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Contains reports whether other lies entirely inside r.
func (r Range) Contains(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// Columns is a 1-based, inclusive-exclusive column span on a single source line.
type Columns struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Attribute is one name="value" pair found on an element's start tag.
type Attribute struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Raw        string  `json:"-"`
	Quote      byte    `json:"-"`
	Line       int     `json:"line"`
	Columns    Columns `json:"columns"`
	Range      Range   `json:"-"`
	ValueRange Range   `json:"-"`
}

// Element is a scanned markup element. The document root has an empty Name.
type Element struct {
	Name        string
	Attrs       []Attribute
	Children    []*Element
	Parent      *Element
	StartTag    Range
	EndTag      Range
	Range       Range
	SelfClosing bool
	// AttrsEnd is the offset just past the last attribute, or past the tag
	// name when the element has no attributes.
	AttrsEnd int
	Line     int
	Column   int
}

// Attr returns the attribute with the given name.
func (e *Element) Attr(name string) (*Attribute, bool) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			return &e.Attrs[i], true
		}
	}
	return nil, false
}

// AttrValue returns the decoded value of the named attribute, or "".
func (e *Element) AttrValue(name string) string {
	if a, ok := e.Attr(name); ok {
		return a.Value
	}
	return ""
}

// ChildrenNamed returns the direct children with the given element name, in source order.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits e and its descendants depth-first in source order. Returning
// false from fn skips the children of the visited element.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

type scanner struct {
	src        string
	pos        int
	lineStarts []int
}

// Scan parses text into an element tree. The returned root is synthetic: its
// children are the top-level elements of the document. Comments, processing
// instructions, DOCTYPE declarations, CDATA sections and character data are
// skipped.
func Scan(text string) (*Element, error) {
	s := &scanner{src: text, lineStarts: lineStarts(text)}
	root := &Element{Range: Range{0, len(text)}, Line: 1, Column: 1}
	if err := s.parseContent(root); err != nil {
		return nil, err
	}
	return root, nil
}

func lineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// position converts a byte offset to a 1-based line and column.
func (s *scanner) position(offset int) (int, int) {
	line := sort.Search(len(s.lineStarts), func(i int) bool {
		return s.lineStarts[i] > offset
	})
	return line, offset - s.lineStarts[line-1] + 1
}

func (s *scanner) malformed(element string, offset int, format string, args ...any) error {
	line, col := s.position(offset)
	return &MalformedElementError{
		Element: element,
		Offset:  offset,
		Line:    line,
		Column:  col,
		Reason:  fmt.Sprintf(format, args...),
	}
}

// parseContent consumes child content until parent's end tag, or until EOF
// when parent is the document root.
func (s *scanner) parseContent(parent *Element) error {
	isRoot := parent.Parent == nil && parent.Name == ""
	for {
		i := strings.IndexByte(s.src[s.pos:], '<')
		if i < 0 {
			s.pos = len(s.src)
			if !isRoot {
				return s.malformed(parent.Name, parent.StartTag.Start, "missing closing tag </%s>", parent.Name)
			}
			return nil
		}
		s.pos += i
		rest := s.src[s.pos:]

		switch {
		case strings.HasPrefix(rest, "<!--"):
			if err := s.skipPast("-->", "unterminated comment"); err != nil {
				return err
			}
		case strings.HasPrefix(rest, "<![CDATA["):
			if err := s.skipPast("]]>", "unterminated CDATA section"); err != nil {
				return err
			}
		case strings.HasPrefix(rest, "<?"):
			if err := s.skipPast("?>", "unterminated processing instruction"); err != nil {
				return err
			}
		case strings.HasPrefix(rest, "<!"):
			if err := s.skipDeclaration(); err != nil {
				return err
			}
		case strings.HasPrefix(rest, "</"):
			return s.parseEndTag(parent, isRoot)
		default:
			child, err := s.parseElement(parent)
			if err != nil {
				return err
			}
			parent.Children = append(parent.Children, child)
		}
	}
}

func (s *scanner) skipPast(terminator, reason string) error {
	start := s.pos
	end := strings.Index(s.src[s.pos:], terminator)
	if end < 0 {
		return s.malformed("", start, "%s", reason)
	}
	s.pos += end + len(terminator)
	return nil
}

// skipDeclaration skips <!DOCTYPE ...>, including a bracketed internal subset.
func (s *scanner) skipDeclaration() error {
	start := s.pos
	depth := 0
	for i := s.pos + 2; i < len(s.src); i++ {
		switch s.src[i] {
		case '[':
			depth++
		case ']':
			depth--
		case '>':
			if depth <= 0 {
				s.pos = i + 1
				return nil
			}
		}
	}
	return s.malformed("", start, "unterminated declaration")
}

func (s *scanner) parseEndTag(parent *Element, isRoot bool) error {
	start := s.pos
	s.pos += 2
	name := s.readName()
	if name == "" {
		return s.malformed("", start, "expected element name in closing tag")
	}
	if isRoot {
		return s.malformed(name, start, "closing tag </%s> has no matching start tag", name)
	}
	if name != parent.Name {
		return s.malformed(parent.Name, start, "closing tag </%s> does not match <%s>", name, parent.Name)
	}
	s.skipSpace()
	if s.pos >= len(s.src) || s.src[s.pos] != '>' {
		return s.malformed(parent.Name, start, "unterminated closing tag </%s>", name)
	}
	s.pos++
	parent.EndTag = Range{start, s.pos}
	parent.Range = Range{parent.StartTag.Start, s.pos}
	return nil
}

func (s *scanner) parseElement(parent *Element) (*Element, error) {
	start := s.pos
	s.pos++
	name := s.readName()
	if name == "" {
		return nil, s.malformed("", start, "expected element name after '<'")
	}
	line, col := s.position(start)
	el := &Element{Name: name, Parent: parent, Line: line, Column: col, AttrsEnd: s.pos}

	for {
		s.skipSpace()
		if s.pos >= len(s.src) {
			return nil, s.malformed(name, start, "unterminated start tag")
		}
		switch c := s.src[s.pos]; {
		case c == '/':
			if s.pos+1 >= len(s.src) || s.src[s.pos+1] != '>' {
				return nil, s.malformed(name, s.pos, "expected '>' after '/'")
			}
			s.pos += 2
			el.SelfClosing = true
			el.StartTag = Range{start, s.pos}
			el.Range = el.StartTag
			return el, nil
		case c == '>':
			s.pos++
			el.StartTag = Range{start, s.pos}
			if err := s.parseContent(el); err != nil {
				return nil, err
			}
			return el, nil
		case !isNameStart(c):
			return nil, s.malformed(name, s.pos, "unexpected character %q in start tag", c)
		}
		attr, err := s.parseAttribute(name)
		if err != nil {
			return nil, err
		}
		if _, dup := el.Attr(attr.Name); dup {
			return nil, s.malformed(name, attr.Range.Start, "attribute %s is repeated", attr.Name)
		}
		el.Attrs = append(el.Attrs, attr)
		el.AttrsEnd = s.pos
	}
}

func (s *scanner) parseAttribute(element string) (Attribute, error) {
	start := s.pos
	name := s.readName()
	s.skipSpace()
	if s.pos >= len(s.src) || s.src[s.pos] != '=' {
		return Attribute{}, s.malformed(element, start, "attribute %s has no value", name)
	}
	s.pos++
	s.skipSpace()
	if s.pos >= len(s.src) || (s.src[s.pos] != '"' && s.src[s.pos] != '\'') {
		return Attribute{}, s.malformed(element, start, "value of attribute %s must be quoted", name)
	}
	quote := s.src[s.pos]
	valueStart := s.pos + 1
	end := strings.IndexByte(s.src[valueStart:], quote)
	if end < 0 {
		return Attribute{}, s.malformed(element, start, "unterminated value for attribute %s", name)
	}
	valueEnd := valueStart + end
	s.pos = valueEnd + 1

	raw := s.src[valueStart:valueEnd]
	line, col := s.position(start)
	endLine, endCol := s.position(s.pos)
	if endLine != line {
		// Multi-line values report columns up to the end of the first line.
		endCol = s.lineStarts[line] - s.lineStarts[line-1]
	}
	return Attribute{
		Name:       name,
		Value:      decodeEntities(raw),
		Raw:        raw,
		Quote:      quote,
		Line:       line,
		Columns:    Columns{Start: col, End: endCol},
		Range:      Range{start, s.pos},
		ValueRange: Range{valueStart, valueEnd},
	}, nil
}

func (s *scanner) readName() string {
	start := s.pos
	if s.pos >= len(s.src) || !isNameStart(s.src[s.pos]) {
		return ""
	}
	for s.pos < len(s.src) && isNameChar(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos]
}

func (s *scanner) skipSpace() int {
	start := s.pos
	for s.pos < len(s.src) && isSpace(s.src[s.pos]) {
		s.pos++
	}
	return s.pos - start
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isNameStart(c byte) bool {
	return c == '_' || c == ':' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c == '-' || c == '.' || (c >= '0' && c <= '9')
}

// IsValidName reports whether name can be used as an element or attribute name.
func IsValidName(name string) bool {
	if name == "" || !isNameStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isNameChar(name[i]) {
			return false
		}
	}
	return true
}

var namedEntities = map[string]string{
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"quot": `"`,
	"apos": "'",
}

// decodeEntities resolves predefined and numeric character references.
// Unknown references are kept verbatim.
func decodeEntities(raw string) string {
	if !strings.Contains(raw, "&") {
		return raw
	}
	var b strings.Builder
	for i := 0; i < len(raw); {
		if raw[i] != '&' {
			b.WriteByte(raw[i])
			i++
			continue
		}
		semi := strings.IndexByte(raw[i:], ';')
		if semi < 0 {
			b.WriteString(raw[i:])
			break
		}
		ref := raw[i+1 : i+semi]
		if rep, ok := decodeReference(ref); ok {
			b.WriteString(rep)
		} else {
			b.WriteString(raw[i : i+semi+1])
		}
		i += semi + 1
	}
	return b.String()
}

func decodeReference(ref string) (string, bool) {
	if rep, ok := namedEntities[ref]; ok {
		return rep, true
	}
	if !strings.HasPrefix(ref, "#") {
		return "", false
	}
	digits, base := ref[1:], 10
	if strings.HasPrefix(digits, "x") || strings.HasPrefix(digits, "X") {
		digits, base = digits[1:], 16
	}
	n, err := strconv.ParseInt(digits, base, 32)
	if err != nil || n < 0 {
		return "", false
	}
	return string(rune(n)), true
}

// EscapeAttr escapes value for use inside an attribute delimited by quote.
func EscapeAttr(value string, quote byte) string {
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		switch c := value[i]; c {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			if quote == '"' {
				b.WriteString("&quot;")
			} else {
				b.WriteByte(c)
			}
		case '\'':
			if quote == '\'' {
				b.WriteString("&apos;")
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
