// Package segment splits a markdown manuscript into ordered scenes.
//
// Scenes are delimited by ATX/setext headings and thematic breaks. Offsets are
// byte positions into the full file content (frontmatter included), so they
// line up with anchor resolution against the same bytes.
package segment

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/scenetrack/internal/fingerprint"
)

// Scene is one segmented region of the manuscript.
type Scene struct {
	ID       string
	ParentID string
	Title    string
	Level    int
	Start    int
	End      int
	Text     string
}

type boundary struct {
	lineStart int // body-relative offset of the delimiter line
	lineEnd   int // body-relative offset just past the delimiter line
	title     string
	level     int
	isBreak   bool
}

// Segment parses the manuscript and returns its scenes in document order.
// A manuscript without any delimiter yields a single scene.
func Segment(content string) ([]Scene, error) {
	_, body, bodyOffset := SplitFrontmatter(content)
	source := []byte(body)

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))

	boundaries, err := collectBoundaries(root, source)
	if err != nil {
		return nil, err
	}

	var scenes []Scene
	ids := make(map[string]int)
	// Heading scenes by level, for parent lookup.
	var stack []Scene

	appendScene := func(s Scene) {
		s.Start += bodyOffset
		s.End += bodyOffset
		s.Text = content[s.Start:s.End]
		scenes = append(scenes, s)
	}

	emit := func(start, end int, title string, level int) {
		start, end = trimRegion(body, start, end)
		if start >= end {
			return
		}
		id := uniqueID(ids, title, len(scenes)+1)

		parent := ""
		if level > 0 {
			for len(stack) > 0 && stack[len(stack)-1].Level >= level {
				stack = stack[:len(stack)-1]
			}
			if len(stack) > 0 {
				parent = stack[len(stack)-1].ID
			}
		} else if len(stack) > 0 {
			parent = stack[len(stack)-1].ID
		}

		s := Scene{ID: id, ParentID: parent, Title: title, Level: level, Start: start, End: end}
		if level > 0 {
			stack = append(stack, s)
		}
		appendScene(s)
	}

	if len(boundaries) == 0 {
		start, end := trimRegion(body, 0, len(body))
		if start < end {
			appendScene(Scene{ID: "scene-1", Start: start, End: end})
		}
		return scenes, nil
	}

	if lead, end := trimRegion(body, 0, boundaries[0].lineStart); lead < end {
		appendScene(Scene{ID: "prelude", Start: lead, End: end})
	}

	for i, b := range boundaries {
		end := len(body)
		if i+1 < len(boundaries) {
			end = boundaries[i+1].lineStart
		}
		if b.isBreak {
			emit(b.lineEnd, end, "", 0)
			continue
		}
		// Heading scenes include their heading line.
		emit(b.lineStart, end, b.title, b.level)
	}

	return scenes, nil
}

// Spans converts scenes to fingerprint spans.
func Spans(scenes []Scene) []fingerprint.Span {
	spans := make([]fingerprint.Span, 0, len(scenes))
	for _, s := range scenes {
		spans = append(spans, fingerprint.Span{
			ID:       s.ID,
			ParentID: s.ParentID,
			Start:    s.Start,
			End:      s.End,
			Text:     s.Text,
		})
	}
	return spans
}

func collectBoundaries(root gmast.Node, source []byte) ([]boundary, error) {
	var boundaries []boundary
	cursor := 0

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *gmast.Heading:
			if node.Lines().Len() == 0 {
				continue
			}
			seg := node.Lines().At(0)
			lineStart := bytes.LastIndexByte(source[:seg.Start], '\n') + 1
			last := node.Lines().At(node.Lines().Len() - 1)
			lineEnd := lineEndAfter(source, last.Stop)
			// Setext headings carry an underline after the text line.
			if node.Level <= 2 && !bytes.HasPrefix(source[lineStart:], []byte("#")) {
				lineEnd = lineEndAfter(source, lineEnd)
			}
			boundaries = append(boundaries, boundary{
				lineStart: lineStart,
				lineEnd:   lineEnd,
				title:     strings.TrimSpace(string(seg.Value(source))),
				level:     node.Level,
			})
			cursor = lineEnd
		case *gmast.ThematicBreak:
			start, end, ok := findBreakLine(source, cursor)
			if !ok {
				return nil, fmt.Errorf("thematic break node without a source line after offset %d", cursor)
			}
			boundaries = append(boundaries, boundary{lineStart: start, lineEnd: end, isBreak: true})
			cursor = end
		default:
			if stop, ok := lastSegmentStop(n); ok {
				cursor = lineEndAfter(source, stop)
			}
		}
	}
	return boundaries, nil
}

// lastSegmentStop descends into a node to find the end of its last raw line.
// Container nodes (lists, blockquotes) own no lines themselves.
func lastSegmentStop(n gmast.Node) (int, bool) {
	if n.Lines() != nil && n.Lines().Len() > 0 {
		return n.Lines().At(n.Lines().Len() - 1).Stop, true
	}
	for c := n.LastChild(); c != nil; c = c.PreviousSibling() {
		if stop, ok := lastSegmentStop(c); ok {
			return stop, true
		}
	}
	return 0, false
}

func lineEndAfter(source []byte, off int) int {
	if off >= len(source) {
		return len(source)
	}
	if idx := bytes.IndexByte(source[off:], '\n'); idx >= 0 {
		return off + idx + 1
	}
	return len(source)
}

func findBreakLine(source []byte, from int) (start, end int, ok bool) {
	for from < len(source) {
		lineEnd := lineEndAfter(source, from)
		if isBreakLine(source[from:lineEnd]) {
			return from, lineEnd, true
		}
		from = lineEnd
	}
	return 0, 0, false
}

func isBreakLine(line []byte) bool {
	trimmed := strings.TrimRight(string(line), "\r\n")
	trimmed = strings.ReplaceAll(trimmed, " ", "")
	if len(trimmed) < 3 {
		return false
	}
	mark := trimmed[0]
	if mark != '-' && mark != '*' && mark != '_' {
		return false
	}
	for i := 1; i < len(trimmed); i++ {
		if trimmed[i] != mark {
			return false
		}
	}
	return true
}

// trimRegion narrows [start, end) to its non-whitespace extent.
func trimRegion(body string, start, end int) (int, int) {
	for start < end && isSpaceByte(body[start]) {
		start++
	}
	for end > start && isSpaceByte(body[end-1]) {
		end--
	}
	return start, end
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func uniqueID(ids map[string]int, title string, ordinal int) string {
	base := Slugify(title)
	if base == "" {
		base = fmt.Sprintf("scene-%d", ordinal)
	}
	ids[base]++
	if n := ids[base]; n > 1 {
		return fmt.Sprintf("%s-%d", base, n)
	}
	return base
}
