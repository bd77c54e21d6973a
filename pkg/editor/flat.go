package editor

import (
	"bytes"
	"regexp"
	"strings"
)

var listMarkerRe = regexp.MustCompile(`^([-*+]|\d{1,9}[.)])[ \t]`)

// flatLandmarks scans markdown text for the block landmarks the
// cursor mapper anchors on. It only recognizes top-level structure;
// content nested in list items or blockquotes extends the enclosing
// landmark. Fenced code suppresses all other classification until the
// fence closes.
func flatLandmarks(source []byte) []landmark {
	var out []landmark
	counts := map[landmarkKind]int{}

	var current *landmark
	var fenceChar byte
	fenceLen := 0
	inMath := false

	open := func(kind landmarkKind, start, end int, prefix string) {
		out = append(out, landmark{
			kind:    kind,
			ordinal: counts[kind],
			prefix:  landmarkPrefix(prefix),
			start:   start,
			end:     end,
		})
		counts[kind]++
		current = &out[len(out)-1]
	}

	for lineStart := 0; lineStart <= len(source); {
		nl := bytes.IndexByte(source[lineStart:], '\n')
		lineEnd := len(source)
		next := len(source) + 1
		if nl >= 0 {
			lineEnd = lineStart + nl
			next = lineEnd + 1
		}
		line := string(bytes.TrimSuffix(source[lineStart:lineEnd], []byte{'\r'}))
		trimmed := strings.TrimSpace(line)

		switch {
		case fenceLen > 0:
			if isClosingFenceLine(trimmed, fenceChar, fenceLen) {
				fenceLen = 0
				current = nil
			} else if current != nil {
				current.end = lineEnd
				if current.prefix == "" {
					current.prefix = landmarkPrefix(line)
				}
			}

		case inMath:
			if trimmed == "$$" {
				inMath = false
				current = nil
			} else if current != nil {
				current.end = lineEnd
				if current.prefix == "" {
					current.prefix = landmarkPrefix(line)
				}
			}

		case trimmed == "":
			current = nil

		case isFenceLine(trimmed) && (indentOf(line) == 0 || current == nil):
			fenceChar = trimmed[0]
			fenceLen = 0
			for fenceLen < len(trimmed) && trimmed[fenceLen] == fenceChar {
				fenceLen++
			}
			contentStart := minInt(next, len(source))
			open(lmCodeBlock, contentStart, contentStart, "")

		case trimmed == "$$":
			inMath = true
			contentStart := minInt(next, len(source))
			open(lmMath, contentStart, contentStart, "")

		case strings.HasPrefix(trimmed, "#"):
			if level, text, ok := headingLine(trimmed); ok && level > 0 {
				markerLen := len(line) - len(text)
				if text == "" {
					markerLen = len(line)
				}
				open(lmHeading, lineStart+markerLen, lineEnd, text)
				current = nil
			} else {
				extendOrOpenParagraph(&current, open, line, lineStart, lineEnd)
			}

		case strings.HasPrefix(trimmed, ">"):
			if current != nil && current.kind == lmBlockquote {
				current.end = lineEnd
			} else {
				content := strings.TrimPrefix(strings.TrimPrefix(trimmed, ">"), " ")
				open(lmBlockquote, lineStart+(len(line)-len(content)), lineEnd, content)
			}

		case strings.HasPrefix(trimmed, "|"):
			if current != nil && current.kind == lmTable {
				current.end = lineEnd
			} else {
				open(lmTable, lineStart+indentOf(line), lineEnd, trimmed)
			}

		case isThematicBreakLine(trimmed):
			current = nil

		case indentOf(line) == 0 && listMarkerRe.MatchString(line):
			marker := listMarkerRe.FindString(line)
			open(lmListItem, lineStart+len(marker), lineEnd, line[len(marker):])

		case strings.HasPrefix(trimmed, "<"):
			if current != nil && current.kind == lmHTML {
				current.end = lineEnd
			} else {
				open(lmHTML, lineStart, lineEnd, trimmed)
			}

		case indentOf(line) > 0 && current != nil:
			// Indented continuation of the open block.
			current.end = lineEnd

		default:
			extendOrOpenParagraph(&current, open, line, lineStart, lineEnd)
		}

		lineStart = next
	}

	return out
}

func extendOrOpenParagraph(
	current **landmark,
	open func(landmarkKind, int, int, string),
	line string,
	lineStart, lineEnd int,
) {
	c := *current
	if c != nil && (c.kind == lmParagraph || c.kind == lmListItem || c.kind == lmBlockquote) {
		// Lazy continuation lines belong to the open block.
		c.end = lineEnd
		return
	}
	open(lmParagraph, lineStart, lineEnd, line)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// isThematicBreakLine matches lines of three or more -, _ or *
// characters, optionally space separated.
func isThematicBreakLine(line string) bool {
	stripped := strings.ReplaceAll(strings.ReplaceAll(line, " ", ""), "\t", "")
	if len(stripped) < 3 {
		return false
	}
	c := stripped[0]
	if c != '-' && c != '_' && c != '*' {
		return false
	}
	for i := 1; i < len(stripped); i++ {
		if stripped[i] != c {
			return false
		}
	}
	return true
}

func indentOf(line string) int {
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return n
}

func headingLine(line string) (level int, text string, ok bool) {
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level < 1 || level > 6 {
		return 0, "", false
	}
	rest := line[level:]
	if rest == "" {
		return level, "", true
	}
	if rest[0] != ' ' && rest[0] != '\t' {
		return 0, "", false
	}
	return level, strings.TrimLeft(rest, " \t"), true
}

func isFenceLine(line string) bool {
	if len(line) < 3 {
		return false
	}
	c := line[0]
	if c != '`' && c != '~' {
		return false
	}
	n := 0
	for n < len(line) && line[n] == c {
		n++
	}
	if n < 3 {
		return false
	}
	return c != '`' || !strings.ContainsRune(line[n:], '`')
}

func isClosingFenceLine(line string, char byte, minLen int) bool {
	n := 0
	for n < len(line) && line[n] == char {
		n++
	}
	if n < minLen {
		return false
	}
	return strings.TrimSpace(line[n:]) == ""
}
