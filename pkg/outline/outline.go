// Package outline extracts document headings and arranges them into
// a hierarchical outline.
package outline

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/inkwell-md/inkwell/internal/log"
	"github.com/inkwell-md/inkwell/internal/lru"
	"github.com/inkwell-md/inkwell/pkg/document"
)

// ErrContentTooLarge is returned when the content exceeds the
// extractor's size guard; callers report "too large" instead of
// degrading interactively.
var ErrContentTooLarge = errors.New("outline: content too large")

const (
	DefaultMaxContentLength = 100_000
	DefaultMaxNodes         = 100

	cacheCapacity = 32
)

// Heading is a single extracted heading. Line is set for flat-text
// extraction and counts non-blank lines; Position is set for
// structured-document extraction.
type Heading struct {
	Level    int
	Text     string
	Line     int
	Position int
}

// TreeNode is a heading with its nested subsections.
type TreeNode struct {
	Heading
	Children []*TreeNode
}

// Tree is a built outline. Omitted reports how many headings were cut
// off by the node limit.
type Tree struct {
	Roots     []*TreeNode
	Total     int
	Omitted   int
	Truncated bool
}

// Extract scans markdown text for ATX headings. Headings inside
// fenced code blocks are excluded, using the same fence matching the
// parser applies: a fence closes only on a run of the same character
// at least as long as the opener, with nothing but whitespace after.
func Extract(content string) []Heading {
	var items []Heading

	var fenceChar byte
	fenceLen := 0
	line := 0

	for _, raw := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}

		if fenceLen > 0 {
			if isClosingFence(trimmed, fenceChar, fenceLen) {
				fenceLen = 0
			}
			line++
			continue
		}

		if c, l, ok := openingFence(trimmed); ok {
			fenceChar, fenceLen = c, l
			line++
			continue
		}

		if level, text, ok := atxHeading(trimmed); ok {
			items = append(items, Heading{Level: level, Text: text, Line: line})
		}
		line++
	}

	return items
}

// ExtractFromDoc collects headings from the structured document with
// their positions. Code blocks cannot contain heading nodes, so no
// fence handling is needed on this side.
func ExtractFromDoc(root *document.Node) []Heading {
	root.Measure()

	var items []Heading
	document.Walk(root, func(n *document.Node) document.WalkStatus {
		if n.Kind == document.KindHeading {
			items = append(items, Heading{
				Level:    n.Level,
				Text:     n.InnerText(),
				Position: n.Pos(),
			})
			return document.WalkSkipChildren
		}
		return document.WalkContinue
	})
	return items
}

// BuildTree arranges headings into a forest: each heading becomes a
// child of the nearest preceding heading of smaller level. Single
// pass over a stack of open ancestors.
func BuildTree(items []Heading) []*TreeNode {
	var roots []*TreeNode
	var stack []*TreeNode

	for _, h := range items {
		node := &TreeNode{Heading: h}
		for len(stack) > 0 && stack[len(stack)-1].Level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			top := stack[len(stack)-1]
			top.Children = append(top.Children, node)
		}
		stack = append(stack, node)
	}

	return roots
}

// Extractor applies the interactive-use guards (content size limit,
// node limit) and memoizes extraction per content.
type Extractor struct {
	maxContentLength int
	maxNodes         int
	cache            *lru.Cache[[]Heading]
	logger           *zap.Logger
}

type Option func(*Extractor)

func WithMaxContentLength(n int) Option {
	return func(e *Extractor) { e.maxContentLength = n }
}

func WithMaxNodes(n int) Option {
	return func(e *Extractor) { e.maxNodes = n }
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		maxContentLength: DefaultMaxContentLength,
		maxNodes:         DefaultMaxNodes,
		cache:            lru.NewCache[[]Heading](cacheCapacity),
		logger:           log.Named("outline"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Outline extracts headings and builds the outline tree, enforcing
// both guards. Content over the size limit yields ErrContentTooLarge;
// outlines over the node limit are truncated in document order,
// which keeps hierarchy intact because parents precede children.
func (e *Extractor) Outline(content string) (*Tree, error) {
	if len(content) > e.maxContentLength {
		e.logger.Debug("outline extraction skipped",
			zap.Int("contentLength", len(content)),
			zap.Int("limit", e.maxContentLength),
		)
		return nil, errors.WithStack(ErrContentTooLarge)
	}

	key := contentKey(content)
	items, ok := e.cache.Get(key)
	if !ok {
		items = Extract(content)
		e.cache.Put(key, items)
	}

	tree := &Tree{Total: len(items)}
	if len(items) > e.maxNodes {
		tree.Omitted = len(items) - e.maxNodes
		tree.Truncated = true
		items = items[:e.maxNodes]
	}
	tree.Roots = BuildTree(items)

	return tree, nil
}

func contentKey(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func atxHeading(line string) (level int, text string, ok bool) {
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level < 1 || level > 6 {
		return 0, "", false
	}
	rest := line[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, "", false
	}
	return level, strings.TrimSpace(rest), true
}

func openingFence(line string) (char byte, length int, ok bool) {
	if len(line) < 3 {
		return 0, 0, false
	}
	c := line[0]
	if c != '`' && c != '~' {
		return 0, 0, false
	}
	n := 0
	for n < len(line) && line[n] == c {
		n++
	}
	if n < 3 {
		return 0, 0, false
	}
	// Info strings cannot contain backticks on backtick fences.
	if c == '`' && strings.ContainsRune(line[n:], '`') {
		return 0, 0, false
	}
	return c, n, true
}

// isClosingFence requires a run of the fence character at least as
// long as the opener and no non-whitespace trailing content.
func isClosingFence(line string, char byte, minLen int) bool {
	n := 0
	for n < len(line) && line[n] == char {
		n++
	}
	if n < minLen {
		return false
	}
	return strings.TrimSpace(line[n:]) == ""
}
