package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var _defaultAttributeParserWriter = &multiParserWriter{
	parsers: []attributesParserWriter{
		&jsonParserWriter{},
		&keyValueParserWriter{},
	},
	writer: &keyValueParserWriter{},
}

// Attributes is the bag of key-value pairs a fenced code block can
// carry in its info string, e.g. ```go {name=example}.
type Attributes map[string]string

// WriteAttributes writes attributes in the canonical `{k=v ...}` form.
func WriteAttributes(w io.Writer, attr Attributes) error {
	return _defaultAttributeParserWriter.Write(w, attr)
}

// ParseAttributes parses an attribute bag from raw bytes. JSON object
// syntax is tried first, then bare `{key=value key=value}` pairs.
func ParseAttributes(raw []byte) (Attributes, error) {
	return _defaultAttributeParserWriter.Parse(raw)
}

type attributesParserWriter interface {
	Parse([]byte) (Attributes, error)
	Write(io.Writer, Attributes) error
}

// jsonParserWriter parses all values as strings.
//
// The accepted format is a JSON object:
//
//	{ "key": "value", "hello": "world" }
type jsonParserWriter struct{}

func (p *jsonParserWriter) Parse(raw []byte) (Attributes, error) {
	parsed := make(map[string]interface{})
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.WithStack(err)
	}

	result := make(Attributes, len(parsed))

	for k, v := range parsed {
		if strVal, ok := v.(string); ok {
			result[k] = strVal
		} else if stringified, err := json.Marshal(v); err == nil {
			result[k] = string(stringified)
		}
	}

	return result, nil
}

func (p *jsonParserWriter) Write(w io.Writer, attr Attributes) error {
	res, err := json.Marshal(attr)
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = w.Write(bytes.TrimSpace(res))
	return errors.WithStack(err)
}

// keyValueParserWriter parses and writes attributes as bare pairs:
//
//	{key=value hello=world}
type keyValueParserWriter struct{}

func (p *keyValueParserWriter) Parse(raw []byte) (Attributes, error) {
	rawAttributes := extractAttributesBody(raw)
	items := bytes.Split(rawAttributes, []byte{' '})

	result := make(Attributes)
	for _, item := range items {
		kv := bytes.SplitN(item, []byte{'='}, 2)
		if len(kv) != 2 || len(kv[0]) == 0 {
			continue
		}
		result[string(kv[0])] = string(kv[1])
	}

	return result, nil
}

func (p *keyValueParserWriter) Write(w io.Writer, attr Attributes) error {
	keys := p.sortedKeys(attr)

	if _, err := w.Write([]byte{'{'}); err != nil {
		return errors.WithStack(err)
	}
	for i, k := range keys {
		if i > 0 {
			if _, err := w.Write([]byte{' '}); err != nil {
				return errors.WithStack(err)
			}
		}
		if _, err := fmt.Fprintf(w, "%s=%s", k, attr[k]); err != nil {
			return errors.WithStack(err)
		}
	}
	_, err := w.Write([]byte{'}'})
	return errors.WithStack(err)
}

// sortedKeys sorts keys alphabetically, keeping "name" in front.
func (*keyValueParserWriter) sortedKeys(attr Attributes) []string {
	keys := make([]string, 0, len(attr))
	for k := range attr {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil
	}

	slices.SortFunc(keys, func(a, b string) int {
		if a == "name" {
			return -1
		}
		if b == "name" {
			return 1
		}
		return strings.Compare(a, b)
	})

	return keys
}

// multiParserWriter parses attributes using the provided parsers in
// order, falling through to the next on failure. Writing always uses
// the canonical writer.
type multiParserWriter struct {
	parsers []attributesParserWriter
	writer  attributesParserWriter
}

func (p *multiParserWriter) Parse(raw []byte) (_ Attributes, finalErr error) {
	for _, parser := range p.parsers {
		attr, err := parser.Parse(raw)
		if err == nil {
			return attr, nil
		}
		finalErr = multierr.Append(finalErr, err)
	}
	return
}

func (p *multiParserWriter) Write(w io.Writer, attr Attributes) error {
	return p.writer.Write(w, attr)
}

// extractAttributesChunk finds the `{...}` chunk in a fence info
// string. It returns nil when no well-formed chunk exists.
func extractAttributesChunk(source []byte) []byte {
	start, stop := -1, -1

	for i := 0; i < len(source); i++ {
		if start == -1 && source[i] == '{' && i+1 < len(source) && source[i+1] != '}' {
			start = i
		}
		if stop == -1 && source[i] == '}' {
			stop = i
			break
		}
	}

	if start >= 0 && stop > start {
		return bytes.TrimSpace(source[start : stop+1])
	}

	return nil
}

// extractAttributesBody strips the surrounding braces, if present.
func extractAttributesBody(source []byte) []byte {
	body := bytes.TrimSpace(source)
	body = bytes.TrimPrefix(body, []byte{'{'})
	body = bytes.TrimSuffix(body, []byte{'}'})
	return bytes.TrimSpace(body)
}
