package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TimestampLayout is the layout used for timestamps stamped into headers.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Header is an ordered key-value mapping backed by a YAML mapping node.
// Keys keep their file order and values of any shape survive a
// decode/encode cycle untouched.
type Header struct {
	node *yaml.Node
}

// NewHeader returns an empty header.
func NewHeader() *Header {
	return &Header{node: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

// ParseHeader parses YAML source into a Header. Invalid YAML, or YAML whose
// top level is not a mapping, yields an empty header rather than an error.
func ParseHeader(src []byte) *Header {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return NewHeader()
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return NewHeader()
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return NewHeader()
	}
	return &Header{node: root}
}

// Len returns the number of keys.
func (h *Header) Len() int {
	if h == nil || h.node == nil {
		return 0
	}
	return len(h.node.Content) / 2
}

// Keys returns the keys in file order.
func (h *Header) Keys() []string {
	keys := make([]string, 0, h.Len())
	for i := 0; i+1 < h.contentLen(); i += 2 {
		keys = append(keys, h.node.Content[i].Value)
	}
	return keys
}

func (h *Header) contentLen() int {
	if h == nil || h.node == nil {
		return 0
	}
	return len(h.node.Content)
}

func (h *Header) index(key string) int {
	for i := 0; i+1 < h.contentLen(); i += 2 {
		if h.node.Content[i].Value == key {
			return i
		}
	}
	return -1
}

// Node returns the raw value node for key, or nil.
func (h *Header) Node(key string) *yaml.Node {
	i := h.index(key)
	if i < 0 {
		return nil
	}
	return resolveAlias(h.node.Content[i+1])
}

// Has reports whether key is present.
func (h *Header) Has(key string) bool {
	return h.index(key) >= 0
}

// Set stores value under key, replacing an existing value in place or
// appending a new key at the end. Values may be a *Header, a *yaml.Node or
// anything yaml.v3 can encode.
func (h *Header) Set(key string, value any) error {
	var node *yaml.Node
	switch v := value.(type) {
	case *Header:
		node = cloneNode(v.mapping())
	case *yaml.Node:
		node = v
	case yaml.Node:
		node = &v
	default:
		node = &yaml.Node{}
		if err := node.Encode(value); err != nil {
			return fmt.Errorf("encode header value %q: %w", key, err)
		}
	}
	h.setNode(key, node)
	return nil
}

func (h *Header) setNode(key string, node *yaml.Node) {
	if h.node == nil {
		h.node = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	if i := h.index(key); i >= 0 {
		h.node.Content[i+1] = node
		return
	}
	h.node.Content = append(h.node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		node,
	)
}

// SetString stores a plain string value.
func (h *Header) SetString(key, value string) {
	h.setNode(key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value})
}

// SetFloat stores a number, always written with a fractional part.
func (h *Header) SetFloat(key string, value float64) {
	s := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	h.setNode(key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: s})
}

// SetStrings stores a sequence of strings.
func (h *Header) SetStrings(key string, values []string) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, v := range values {
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v})
	}
	h.setNode(key, seq)
}

// SetTime stamps t (in UTC, millisecond precision) as an unquoted timestamp.
func (h *Header) SetTime(key string, t time.Time) {
	h.setNode(key, &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!timestamp",
		Value: t.UTC().Format(TimestampLayout),
	})
}

// SetDate stores a caller supplied date string. Values that parse as a
// timestamp are written unquoted so other tools read them as dates; the
// text itself is kept verbatim.
func (h *Header) SetDate(key, value string) {
	var v any
	plain := &yaml.Node{Kind: yaml.ScalarNode, Value: value}
	if err := plain.Decode(&v); err == nil {
		if _, ok := v.(time.Time); ok {
			h.setNode(key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: value})
			return
		}
	}
	h.SetString(key, value)
}

// Delete removes key. It reports whether the key was present.
func (h *Header) Delete(key string) bool {
	i := h.index(key)
	if i < 0 {
		return false
	}
	h.node.Content = append(h.node.Content[:i], h.node.Content[i+2:]...)
	return true
}

// String returns the scalar text stored under key.
func (h *Header) String(key string) (string, bool) {
	n := h.Node(key)
	if n == nil || n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return "", false
	}
	return n.Value, true
}

// Float returns the numeric value stored under key.
func (h *Header) Float(key string) (float64, bool) {
	s, ok := h.String(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Strings returns the string items of a sequence stored under key. A bare
// scalar is returned as a single item.
func (h *Header) Strings(key string) []string {
	n := h.Node(key)
	if n == nil {
		return nil
	}
	switch n.Kind {
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			item = resolveAlias(item)
			if item.Kind == yaml.ScalarNode && item.Tag != "!!null" {
				out = append(out, item.Value)
			}
		}
		return out
	case yaml.ScalarNode:
		if n.Tag == "!!null" || n.Value == "" {
			return nil
		}
		return []string{n.Value}
	}
	return nil
}

// Time parses the value stored under key as a timestamp.
func (h *Header) Time(key string) (time.Time, bool) {
	s, ok := h.String(key)
	if !ok {
		return time.Time{}, false
	}
	return ParseTime(s)
}

// ParseTime parses the timestamp shapes found in board files.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Decode decodes the value stored under key into out.
func (h *Header) Decode(key string, out any) error {
	n := h.Node(key)
	if n == nil {
		return fmt.Errorf("header key %q not present", key)
	}
	return n.Decode(out)
}

// Merge copies every key of other into h. Existing keys keep their position.
func (h *Header) Merge(other *Header) {
	for i := 0; i+1 < other.contentLen(); i += 2 {
		h.setNode(other.node.Content[i].Value, cloneNode(other.node.Content[i+1]))
	}
}

// Clone returns a deep copy.
func (h *Header) Clone() *Header {
	if h.Len() == 0 {
		return NewHeader()
	}
	return &Header{node: cloneNode(h.node)}
}

// Marshal renders the header as YAML. An empty header renders as nothing.
func (h *Header) Marshal() ([]byte, error) {
	if h.Len() == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(h.node); err != nil {
		return nil, fmt.Errorf("marshal header: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal header: %w", err)
	}
	return buf.Bytes(), nil
}

// Equal reports whether both headers render to the same YAML.
func (h *Header) Equal(other *Header) bool {
	if h.Len() == 0 || other.Len() == 0 {
		return h.Len() == other.Len()
	}
	a, errA := h.Marshal()
	b, errB := other.Marshal()
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// MarshalJSON renders the header as a JSON object in key order.
func (h *Header) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, h.mapping()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *Header) mapping() *yaml.Node {
	if h == nil || h.node == nil {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	return h.node
}

func writeJSON(buf *bytes.Buffer, n *yaml.Node) error {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			v = n.Value
		}
		// JSON has no NaN or infinity; keep the YAML spelling.
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			v = n.Value
		}
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(data)
	}
	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	c := *n
	if len(n.Content) > 0 {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = cloneNode(child)
		}
	}
	return &c
}
