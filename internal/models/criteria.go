// Package models holds the data types shared by the modal, the generation
// client and the submission API.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Criteria is the ordered key/value workshop record ("atelier") attached to
// a dimension. Keys are unique; insertion order is preserved.
type Criteria struct {
	keys   []string
	values map[string]string
}

// NewCriteria returns an empty criteria record.
func NewCriteria() *Criteria {
	return &Criteria{values: make(map[string]string)}
}

// CriteriaFromPairs builds a record from alternating key, value arguments.
func CriteriaFromPairs(kv ...string) *Criteria {
	c := NewCriteria()
	for i := 0; i+1 < len(kv); i += 2 {
		c.Set(kv[i], kv[i+1])
	}
	return c
}

// Set stores value under key. An existing key keeps its position.
func (c *Criteria) Set(key, value string) {
	if c.values == nil {
		c.values = make(map[string]string)
	}
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Get returns the value stored under key.
func (c *Criteria) Get(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.values[key]
	return v, ok
}

// Has reports whether key exists.
func (c *Criteria) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes key. Missing keys are ignored.
func (c *Criteria) Delete(key string) {
	if c == nil {
		return
	}
	if _, ok := c.values[key]; !ok {
		return
	}
	delete(c.values, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i:i], c.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of entries.
func (c *Criteria) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Keys returns the keys in order.
func (c *Criteria) Keys() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Values returns the values in key order. The result is never nil so it
// encodes as [] rather than null.
func (c *Criteria) Values() []string {
	out := make([]string, 0, c.Len())
	if c == nil {
		return out
	}
	for _, k := range c.keys {
		out = append(out, c.values[k])
	}
	return out
}

// First returns the first value, or "" when the record is empty.
func (c *Criteria) First() string {
	if c.Len() == 0 {
		return ""
	}
	return c.values[c.keys[0]]
}

// Clone returns a deep copy.
func (c *Criteria) Clone() *Criteria {
	out := NewCriteria()
	if c == nil {
		return out
	}
	for _, k := range c.keys {
		out.Set(k, c.values[k])
	}
	return out
}

// MarshalJSON encodes the record as a JSON object in key order.
func (c *Criteria) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(c.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping its key order. Scalar values
// are stored as their text; null becomes "".
func (c *Criteria) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("criteria: %w", err)
	}
	if tok == nil {
		*c = *NewCriteria()
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("criteria: expected object, got %v", tok)
	}

	out := NewCriteria()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("criteria: %w", err)
		}
		key, _ := keyTok.(string)

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("criteria %q: %w", key, err)
		}
		value, err := scalarText(raw)
		if err != nil {
			return fmt.Errorf("criteria %q: %w", key, err)
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("criteria: %w", err)
	}
	*c = *out
	return nil
}

// UnmarshalYAML decodes a YAML mapping keeping its key order.
func (c *Criteria) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*c = *NewCriteria()
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("criteria: line %d: expected mapping", node.Line)
	}
	out := NewCriteria()
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("criteria %q: line %d: expected scalar value", k.Value, v.Line)
		}
		value := v.Value
		if v.Tag == "!!null" {
			value = ""
		}
		out.Set(k.Value, value)
	}
	*c = *out
	return nil
}

// MarshalYAML encodes the record as an ordered YAML mapping.
func (c *Criteria) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range c.Keys() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.values[k]},
		)
	}
	return node, nil
}

// ReadCriteria parses a YAML or JSON object from r. Empty input yields an
// empty record.
func ReadCriteria(r io.Reader) (*Criteria, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	c := NewCriteria()
	if len(bytes.TrimSpace(data)) == 0 {
		return c, nil
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadCriteriaFile reads a criteria record from a YAML or JSON file.
func LoadCriteriaFile(path string) (*Criteria, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := ReadCriteria(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return c, nil
}

func scalarText(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	default:
		return "", fmt.Errorf("expected scalar value")
	}
}
