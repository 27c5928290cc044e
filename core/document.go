package core

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Document is a version JSON kept as a generic tree. Loaders add keys the
// upstream schema never had, so nothing here assumes a fixed record.
type Document map[string]interface{}

// ParseDocument decodes a JSON object, keeping numbers as json.Number so a
// round trip does not turn sizes into floats.
func ParseDocument(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document is not a JSON object")
	}
	return doc, nil
}

func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

// Path walks nested maps by key; ok is false when any step is missing.
func (d Document) Path(keys ...string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(d)
	for _, k := range keys {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func (d Document) String(keys ...string) string {
	v, ok := d.Path(keys...)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	}
	return ""
}

func (d Document) Int(keys ...string) int64 {
	v, ok := d.Path(keys...)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, _ := n.Float64()
			return int64(f)
		}
		return i
	case float64:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	}
	return 0
}

func (d Document) Map(keys ...string) map[string]interface{} {
	v, ok := d.Path(keys...)
	if !ok {
		return nil
	}
	m, _ := asMap(v)
	return m
}

func (d Document) List(keys ...string) []interface{} {
	v, ok := d.Path(keys...)
	if !ok {
		return nil
	}
	l, _ := v.([]interface{})
	return l
}

// Decode fills target (a struct with mapstructure tags) from the subtree at keys.
func (d Document) Decode(target interface{}, keys ...string) error {
	v, ok := d.Path(keys...)
	if !ok {
		return NewError(KindMissingMetadata, "decode", strings.Join(keys, "."), fmt.Errorf("field absent"))
	}
	return DecodeValue(v, target)
}

// DecodeValue converts a generic tree value into a typed view.
func DecodeValue(v interface{}, target interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(v)
}

// Require returns a MissingMetadata error naming the first absent key path.
func (d Document) Require(paths ...string) error {
	for _, p := range paths {
		if _, ok := d.Path(strings.Split(p, ".")...); !ok {
			return NewError(KindMissingMetadata, "version document", d.String("id"), fmt.Errorf("required field %q is absent", p))
		}
	}
	return nil
}

// Clone deep-copies the tree.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return cloneValue(map[string]interface{}(d)).(map[string]interface{})
}

// Marshal renders canonical JSON: encoding/json sorts map keys.
func (d Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(map[string]interface{}(d), "", "  ")
}

// Hash is the sha256 of the canonical rendering, used to detect drift.
func (d Document) Hash() (string, error) {
	data, err := json.Marshal(map[string]interface{}(d))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case Document:
		return cloneValue(map[string]interface{}(t))
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	}
	return v
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case Document:
		return m, true
	}
	return nil, false
}
