package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Key identifies one computation: a namespace, the canonical form of its
// input fields, and a version. Keys are comparable and may be used as map keys.
//
// Two keys are equal iff namespace, every input field (by value) and version
// are equal. Bumping the version makes every entry cached under the previous
// version unreachable.
type Key struct {
	namespace string
	version   int
	fields    string
}

// BuildKey derives the canonical key for (namespace, fields, version).
//
// Field values are serialized to JSON and re-emitted with object members
// sorted at every depth, so neither map iteration order nor the declaration
// order of nested struct fields affects the result. Array order is preserved.
func BuildKey(namespace string, fields map[string]any, version int) (Key, error) {
	if strings.TrimSpace(namespace) == "" || strings.ContainsAny(namespace, ":\n\r") {
		return Key{}, ErrInvalidNamespace
	}
	if version < 0 {
		return Key{}, ErrInvalidVersion
	}

	if fields == nil {
		fields = map[string]any{}
	}
	canonical, err := canonicalize(fields)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrUnserializable, err)
	}

	return Key{
		namespace: namespace,
		version:   version,
		fields:    string(canonical),
	}, nil
}

// Namespace returns the computation family of the key.
func (k Key) Namespace() string { return k.namespace }

// Version returns the schema version of the key.
func (k Key) Version() int { return k.version }

// Fields returns the canonical JSON encoding of the input fields.
func (k Key) Fields() string { return k.fields }

// IsZero reports whether k is the zero Key.
func (k Key) IsZero() bool { return k.namespace == "" }

// Hash returns the first 16 hex characters of SHA-256 over the full key tuple.
func (k Key) Hash() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00", k.namespace, k.version)
	h.Write([]byte(k.fields))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:8])
}

// String renders the key as <namespace>:v<version>:<hash>.
func (k Key) String() string {
	return fmt.Sprintf("%s:v%d:%s", k.namespace, k.version, k.Hash())
}

// Field decodes the named input field into dst.
// It returns ErrFieldNotFound when the key has no such field.
func (k Key) Field(name string, dst any) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(k.fields), &m); err != nil {
		return fmt.Errorf("cache: decode key fields: %w", err)
	}
	raw, ok := m[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("cache: decode key field %q: %w", name, err)
	}
	return nil
}

// canonicalize produces a deterministic JSON representation of v.
// The value is round-tripped through a generic decode so structs, maps and
// json.Marshaler implementations all normalize to the same shape.
func canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			name, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(name)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	default:
		out, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(out)
		return nil
	}
}
