// Package jsoncodec derives JSON text codecs from schema descriptors.
//
// The interpretation is generic structural serialization: every combinator
// maps to the same encode/decode pair and no per-field validation happens at
// the boundary. Decoding syntactically valid JSON that diverges from the
// declared shape succeeds; correctness depends on the sender honoring the
// shared descriptor. Decode fails only on malformed text, Encode fails only
// on values JSON cannot represent (such as cycles).
package jsoncodec

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/storyloom/storyloom/internal/platform/schema"
)

// Codec is a matched encode/decode pair derived from one descriptor.
type Codec struct{}

// Encode serializes value as one JSON text frame.
func (*Codec) Encode(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(data), nil
}

// Decode parses one JSON text frame into a generic value.
func (*Codec) Decode(text string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return value, nil
}

// Interpreter derives codecs from descriptors. Derivation is memoized: the
// same descriptor interpreted by the same Interpreter yields the identical
// Codec, so an expensive interpretation runs at most once per pair.
type Interpreter struct {
	mu    sync.Mutex
	cache map[schema.Node]*Codec
}

// New creates an Interpreter with an empty derivation cache.
func New() *Interpreter {
	return &Interpreter{cache: make(map[schema.Node]*Codec)}
}

// Codec returns the codec for node, deriving it on first use.
func (i *Interpreter) Codec(node schema.Node) *Codec {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.codecLocked(node)
}

// codecLocked dispatches on the descriptor variant. Under the JSON
// interpretation every combinator yields the generic structural codec; the
// switch still walks the variant set so unknown nodes fail loudly and so
// later interpretations (validator, generator) have a template to follow.
func (i *Interpreter) codecLocked(node schema.Node) *Codec {
	if codec, ok := i.cache[node]; ok {
		return codec
	}

	var codec *Codec
	switch n := node.(type) {
	case *schema.LiteralNode,
		*schema.StringNode,
		*schema.NumberNode,
		*schema.BooleanNode,
		*schema.NullableNode,
		*schema.StructNode,
		*schema.PartialNode,
		*schema.RecordNode,
		*schema.ArrayNode,
		*schema.TupleNode,
		*schema.IntersectNode,
		*schema.TaggedUnionNode,
		*schema.UnionNode,
		*schema.ReadonlyNode:
		codec = &Codec{}
	case *schema.LazyNode:
		// Force the thunk so recursive descriptors are well-formed, then
		// share the wrapped codec.
		codec = i.codecLocked(n.Thunk())
	default:
		panic(fmt.Sprintf("jsoncodec: unknown schema node %T", node))
	}
	i.cache[node] = codec
	return codec
}
