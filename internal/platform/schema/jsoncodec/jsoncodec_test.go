package jsoncodec

import (
	"reflect"
	"strings"
	"testing"

	"github.com/storyloom/storyloom/internal/platform/schema"
)

func actionDescriptor() schema.Node {
	return schema.Union(
		schema.Struct(
			schema.Field{Name: "type", Value: schema.Literal("say")},
			schema.Field{Name: "text", Value: schema.String()},
		),
		schema.Struct(
			schema.Field{Name: "type", Value: schema.Literal("do")},
			schema.Field{Name: "text", Value: schema.String()},
		),
	)
}

func TestCodecDerivationIsMemoizedPerInterpreter(t *testing.T) {
	node := actionDescriptor()
	interpreter := New()

	first := interpreter.Codec(node)
	second := interpreter.Codec(node)
	if first != second {
		t.Fatal("expected identical codec for repeated derivation")
	}

	if other := New().Codec(node); other == first {
		t.Fatal("expected distinct codec from a distinct interpreter")
	}
}

func TestRoundTripLaw(t *testing.T) {
	interpreter := New()
	cases := []struct {
		name  string
		node  schema.Node
		value any
	}{
		{"literal", schema.Literal("accepted", "rejected"), "accepted"},
		{"string", schema.String(), "hello"},
		{"number", schema.Number(), 20.5},
		{"boolean", schema.Boolean(), true},
		{"nullable nil", schema.Nullable(schema.String()), nil},
		{"struct", schema.Struct(
			schema.Field{Name: "type", Value: schema.Literal("story")},
			schema.Field{Name: "text", Value: schema.String()},
		), map[string]any{"type": "story", "text": "Once upon a time"}},
		{"record", schema.Record(schema.Number()), map[string]any{"a": 1.0, "b": 2.0}},
		{"array", schema.Array(schema.String()), []any{"x", "y"}},
		{"tuple", schema.Tuple(schema.String(), schema.Number()), []any{"x", 3.0}},
		{"readonly", schema.Readonly(schema.String()), "fixed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			codec := interpreter.Codec(tc.node)
			text, err := codec.Encode(tc.value)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := codec.Decode(text)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(got, tc.value) {
				t.Fatalf("round trip = %#v, want %#v", got, tc.value)
			}
		})
	}
}

func TestDecodeFailsOnlyOnMalformedText(t *testing.T) {
	codec := New().Codec(schema.Struct(
		schema.Field{Name: "type", Value: schema.Literal("init")},
		schema.Field{Name: "name", Value: schema.String()},
	))

	if _, err := codec.Decode("{not json"); err == nil {
		t.Fatal("expected parse error for malformed text")
	}

	// Shape divergence is not validated at the boundary: the descriptor
	// declares an init struct, the text is a bare number, decoding succeeds.
	got, err := codec.Decode("42")
	if err != nil {
		t.Fatalf("decode divergent shape: %v", err)
	}
	if got != 42.0 {
		t.Fatalf("decoded = %#v, want 42", got)
	}
}

func TestEncodeFailsOnUnrepresentableValues(t *testing.T) {
	codec := New().Codec(schema.Record(schema.String()))

	cyclic := map[string]any{}
	cyclic["self"] = cyclic
	if _, err := codec.Encode(cyclic); err == nil {
		t.Fatal("expected encode error for cyclic value")
	}
	if _, err := codec.Encode(map[string]any{"fn": func() {}}); err == nil {
		t.Fatal("expected encode error for function value")
	}
}

func TestLazyDescriptorsInterpret(t *testing.T) {
	interpreter := New()
	var tree schema.Node
	tree = schema.Struct(
		schema.Field{Name: "value", Value: schema.Number()},
		schema.Field{Name: "children", Value: schema.Array(schema.Lazy("tree", func() schema.Node { return tree }))},
	)

	codec := interpreter.Codec(tree)
	value := map[string]any{
		"value":    1.0,
		"children": []any{map[string]any{"value": 2.0, "children": []any{}}},
	}
	text, err := codec.Encode(value)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(text, `"children"`) {
		t.Fatalf("encoded = %s, expected children key", text)
	}
	got, err := codec.Decode(text)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, value) {
		t.Fatalf("round trip = %#v, want %#v", got, value)
	}
}
