// Package schema defines interpretation-independent descriptors for message
// and event shapes.
//
// A descriptor is a small AST built once from the combinator constructors
// below and reused across any number of interpretations (a JSON codec today;
// validators or generators are possible later interpretations of the same
// value). Constructors return distinct node pointers, so interpreters can
// memoize derived artifacts by node identity.
package schema

// Node is one schema descriptor. Implementations are the tagged variants of
// the combinator set; interpreters dispatch on the concrete type.
type Node interface {
	schemaNode()
}

// LiteralNode admits a fixed set of literal values.
type LiteralNode struct {
	Values []any
}

// StringNode admits any string.
type StringNode struct{}

// NumberNode admits any number.
type NumberNode struct{}

// BooleanNode admits any boolean.
type BooleanNode struct{}

// NullableNode admits null or the wrapped shape.
type NullableNode struct {
	Elem Node
}

// Field names one struct or partial member.
type Field struct {
	Name  string
	Value Node
}

// StructNode admits objects with every listed field present.
type StructNode struct {
	Fields []Field
}

// PartialNode admits objects where every listed field is optional.
type PartialNode struct {
	Fields []Field
}

// RecordNode admits objects mapping arbitrary string keys to one shape.
type RecordNode struct {
	Elem Node
}

// ArrayNode admits arrays of one shape.
type ArrayNode struct {
	Elem Node
}

// TupleNode admits fixed-length arrays with positional shapes.
type TupleNode struct {
	Elems []Node
}

// IntersectNode admits values satisfying both shapes.
type IntersectNode struct {
	Left  Node
	Right Node
}

// TaggedUnionNode admits one of several object shapes discriminated by the
// value of the tag field.
type TaggedUnionNode struct {
	Tag     string
	Members map[string]Node
}

// UnionNode admits any of the member shapes, undiscriminated.
type UnionNode struct {
	Members []Node
}

// LazyNode defers construction of a shape, enabling recursive descriptors.
// The thunk must be pure: interpreters may force it any number of times.
type LazyNode struct {
	ID    string
	Thunk func() Node
}

// ReadonlyNode marks the wrapped shape immutable. It has no wire effect.
type ReadonlyNode struct {
	Elem Node
}

func (*LiteralNode) schemaNode()     {}
func (*StringNode) schemaNode()      {}
func (*NumberNode) schemaNode()      {}
func (*BooleanNode) schemaNode()     {}
func (*NullableNode) schemaNode()    {}
func (*StructNode) schemaNode()      {}
func (*PartialNode) schemaNode()     {}
func (*RecordNode) schemaNode()      {}
func (*ArrayNode) schemaNode()       {}
func (*TupleNode) schemaNode()       {}
func (*IntersectNode) schemaNode()   {}
func (*TaggedUnionNode) schemaNode() {}
func (*UnionNode) schemaNode()       {}
func (*LazyNode) schemaNode()        {}
func (*ReadonlyNode) schemaNode()    {}

// Literal builds a descriptor admitting the given literal values.
func Literal(values ...any) Node {
	return &LiteralNode{Values: values}
}

// String builds a string descriptor.
func String() Node { return &StringNode{} }

// Number builds a number descriptor.
func Number() Node { return &NumberNode{} }

// Boolean builds a boolean descriptor.
func Boolean() Node { return &BooleanNode{} }

// Nullable builds a descriptor admitting null or the wrapped shape.
func Nullable(elem Node) Node { return &NullableNode{Elem: elem} }

// Struct builds an object descriptor with required fields.
func Struct(fields ...Field) Node {
	return &StructNode{Fields: fields}
}

// Partial builds an object descriptor where every field is optional.
func Partial(fields ...Field) Node {
	return &PartialNode{Fields: fields}
}

// Record builds a string-keyed map descriptor.
func Record(elem Node) Node { return &RecordNode{Elem: elem} }

// Array builds an array descriptor.
func Array(elem Node) Node { return &ArrayNode{Elem: elem} }

// Tuple builds a fixed-length positional descriptor.
func Tuple(elems ...Node) Node {
	return &TupleNode{Elems: elems}
}

// Intersect builds a descriptor admitting values satisfying both shapes.
func Intersect(left, right Node) Node {
	return &IntersectNode{Left: left, Right: right}
}

// TaggedUnion builds a union discriminated by the named tag field.
func TaggedUnion(tag string, members map[string]Node) Node {
	return &TaggedUnionNode{Tag: tag, Members: members}
}

// Union builds an undiscriminated union of the member shapes.
func Union(members ...Node) Node {
	return &UnionNode{Members: members}
}

// Lazy defers construction of a shape, enabling recursion.
func Lazy(id string, thunk func() Node) Node {
	return &LazyNode{ID: id, Thunk: thunk}
}

// Readonly marks the wrapped shape immutable.
func Readonly(elem Node) Node { return &ReadonlyNode{Elem: elem} }
