package zengl

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/soypat/zengl/glbuild"
)

// NodeID identifies a node across all compilations. Memoized results are keyed by it.
type NodeID uint64

var lastNodeID atomic.Uint64

func nextNodeID() NodeID { return NodeID(lastNodeID.Add(1)) }

// Node is a lazily evaluated graph value. Nodes are immutable once built and
// may be shared between graphs, stages and compilations.
type Node struct {
	id   NodeID
	kind string
	gen  func(c *Context) Generated
	// memo enables the common subexpression cache. Literals are cheaper to re-emit.
	memo bool

	mu       sync.Mutex
	swizzles map[string]*Node
}

func newNode(kind string, gen func(c *Context) Generated) *Node {
	return &Node{id: nextNodeID(), kind: kind, gen: gen, memo: true}
}

// newLeaf returns a node evaluated on every use. Leaves declare no code,
// evaluating them registers their resource in the using stage.
func newLeaf(kind string, gen func(c *Context) Generated) *Node {
	return &Node{id: nextNodeID(), kind: kind, gen: gen}
}

// ID returns the stable node identifier.
func (n *Node) ID() NodeID { return n.id }

func (n *Node) String() string {
	if n == nil {
		return "<nil node>"
	}
	return n.kind + "#" + strconv.FormatUint(uint64(n.id), 10)
}

// X returns the node's first vector component.
func (n *Node) X() *Node { return Swizzle(n, "x") }

// Y returns the node's second vector component.
func (n *Node) Y() *Node { return Swizzle(n, "y") }

// Z returns the node's third vector component.
func (n *Node) Z() *Node { return Swizzle(n, "z") }

// W returns the node's fourth vector component.
func (n *Node) W() *Node { return Swizzle(n, "w") }

func (n *Node) swizzle(fields string, build func() *Node) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	if sw, ok := n.swizzles[fields]; ok {
		return sw
	}
	if n.swizzles == nil {
		n.swizzles = make(map[string]*Node)
	}
	sw := build()
	n.swizzles[fields] = sw
	return sw
}

// Float returns a float literal node.
func Float(v float32) *Node {
	lit := glbuild.Literal(v)
	return &Node{id: nextNodeID(), kind: "float", gen: func(c *Context) Generated {
		return Generated{
			Code:       lit,
			Variable:   lit,
			Type:       TypeFloat,
			constant:   v,
			isConstant: true,
		}
	}}
}

// Bool returns a boolean literal node.
func Bool(b bool) *Node {
	lit := strconv.FormatBool(b)
	return &Node{id: nextNodeID(), kind: "bool", gen: func(c *Context) Generated {
		return Generated{Code: lit, Variable: lit, Type: TypeBool}
	}}
}

// Floats returns a float literal node for each value.
func Floats(vs ...float32) []*Node {
	nodes := make([]*Node, len(vs))
	for i, v := range vs {
		nodes[i] = Float(v)
	}
	return nodes
}

// Generated is the result of evaluating a node in a [Context].
type Generated struct {
	// Code holds the statements that declare Variable and any not yet declared dependencies.
	// A reference-only result has Code equal to Variable.
	Code     string
	Variable string
	// Variables is the ordered set of identifiers declared by the subtree.
	Variables         []string
	Type              GLType
	Uniforms          []*Uniform
	Attributes        []*Attribute
	Functions         []*Function
	FunctionArguments []*ArgumentDef
	Accumulators      []*AccumulatorDef

	function   *Function
	constant   float32
	isConstant bool
}

// IsReference reports whether the result only refers to an already declared variable.
func (g Generated) IsReference() bool { return g.Code == g.Variable }

// Constant returns the compile time value of a float result.
func (g Generated) Constant() (float32, bool) { return g.constant, g.isConstant }

func (g Generated) reference() Generated {
	g.Code = g.Variable
	return g
}

func appendUnique[T comparable](dst []T, src ...T) []T {
OUTER:
	for _, v := range src {
		for _, have := range dst {
			if have == v {
				continue OUTER
			}
		}
		dst = append(dst, v)
	}
	return dst
}
