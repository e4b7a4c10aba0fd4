package zengl

import (
	"fmt"
	"strconv"
	"sync"
)

// Attribute is per-vertex data, or per-instance data when instanced. Attributes
// are read by the vertex stage; pass them to the fragment stage with [Varying].
type Attribute struct {
	id        NodeID
	name      string
	typ       GLType
	size      int
	instanced bool
	node      *Node

	mu      sync.Mutex
	data    []float32
	version uint64
}

// NewAttribute creates an attribute of type typ holding size floats per
// element. The data slice is copied.
func NewAttribute(typ GLType, data []float32, size int, instanced bool) *Attribute {
	a := &Attribute{
		id:        nextNodeID(),
		typ:       typ,
		size:      size,
		instanced: instanced,
		data:      append([]float32(nil), data...),
		version:   1,
	}
	a.name = "attribute" + strconv.FormatUint(uint64(a.id), 10)
	a.node = newLeaf("attribute", func(c *Context) Generated {
		if c.stage != StageVertex {
			c.Errorf("%s: attributes can only be read in the vertex stage, use Varying", a.name)
		}
		if a.size < 1 || a.size > 4 || a.size != a.typ.Components() {
			c.Errorf("%s: element size %d invalid for %s", a.name, a.size, a.typ)
		}
		c.reg.addAttribute(a)
		g := c.Emit(a.typ, "", a.name)
		g.Attributes = []*Attribute{a}
		return g
	})
	return a
}

// Node returns the graph node reading the attribute.
func (a *Attribute) Node() *Node { return a.node }

// Name returns the GLSL identifier of the attribute.
func (a *Attribute) Name() string { return a.name }

func (a *Attribute) Type() GLType    { return a.typ }
func (a *Attribute) Size() int       { return a.size }
func (a *Attribute) Instanced() bool { return a.instanced }

// Count returns the number of elements in the attribute data.
func (a *Attribute) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.size <= 0 {
		return 0
	}
	return len(a.data) / a.size
}

// Set stages new data. The renderer re-uploads the whole buffer before the next frame.
func (a *Attribute) Set(data []float32) error {
	if a.size > 0 && len(data)%a.size != 0 {
		return fmt.Errorf("%s: data length %d not a multiple of element size %d", a.name, len(data), a.size)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = append(a.data[:0], data...)
	a.version++
	return nil
}

// Version returns the version of the last staged data.
func (a *Attribute) Version() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.version
}

// Data appends the attribute data to dst and returns it along with the data version.
func (a *Attribute) Data(dst []float32) ([]float32, uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append(dst, a.data...), a.version
}
