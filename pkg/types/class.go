package types

import (
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/exp/slices"
)

var nextClassID atomic.Int64

// Class is one class definition. Classes are arena-style values identified by
// a stable ID; every type referring to a class holds the pointer, and
// identity comparisons use the ID rather than structure, which keeps
// self-referential hierarchies (class Sub(Base[Sub])) representable.
type Class struct {
	ID         int64
	Name       string
	Bases      []*Class
	TypeParams []*TypeVarType
	// GenericBases records declared base specializations, e.g. for
	// `class Sub(Base[Sub])` the entry Base[Sub]. Used when relating
	// specializations across a subclass edge.
	GenericBases []*InstanceType
	Members      map[string]Type
	Metaclass    *Class
	// Final classes admit no subclasses; builtin value classes (int, str,
	// bool, ...) are final, which is what makes int & str collapse to Never.
	Final bool

	mro     []*Class
	pending bool
}

// NewClass allocates a class and finalizes it immediately.
func NewClass(name string, bases []*Class, members map[string]Type) *Class {
	c := NewClassPlaceholder(name)
	if err := c.Finalize(bases, members); err != nil {
		// Caller-constructed hierarchies with inconsistent MROs are a
		// definition error; degrade to a linear walk over the base list.
		c.mro = append([]*Class{c}, flattenBases(bases)...)
		c.pending = false
	}
	return c
}

// NewClassPlaceholder allocates a class ID before its bases are resolved, so
// that cyclic hierarchies can reference the class while it is being built.
// The class must be Finalized before MRO-dependent queries are asked of it.
func NewClassPlaceholder(name string) *Class {
	return &Class{
		ID:      nextClassID.Add(1),
		Name:    name,
		Members: map[string]Type{},
		pending: true,
	}
}

// Finalize resolves the class's base list and computes its MRO by C3
// linearization. Returns an error for inconsistent hierarchies.
func (c *Class) Finalize(bases []*Class, members map[string]Type) error {
	c.Bases = bases
	if members != nil {
		c.Members = members
	}
	mro, err := c3Linearize(c)
	if err != nil {
		return err
	}
	c.mro = mro
	c.pending = false
	return nil
}

// MRO returns the class's method resolution order, from the class itself to
// object. Computed once at finalization and cached.
func (c *Class) MRO() []*Class {
	if c.pending || c.mro == nil {
		// Unfinalized placeholder: the class alone, so lookups on a class
		// mid-resolution see only its own members.
		return []*Class{c}
	}
	return c.mro
}

// LookupMember walks the MRO and returns the first definition of name along
// with the class that defines it.
func (c *Class) LookupMember(name string) (Type, *Class, bool) {
	for _, k := range c.MRO() {
		if t, ok := k.Members[name]; ok {
			return t, k, true
		}
	}
	return nil, nil, false
}

// OwnMember returns the class's own (non-inherited) definition of name.
func (c *Class) OwnMember(name string) (Type, bool) {
	t, ok := c.Members[name]
	return t, ok
}

// IsSubclassOf reports whether other appears in c's MRO.
func (c *Class) IsSubclassOf(other *Class) bool {
	for _, k := range c.MRO() {
		if k.ID == other.ID {
			return true
		}
	}
	return false
}

// Instance returns the instance type of the class with the given
// specialization arguments.
func (c *Class) Instance(args ...Type) *InstanceType {
	return &InstanceType{Class: c, Args: args}
}

// Literal returns the type of the class object itself.
func (c *Class) Literal() *ClassLiteralType {
	return &ClassLiteralType{Class: c}
}

func flattenBases(bases []*Class) []*Class {
	var out []*Class
	for _, b := range bases {
		for _, k := range b.MRO() {
			if !slices.Contains(out, k) {
				out = append(out, k)
			}
		}
	}
	return out
}

// c3Linearize computes the C3 MRO: the class, then the merge of its bases'
// linearizations and the base list itself.
func c3Linearize(c *Class) ([]*Class, error) {
	seqs := [][]*Class{}
	for _, b := range c.Bases {
		seqs = append(seqs, slices.Clone(b.MRO()))
	}
	if len(c.Bases) > 0 {
		seqs = append(seqs, slices.Clone(c.Bases))
	}
	out := []*Class{c}
	for {
		nonEmpty := seqs[:0:0]
		for _, s := range seqs {
			if len(s) > 0 {
				nonEmpty = append(nonEmpty, s)
			}
		}
		if len(nonEmpty) == 0 {
			return out, nil
		}
		var head *Class
		for _, s := range nonEmpty {
			cand := s[0]
			inTail := false
			for _, other := range nonEmpty {
				if slices.Contains(other[1:], cand) {
					inTail = true
					break
				}
			}
			if !inTail {
				head = cand
				break
			}
		}
		if head == nil {
			return nil, fmt.Errorf("inconsistent MRO for class %s", c.Name)
		}
		out = append(out, head)
		seqs = nil
		for _, s := range nonEmpty {
			if len(s) > 0 && s[0].ID == head.ID {
				s = s[1:]
			}
			seqs = append(seqs, s)
		}
	}
}

// --- Instances ---

// InstanceType is an instance of a (possibly generic) class. Args specialize
// the class's declared type parameters, in declaration order.
type InstanceType struct {
	Class *Class
	Args  []Type
}

func (it *InstanceType) String() string {
	if len(it.Args) == 0 {
		return it.Class.Name
	}
	parts := make([]string, len(it.Args))
	for i, a := range it.Args {
		parts[i] = a.String()
	}
	return it.Class.Name + "[" + strings.Join(parts, ", ") + "]"
}
func (it *InstanceType) typeNode() {}
func (it *InstanceType) Equals(other Type) bool {
	o, ok := other.(*InstanceType)
	if !ok || o.Class.ID != it.Class.ID || len(o.Args) != len(it.Args) {
		return false
	}
	for i := range it.Args {
		if !it.Args[i].Equals(o.Args[i]) {
			return false
		}
	}
	return true
}

// --- Class objects ---

// ClassLiteralType is the type of one specific class object (as opposed to
// its instances). Distinct from SubclassOfType, which admits any subclass.
type ClassLiteralType struct {
	Class *Class
}

func (cl *ClassLiteralType) String() string { return "<class '" + cl.Class.Name + "'>" }
func (cl *ClassLiteralType) typeNode()      {}
func (cl *ClassLiteralType) Equals(other Type) bool {
	o, ok := other.(*ClassLiteralType)
	return ok && o.Class.ID == cl.Class.ID
}

// SubclassOfType is `type[C]`: some not-yet-known subclass of C.
type SubclassOfType struct {
	Class *Class
}

func NewSubclassOf(c *Class) *SubclassOfType {
	return &SubclassOfType{Class: c}
}

func (s *SubclassOfType) String() string { return "type[" + s.Class.Name + "]" }
func (s *SubclassOfType) typeNode()      {}
func (s *SubclassOfType) Equals(other Type) bool {
	o, ok := other.(*SubclassOfType)
	return ok && o.Class.ID == s.Class.ID
}
