package constraints

import (
	"strconv"
	"sync"

	"pythia/pkg/types"
)

// The constraint set is a BDD over atomic range constraints. Nodes are
// hash-consed in a package-wide table so equivalent sub-BDDs share structure
// across queries; nothing is ever mutated after construction.

// atom is one range constraint: lower <= T <= upper.
type atom struct {
	tv    *types.TypeVarType
	lower types.Type
	upper types.Type
	key   string
}

func newAtom(lower types.Type, tv *types.TypeVarType, upper types.Type) *atom {
	return &atom{
		tv:    tv,
		lower: lower,
		upper: upper,
		key:   atomKey(lower, tv, upper),
	}
}

func atomKey(lower types.Type, tv *types.TypeVarType, upper types.Type) string {
	return tv.Name + "#" + strconv.FormatInt(tv.ID, 10) + "|" + lower.String() + "|" + upper.String()
}

// node is a BDD decision node; terminals are the package-level trueNode and
// falseNode.
type node struct {
	id   int64
	atom *atom // nil for terminals
	high *node // atom holds
	low  *node // atom does not hold
}

var (
	trueNode  = &node{id: 1}
	falseNode = &node{id: 0}

	internMu  sync.Mutex
	internTab = map[[3]int64]*node{}
	atomIDs   = map[string]int64{}
	nextID    int64 = 2
)

// atomOrder gives the global variable ordering: by typevar identity first,
// then by the rendered bounds. Results must not depend on this ordering (the
// transitivity tests exercise both declaration orders); it exists only to
// keep the BDD canonical.
func atomOrder(a *atom) int64 {
	internMu.Lock()
	defer internMu.Unlock()
	id, ok := atomIDs[a.key]
	if !ok {
		id = nextID
		nextID++
		atomIDs[a.key] = id
	}
	return id
}

func mkNode(a *atom, high, low *node) *node {
	if high == low {
		return high
	}
	internMu.Lock()
	defer internMu.Unlock()
	id, ok := atomIDs[a.key]
	if !ok {
		id = nextID
		nextID++
		atomIDs[a.key] = id
	}
	k := [3]int64{id, high.id, low.id}
	if n, ok := internTab[k]; ok {
		return n
	}
	n := &node{id: nextID, atom: a, high: high, low: low}
	nextID++
	internTab[k] = n
	return n
}

type binOp int

const (
	opAnd binOp = iota
	opOr
)

func apply(op binOp, a, b *node, memo map[[2]*node]*node) *node {
	if r, ok := memo[[2]*node{a, b}]; ok {
		return r
	}
	var result *node
	switch {
	case a == trueNode:
		if op == opAnd {
			result = b
		} else {
			result = trueNode
		}
	case b == trueNode:
		if op == opAnd {
			result = a
		} else {
			result = trueNode
		}
	case a == falseNode:
		if op == opAnd {
			result = falseNode
		} else {
			result = b
		}
	case b == falseNode:
		if op == opAnd {
			result = falseNode
		} else {
			result = a
		}
	default:
		ao, bo := atomOrder(a.atom), atomOrder(b.atom)
		switch {
		case ao == bo && a.atom.key == b.atom.key:
			result = mkNode(a.atom, apply(op, a.high, b.high, memo), apply(op, a.low, b.low, memo))
		case ao < bo:
			result = mkNode(a.atom, apply(op, a.high, b, memo), apply(op, a.low, b, memo))
		default:
			result = mkNode(b.atom, apply(op, a, b.high, memo), apply(op, a, b.low, memo))
		}
	}
	memo[[2]*node{a, b}] = result
	return result
}

func negate(n *node, memo map[*node]*node) *node {
	switch n {
	case trueNode:
		return falseNode
	case falseNode:
		return trueNode
	}
	if r, ok := memo[n]; ok {
		return r
	}
	r := mkNode(n.atom, negate(n.high, memo), negate(n.low, memo))
	memo[n] = r
	return r
}

// path is one satisfying assignment sketch: the atoms asserted to hold along
// a root-to-true walk. Negated atoms contribute no range information and are
// dropped, which only ever makes implication checks more conservative.
type path []*atom

func truePaths(n *node) []path {
	var out []path
	var walk func(n *node, acc path)
	walk = func(n *node, acc path) {
		switch n {
		case trueNode:
			out = append(out, append(path(nil), acc...))
			return
		case falseNode:
			return
		}
		walk(n.high, append(acc, n.atom))
		walk(n.low, acc)
	}
	walk(n, nil)
	return out
}
