package checker

import (
	"pythia/pkg/diag"
	"pythia/pkg/pyast"
	"pythia/pkg/types"
)

func (c *Checker) checkStmt(s pyast.Stmt) {
	switch n := s.(type) {
	case *pyast.ExprStmt:
		c.inferExpr(n.Value)
	case *pyast.Assign:
		c.checkAssign(n)
	case *pyast.If:
		c.checkIf(n)
	case *pyast.While:
		c.checkWhile(n)
	case *pyast.Match:
		c.checkMatch(n)
	case *pyast.Import:
		c.checkImport(n)
	case *pyast.Pass:
	}
}

func (c *Checker) checkAssign(n *pyast.Assign) {
	valT := c.inferExpr(n.Value)

	if n.Annotation != nil {
		declared, ok := c.typeFromAnnotation(n.Annotation)
		if !ok {
			c.sink.Errorf(diag.InvalidAssignment, n.Span(),
				"annotation on `%s` is not a valid type expression", n.Target)
			c.scope.Define(n.Target, valT)
			return
		}
		if !c.assignableCached(valT, declared) {
			c.sink.Errorf(diag.InvalidAssignment, n.Span(),
				"object of type `%s` is not assignable to `%s` declared as `%s`",
				valT.String(), n.Target, declared.String())
		}
		// The binding keeps the more precise inferred type; the annotation
		// constrains later assignments.
		c.scope.DefineDeclared(n.Target, declared, valT)
		return
	}

	if declared, ok := c.scope.Declared(n.Target); ok {
		if !c.assignableCached(valT, declared) {
			c.sink.Errorf(diag.InvalidAssignment, n.Span(),
				"object of type `%s` is not assignable to `%s` declared as `%s`",
				valT.String(), n.Target, declared.String())
		}
	}
	c.scope.Assign(n.Target, valT)
}

// branchFrame runs body in a fresh overlay with the given narrowings
// applied, returning the frame for the join.
func (c *Checker) branchFrame(parent *Environment, nar narrowings, body []pyast.Stmt) *Environment {
	frame := NewEnclosedEnvironment(parent)
	c.scope = frame
	for key, typ := range nar {
		frame.Narrow(key, typ)
	}
	for _, s := range body {
		c.checkStmt(s)
	}
	c.scope = parent
	return frame
}

func (c *Checker) checkIf(n *pyast.If) {
	condT, thenN, elseN := c.analyzeCondition(n.Test)
	c.checkTruthiness(condT, n.Test.Span())

	parent := c.scope
	tri := types.Truthiness(condT)

	thenFrame := c.branchFrame(parent, thenN, n.Body)
	elseFrame := c.branchFrame(parent, elseN, n.Orelse)

	// A statically decided condition makes one branch unreachable, so only
	// the live branch's assignments flow onward. Narrow-only refinements
	// always dissolve at the join.
	switch tri {
	case types.TriTrue:
		c.mergeAssignments(parent, thenFrame)
	case types.TriFalse:
		c.mergeAssignments(parent, elseFrame)
	default:
		c.joinAssignments(parent, thenFrame, elseFrame)
	}
}

// mergeAssignments copies one live branch's assignments into parent as-is.
func (c *Checker) mergeAssignments(parent, frame *Environment) {
	for _, name := range frame.AssignedNames() {
		if t, _, ok := frame.Resolve(name); ok {
			parent.Assign(name, t)
		}
	}
}

// joinAssignments merges two branches: a name assigned in either ends up
// with the union of its per-branch types, falling back to the pre-branch
// type on the side that left it alone.
func (c *Checker) joinAssignments(parent, a, b *Environment) {
	for _, name := range keysOfNames(a.AssignedNames(), b.AssignedNames()) {
		at, _, aok := a.Resolve(name)
		bt, _, bok := b.Resolve(name)
		if !aok && !bok {
			continue
		}
		var merged types.Type
		switch {
		case aok && bok:
			merged = types.NewUnion(at, bt)
		case aok:
			merged = at
		default:
			merged = bt
		}
		if a.WasAssignedHere(name) && b.WasAssignedHere(name) {
			parent.Assign(name, merged)
			continue
		}
		// Assigned on one side only: the other side contributes the
		// pre-branch type unless the name was new to the branch.
		if _, _, existed := parent.Resolve(name); existed {
			parent.Assign(name, merged)
		} else {
			parent.Define(name, merged)
			parent.SetBoundness(name, PossiblyUnbound)
		}
	}
}

func keysOfNames(lists ...[]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range lists {
		for _, n := range l {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

func (c *Checker) checkWhile(n *pyast.While) {
	condT, thenN, elseN := c.analyzeCondition(n.Test)
	c.checkTruthiness(condT, n.Test.Span())

	parent := c.scope
	bodyFrame := c.branchFrame(parent, thenN, n.Body)

	// The body may run any number of times, so assignments union with the
	// pre-loop type.
	for _, name := range bodyFrame.AssignedNames() {
		bt, _, ok := bodyFrame.Resolve(name)
		if !ok {
			continue
		}
		if pre, _, existed := parent.Resolve(name); existed {
			parent.Assign(name, types.NewUnion(pre, bt))
		} else {
			parent.Define(name, bt)
			parent.SetBoundness(name, PossiblyUnbound)
		}
	}

	if len(n.Orelse) > 0 {
		elseFrame := c.branchFrame(parent, elseN, n.Orelse)
		c.mergeAssignments(parent, elseFrame)
	}

	// Past the loop the condition is false, and that knowledge persists.
	for key, typ := range elseN {
		parent.Narrow(key, typ)
	}
}

func (c *Checker) checkMatch(n *pyast.Match) {
	subjT := c.inferExpr(n.Subject)
	subjKey := narrowingKey(n.Subject)
	parent := c.scope

	remaining := subjT
	var frames []*Environment
	for _, arm := range n.Cases {
		caseT, captured := c.patternNarrow(remaining, arm.Pattern)
		remaining = c.patternSubtract(remaining, arm.Pattern)

		nar := narrowings{}
		if subjKey != "" {
			nar[subjKey] = caseT
		}
		frame := NewEnclosedEnvironment(parent)
		c.scope = frame
		for key, typ := range nar {
			frame.Narrow(key, typ)
		}
		if captured != "" && captured != "_" {
			frame.Define(captured, caseT)
		}
		if arm.Guard != nil {
			_, gThen, _ := c.analyzeCondition(arm.Guard)
			for key, typ := range gThen {
				frame.Narrow(key, typ)
			}
		}
		for _, s := range arm.Body {
			c.checkStmt(s)
		}
		c.scope = parent
		frames = append(frames, frame)
	}

	// Join: a name must be assigned in every arm, with no residual subject
	// type left over, for the binding to be definitely bound afterwards.
	exhaustive := remaining.Equals(types.Never)
	for _, name := range assignedAcross(frames) {
		var parts []types.Type
		everywhere := true
		for _, f := range frames {
			if t, _, ok := f.Resolve(name); ok && f.WasAssignedHere(name) {
				parts = append(parts, t)
			} else if t, _, ok := f.Resolve(name); ok {
				parts = append(parts, t)
				everywhere = false
			} else {
				everywhere = false
			}
		}
		if pre, _, existed := parent.Resolve(name); existed {
			if !everywhere || !exhaustive {
				parts = append(parts, pre)
			}
			parent.Assign(name, types.NewUnion(parts...))
		} else {
			parent.Define(name, types.NewUnion(parts...))
			if !everywhere || !exhaustive {
				parent.SetBoundness(name, PossiblyUnbound)
			}
		}
	}
}

func assignedAcross(frames []*Environment) []string {
	var lists [][]string
	for _, f := range frames {
		lists = append(lists, f.AssignedNames())
	}
	return keysOfNames(lists...)
}

func (c *Checker) patternNarrow(subj types.Type, p pyast.Pattern) (types.Type, string) {
	switch pat := p.(type) {
	case *pyast.ClassPattern:
		if target, ok := c.classTestTarget(pat.Class, false); ok {
			return c.narrowTo(subj, target), ""
		}
		return subj, ""
	case *pyast.ValuePattern:
		if lit, ok := literalFromExpr(pat.Value); ok {
			return c.narrowTo(subj, lit), ""
		}
		return subj, ""
	case *pyast.CapturePattern:
		return subj, pat.Name
	}
	return subj, ""
}

func (c *Checker) patternSubtract(subj types.Type, p pyast.Pattern) types.Type {
	switch pat := p.(type) {
	case *pyast.ClassPattern:
		if target, ok := c.classTestTarget(pat.Class, false); ok {
			return c.subtract(subj, target)
		}
		return subj
	case *pyast.ValuePattern:
		if lit, ok := literalFromExpr(pat.Value); ok && types.IsSingleValued(lit) {
			return c.subtract(subj, lit)
		}
		return subj
	case *pyast.CapturePattern:
		return types.Never
	}
	return subj
}

func (c *Checker) checkImport(n *pyast.Import) {
	bind := n.As
	if bind == "" {
		if n.Name != "" {
			bind = n.Name
		} else {
			bind = n.Module
		}
	}

	if c.resolver == nil {
		c.sink.Errorf(diag.UnresolvedImport, n.Span(), "cannot resolve import `%s`", n.Module)
		c.scope.DefineImported(bind, types.Unknown)
		return
	}
	mod, err := c.resolver.Resolve(n.Module, c.env)
	if err != nil {
		c.sink.Errorf(diag.UnresolvedImport, n.Span(), "cannot resolve import `%s`", n.Module)
		c.scope.DefineImported(bind, types.Unknown)
		return
	}

	if n.Name == "" {
		c.scope.DefineImported(bind, &types.ModuleLiteralType{Name: mod.Name})
		return
	}

	sym, ok := mod.Lookup(n.Name, c.env)
	if ok {
		c.scope.DefineImported(bind, sym.Type)
		return
	}
	// A symbol hidden by a version or platform gate is possibly unbound at
	// runtime; a name the module never exports is an error.
	if gated, exists := mod.Symbols[n.Name]; exists {
		c.scope.DefineImported(bind, gated.Type)
		c.scope.SetBoundness(bind, PossiblyUnbound)
		return
	}
	c.sink.Errorf(diag.UnresolvedImport, n.Span(),
		"module `%s` has no member `%s`", n.Module, n.Name)
	c.scope.DefineImported(bind, types.Unknown)
}
