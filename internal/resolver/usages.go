package resolver

import (
	"sort"
	"strings"

	"github.com/ktxref/ktxref/internal/indexer/facts"
)

// Options controls find-usages behavior.
type Options struct {
	// IncludeImports reports import statements as usages.
	IncludeImports bool
}

// Usage is one find-usages result. Resolved is false when the target could
// not be determined and the result is a pure name match.
type Usage struct {
	Ref      facts.Reference
	Resolved bool
}

// FindUsages returns the use sites of a symbol. The target declaration set
// is determined via FindDefinition on the same input; references are then
// accepted when their candidate FQNs — built from each reference's
// qualifier, imports, and scope — intersect the target set. Lombok accessor
// calls count as usages of the underlying field (and vice versa) in files
// that import the containing class; this import-presence proxy is the
// documented substitute for type inference.
func (r *Resolver) FindUsages(symbol string, hint *Hint, opts Options) []Usage {
	defs := r.FindDefinition(symbol, hint)
	resolved := len(defs) > 0

	if !resolved {
		return r.usagesByName(facts.LastSegment(symbol), opts)
	}

	targets := r.targetSet(defs)
	lombokClasses := r.lombokClasses(defs, targets)

	defPositions := make(map[facts.Position]bool, len(defs))
	for _, d := range defs {
		defPositions[d.Decl.Pos] = true
	}

	// Scan references under every simple name the target set involves:
	// the symbol itself, alias names, and Lombok accessor/field names.
	names := make(map[string]bool)
	for fqn := range targets {
		names[facts.LastSegment(fqn)] = true
	}

	var usages []Usage
	for name := range names {
		for _, ref := range r.snap.RefsByName(name) {
			if ref.Kind == facts.RefImport && !opts.IncludeImports {
				continue
			}
			if defPositions[ref.Pos] {
				continue
			}
			if r.acceptRef(ref, targets, lombokClasses, defs) {
				usages = append(usages, Usage{Ref: ref, Resolved: true})
			}
		}
	}

	return finishUsages(usages)
}

// targetSet expands the definitions into the FQN set a reference may
// resolve to: the declared FQNs, their companion-raw forms, alias FQNs
// reaching them, and Lombok accessor/field counterparts.
func (r *Resolver) targetSet(defs []Definition) map[string]bool {
	targets := make(map[string]bool)
	add := func(fqn string) {
		if fqn != "" {
			targets[fqn] = true
		}
	}

	for _, def := range defs {
		add(def.Decl.FQN)
		// Companion members answer to both Outer.m and Outer.Companion.m.
		if strings.Contains(def.Decl.FQN, ".Companion.") {
			add(strings.Replace(def.Decl.FQN, ".Companion.", ".", 1))
		}
		if def.Decl.ContainingFQN != "" {
			add(def.Decl.ContainingFQN + "." + def.Decl.Name)
		}
	}

	// Aliases whose resolved target is in the set: uses written through the
	// alias name count as usages of the target.
	for alias := range r.snap.Aliases() {
		if targets[r.ResolveAlias(alias)] {
			add(alias)
		}
	}

	// Lombok mappings, both directions.
	for fqn := range copyKeys(targets) {
		for _, acc := range r.snap.Accessors(fqn) {
			add(acc)
		}
		if field, ok := r.snap.FieldForAccessor(fqn); ok {
			add(field)
			for _, acc := range r.snap.Accessors(field) {
				add(acc)
			}
		}
	}

	return targets
}

// lombokClasses returns the containing class FQNs of every Lombok-mapped
// target, used for the import-presence filter.
func (r *Resolver) lombokClasses(defs []Definition, targets map[string]bool) map[string]bool {
	classes := make(map[string]bool)
	for fqn := range targets {
		if _, ok := r.snap.FieldForAccessor(fqn); ok {
			classes[facts.ParentSegment(fqn)] = true
		}
		if len(r.snap.Accessors(fqn)) > 0 {
			classes[facts.ParentSegment(fqn)] = true
		}
	}
	return classes
}

// acceptRef decides whether a reference is a usage of the target set.
func (r *Resolver) acceptRef(ref facts.Reference, targets map[string]bool, lombokClasses map[string]bool, defs []Definition) bool {
	ff := r.snap.File(ref.Pos.File)

	for _, cand := range r.refCandidates(ref, ff) {
		if targets[cand] {
			return true
		}
		if strings.Contains(cand, ".Companion.") && targets[strings.Replace(cand, ".Companion.", ".", 1)] {
			return true
		}
	}

	// Lombok import-presence proxy: accessor/field names match through the
	// containing class's import rather than a resolved receiver type.
	if len(lombokClasses) > 0 && ff != nil {
		for class := range lombokClasses {
			if targets[class+"."+ref.Name] && r.classReachable(class, ff) {
				return true
			}
		}
	}

	// Extension declarations: accept when the written receiver resolves to
	// the declared receiver type, or when the name is unambiguous.
	for _, def := range defs {
		if def.Decl.Receiver == "" || def.Decl.Name != ref.Name {
			continue
		}
		if r.extensionReceiverMatches(def.Decl, ref, ff) {
			return true
		}
		if r.uniqueDeclName(ref.Name, def.Decl.Pos) {
			return true
		}
	}

	return false
}

// refCandidates builds the FQNs a reference may denote, from its qualifier
// chain plus the imports and scope of its file.
func (r *Resolver) refCandidates(ref facts.Reference, ff *facts.FileFacts) []string {
	if ref.Qualifier == "" {
		return r.resolveLeading(ref.Name, ff, ref.Pos.StartByte)
	}

	leading := facts.FirstSegment(ref.Qualifier)
	rest := ref.Qualifier[len(leading):]

	var out []string
	// The qualifier as written may already be fully qualified.
	out = append(out, ref.Qualifier+"."+ref.Name)
	for _, fqn := range r.resolveLeading(leading, ff, ref.Pos.StartByte) {
		out = append(out, fqn+rest+"."+ref.Name)
		if target := r.ResolveAlias(fqn); target != fqn {
			out = append(out, target+rest+"."+ref.Name)
		}
	}
	return out
}

// extensionReceiverMatches checks whether the reference's qualifier leading
// name resolves to the extension's receiver type.
func (r *Resolver) extensionReceiverMatches(decl facts.Declaration, ref facts.Reference, ff *facts.FileFacts) bool {
	receiverFQN := r.receiverFQN(decl)
	if receiverFQN == "" || ref.Qualifier == "" {
		return false
	}
	leading := facts.FirstSegment(ref.Qualifier)
	if leading == facts.LastSegment(receiverFQN) {
		return true
	}
	for _, fqn := range r.resolveLeading(leading, ff, ref.Pos.StartByte) {
		if fqn == receiverFQN {
			return true
		}
	}
	return false
}

// receiverFQN resolves a declaration's receiver type, as written, through
// the declaring file's imports. Resolution happens lazily at query time.
func (r *Resolver) receiverFQN(decl facts.Declaration) string {
	base := strings.TrimSpace(strings.SplitN(decl.Receiver, "<", 2)[0])
	if base == "" {
		return ""
	}
	if strings.Contains(base, ".") {
		return base
	}
	ff := r.snap.File(decl.Pos.File)
	for _, fqn := range r.resolveLeading(base, ff, decl.Pos.StartByte) {
		if len(r.snap.DeclsByFQN(fqn)) > 0 {
			return fqn
		}
	}
	if ff != nil && ff.Package != "" {
		return ff.Package + "." + base
	}
	return base
}

// uniqueDeclName reports whether every declaration of a simple name sits at
// the same position — the "reachable only through that extension" case.
func (r *Resolver) uniqueDeclName(name string, pos facts.Position) bool {
	for _, d := range r.snap.DeclsByName(name) {
		if d.Pos != pos {
			return false
		}
	}
	return true
}

// usagesByName is the unresolved fallback: pure name matching.
func (r *Resolver) usagesByName(name string, opts Options) []Usage {
	var usages []Usage
	for _, ref := range r.snap.RefsByName(name) {
		if ref.Kind == facts.RefImport && !opts.IncludeImports {
			continue
		}
		usages = append(usages, Usage{Ref: ref, Resolved: false})
	}
	return finishUsages(usages)
}

// finishUsages deduplicates by position and applies the result-ordering
// contract: file path lexicographic, then byte offset.
func finishUsages(usages []Usage) []Usage {
	sort.SliceStable(usages, func(i, j int) bool {
		return usages[i].Ref.Pos.Before(usages[j].Ref.Pos)
	})
	seen := make(map[facts.Position]bool, len(usages))
	out := usages[:0]
	for _, u := range usages {
		if seen[u.Ref.Pos] {
			continue
		}
		seen[u.Ref.Pos] = true
		out = append(out, u)
	}
	return out
}

func copyKeys(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}
