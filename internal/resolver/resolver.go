// Package resolver answers find-definition and find-usages queries against
// a sealed index snapshot. Resolution is purely syntactic: packages,
// imports, scopes, receivers, and Lombok accessor mappings — never types.
package resolver

import (
	"sort"
	"strings"

	"github.com/ktxref/ktxref/internal/index"
	"github.com/ktxref/ktxref/internal/indexer/facts"
	"github.com/ktxref/ktxref/internal/source"
)

// kotlinImplicitImports are the packages every Kotlin file imports
// implicitly; the resolver treats them as wildcard imports.
var kotlinImplicitImports = []string{
	"kotlin",
	"kotlin.annotation",
	"kotlin.collections",
	"kotlin.comparisons",
	"kotlin.io",
	"kotlin.ranges",
	"kotlin.sequences",
	"kotlin.text",
}

// Hint identifies the call site a query originates from. Line is 1-based.
type Hint struct {
	File string
	Line int
}

// Tier orders find-definition results: exact FQN matches first, then
// import-qualified, same-package, wildcard, scope-nested, and finally
// plain name matches (no hint to filter by).
type Tier int

const (
	TierExactFQN Tier = iota
	TierImport
	TierSamePackage
	TierWildcard
	TierScope
	TierNameOnly
)

// Definition is one find-definition result.
type Definition struct {
	Decl facts.Declaration
	Tier Tier
}

// Resolver binds to one snapshot. Queries are pure reads and safe to run
// concurrently.
type Resolver struct {
	snap *index.Snapshot
	src  *source.Reader
}

// New creates a resolver over a sealed snapshot.
func New(snap *index.Snapshot, src *source.Reader) *Resolver {
	return &Resolver{snap: snap, src: src}
}

// FindDefinition resolves a symbol — bare (`foo`), dotted (`a.b.C`), or an
// operator-like name — to its declarations. The optional hint restricts
// candidates to those visible from the hint file.
func (r *Resolver) FindDefinition(symbol string, hint *Hint) []Definition {
	var hintFacts *facts.FileFacts
	hintOff := 0
	if hint != nil {
		hintFacts = r.snap.File(hint.File)
		if off, err := r.src.LineStart(hint.File, hint.Line); err == nil {
			hintOff = off
		}
	}

	var results []Definition
	if strings.Contains(symbol, ".") {
		results = r.findDotted(symbol, hintFacts)
	} else {
		results = r.findBare(symbol, hint, hintFacts, hintOff)
	}

	// Type alias follow: a surviving alias candidate also yields its
	// resolved target's declarations.
	for _, def := range results {
		if def.Decl.Kind != facts.KindTypeAlias {
			continue
		}
		target := r.ResolveAlias(def.Decl.FQN)
		if target == def.Decl.FQN {
			continue
		}
		for _, d := range r.snap.DeclsByFQN(target) {
			results = append(results, Definition{Decl: d, Tier: def.Tier})
		}
	}

	return dedupeDefinitions(results)
}

func (r *Resolver) findDotted(symbol string, hintFacts *facts.FileFacts) []Definition {
	var results []Definition

	// Exact FQN. Companion members are present under both Outer.Companion.m
	// and Outer.m, so either spelling matches here.
	for _, d := range r.snap.DeclsByFQN(symbol) {
		results = append(results, Definition{Decl: d, Tier: TierExactFQN})
	}

	leading := facts.FirstSegment(symbol)
	rest := symbol[len(leading):]

	// Resolve the leading segment through the hint file's imports:
	// `Config.maxRetries` with `import a.b.Config` tries a.b.Config.maxRetries.
	if hintFacts != nil {
		for _, fqn := range r.resolveLeading(leading, hintFacts, 0) {
			for _, d := range r.snap.DeclsByFQN(fqn + rest) {
				results = append(results, Definition{Decl: d, Tier: TierImport})
			}
			// The leading segment may itself be a typealias.
			if target := r.ResolveAlias(fqn); target != fqn {
				for _, d := range r.snap.DeclsByFQN(target + rest) {
					results = append(results, Definition{Decl: d, Tier: TierImport})
				}
			}
		}
	}

	// Alias substitution on dotted prefixes of the symbol itself:
	// `p.UserId.x` where p.UserId aliases p.User retries p.User.x.
	for i := len(symbol) - 1; i > 0; i-- {
		if symbol[i] != '.' {
			continue
		}
		prefix, suffix := symbol[:i], symbol[i:]
		if target := r.ResolveAlias(prefix); target != prefix {
			for _, d := range r.snap.DeclsByFQN(target + suffix) {
				results = append(results, Definition{Decl: d, Tier: TierImport})
			}
		}
	}

	return results
}

func (r *Resolver) findBare(symbol string, hint *Hint, hintFacts *facts.FileFacts, hintOff int) []Definition {
	candidates := r.snap.DeclsByName(symbol)
	results := make([]Definition, 0, len(candidates))

	// An aliased import binds a local name with no declaration of its own:
	// `import a.b.Widget as W` makes the bare name W resolve to a.b.Widget.
	if hintFacts != nil {
		for _, imp := range hintFacts.Imports {
			if imp.Wildcard || imp.Alias != symbol {
				continue
			}
			for _, d := range r.snap.DeclsByFQN(imp.FQN) {
				results = append(results, Definition{Decl: d, Tier: TierImport})
			}
		}
	}

	for _, cand := range candidates {
		if hint == nil || hintFacts == nil {
			results = append(results, Definition{Decl: cand, Tier: TierNameOnly})
			continue
		}

		tier, visible := r.visibilityTier(cand, symbol, hint, hintFacts, hintOff)
		if !visible {
			continue
		}

		// Lombok filter: a synthesized accessor is only offered when its
		// containing class is reachable from the hint file.
		if cand.Synthesized && !r.classReachable(cand.ContainingFQN, hintFacts) {
			continue
		}

		results = append(results, Definition{Decl: cand, Tier: tier})
	}

	return results
}

// visibilityTier decides whether a declaration is visible from the hint
// site and under which ordering tier.
func (r *Resolver) visibilityTier(cand facts.Declaration, symbol string, hint *Hint, hintFacts *facts.FileFacts, hintOff int) (Tier, bool) {
	declFile := r.snap.File(cand.Pos.File)
	declPkg := ""
	if declFile != nil {
		declPkg = declFile.Package
	}

	for _, imp := range hintFacts.Imports {
		if imp.Wildcard {
			continue
		}
		if imp.FQN == cand.FQN {
			return TierImport, true
		}
		// Aliased import: `import a.b.C as D` makes D resolve to a.b.C.
		if imp.Alias == symbol && imp.FQN == cand.FQN {
			return TierImport, true
		}
		// Members of an imported class (methods, fields, synthesized
		// accessors) are reachable through the import.
		if cand.ContainingFQN != "" && imp.FQN == cand.ContainingFQN {
			return TierImport, true
		}
	}

	if declPkg != "" && declPkg == hintFacts.Package {
		return TierSamePackage, true
	}

	container := cand.ContainingFQN
	if container == "" {
		container = declPkg
	}
	for _, imp := range hintFacts.Imports {
		if imp.Wildcard && imp.FQN == container {
			return TierWildcard, true
		}
	}
	if hintFacts.Lang == facts.LangKotlin {
		for _, pkg := range kotlinImplicitImports {
			if declPkg == pkg {
				return TierWildcard, true
			}
		}
	}

	// Enclosing scope of the hint position: the hint file's top-level
	// declarations, plus declarations whose scope contains the hint offset.
	if cand.Pos.File == hint.File {
		declScope := hintFacts.Scopes.InnermostAt(cand.Pos.StartByte)
		if declScope.Kind == facts.ScopeFile ||
			declScope.StartByte <= hintOff && hintOff < declScope.EndByte {
			return TierScope, true
		}
	}

	return 0, false
}

// classReachable reports whether a class FQN is imported by, or in the same
// package as, the given file — the import-presence proxy for type
// information.
func (r *Resolver) classReachable(classFQN string, ff *facts.FileFacts) bool {
	if classFQN == "" || ff == nil {
		return false
	}
	if ff.ImportsFQN(classFQN) {
		return true
	}
	return ff.Package != "" && ff.Package == facts.ParentSegment(classFQN)
}

// resolveLeading maps a simple name to the FQNs it may denote in a file, in
// priority order: explicit and aliased imports, static imports, enclosing
// scope prefixes at off, same package, wildcard imports, and (for Kotlin)
// the implicit import packages.
func (r *Resolver) resolveLeading(name string, ff *facts.FileFacts, off int) []string {
	if ff == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	add := func(fqn string) {
		if fqn != "" && !seen[fqn] {
			seen[fqn] = true
			out = append(out, fqn)
		}
	}

	for _, imp := range ff.Imports {
		if imp.Wildcard {
			continue
		}
		if imp.SimpleName() == name {
			add(imp.FQN)
		}
	}

	if ff.Scopes != nil {
		for _, prefix := range ff.Scopes.ClassChainAt(ff.Package, off) {
			add(prefix + "." + name)
		}
	}

	if ff.Package != "" {
		add(ff.Package + "." + name)
	} else {
		add(name)
	}

	for _, imp := range ff.Imports {
		if imp.Wildcard {
			add(imp.FQN + "." + name)
		}
	}

	if ff.Lang == facts.LangKotlin {
		for _, pkg := range kotlinImplicitImports {
			add(pkg + "." + name)
		}
	}

	return out
}

// ResolveAlias follows a typealias chain to its final FQN. Visited aliases
// are tracked so cycles terminate.
func (r *Resolver) ResolveAlias(fqn string) string {
	seen := make(map[string]bool)
	cur := fqn
	for {
		target, ok := r.snap.AliasTarget(cur)
		if !ok || seen[cur] {
			return cur
		}
		seen[cur] = true
		cur = r.resolveTypeText(target, cur)
	}
}

// resolveTypeText normalizes an alias right-hand side, written in the
// aliasing file, into an FQN: generics are stripped and simple names are
// resolved through that file's imports and package.
func (r *Resolver) resolveTypeText(text, aliasFQN string) string {
	base := strings.TrimSpace(strings.SplitN(text, "<", 2)[0])
	if base == "" {
		return text
	}
	if strings.Contains(base, ".") {
		return base
	}

	// Locate the file declaring the alias to borrow its import context.
	for _, d := range r.snap.DeclsByFQN(aliasFQN) {
		if d.Kind != facts.KindTypeAlias {
			continue
		}
		ff := r.snap.File(d.Pos.File)
		for _, fqn := range r.resolveLeading(base, ff, d.Pos.StartByte) {
			if len(r.snap.DeclsByFQN(fqn)) > 0 {
				return fqn
			}
			if _, ok := r.snap.AliasTarget(fqn); ok {
				return fqn
			}
		}
		if ff != nil && ff.Package != "" {
			return ff.Package + "." + base
		}
	}
	return base
}

// dedupeDefinitions sorts by tier then position and removes entries that
// point at the same source range (companion-expanded pairs collapse here).
func dedupeDefinitions(defs []Definition) []Definition {
	sort.SliceStable(defs, func(i, j int) bool {
		if defs[i].Tier != defs[j].Tier {
			return defs[i].Tier < defs[j].Tier
		}
		return defs[i].Decl.Pos.Before(defs[j].Decl.Pos)
	})
	seen := make(map[facts.Position]bool, len(defs))
	out := defs[:0]
	for _, d := range defs {
		if seen[d.Decl.Pos] {
			continue
		}
		seen[d.Decl.Pos] = true
		out = append(out, d)
	}
	return out
}
