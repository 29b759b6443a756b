// Package index holds the sealed cross-file symbol index. A Snapshot is
// built once by a single writer, then frozen: every query operation is a
// pure read and may run concurrently without locking.
package index

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ktxref/ktxref/internal/indexer/facts"
)

// FileError records a file that could not be read during a build.
type FileError struct {
	Path string
	Err  error
}

// Stats summarizes one sealed snapshot.
type Stats struct {
	Files        int `json:"files"`
	Declarations int `json:"declarations"`
	References   int `json:"references"`
	SimpleNames  int `json:"simple_names"`
	FQNs         int `json:"fqns"`
	TypeAliases  int `json:"type_aliases"`
	SkippedFiles int `json:"skipped_files"`
}

func (s Stats) String() string {
	return fmt.Sprintf("indexed %d files: %d declarations, %d references, %d names, %d FQNs, %d type aliases (%d files skipped)",
		s.Files, s.Declarations, s.References, s.SimpleNames, s.FQNs, s.TypeAliases, s.SkippedFiles)
}

// Snapshot is a sealed, immutable index state. Each query binds to exactly
// one snapshot; reindex produces a new one and swaps it in atomically.
type Snapshot struct {
	ID string

	declsByFQN  map[string][]facts.Declaration
	declsByName map[string][]facts.Declaration
	refsByName  map[string][]facts.Reference
	files       map[string]*facts.FileFacts

	// aliases maps a typealias FQN to its target as written in source.
	aliases map[string]string

	// accessors maps a Lombok-annotated field FQN to its synthesized
	// accessor FQNs; reverse maps each accessor back to its field.
	accessors map[string][]string
	reverse   map[string]string

	stats  Stats
	errors []FileError
}

// Builder merges per-file facts into the global maps. It is the sole writer
// during a build and must not be shared across goroutines.
type Builder struct {
	snap *Snapshot
}

// NewBuilder starts an empty build.
func NewBuilder() *Builder {
	return &Builder{snap: &Snapshot{
		ID:          uuid.NewString(),
		declsByFQN:  make(map[string][]facts.Declaration),
		declsByName: make(map[string][]facts.Declaration),
		refsByName:  make(map[string][]facts.Reference),
		files:       make(map[string]*facts.FileFacts),
		aliases:     make(map[string]string),
		accessors:   make(map[string][]string),
		reverse:     make(map[string]string),
	}}
}

// AddFile merges one file's facts. accessors is the Lombok accessor map for
// the file (nil for Kotlin files or annotation-free Java files).
func (b *Builder) AddFile(ff *facts.FileFacts, accessors map[string][]string) {
	s := b.snap
	s.files[ff.Path] = ff

	for _, d := range ff.Decls {
		b.addDecl(d)
		if d.Kind == facts.KindTypeAlias && d.AliasTarget != "" {
			s.aliases[d.FQN] = d.AliasTarget
		}
	}
	for _, r := range ff.Refs {
		s.refsByName[r.Name] = append(s.refsByName[r.Name], r)
	}
	for field, accs := range accessors {
		s.accessors[field] = append(s.accessors[field], accs...)
		for _, a := range accs {
			s.reverse[a] = field
		}
	}
}

// AddError records a file skipped due to an I/O failure.
func (b *Builder) AddError(path string, err error) {
	b.snap.errors = append(b.snap.errors, FileError{Path: path, Err: err})
}

func (b *Builder) addDecl(d facts.Declaration) {
	s := b.snap

	// A declaration of a different kind at another position under the same
	// FQN replaces the earlier ones by FQN; same-kind declarations (such as
	// overloads) are kept together. Both always stay by simple name.
	if prev, ok := s.declsByFQN[d.FQN]; ok {
		conflict := false
		for _, p := range prev {
			if p.Kind != d.Kind && !p.SamePosition(d) {
				conflict = true
				break
			}
		}
		if conflict {
			log.Printf("[INDEX] duplicate FQN %s (%s vs existing), later declaration wins", d.FQN, d.Kind)
			s.declsByFQN[d.FQN] = []facts.Declaration{d}
			s.declsByName[d.Name] = append(s.declsByName[d.Name], d)
			return
		}
	}

	s.declsByFQN[d.FQN] = append(s.declsByFQN[d.FQN], d)
	s.declsByName[d.Name] = append(s.declsByName[d.Name], d)
}

// Seal finalizes the build: companion members get their second entry
// (Outer.Companion.m is also visible as Outer.m), every list is sorted by
// file path then byte offset, and the snapshot becomes immutable.
func (b *Builder) Seal() *Snapshot {
	s := b.snap
	b.snap = nil

	// Companion expansion. Both entries share one position.
	var expansions []facts.Declaration
	for fqn, decls := range s.declsByFQN {
		if !strings.Contains(fqn, ".Companion.") {
			continue
		}
		expanded := strings.Replace(fqn, ".Companion.", ".", 1)
		for _, d := range decls {
			dup := d
			dup.FQN = expanded
			expansions = append(expansions, dup)
		}
	}
	for _, d := range expansions {
		s.declsByFQN[d.FQN] = append(s.declsByFQN[d.FQN], d)
	}

	decls := 0
	for name := range s.declsByName {
		sortDecls(s.declsByName[name])
		decls += len(s.declsByName[name])
	}
	for fqn := range s.declsByFQN {
		sortDecls(s.declsByFQN[fqn])
	}
	refs := 0
	for name := range s.refsByName {
		list := s.refsByName[name]
		sort.Slice(list, func(i, j int) bool { return list[i].Pos.Before(list[j].Pos) })
		refs += len(list)
	}

	s.stats = Stats{
		Files:        len(s.files),
		Declarations: decls,
		References:   refs,
		SimpleNames:  len(s.declsByName),
		FQNs:         len(s.declsByFQN),
		TypeAliases:  len(s.aliases),
		SkippedFiles: len(s.errors),
	}
	return s
}

func sortDecls(list []facts.Declaration) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Pos != list[j].Pos {
			return list[i].Pos.Before(list[j].Pos)
		}
		return list[i].FQN < list[j].FQN
	})
}

// DeclsByFQN returns the declarations at an exact FQN.
func (s *Snapshot) DeclsByFQN(fqn string) []facts.Declaration {
	return s.declsByFQN[fqn]
}

// DeclsByName returns the declarations with a simple name.
func (s *Snapshot) DeclsByName(name string) []facts.Declaration {
	return s.declsByName[name]
}

// RefsByName returns the references with a simple name.
func (s *Snapshot) RefsByName(name string) []facts.Reference {
	return s.refsByName[name]
}

// File returns the facts for a path, nil when the file is not indexed.
func (s *Snapshot) File(path string) *facts.FileFacts {
	return s.files[path]
}

// Files returns the indexed file paths in lexicographic order.
func (s *Snapshot) Files() []string {
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ScopeAt returns the innermost scope containing the position in a file,
// nil when the file is unknown.
func (s *Snapshot) ScopeAt(path string, off int) *facts.Scope {
	ff := s.files[path]
	if ff == nil || ff.Scopes == nil {
		return nil
	}
	return ff.Scopes.InnermostAt(off)
}

// AliasTarget returns the typealias target (as written) for an alias FQN.
func (s *Snapshot) AliasTarget(fqn string) (string, bool) {
	target, ok := s.aliases[fqn]
	return target, ok
}

// Aliases returns all typealias FQNs.
func (s *Snapshot) Aliases() map[string]string {
	return s.aliases
}

// Accessors returns the synthesized accessor FQNs for a field FQN.
func (s *Snapshot) Accessors(fieldFQN string) []string {
	return s.accessors[fieldFQN]
}

// FieldForAccessor returns the field FQN behind a synthesized accessor FQN.
func (s *Snapshot) FieldForAccessor(accessorFQN string) (string, bool) {
	field, ok := s.reverse[accessorFQN]
	return field, ok
}

// Stats returns the build statistics.
func (s *Snapshot) Stats() Stats {
	return s.stats
}

// Errors returns the files skipped during the build.
func (s *Snapshot) Errors() []FileError {
	return s.errors
}
