package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktxref/ktxref/internal/indexer/facts"
)

// Test Plan for the index:
// - Companion members appear under both Outer.Companion.m and Outer.m,
//   sharing one position (P2)
// - Lookups by FQN, simple name, file, and scope-at-position
// - Accessor map round-trips in both directions
// - Conflicting declarations at one FQN warn and the later one wins by FQN
//   while both remain by simple name
// - Lists are sorted by file path then byte offset (P6 groundwork)

func companionFacts() *facts.FileFacts {
	scopes := facts.NewFileScope(400)
	scopes.Insert(&facts.Scope{Name: "Outer", Kind: facts.ScopeClass, StartByte: 10, EndByte: 390})
	scopes.Insert(&facts.Scope{Name: "Companion", Kind: facts.ScopeCompanion, StartByte: 50, EndByte: 300})

	return &facts.FileFacts{
		Path:    "Outer.kt",
		Lang:    facts.LangKotlin,
		Package: "p",
		Scopes:  scopes,
		Decls: []facts.Declaration{
			{Name: "Outer", FQN: "p.Outer", Kind: facts.KindClass, Lang: facts.LangKotlin,
				Pos: facts.Position{File: "Outer.kt", StartByte: 0, EndByte: 400}},
			{Name: "Companion", FQN: "p.Outer.Companion", Kind: facts.KindCompanionObject,
				ContainingFQN: "p.Outer", Lang: facts.LangKotlin,
				Pos: facts.Position{File: "Outer.kt", StartByte: 40, EndByte: 300}},
			{Name: "MAX", FQN: "p.Outer.Companion.MAX", Kind: facts.KindField,
				ContainingFQN: "p.Outer.Companion", Lang: facts.LangKotlin,
				Pos: facts.Position{File: "Outer.kt", StartByte: 60, EndByte: 80}},
		},
	}
}

func TestSnapshot_CompanionExpansion(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	b.AddFile(companionFacts(), nil)
	snap := b.Seal()

	raw := snap.DeclsByFQN("p.Outer.Companion.MAX")
	require.Len(t, raw, 1)

	expanded := snap.DeclsByFQN("p.Outer.MAX")
	require.Len(t, expanded, 1)

	assert.Equal(t, raw[0].Pos, expanded[0].Pos, "both entries point at the same position")
	assert.Len(t, snap.DeclsByName("MAX"), 1, "expansion does not duplicate the simple-name entry")
}

func TestSnapshot_Lookups(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	ff := companionFacts()
	ff.Refs = []facts.Reference{
		{Name: "MAX", Qualifier: "Outer", Kind: facts.RefProperty, Lang: facts.LangKotlin,
			Pos: facts.Position{File: "Use.kt", StartByte: 5, EndByte: 14}},
	}
	b.AddFile(ff, nil)
	snap := b.Seal()

	assert.NotNil(t, snap.File("Outer.kt"))
	assert.Nil(t, snap.File("Missing.kt"))
	assert.Len(t, snap.RefsByName("MAX"), 1)

	scope := snap.ScopeAt("Outer.kt", 70)
	require.NotNil(t, scope)
	assert.Equal(t, "Companion", scope.Name)

	assert.Equal(t, []string{"Outer.kt"}, snap.Files())
}

func TestSnapshot_AccessorMaps(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	ff := &facts.FileFacts{
		Path: "L.java", Lang: facts.LangJava, Package: "p",
		Scopes: facts.NewFileScope(100),
		Decls: []facts.Declaration{
			{Name: "username", FQN: "p.L.username", Kind: facts.KindField, ContainingFQN: "p.L",
				Lang: facts.LangJava, Pos: facts.Position{File: "L.java", StartByte: 10, EndByte: 20}},
		},
	}
	b.AddFile(ff, map[string][]string{"p.L.username": {"p.L.getUsername", "p.L.setUsername"}})
	snap := b.Seal()

	assert.ElementsMatch(t, []string{"p.L.getUsername", "p.L.setUsername"}, snap.Accessors("p.L.username"))

	field, ok := snap.FieldForAccessor("p.L.getUsername")
	require.True(t, ok)
	assert.Equal(t, "p.L.username", field)

	_, ok = snap.FieldForAccessor("p.L.unknown")
	assert.False(t, ok)
}

func TestSnapshot_ConflictLaterWinsByFQN(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	first := &facts.FileFacts{
		Path: "A.kt", Lang: facts.LangKotlin, Package: "p", Scopes: facts.NewFileScope(100),
		Decls: []facts.Declaration{
			{Name: "Thing", FQN: "p.Thing", Kind: facts.KindClass, Lang: facts.LangKotlin,
				Pos: facts.Position{File: "A.kt", StartByte: 0, EndByte: 50}},
		},
	}
	second := &facts.FileFacts{
		Path: "B.kt", Lang: facts.LangKotlin, Package: "p", Scopes: facts.NewFileScope(100),
		Decls: []facts.Declaration{
			{Name: "Thing", FQN: "p.Thing", Kind: facts.KindObject, Lang: facts.LangKotlin,
				Pos: facts.Position{File: "B.kt", StartByte: 0, EndByte: 50}},
		},
	}
	b.AddFile(first, nil)
	b.AddFile(second, nil)
	snap := b.Seal()

	byFQN := snap.DeclsByFQN("p.Thing")
	require.Len(t, byFQN, 1)
	assert.Equal(t, facts.KindObject, byFQN[0].Kind, "later declaration wins by FQN")

	assert.Len(t, snap.DeclsByName("Thing"), 2, "both declarations stay by simple name")
}

func TestSnapshot_OverloadsShareFQN(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	ff := &facts.FileFacts{
		Path: "S.kt", Lang: facts.LangKotlin, Package: "p", Scopes: facts.NewFileScope(200),
		Decls: []facts.Declaration{
			{Name: "save", FQN: "p.save", Kind: facts.KindFunction, Lang: facts.LangKotlin, ParamCount: 1,
				Pos: facts.Position{File: "S.kt", StartByte: 0, EndByte: 50}},
			{Name: "save", FQN: "p.save", Kind: facts.KindFunction, Lang: facts.LangKotlin, ParamCount: 2,
				Pos: facts.Position{File: "S.kt", StartByte: 60, EndByte: 120}},
		},
	}
	b.AddFile(ff, nil)
	snap := b.Seal()

	assert.Len(t, snap.DeclsByFQN("p.save"), 2, "overloads coexist at one FQN")
}

func TestSnapshot_DeterministicOrder(t *testing.T) {
	t.Parallel()

	build := func(order []string) *Snapshot {
		b := NewBuilder()
		for _, path := range order {
			b.AddFile(&facts.FileFacts{
				Path: path, Lang: facts.LangKotlin, Package: "p", Scopes: facts.NewFileScope(100),
				Decls: []facts.Declaration{
					{Name: "f", FQN: "p.f", Kind: facts.KindFunction, Lang: facts.LangKotlin,
						Pos: facts.Position{File: path, StartByte: 0, EndByte: 10}},
				},
			}, nil)
		}
		return b.Seal()
	}

	a := build([]string{"a.kt", "b.kt", "c.kt"})
	b2 := build([]string{"c.kt", "a.kt", "b.kt"})

	var filesA, filesB []string
	for _, d := range a.DeclsByName("f") {
		filesA = append(filesA, d.Pos.File)
	}
	for _, d := range b2.DeclsByName("f") {
		filesB = append(filesB, d.Pos.File)
	}
	assert.Equal(t, filesA, filesB, "merge order does not affect result order")
	assert.Equal(t, []string{"a.kt", "b.kt", "c.kt"}, filesA)
}

func TestBuilder_Errors(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	b.AddError("broken.kt", assert.AnError)
	snap := b.Seal()

	require.Len(t, snap.Errors(), 1)
	assert.Equal(t, "broken.kt", snap.Errors()[0].Path)
	assert.Equal(t, 1, snap.Stats().SkippedFiles)
}
