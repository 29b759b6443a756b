package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test Plan for Scope:
// - Innermost-enclosing lookup across nested scopes
// - Scope chain ordering (file first, innermost last)
// - FQN prefix from package + class chain
// - Function scopes produce the synthetic $local segment
// - Declared names visible through the chain

func TestScope_InnermostAt(t *testing.T) {
	t.Parallel()

	root := NewFileScope(200)
	outer := &Scope{Name: "Outer", Kind: ScopeClass, StartByte: 0, EndByte: 100}
	inner := &Scope{Name: "Inner", Kind: ScopeClass, StartByte: 20, EndByte: 80}
	root.Insert(outer)
	root.Insert(inner)

	assert.Equal(t, "Inner", root.InnermostAt(50).Name)
	assert.Equal(t, "Outer", root.InnermostAt(10).Name)
	assert.Equal(t, ScopeFile, root.InnermostAt(150).Kind)
}

func TestScope_ChainAt(t *testing.T) {
	t.Parallel()

	root := NewFileScope(200)
	root.Insert(&Scope{Name: "Outer", Kind: ScopeClass, StartByte: 0, EndByte: 100})
	root.Insert(&Scope{Name: "Inner", Kind: ScopeClass, StartByte: 20, EndByte: 80})

	chain := root.ChainAt(50)
	assert.Len(t, chain, 3)
	assert.Equal(t, ScopeFile, chain[0].Kind)
	assert.Equal(t, "Outer", chain[1].Name)
	assert.Equal(t, "Inner", chain[2].Name)
}

func TestScope_FQNPrefixAt(t *testing.T) {
	t.Parallel()

	root := NewFileScope(200)
	root.Insert(&Scope{Name: "MyClass", Kind: ScopeClass, StartByte: 0, EndByte: 100})

	assert.Equal(t, "com.example.MyClass", root.FQNPrefixAt("com.example", 50))
	assert.Equal(t, "MyClass", root.FQNPrefixAt("", 50))
	assert.Equal(t, "com.example", root.FQNPrefixAt("com.example", 150))
}

func TestScope_FQNPrefixAt_CompanionChain(t *testing.T) {
	t.Parallel()

	root := NewFileScope(300)
	root.Insert(&Scope{Name: "Outer", Kind: ScopeClass, StartByte: 0, EndByte: 200})
	root.Insert(&Scope{Name: "Companion", Kind: ScopeCompanion, StartByte: 50, EndByte: 150})

	assert.Equal(t, "p.Outer.Companion", root.FQNPrefixAt("p", 100))
}

func TestScope_FQNPrefixAt_LocalTag(t *testing.T) {
	t.Parallel()

	root := NewFileScope(300)
	root.Insert(&Scope{Name: "Outer", Kind: ScopeClass, StartByte: 0, EndByte: 200})
	root.Insert(&Scope{Name: "run", Kind: ScopeFunction, StartByte: 50, EndByte: 150})

	// A declaration inside a function body gets the synthetic tag, not the
	// function name.
	assert.Equal(t, "p.Outer.$local", root.FQNPrefixAt("p", 100))
}

func TestScope_Declares(t *testing.T) {
	t.Parallel()

	root := NewFileScope(200)
	root.Insert(&Scope{Name: "Outer", Kind: ScopeClass, StartByte: 0, EndByte: 100})
	root.AddName(50, "member")
	root.AddName(150, "topLevel")

	assert.True(t, root.Declares(60, "member"))
	assert.True(t, root.Declares(60, "topLevel"), "file scope names visible everywhere")
	assert.False(t, root.Declares(150, "member"))
}

func TestScope_ClassChainAt(t *testing.T) {
	t.Parallel()

	root := NewFileScope(300)
	root.Insert(&Scope{Name: "A", Kind: ScopeClass, StartByte: 0, EndByte: 200})
	root.Insert(&Scope{Name: "B", Kind: ScopeClass, StartByte: 50, EndByte: 150})

	prefixes := root.ClassChainAt("p", 100)
	assert.Equal(t, []string{"p.A.B", "p.A"}, prefixes)
}

func TestSegmentHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "C", LastSegment("a.b.C"))
	assert.Equal(t, "C", LastSegment("C"))
	assert.Equal(t, "a.b", ParentSegment("a.b.C"))
	assert.Equal(t, "", ParentSegment("C"))
	assert.Equal(t, "a", FirstSegment("a.b.C"))
	assert.Equal(t, "C", FirstSegment("C"))
}
