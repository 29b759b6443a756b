package indexer_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktxref/ktxref/internal/config"
	"github.com/ktxref/ktxref/internal/indexer"
	"github.com/ktxref/ktxref/internal/indexer/facts"
	"github.com/ktxref/ktxref/internal/resolver"
	"github.com/ktxref/ktxref/internal/source"
)

// Test Plan for the engine over the sample project:
// - Discovery skips build output directories
// - The full pipeline indexes mixed Kotlin/Java sources
// - End-to-end scenarios: extension property, companion member, type
//   alias, Lombok accessors, cross-language references
// - Reindex yields identical results when nothing changed (P7)
// - FQNs always start with the file's package (P1)
// - Companion members exist under both FQNs at one position (P2)

func sampleRoot(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join("..", "..", "testdata", "sample-project"))
	require.NoError(t, err)
	return abs
}

func buildSample(t *testing.T) (*indexer.Engine, *source.Reader) {
	t.Helper()
	reader, err := source.NewReader()
	require.NoError(t, err)
	t.Cleanup(reader.Close)

	cfg := config.Default(sampleRoot(t))
	engine := indexer.New(cfg, reader)
	_, err = engine.Reindex(context.Background())
	require.NoError(t, err)
	return engine, reader
}

func TestEngine_DiscoverySkipsBuildDirs(t *testing.T) {
	t.Parallel()

	engine, _ := buildSample(t)
	for _, path := range engine.Snapshot().Files() {
		assert.NotContains(t, filepath.ToSlash(path), "/build/", "build output is never indexed")
	}
}

func TestEngine_IndexesBothLanguages(t *testing.T) {
	t.Parallel()

	engine, _ := buildSample(t)
	snap := engine.Snapshot()

	kotlin, java := 0, 0
	for _, path := range snap.Files() {
		switch snap.File(path).Lang {
		case facts.LangKotlin:
			kotlin++
		case facts.LangJava:
			java++
		}
	}
	assert.Greater(t, kotlin, 0)
	assert.Greater(t, java, 0)
	assert.Empty(t, snap.Errors())
}

func TestEngine_PackagePrefixInvariant(t *testing.T) {
	t.Parallel()

	engine, _ := buildSample(t)
	snap := engine.Snapshot()

	for _, path := range snap.Files() {
		ff := snap.File(path)
		for _, d := range ff.Decls {
			if ff.Package == "" {
				continue
			}
			assert.True(t, strings.HasPrefix(d.FQN, ff.Package+"."),
				"FQN %s must start with package %s (%s)", d.FQN, ff.Package, path)
		}
	}
}

func TestEngine_CompanionDualEntries(t *testing.T) {
	t.Parallel()

	engine, _ := buildSample(t)
	snap := engine.Snapshot()

	raw := snap.DeclsByFQN("com.example.core.UserService.Companion.MAX_USERS")
	expanded := snap.DeclsByFQN("com.example.core.UserService.MAX_USERS")
	require.Len(t, raw, 1)
	require.Len(t, expanded, 1)
	assert.Equal(t, raw[0].Pos, expanded[0].Pos)
}

func TestEngine_ScenarioExtensionProperty(t *testing.T) {
	t.Parallel()

	engine, _ := buildSample(t)
	res := engine.Resolver()

	defs := res.FindDefinition("isAdmin", nil)
	require.Len(t, defs, 1)
	assert.Contains(t, defs[0].Decl.Pos.File, "Extensions.kt")
	assert.Equal(t, "User", defs[0].Decl.Receiver)

	usages := res.FindUsages("isAdmin", nil, resolver.Options{})
	require.Len(t, usages, 1)
	assert.Contains(t, usages[0].Ref.Pos.File, "UserProfile.kt")
}

func TestEngine_ScenarioCompanionMember(t *testing.T) {
	t.Parallel()

	engine, _ := buildSample(t)
	res := engine.Resolver()

	defs := res.FindDefinition("MAX_USERS", nil)
	require.Len(t, defs, 1)
	assert.Contains(t, defs[0].Decl.Pos.File, "UserService.kt")

	usages := res.FindUsages("MAX_USERS", nil, resolver.Options{})
	require.NotEmpty(t, usages)
	found := false
	for _, u := range usages {
		if strings.Contains(u.Ref.Pos.File, "Config.kt") {
			found = true
		}
	}
	assert.True(t, found, "UserService.MAX_USERS in app/Config.kt counts")
}

func TestEngine_ScenarioTypeAlias(t *testing.T) {
	t.Parallel()

	engine, _ := buildSample(t)
	res := engine.Resolver()

	defs := res.FindDefinition("UserId", nil)
	require.NotEmpty(t, defs)
	assert.Equal(t, facts.KindTypeAlias, defs[0].Decl.Kind)
	assert.Contains(t, defs[0].Decl.Pos.File, "Types.kt")

	usages := res.FindUsages("UserId", nil, resolver.Options{})
	require.Len(t, usages, 2)
	for _, u := range usages {
		assert.Contains(t, u.Ref.Pos.File, "UserService.kt")
	}
}

func TestEngine_ScenarioLombok(t *testing.T) {
	t.Parallel()

	engine, _ := buildSample(t)
	res := engine.Resolver()
	snap := engine.Snapshot()

	hint := ""
	for _, path := range snap.Files() {
		if strings.Contains(path, "LombokConsumer.java") {
			hint = path
		}
	}
	require.NotEmpty(t, hint)

	defs := res.FindDefinition("getUsername", &resolver.Hint{File: hint, Line: 7})
	require.Len(t, defs, 1)
	assert.True(t, defs[0].Decl.Synthesized)
	assert.Contains(t, defs[0].Decl.Pos.File, "LombokUser.java")

	// find-usages of the field picks up Java accessor calls and the Kotlin
	// property access.
	usages := res.FindUsages("com.example.core.LombokUser.username", nil, resolver.Options{})
	require.NotEmpty(t, usages)
	var consumer, audit bool
	for _, u := range usages {
		if strings.Contains(u.Ref.Pos.File, "LombokConsumer.java") {
			consumer = true
		}
		if strings.Contains(u.Ref.Pos.File, "Audit.kt") {
			audit = true
		}
	}
	assert.True(t, consumer)
	assert.True(t, audit)

	// boolean active: isActive resolves to the field position.
	active := res.FindDefinition("isActive", nil)
	require.NotEmpty(t, active)
	assert.Contains(t, active[0].Decl.Pos.File, "LombokUser.java")

	// final id: no setter.
	assert.Empty(t, res.FindDefinition("setId", nil))
}

func TestEngine_ScenarioCrossLanguage(t *testing.T) {
	t.Parallel()

	engine, _ := buildSample(t)
	res := engine.Resolver()

	usages := res.FindUsages("User", nil, resolver.Options{})
	var kotlinUse, javaUse bool
	for _, u := range usages {
		if strings.HasSuffix(u.Ref.Pos.File, ".kt") {
			kotlinUse = true
		}
		if strings.HasSuffix(u.Ref.Pos.File, ".java") {
			javaUse = true
		}
	}
	assert.True(t, kotlinUse, "Kotlin sites reference User")
	assert.True(t, javaUse, "JavaHelper references User")
}

func TestEngine_ReindexIsStable(t *testing.T) {
	t.Parallel()

	reader, err := source.NewReader()
	require.NoError(t, err)
	defer reader.Close()

	engine := indexer.New(config.Default(sampleRoot(t)), reader)
	_, err = engine.Reindex(context.Background())
	require.NoError(t, err)

	firstSnap := engine.Snapshot()
	first := engine.Resolver().FindUsages("User", nil, resolver.Options{})

	_, err = engine.Reindex(context.Background())
	require.NoError(t, err)

	secondSnap := engine.Snapshot()
	second := engine.Resolver().FindUsages("User", nil, resolver.Options{})

	assert.NotEqual(t, firstSnap.ID, secondSnap.ID, "reindex produces a fresh snapshot")
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Ref.Pos, second[i].Ref.Pos, "identical sources yield identical results")
	}
}

func TestEngine_CancelledReindexKeepsOldSnapshot(t *testing.T) {
	t.Parallel()

	reader, err := source.NewReader()
	require.NoError(t, err)
	defer reader.Close()

	engine := indexer.New(config.Default(sampleRoot(t)), reader)
	_, err = engine.Reindex(context.Background())
	require.NoError(t, err)
	snap := engine.Snapshot()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = engine.Reindex(ctx)
	assert.Error(t, err)
	assert.Same(t, snap, engine.Snapshot(), "a cancelled build never swaps in a partial index")
}
