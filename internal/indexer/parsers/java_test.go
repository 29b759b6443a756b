package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktxref/ktxref/internal/indexer/facts"
)

// Test Plan for the Java extractor:
// - Package, single-type, on-demand, static, static-on-demand imports
// - Classes, interfaces, enums (+ constants), annotations, records
// - Constructors, methods (with arity), fields (type/static/final flags)
// - Record components become field + synthesized accessor declarations
// - Lombok annotations captured at class and field level, only when a
//   lombok import makes the simple-name match plausible
// - References: method calls with receivers, constructor calls, field
//   access, method references, type references

func extractJava(t *testing.T, source string) *facts.FileFacts {
	t.Helper()
	ff, err := NewJavaExtractor().Extract("Test.java", []byte(source))
	require.NoError(t, err)
	require.NotNil(t, ff)
	return ff
}

func TestJavaExtractor_ClassMembersAndFQNs(t *testing.T) {
	t.Parallel()

	ff := extractJava(t, `
package com.example;

public class MyClass {
    private String name;
    private static final int LIMIT = 10;

    public MyClass(String name) {
        this.name = name;
    }

    public String getName() {
        return name;
    }

    public void setCount(int count, int extra) {
    }
}
`)

	assert.Equal(t, "com.example", ff.Package)

	class := findDecl(ff, "MyClass", facts.KindClass)
	require.NotNil(t, class)
	assert.Equal(t, "com.example.MyClass", class.FQN)

	field := findDecl(ff, "name", facts.KindField)
	require.NotNil(t, field)
	assert.Equal(t, "com.example.MyClass.name", field.FQN)
	assert.Equal(t, "String", field.FieldType)
	assert.False(t, field.FieldStatic)

	limit := findDecl(ff, "LIMIT", facts.KindField)
	require.NotNil(t, limit)
	assert.True(t, limit.FieldStatic)
	assert.True(t, limit.FieldFinal)

	ctor := findDecl(ff, "MyClass", facts.KindConstructor)
	require.NotNil(t, ctor)
	assert.Equal(t, "com.example.MyClass.MyClass", ctor.FQN)
	assert.Equal(t, 1, ctor.ParamCount)

	getName := findDecl(ff, "getName", facts.KindMethod)
	require.NotNil(t, getName)
	assert.Equal(t, "com.example.MyClass.getName", getName.FQN)
	assert.Equal(t, 0, getName.ParamCount)

	setCount := findDecl(ff, "setCount", facts.KindMethod)
	require.NotNil(t, setCount)
	assert.Equal(t, 2, setCount.ParamCount)
}

func TestJavaExtractor_Imports(t *testing.T) {
	t.Parallel()

	ff := extractJava(t, `
package com.example;

import java.util.List;
import java.io.*;
import static java.util.Collections.emptyList;
import static java.lang.Math.*;
`)

	require.Len(t, ff.Imports, 4)

	assert.Equal(t, "java.util.List", ff.Imports[0].FQN)
	assert.False(t, ff.Imports[0].Wildcard)
	assert.False(t, ff.Imports[0].Static)

	assert.Equal(t, "java.io", ff.Imports[1].FQN)
	assert.True(t, ff.Imports[1].Wildcard)

	assert.Equal(t, "java.util.Collections.emptyList", ff.Imports[2].FQN)
	assert.True(t, ff.Imports[2].Static)
	assert.False(t, ff.Imports[2].Wildcard)

	assert.Equal(t, "java.lang.Math", ff.Imports[3].FQN)
	assert.True(t, ff.Imports[3].Static)
	assert.True(t, ff.Imports[3].Wildcard)
}

func TestJavaExtractor_InterfaceAndEnum(t *testing.T) {
	t.Parallel()

	ff := extractJava(t, `
package com.example;

public interface Greeter {
    void greet();
}

enum Color {
    RED,
    GREEN;

    public String display() {
        return name();
    }
}
`)

	iface := findDecl(ff, "Greeter", facts.KindInterface)
	require.NotNil(t, iface)
	assert.Equal(t, "com.example.Greeter", iface.FQN)
	assert.NotNil(t, findDecl(ff, "greet", facts.KindMethod))

	enum := findDecl(ff, "Color", facts.KindEnum)
	require.NotNil(t, enum)

	red := findDecl(ff, "RED", facts.KindEnumConstant)
	require.NotNil(t, red)
	assert.Equal(t, "com.example.Color.RED", red.FQN)
}

func TestJavaExtractor_Record(t *testing.T) {
	t.Parallel()

	ff := extractJava(t, `
package com.example;

public record Point(int x, int y) {
}
`)

	record := findDecl(ff, "Point", facts.KindRecord)
	require.NotNil(t, record)
	assert.Equal(t, "com.example.Point", record.FQN)

	x := findDecl(ff, "x", facts.KindField)
	require.NotNil(t, x)
	assert.Equal(t, "com.example.Point.x", x.FQN)
	assert.Equal(t, "int", x.FieldType)

	// Each component also yields a synthesized accessor method x().
	var accessor *facts.Declaration
	for i := range ff.Decls {
		d := &ff.Decls[i]
		if d.Name == "x" && d.Kind == facts.KindMethod {
			accessor = d
		}
	}
	require.NotNil(t, accessor)
	assert.True(t, accessor.Synthesized)
	assert.Equal(t, x.Pos, accessor.Pos)
}

func TestJavaExtractor_LombokCapture(t *testing.T) {
	t.Parallel()

	ff := extractJava(t, `
package com.example;

import lombok.Data;
import lombok.Getter;

@Data
public class LombokUser {
    private String username;

    @Getter
    private boolean active;
}
`)

	require.NotEmpty(t, ff.Lombok)

	var classLevel, fieldLevel *facts.LombokAnnotation
	for i := range ff.Lombok {
		ann := &ff.Lombok[i]
		if ann.FieldName == "" {
			classLevel = ann
		} else {
			fieldLevel = ann
		}
	}

	require.NotNil(t, classLevel)
	assert.Equal(t, facts.LombokData, classLevel.Kind)
	assert.Equal(t, "com.example.LombokUser", classLevel.ClassFQN)

	require.NotNil(t, fieldLevel)
	assert.Equal(t, facts.LombokGetter, fieldLevel.Kind)
	assert.Equal(t, "active", fieldLevel.FieldName)
	assert.Equal(t, "com.example.LombokUser", fieldLevel.ClassFQN)
}

func TestJavaExtractor_LombokRequiresImport(t *testing.T) {
	t.Parallel()

	// @Data from some other package must not be captured: the import set
	// does not make lombok plausible.
	ff := extractJava(t, `
package com.example;

import com.acme.Data;

@Data
public class NotLombok {
    private String value;
}
`)

	assert.Empty(t, ff.Lombok)
}

func TestJavaExtractor_LombokWildcardImport(t *testing.T) {
	t.Parallel()

	ff := extractJava(t, `
package com.example;

import lombok.*;

@Getter
public class WildcardLombok {
    private String value;
}
`)

	require.Len(t, ff.Lombok, 1)
	assert.Equal(t, facts.LombokGetter, ff.Lombok[0].Kind)
}

func TestJavaExtractor_References(t *testing.T) {
	t.Parallel()

	ff := extractJava(t, `
package com.example;

import com.other.Helper;

public class Caller {
    public void run() {
        Helper h = new Helper();
        h.doWork();
        String s = h.getName();
        Runnable r = h::getName;
    }
}
`)

	calls := refNames(ff, facts.RefCall)
	assert.Contains(t, calls, "Helper", "constructor call references the class")
	assert.Contains(t, calls, "doWork")
	assert.Contains(t, calls, "getName")

	types := refNames(ff, facts.RefType)
	assert.Contains(t, types, "Helper")

	var doWork facts.Reference
	for _, r := range ff.Refs {
		if r.Name == "doWork" {
			doWork = r
		}
	}
	assert.Equal(t, "h", doWork.Qualifier)
}

func TestJavaExtractor_NestedClassFQN(t *testing.T) {
	t.Parallel()

	ff := extractJava(t, `
package p;

public class A {
    static class B {
        int f;
    }
}
`)

	b := findDecl(ff, "B", facts.KindClass)
	require.NotNil(t, b)
	assert.Equal(t, "p.A.B", b.FQN)

	f := findDecl(ff, "f", facts.KindField)
	require.NotNil(t, f)
	assert.Equal(t, "p.A.B.f", f.FQN)
}
