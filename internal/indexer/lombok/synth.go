// Package lombok synthesizes accessor declarations from captured
// @Data/@Getter/@Setter annotations. Correctness rests on Lombok's public
// naming contract, not on resolving the annotation types.
package lombok

import (
	"fmt"
	"strings"

	"github.com/ktxref/ktxref/internal/indexer/facts"
)

type accessorSet struct {
	getter bool
	setter bool
}

// Expand appends synthesized getter/setter declarations to the file's
// declaration list and returns the accessor map: field FQN → synthesized
// accessor FQNs. Synthesized declarations point at the underlying field's
// position, so jump-to-definition lands on the field.
func Expand(ff *facts.FileFacts) map[string][]string {
	if len(ff.Lombok) == 0 {
		return nil
	}

	classLevel := make(map[string]accessorSet)
	fieldLevel := make(map[string]accessorSet) // keyed by field FQN
	for _, ann := range ff.Lombok {
		var set accessorSet
		switch ann.Kind {
		case facts.LombokData:
			set = accessorSet{getter: true, setter: true}
		case facts.LombokGetter:
			set = accessorSet{getter: true}
		case facts.LombokSetter:
			set = accessorSet{setter: true}
		}
		if ann.FieldName == "" {
			cur := classLevel[ann.ClassFQN]
			cur.getter = cur.getter || set.getter
			cur.setter = cur.setter || set.setter
			classLevel[ann.ClassFQN] = cur
		} else {
			key := ann.ClassFQN + "." + ann.FieldName
			cur := fieldLevel[key]
			cur.getter = cur.getter || set.getter
			cur.setter = cur.setter || set.setter
			fieldLevel[key] = cur
		}
	}

	// Explicit methods by (class FQN, name, arity): a matching hand-written
	// method suppresses the synthesized one.
	explicit := make(map[string]bool)
	for _, d := range ff.Decls {
		if d.Kind == facts.KindMethod || d.Kind == facts.KindFunction {
			explicit[methodKey(d.ContainingFQN, d.Name, d.ParamCount)] = true
		}
	}

	accessors := make(map[string][]string)
	fields := make([]facts.Declaration, 0, len(ff.Decls))
	for _, d := range ff.Decls {
		if d.Kind == facts.KindField && !d.FieldStatic && d.ContainingFQN != "" {
			fields = append(fields, d)
		}
	}

	for _, field := range fields {
		set := classLevel[field.ContainingFQN]
		if fl, ok := fieldLevel[field.FQN]; ok {
			set.getter = set.getter || fl.getter
			set.setter = set.setter || fl.setter
		}
		if !set.getter && !set.setter {
			continue
		}

		getterName, setterName := AccessorNames(field.Name, field.FieldType)

		if set.getter && !explicit[methodKey(field.ContainingFQN, getterName, 0)] {
			decl := synthDecl(field, getterName, 0)
			ff.Decls = append(ff.Decls, decl)
			accessors[field.FQN] = append(accessors[field.FQN], decl.FQN)
		}
		if set.setter && !field.FieldFinal && !explicit[methodKey(field.ContainingFQN, setterName, 1)] {
			decl := synthDecl(field, setterName, 1)
			ff.Decls = append(ff.Decls, decl)
			accessors[field.FQN] = append(accessors[field.FQN], decl.FQN)
		}
	}

	if len(accessors) == 0 {
		return nil
	}
	return accessors
}

// AccessorNames returns the getter and setter simple names Lombok would
// generate for a field. A primitive boolean field gets the `is` form; a
// field already named isXxx keeps its name as getter and drops the prefix
// for the setter (isActive → isActive() / setActive(boolean)).
func AccessorNames(field, fieldType string) (getter, setter string) {
	if fieldType == "boolean" {
		if base, ok := stripIsPrefix(field); ok {
			return field, "set" + base
		}
		return "is" + capitalize(field), "set" + capitalize(field)
	}
	return "get" + capitalize(field), "set" + capitalize(field)
}

func synthDecl(field facts.Declaration, name string, params int) facts.Declaration {
	return facts.Declaration{
		Name:          name,
		FQN:           field.ContainingFQN + "." + name,
		Kind:          facts.KindMethod,
		ContainingFQN: field.ContainingFQN,
		Pos:           field.Pos,
		Lang:          field.Lang,
		Synthesized:   true,
		ParamCount:    params,
	}
}

func methodKey(classFQN, name string, arity int) string {
	return fmt.Sprintf("%s#%s/%d", classFQN, name, arity)
}

// stripIsPrefix reports whether the name is of the form isXxx and returns
// the Xxx part.
func stripIsPrefix(name string) (string, bool) {
	if len(name) > 2 && strings.HasPrefix(name, "is") && name[2] >= 'A' && name[2] <= 'Z' {
		return name[2:], true
	}
	return "", false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
