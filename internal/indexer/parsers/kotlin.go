package parsers

import (
	"strings"

	kotlin "github.com/tree-sitter-grammars/tree-sitter-kotlin/bindings/go"
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/ktxref/ktxref/internal/indexer/facts"
)

// kotlinExtractor extracts declarations, references, imports, and scopes
// from Kotlin files.
type kotlinExtractor struct {
	*treeSitterExtractor
}

// NewKotlinExtractor creates a new Kotlin extractor.
func NewKotlinExtractor() Extractor {
	lang := sitter.NewLanguage(kotlin.Language())
	return &kotlinExtractor{
		treeSitterExtractor: newTreeSitterExtractor(lang, facts.LangKotlin),
	}
}

func (e *kotlinExtractor) Language() facts.Language {
	return e.lang
}

// Extract parses a Kotlin source file and walks the CST once.
func (e *kotlinExtractor) Extract(path string, source []byte) (*facts.FileFacts, error) {
	tree, err := e.parse(path, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()

	ff := &facts.FileFacts{
		Path:   path,
		Lang:   facts.LangKotlin,
		Scopes: facts.NewFileScope(len(source)),
	}

	ff.Package = e.extractPackage(root, source)
	ff.Imports = e.extractImports(path, root, source)
	e.collectScopes(root, source, ff.Scopes)
	e.extractDeclarations(root, source, path, ff)
	e.extractReferences(root, source, path, ff)

	for _, imp := range ff.Imports {
		if imp.Wildcard {
			continue
		}
		ff.Refs = append(ff.Refs, facts.Reference{
			Name:      imp.SimpleName(),
			Qualifier: facts.ParentSegment(imp.FQN),
			Pos:       imp.Pos,
			Lang:      facts.LangKotlin,
			Kind:      facts.RefImport,
		})
	}

	ff.ErrorNodes = countErrorNodes(root)
	return ff, nil
}

// extractPackage reads the package header; empty string if absent.
func (e *kotlinExtractor) extractPackage(root *sitter.Node, source []byte) string {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(uint(i))
		if child.Kind() != "package_header" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			c := child.Child(uint(j))
			if c.Kind() == "qualified_identifier" || c.Kind() == "identifier" {
				return nodeText(c, source)
			}
		}
	}
	return ""
}

// extractImports handles explicit, wildcard, and aliased imports. Imports
// appear either as direct nodes at the root or inside an import_list.
func (e *kotlinExtractor) extractImports(path string, root *sitter.Node, source []byte) []facts.Import {
	var imports []facts.Import

	collect := func(node *sitter.Node) {
		if node.Kind() == "import" || node.Kind() == "import_header" {
			if imp, ok := e.parseImport(path, node, source); ok {
				imports = append(imports, imp)
			}
		}
	}

	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(uint(i))
		collect(child)
		if child.Kind() == "import_list" {
			for j := 0; j < int(child.ChildCount()); j++ {
				collect(child.Child(uint(j)))
			}
		}
	}

	return imports
}

func (e *kotlinExtractor) parseImport(path string, node *sitter.Node, source []byte) (facts.Import, bool) {
	imp := facts.Import{Pos: position(path, node)}
	seenAs := false

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		switch child.Kind() {
		case "qualified_identifier":
			imp.FQN = nodeText(child, source)
		case "as":
			seenAs = true
		case "identifier", "simple_identifier":
			if seenAs {
				imp.Alias = nodeText(child, source)
			} else if imp.FQN == "" {
				imp.FQN = nodeText(child, source)
			}
		case "*":
			imp.Wildcard = true
		case "import_alias":
			for j := 0; j < int(child.ChildCount()); j++ {
				c := child.Child(uint(j))
				switch c.Kind() {
				case "identifier", "simple_identifier", "type_identifier":
					imp.Alias = nodeText(c, source)
				}
			}
		}
	}

	return imp, imp.FQN != ""
}

// collectScopes builds the scope tree: class/object/companion bodies plus
// function and lambda bodies.
func (e *kotlinExtractor) collectScopes(root *sitter.Node, source []byte, scopes *facts.Scope) {
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "class_declaration", "object_declaration":
			if body := kotlinBody(n); body != nil {
				kind := facts.ScopeClass
				if n.Kind() == "object_declaration" {
					kind = facts.ScopeObject
				}
				scopes.Insert(&facts.Scope{
					Name:      findIdentifierChild(n, source),
					Kind:      kind,
					StartByte: int(body.StartByte()),
					EndByte:   int(body.EndByte()),
				})
			}
		case "companion_object":
			if body := kotlinBody(n); body != nil {
				name := findIdentifierChild(n, source)
				if name == "" {
					name = "Companion"
				}
				scopes.Insert(&facts.Scope{
					Name:      name,
					Kind:      facts.ScopeCompanion,
					StartByte: int(body.StartByte()),
					EndByte:   int(body.EndByte()),
				})
			}
		case "function_declaration":
			if body := findChildByType(n, "function_body"); body != nil {
				scopes.Insert(&facts.Scope{
					Name:      findIdentifierChild(n, source),
					Kind:      facts.ScopeFunction,
					StartByte: int(body.StartByte()),
					EndByte:   int(body.EndByte()),
				})
			}
		case "lambda_literal":
			scopes.Insert(&facts.Scope{
				Kind:      facts.ScopeLambda,
				StartByte: int(n.StartByte()),
				EndByte:   int(n.EndByte()),
			})
		}
		return true
	})
}

// kotlinBody returns the body node of a class-like declaration, nil when
// the declaration has no body.
func kotlinBody(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		switch child.Kind() {
		case "class_body", "enum_class_body", "object_body":
			return child
		}
	}
	return nil
}

func (e *kotlinExtractor) extractDeclarations(root *sitter.Node, source []byte, path string, ff *facts.FileFacts) {
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "class_declaration":
			name := findIdentifierChild(n, source)
			if name == "" {
				return true
			}
			e.addDecl(ff, facts.Declaration{
				Name: name,
				Kind: kotlinClassKind(n, source),
				Pos:  position(path, n),
			})
		case "object_declaration":
			name := findIdentifierChild(n, source)
			if name == "" {
				return true
			}
			e.addDecl(ff, facts.Declaration{
				Name: name,
				Kind: facts.KindObject,
				Pos:  position(path, n),
			})
		case "companion_object":
			name := findIdentifierChild(n, source)
			if name == "" {
				name = "Companion"
			}
			e.addDecl(ff, facts.Declaration{
				Name: name,
				Kind: facts.KindCompanionObject,
				Pos:  position(path, n),
			})
		case "function_declaration":
			name := findIdentifierChild(n, source)
			if name == "" {
				return true
			}
			decl := facts.Declaration{
				Name:       name,
				Kind:       facts.KindFunction,
				Pos:        position(path, n),
				Receiver:   kotlinReceiver(n, source),
				ParamCount: kotlinParamCount(n),
			}
			if decl.Receiver != "" {
				decl.Kind = facts.KindExtensionFunction
			}
			e.addDecl(ff, decl)
		case "property_declaration":
			name := kotlinPropertyName(n, source)
			if name == "" {
				return true
			}
			e.addDecl(ff, facts.Declaration{
				Name:     name,
				Kind:     facts.KindField,
				Pos:      position(path, n),
				Receiver: kotlinPropertyReceiver(n, source),
			})
		case "enum_entry":
			name := findIdentifierChild(n, source)
			if name == "" {
				return true
			}
			e.addDecl(ff, facts.Declaration{
				Name: name,
				Kind: facts.KindEnumConstant,
				Pos:  position(path, n),
			})
		case "type_alias":
			name := findIdentifierChild(n, source)
			if name == "" {
				return true
			}
			e.addDecl(ff, facts.Declaration{
				Name:        name,
				Kind:        facts.KindTypeAlias,
				Pos:         position(path, n),
				AliasTarget: kotlinAliasTarget(n, source),
			})
		}
		return true
	})
}

// addDecl finalizes the FQN from the scope chain at the declaration site and
// records the simple name in its scope.
func (e *kotlinExtractor) addDecl(ff *facts.FileFacts, decl facts.Declaration) {
	prefix := ff.Scopes.FQNPrefixAt(ff.Package, decl.Pos.StartByte)
	if prefix == "" {
		decl.FQN = decl.Name
	} else {
		decl.FQN = prefix + "." + decl.Name
	}
	if prefix != ff.Package {
		decl.ContainingFQN = prefix
	}
	decl.Lang = ff.Lang
	ff.Scopes.AddName(decl.Pos.StartByte, decl.Name)
	ff.Decls = append(ff.Decls, decl)
}

// kotlinClassKind distinguishes class, interface, enum, and annotation
// class. The grammar uses class_declaration for all four; the keyword
// children and body kind tell them apart.
func kotlinClassKind(node *sitter.Node, source []byte) facts.DeclKind {
	if hasChildOfType(node, "interface") {
		return facts.KindInterface
	}
	if findChildByType(node, "enum_class_body") != nil || hasChildOfType(node, "enum") {
		return facts.KindEnum
	}
	if mods := findChildByType(node, "modifiers"); mods != nil {
		if strings.Contains(nodeText(mods, source), "annotation") {
			return facts.KindAnnotation
		}
	}
	return facts.KindClass
}

// kotlinReceiver returns the extension receiver type as written, for
// `fun Receiver.f(...)`. The receiver user_type appears before the
// function name in the CST.
func kotlinReceiver(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		switch child.Kind() {
		case "user_type":
			return nodeText(child, source)
		case "identifier", "simple_identifier":
			return ""
		}
	}
	return ""
}

// kotlinPropertyReceiver detects extension properties: a user_type child
// before the variable_declaration.
func kotlinPropertyReceiver(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		switch child.Kind() {
		case "user_type":
			return nodeText(child, source)
		case "variable_declaration", "identifier", "simple_identifier":
			return ""
		}
	}
	return ""
}

func kotlinPropertyName(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == "variable_declaration" {
			return findIdentifierChild(child, source)
		}
		if child.Kind() == "identifier" || child.Kind() == "simple_identifier" {
			return nodeText(child, source)
		}
	}
	return ""
}

func kotlinParamCount(node *sitter.Node) int {
	params := findChildByType(node, "function_value_parameters")
	if params == nil {
		return 0
	}
	return len(findChildrenByType(params, "parameter"))
}

func kotlinAliasTarget(node *sitter.Node, source []byte) string {
	foundEq := false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == "=" {
			foundEq = true
			continue
		}
		if !foundEq {
			continue
		}
		switch child.Kind() {
		case "user_type", "type_identifier", "identifier", "qualified_identifier":
			return nodeText(child, source)
		}
	}
	return ""
}

// extractReferences walks expression trees and emits use sites: calls,
// navigation (property access), callable references, type references, and
// bare identifier uses.
func (e *kotlinExtractor) extractReferences(node *sitter.Node, source []byte, path string, ff *facts.FileFacts) {
	switch node.Kind() {
	case "call_expression":
		callee := node.Child(0)
		if callee != nil {
			switch callee.Kind() {
			case "navigation_expression":
				if member := navMember(callee, source); member != nil {
					ff.Refs = append(ff.Refs, facts.Reference{
						Name:      nodeText(member, source),
						Qualifier: navQualifier(callee, source),
						Pos:       position(path, node),
						Lang:      ff.Lang,
						Kind:      facts.RefCall,
					})
				}
				e.extractNavReceiver(callee, source, path, ff)
			case "simple_identifier", "identifier":
				ff.Refs = append(ff.Refs, facts.Reference{
					Name: nodeText(callee, source),
					Pos:  position(path, node),
					Lang: ff.Lang,
					Kind: facts.RefCall,
				})
			default:
				e.extractReferences(callee, source, path, ff)
			}
		}
		// Recurse into arguments, skipping the callee.
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(uint(i))
			if sameNode(child, callee) {
				continue
			}
			e.extractReferences(child, source, path, ff)
		}
		return

	case "navigation_expression":
		// A navigation under a call_expression is the callee, handled above.
		if parent := node.Parent(); parent != nil && parent.Kind() == "call_expression" {
			return
		}
		if member := navMember(node, source); member != nil {
			ff.Refs = append(ff.Refs, facts.Reference{
				Name:      nodeText(member, source),
				Qualifier: navQualifier(node, source),
				Pos:       position(path, node),
				Lang:      ff.Lang,
				Kind:      facts.RefProperty,
			})
		}
		e.extractNavReceiver(node, source, path, ff)
		return

	case "callable_reference":
		// `::name` and `Receiver::name`. Both count as usages of the
		// referenced declaration.
		name, qualifier := callableReferenceParts(node, source)
		if name != "" {
			ff.Refs = append(ff.Refs, facts.Reference{
				Name:      name,
				Qualifier: qualifier,
				Pos:       position(path, node),
				Lang:      ff.Lang,
				Kind:      facts.RefCall,
			})
		}
		return

	case "user_type":
		text := nodeText(node, source)
		base := strings.TrimSpace(strings.SplitN(text, "<", 2)[0])
		name := facts.LastSegment(base)
		if name != "" && name[0] >= 'A' && name[0] <= 'Z' {
			ff.Refs = append(ff.Refs, facts.Reference{
				Name:      name,
				Qualifier: facts.ParentSegment(base),
				Pos:       position(path, node),
				Lang:      ff.Lang,
				Kind:      facts.RefType,
			})
		}
		// Type arguments carry their own type references.
		if args := findChildByType(node, "type_arguments"); args != nil {
			for i := 0; i < int(args.ChildCount()); i++ {
				e.extractReferences(args.Child(uint(i)), source, path, ff)
			}
		}
		return

	case "simple_identifier", "identifier":
		e.extractBareIdentifier(node, source, path, ff)
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		e.extractReferences(node.Child(uint(i)), source, path, ff)
	}
}

// extractNavReceiver captures the receiver of a navigation expression. A
// leaf identifier receiver (`Config` in Config.foo) is emitted directly; a
// compound receiver is walked recursively.
func (e *kotlinExtractor) extractNavReceiver(nav *sitter.Node, source []byte, path string, ff *facts.FileFacts) {
	receiver := nav.Child(0)
	if receiver == nil {
		return
	}
	if receiver.Kind() == "simple_identifier" || receiver.Kind() == "identifier" {
		name := nodeText(receiver, source)
		if name != "" {
			ff.Refs = append(ff.Refs, facts.Reference{
				Name: name,
				Pos:  position(path, receiver),
				Lang: ff.Lang,
				Kind: facts.RefProperty,
			})
		}
		return
	}
	e.extractReferences(receiver, source, path, ff)
}

// extractBareIdentifier emits a reference for an identifier used as a value,
// unless its parent context already accounts for it (declaration names,
// import paths, navigation members, type positions).
func (e *kotlinExtractor) extractBareIdentifier(node *sitter.Node, source []byte, path string, ff *facts.FileFacts) {
	parent := node.Parent()
	if parent == nil {
		return
	}
	switch parent.Kind() {
	case "class_declaration", "object_declaration", "function_declaration",
		"variable_declaration", "parameter", "companion_object", "enum_entry",
		"type_alias", "import", "import_header", "import_alias", "import_list",
		"package_header", "qualified_identifier", "navigation_expression",
		"navigation_suffix", "user_type", "type_parameter", "type_constraint",
		"annotation", "label", "callable_reference":
		return
	case "call_expression":
		if sameNode(parent.Child(0), node) {
			return
		}
	}

	name := nodeText(node, source)
	if name == "" {
		return
	}
	ff.Refs = append(ff.Refs, facts.Reference{
		Name: name,
		Pos:  position(path, node),
		Lang: ff.Lang,
		Kind: facts.RefProperty,
	})
}

// navMember returns the member identifier of a navigation expression: the
// identifier inside the trailing navigation_suffix.
func navMember(nav *sitter.Node, source []byte) *sitter.Node {
	if member := nav.ChildByFieldName("member"); member != nil {
		return member
	}
	count := int(nav.ChildCount())
	if count == 0 {
		return nil
	}
	last := nav.Child(uint(count - 1))
	if last == nil {
		return nil
	}
	if last.Kind() == "navigation_suffix" {
		for i := 0; i < int(last.ChildCount()); i++ {
			c := last.Child(uint(i))
			if c.Kind() == "simple_identifier" || c.Kind() == "identifier" {
				return c
			}
		}
		return nil
	}
	if last.Kind() == "simple_identifier" || last.Kind() == "identifier" {
		return last
	}
	return nil
}

// navQualifier returns the receiver expression as written when it is a
// plain dotted chain, empty otherwise.
func navQualifier(nav *sitter.Node, source []byte) string {
	receiver := nav.Child(0)
	if receiver == nil {
		return ""
	}
	text := nodeText(receiver, source)
	if isQualifierChain(text) {
		return text
	}
	return ""
}

// callableReferenceParts splits `A::b` / `::b` into name and qualifier.
func callableReferenceParts(node *sitter.Node, source []byte) (name, qualifier string) {
	seenColons := false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		switch child.Kind() {
		case "::":
			seenColons = true
		case "simple_identifier", "identifier", "type_identifier", "user_type":
			text := nodeText(child, source)
			if seenColons {
				return text, qualifier
			}
			if isQualifierChain(text) {
				qualifier = text
			}
		}
	}
	return "", ""
}
