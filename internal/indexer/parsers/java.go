package parsers

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/ktxref/ktxref/internal/indexer/facts"
)

// javaExtractor extracts declarations, references, imports, and scopes from
// Java files, and captures Lombok annotation applications for the
// synthesizer.
type javaExtractor struct {
	*treeSitterExtractor
}

// NewJavaExtractor creates a new Java extractor.
func NewJavaExtractor() Extractor {
	lang := sitter.NewLanguage(java.Language())
	return &javaExtractor{
		treeSitterExtractor: newTreeSitterExtractor(lang, facts.LangJava),
	}
}

func (e *javaExtractor) Language() facts.Language {
	return e.lang
}

// Extract parses a Java source file and walks the CST once.
func (e *javaExtractor) Extract(path string, source []byte) (*facts.FileFacts, error) {
	tree, err := e.parse(path, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()

	ff := &facts.FileFacts{
		Path:   path,
		Lang:   facts.LangJava,
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
			Lang:      facts.LangJava,
			Kind:      facts.RefImport,
		})
	}

	ff.ErrorNodes = countErrorNodes(root)
	return ff, nil
}

func (e *javaExtractor) extractPackage(root *sitter.Node, source []byte) string {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(uint(i))
		if child.Kind() != "package_declaration" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			c := child.Child(uint(j))
			if c.Kind() == "scoped_identifier" || c.Kind() == "identifier" {
				return nodeText(c, source)
			}
		}
	}
	return ""
}

// extractImports handles single-type, on-demand, static, and
// static-on-demand imports.
func (e *javaExtractor) extractImports(path string, root *sitter.Node, source []byte) []facts.Import {
	var imports []facts.Import

	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(uint(i))
		if child.Kind() != "import_declaration" {
			continue
		}

		imp := facts.Import{Pos: position(path, child)}
		for j := 0; j < int(child.ChildCount()); j++ {
			c := child.Child(uint(j))
			switch c.Kind() {
			case "static":
				imp.Static = true
			case "scoped_identifier":
				imp.FQN = nodeText(c, source)
			case "identifier":
				if imp.FQN == "" {
					imp.FQN = nodeText(c, source)
				}
			case "asterisk":
				imp.Wildcard = true
			}
		}
		if imp.FQN != "" {
			imports = append(imports, imp)
		}
	}

	return imports
}

func (e *javaExtractor) collectScopes(root *sitter.Node, source []byte, scopes *facts.Scope) {
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "class_declaration", "interface_declaration", "enum_declaration",
			"record_declaration", "annotation_type_declaration":
			if body := javaBody(n); body != nil {
				scopes.Insert(&facts.Scope{
					Name:      findIdentifierChild(n, source),
					Kind:      facts.ScopeClass,
					StartByte: int(body.StartByte()),
					EndByte:   int(body.EndByte()),
				})
			}
		case "method_declaration", "constructor_declaration":
			body := findChildByType(n, "block")
			if body == nil {
				body = findChildByType(n, "constructor_body")
			}
			if body != nil {
				scopes.Insert(&facts.Scope{
					Name:      declName(n, source),
					Kind:      facts.ScopeFunction,
					StartByte: int(body.StartByte()),
					EndByte:   int(body.EndByte()),
				})
			}
		case "lambda_expression":
			scopes.Insert(&facts.Scope{
				Kind:      facts.ScopeLambda,
				StartByte: int(n.StartByte()),
				EndByte:   int(n.EndByte()),
			})
		}
		return true
	})
}

func javaBody(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		switch child.Kind() {
		case "class_body", "interface_body", "enum_body",
			"annotation_type_body", "record_declaration_body":
			return child
		}
	}
	return nil
}

func declName(node *sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return nodeText(name, source)
	}
	return findIdentifierChild(node, source)
}

func (e *javaExtractor) extractDeclarations(node *sitter.Node, source []byte, path string, ff *facts.FileFacts) {
	switch node.Kind() {
	case "class_declaration":
		e.addTypeDecl(node, source, path, ff, facts.KindClass)
	case "interface_declaration":
		e.addTypeDecl(node, source, path, ff, facts.KindInterface)
	case "enum_declaration":
		e.addTypeDecl(node, source, path, ff, facts.KindEnum)
	case "annotation_type_declaration":
		e.addTypeDecl(node, source, path, ff, facts.KindAnnotation)
	case "record_declaration":
		e.extractRecord(node, source, path, ff)
	case "enum_constant":
		if name := findIdentifierChild(node, source); name != "" {
			e.addDecl(ff, facts.Declaration{
				Name: name,
				Kind: facts.KindEnumConstant,
				Pos:  position(path, node),
			})
		}
	case "method_declaration":
		if name := declName(node, source); name != "" {
			e.addDecl(ff, facts.Declaration{
				Name:       name,
				Kind:       facts.KindMethod,
				Pos:        position(path, node),
				ParamCount: javaParamCount(node),
			})
		}
	case "constructor_declaration":
		if name := declName(node, source); name != "" {
			e.addDecl(ff, facts.Declaration{
				Name:       name,
				Kind:       facts.KindConstructor,
				Pos:        position(path, node),
				ParamCount: javaParamCount(node),
			})
		}
	case "field_declaration":
		e.extractFields(node, source, path, ff)
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		e.extractDeclarations(node.Child(uint(i)), source, path, ff)
	}
}

// addTypeDecl records a type declaration and any class-level Lombok
// annotations sitting in its modifiers.
func (e *javaExtractor) addTypeDecl(node *sitter.Node, source []byte, path string, ff *facts.FileFacts, kind facts.DeclKind) {
	name := declName(node, source)
	if name == "" {
		return
	}
	decl := facts.Declaration{
		Name: name,
		Kind: kind,
		Pos:  position(path, node),
	}
	e.addDecl(ff, decl)

	classFQN := ff.Decls[len(ff.Decls)-1].FQN
	for _, lk := range lombokAnnotations(node, source, ff.Imports) {
		ff.Lombok = append(ff.Lombok, facts.LombokAnnotation{
			Kind:     lk,
			ClassFQN: classFQN,
		})
	}
}

// extractRecord records the type plus its components: each component x is a
// field declaration and a synthesized accessor method x().
func (e *javaExtractor) extractRecord(node *sitter.Node, source []byte, path string, ff *facts.FileFacts) {
	name := declName(node, source)
	if name == "" {
		return
	}
	e.addDecl(ff, facts.Declaration{
		Name: name,
		Kind: facts.KindRecord,
		Pos:  position(path, node),
	})
	recordFQN := ff.Decls[len(ff.Decls)-1].FQN

	params := findChildByType(node, "formal_parameters")
	if params == nil {
		return
	}
	for _, p := range findChildrenByType(params, "formal_parameter") {
		compName := ""
		compType := ""
		if n := p.ChildByFieldName("name"); n != nil {
			compName = nodeText(n, source)
		}
		if tn := p.ChildByFieldName("type"); tn != nil {
			compType = nodeText(tn, source)
		}
		if compName == "" {
			continue
		}
		pos := position(path, p)
		ff.Decls = append(ff.Decls, facts.Declaration{
			Name:          compName,
			FQN:           recordFQN + "." + compName,
			Kind:          facts.KindField,
			ContainingFQN: recordFQN,
			Pos:           pos,
			Lang:          facts.LangJava,
			FieldType:     compType,
			FieldFinal:    true,
		})
		ff.Decls = append(ff.Decls, facts.Declaration{
			Name:          compName,
			FQN:           recordFQN + "." + compName,
			Kind:          facts.KindMethod,
			ContainingFQN: recordFQN,
			Pos:           pos,
			Lang:          facts.LangJava,
			Synthesized:   true,
		})
	}
}

// extractFields handles a field_declaration, which may carry several
// declarators and field-level Lombok annotations.
func (e *javaExtractor) extractFields(node *sitter.Node, source []byte, path string, ff *facts.FileFacts) {
	modText := ""
	if mods := findChildByType(node, "modifiers"); mods != nil {
		modText = nodeText(mods, source)
	}
	isStatic := strings.Contains(modText, "static")
	isFinal := strings.Contains(modText, "final")

	typeText := ""
	if tn := node.ChildByFieldName("type"); tn != nil {
		typeText = nodeText(tn, source)
	}

	lomboks := lombokAnnotations(node, source, ff.Imports)

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() != "variable_declarator" {
			continue
		}
		name := findIdentifierChild(child, source)
		if name == "" {
			continue
		}
		e.addDecl(ff, facts.Declaration{
			Name:        name,
			Kind:        facts.KindField,
			Pos:         position(path, child),
			FieldType:   typeText,
			FieldStatic: isStatic,
			FieldFinal:  isFinal,
		})
		fieldDecl := ff.Decls[len(ff.Decls)-1]
		for _, lk := range lomboks {
			ff.Lombok = append(ff.Lombok, facts.LombokAnnotation{
				Kind:      lk,
				ClassFQN:  fieldDecl.ContainingFQN,
				FieldName: name,
			})
		}
	}
}

// addDecl finalizes the FQN from the scope chain at the declaration site.
func (e *javaExtractor) addDecl(ff *facts.FileFacts, decl facts.Declaration) {
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

// lombokAnnotations collects Data/Getter/Setter annotation applications
// from a declaration's modifiers. A simple-name match is accepted when the
// file's import set makes lombok plausible; no type resolution is done.
func lombokAnnotations(node *sitter.Node, source []byte, imports []facts.Import) []facts.LombokKind {
	mods := findChildByType(node, "modifiers")
	if mods == nil {
		return nil
	}

	plausible := false
	for _, imp := range imports {
		if imp.FQN == "lombok" || strings.HasPrefix(imp.FQN, "lombok.") {
			plausible = true
			break
		}
	}
	if !plausible {
		return nil
	}

	var kinds []facts.LombokKind
	for i := 0; i < int(mods.ChildCount()); i++ {
		child := mods.Child(uint(i))
		if child.Kind() != "annotation" && child.Kind() != "marker_annotation" {
			continue
		}
		name := ""
		if n := child.ChildByFieldName("name"); n != nil {
			name = facts.LastSegment(nodeText(n, source))
		}
		switch name {
		case "Data":
			kinds = append(kinds, facts.LombokData)
		case "Getter":
			kinds = append(kinds, facts.LombokGetter)
		case "Setter":
			kinds = append(kinds, facts.LombokSetter)
		}
	}
	return kinds
}

func javaParamCount(node *sitter.Node) int {
	params := findChildByType(node, "formal_parameters")
	if params == nil {
		return 0
	}
	count := len(findChildrenByType(params, "formal_parameter"))
	count += len(findChildrenByType(params, "spread_parameter"))
	return count
}

func (e *javaExtractor) extractReferences(node *sitter.Node, source []byte, path string, ff *facts.FileFacts) {
	switch node.Kind() {
	case "method_invocation":
		nameNode := node.ChildByFieldName("name")
		if nameNode != nil {
			qualifier := ""
			if obj := node.ChildByFieldName("object"); obj != nil {
				if text := nodeText(obj, source); isQualifierChain(text) {
					qualifier = text
				}
			}
			ff.Refs = append(ff.Refs, facts.Reference{
				Name:      nodeText(nameNode, source),
				Qualifier: qualifier,
				Pos:       position(path, node),
				Lang:      ff.Lang,
				Kind:      facts.RefCall,
			})
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(uint(i))
			if sameNode(child, nameNode) {
				continue
			}
			e.extractReferences(child, source, path, ff)
		}
		return

	case "object_creation_expression":
		// `new Foo(...)` resolves to the class by simple name.
		if typeNode := javaCreationType(node); typeNode != nil {
			ff.Refs = append(ff.Refs, facts.Reference{
				Name: nodeText(typeNode, source),
				Pos:  position(path, node),
				Lang: ff.Lang,
				Kind: facts.RefCall,
			})
		}
		if args := findChildByType(node, "argument_list"); args != nil {
			e.extractReferences(args, source, path, ff)
		}
		return

	case "field_access":
		if fieldNode := node.ChildByFieldName("field"); fieldNode != nil {
			qualifier := ""
			if obj := node.ChildByFieldName("object"); obj != nil {
				if text := nodeText(obj, source); isQualifierChain(text) {
					qualifier = text
				}
			}
			ff.Refs = append(ff.Refs, facts.Reference{
				Name:      nodeText(fieldNode, source),
				Qualifier: qualifier,
				Pos:       position(path, node),
				Lang:      ff.Lang,
				Kind:      facts.RefProperty,
			})
		}
		if obj := node.ChildByFieldName("object"); obj != nil {
			e.extractReferences(obj, source, path, ff)
		}
		return

	case "method_reference":
		// `Foo::bar` counts as a usage of bar.
		e.extractMethodReference(node, source, path, ff)
		return

	case "type_identifier":
		e.extractTypeIdentifier(node, source, path, ff)
		return

	case "identifier":
		e.extractJavaBareIdentifier(node, source, path, ff)
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		e.extractReferences(node.Child(uint(i)), source, path, ff)
	}
}

func (e *javaExtractor) extractMethodReference(node *sitter.Node, source []byte, path string, ff *facts.FileFacts) {
	seenColons := false
	qualifier := ""
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		switch child.Kind() {
		case "::":
			seenColons = true
		case "identifier", "type_identifier":
			text := nodeText(child, source)
			if seenColons {
				ff.Refs = append(ff.Refs, facts.Reference{
					Name:      text,
					Qualifier: qualifier,
					Pos:       position(path, node),
					Lang:      ff.Lang,
					Kind:      facts.RefCall,
				})
				return
			}
			qualifier = text
		}
	}
}

func (e *javaExtractor) extractTypeIdentifier(node *sitter.Node, source []byte, path string, ff *facts.FileFacts) {
	parent := node.Parent()
	if parent == nil {
		return
	}
	switch parent.Kind() {
	case "class_declaration", "interface_declaration", "enum_declaration",
		"record_declaration", "annotation_type_declaration", "enum_constant",
		"import_declaration", "package_declaration", "scoped_identifier",
		"scoped_type_identifier":
		return
	}

	name := nodeText(node, source)
	if name == "" {
		return
	}
	ff.Refs = append(ff.Refs, facts.Reference{
		Name: name,
		Pos:  position(path, node),
		Lang: ff.Lang,
		Kind: facts.RefType,
	})
}

func (e *javaExtractor) extractJavaBareIdentifier(node *sitter.Node, source []byte, path string, ff *facts.FileFacts) {
	parent := node.Parent()
	if parent == nil {
		return
	}
	switch parent.Kind() {
	case "class_declaration", "interface_declaration", "enum_declaration",
		"record_declaration", "annotation_type_declaration", "enum_constant",
		"method_declaration", "constructor_declaration", "import_declaration",
		"package_declaration", "scoped_identifier", "scoped_type_identifier",
		"field_access", "variable_declarator", "formal_parameter",
		"type_parameter", "annotation", "marker_annotation",
		"catch_formal_parameter", "enhanced_for_statement", "label",
		"break_statement", "continue_statement", "method_reference":
		return
	case "method_invocation":
		if sameNode(parent.ChildByFieldName("name"), node) {
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

func javaCreationType(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		switch child.Kind() {
		case "type_identifier", "identifier":
			return child
		case "generic_type":
			for j := 0; j < int(child.ChildCount()); j++ {
				c := child.Child(uint(j))
				if c.Kind() == "type_identifier" || c.Kind() == "identifier" {
					return c
				}
			}
		}
	}
	return nil
}
