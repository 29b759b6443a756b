package facts

// Language identifies the source language of a file, declaration, or reference.
type Language string

const (
	LangKotlin Language = "kotlin"
	LangJava   Language = "java"
)

// Position is a byte range within a source file. Offsets are over raw bytes;
// line and column are computed on demand from offsets (see internal/source).
type Position struct {
	File      string `json:"file"`
	StartByte int    `json:"start_byte"`
	EndByte   int    `json:"end_byte"`
}

// Before orders positions by file path, then byte offset. This is the
// result-ordering contract for all query responses.
func (p Position) Before(other Position) bool {
	if p.File != other.File {
		return p.File < other.File
	}
	if p.StartByte != other.StartByte {
		return p.StartByte < other.StartByte
	}
	return p.EndByte < other.EndByte
}

// DeclKind classifies a declaration.
type DeclKind string

const (
	KindClass             DeclKind = "class"
	KindInterface         DeclKind = "interface"
	KindObject            DeclKind = "object"
	KindCompanionObject   DeclKind = "companion-object"
	KindEnum              DeclKind = "enum"
	KindEnumConstant      DeclKind = "enum-constant"
	KindAnnotation        DeclKind = "annotation"
	KindRecord            DeclKind = "record"
	KindFunction          DeclKind = "function"
	KindMethod            DeclKind = "method"
	KindField             DeclKind = "field"
	KindConstructor       DeclKind = "constructor"
	KindTypeAlias         DeclKind = "type-alias"
	KindExtensionFunction DeclKind = "extension-function"
)

// Declaration is a named program entity extracted from one file.
type Declaration struct {
	Name          string   `json:"name"`
	FQN           string   `json:"fqn"`
	Kind          DeclKind `json:"kind"`
	ContainingFQN string   `json:"containing_fqn,omitempty"`
	Pos           Position `json:"position"`
	Lang          Language `json:"language"`

	// Receiver is the extension receiver type as written in source, for
	// extension functions and extension properties. Resolved lazily at
	// query time against the declaring file's imports.
	Receiver string `json:"receiver,omitempty"`

	// AliasTarget is the right-hand side of a typealias, as written.
	AliasTarget string `json:"alias_target,omitempty"`

	// Synthesized marks declarations that do not appear in source text
	// (Lombok accessors, record component accessors).
	Synthesized bool `json:"synthesized,omitempty"`

	// Field attributes, populated for KindField only. Consumed by the
	// Lombok synthesizer.
	FieldType   string `json:"-"`
	FieldStatic bool   `json:"-"`
	FieldFinal  bool   `json:"-"`

	// ParamCount is the declared parameter count for functions, methods
	// and constructors. Used for accessor conflict detection.
	ParamCount int `json:"-"`
}

// SamePosition reports whether two declarations point at the same source
// range. Companion-expanded entries and their raw forms compare equal.
func (d Declaration) SamePosition(other Declaration) bool {
	return d.Pos == other.Pos
}

// RefKind is a coarse hint about how a name is used at a site.
type RefKind string

const (
	RefType     RefKind = "type-ref"
	RefCall     RefKind = "call"
	RefProperty RefKind = "property-access"
	RefImport   RefKind = "import"
	RefUnknown  RefKind = "unknown"
)

// Reference is a single use site of a simple name.
type Reference struct {
	Name string `json:"name"`

	// Qualifier is the dotted prefix as written at the site ("user" in
	// user.isAdmin, "a.b" in a.b.c). Empty for bare uses. No resolution
	// is attempted at extraction time.
	Qualifier string `json:"qualifier,omitempty"`

	Pos  Position `json:"position"`
	Lang Language `json:"language"`
	Kind RefKind  `json:"kind"`
}

// Import is one import statement of a file.
type Import struct {
	FQN      string   `json:"fqn"`
	Alias    string   `json:"alias,omitempty"`
	Wildcard bool     `json:"wildcard,omitempty"`
	Static   bool     `json:"static,omitempty"`
	Pos      Position `json:"position"`
}

// SimpleName is the local name the import binds: the alias if present,
// otherwise the last segment of the imported path.
func (i Import) SimpleName() string {
	if i.Alias != "" {
		return i.Alias
	}
	return LastSegment(i.FQN)
}

// LombokKind is the annotation family recognized by the synthesizer.
type LombokKind string

const (
	LombokData   LombokKind = "Data"
	LombokGetter LombokKind = "Getter"
	LombokSetter LombokKind = "Setter"
)

// LombokAnnotation is a captured @Data/@Getter/@Setter application.
// FieldName is empty for class-level annotations.
type LombokAnnotation struct {
	Kind      LombokKind `json:"kind"`
	ClassFQN  string     `json:"class_fqn"`
	FieldName string     `json:"field_name,omitempty"`
}

// FileFacts is the complete extractor output for one source file.
type FileFacts struct {
	Path    string             `json:"path"`
	Lang    Language           `json:"language"`
	Package string             `json:"package"`
	Imports []Import           `json:"imports"`
	Scopes  *Scope             `json:"scopes"`
	Decls   []Declaration      `json:"declarations"`
	Refs    []Reference        `json:"references"`
	Lombok  []LombokAnnotation `json:"lombok,omitempty"`

	// ErrorNodes counts CST error nodes encountered. Extraction is
	// best-effort; a non-zero count means some subtrees were skipped.
	ErrorNodes int `json:"error_nodes,omitempty"`
}

// ImportsFQN reports whether the file imports exactly the given FQN, or
// has a wildcard import covering its package.
func (f *FileFacts) ImportsFQN(fqn string) bool {
	pkg := ParentSegment(fqn)
	for _, imp := range f.Imports {
		if !imp.Wildcard && imp.FQN == fqn {
			return true
		}
		if imp.Wildcard && imp.FQN == pkg {
			return true
		}
	}
	return false
}

// LastSegment returns the part after the final dot, or the whole string.
func LastSegment(fqn string) string {
	for i := len(fqn) - 1; i >= 0; i-- {
		if fqn[i] == '.' {
			return fqn[i+1:]
		}
	}
	return fqn
}

// ParentSegment returns everything before the final dot, or "".
func ParentSegment(fqn string) string {
	for i := len(fqn) - 1; i >= 0; i-- {
		if fqn[i] == '.' {
			return fqn[:i]
		}
	}
	return ""
}

// FirstSegment returns the part before the first dot, or the whole string.
func FirstSegment(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}
