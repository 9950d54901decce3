package graph

// NodeKind represents the kind of a symbol node.
type NodeKind string

const (
	KindFile      NodeKind = "file"
	KindModule    NodeKind = "module"
	KindClass     NodeKind = "class"
	KindStruct    NodeKind = "struct"
	KindInterface NodeKind = "interface"
	KindFunction  NodeKind = "function"
	KindMethod    NodeKind = "method"
	KindField     NodeKind = "field"
	KindVariable  NodeKind = "variable"
	KindConstant  NodeKind = "constant"
	KindEnum      NodeKind = "enum"
	KindTypeAlias NodeKind = "type_alias"
	KindImport    NodeKind = "import"
	KindExport    NodeKind = "export"
)

// Callable reports whether a node of this kind can be the target of a call.
func (k NodeKind) Callable() bool {
	return k == KindFunction || k == KindMethod
}

// EdgeKind represents the kind of a relationship between two nodes.
type EdgeKind string

const (
	EdgeContains     EdgeKind = "contains"
	EdgeCalls        EdgeKind = "calls"
	EdgeImports      EdgeKind = "imports"
	EdgeExports      EdgeKind = "exports"
	EdgeExtends      EdgeKind = "extends"
	EdgeImplements   EdgeKind = "implements"
	EdgeReferences   EdgeKind = "references"
	EdgeInstantiates EdgeKind = "instantiates"
)

// Visibility of a symbol in its source language.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
)

// Node is a named program entity extracted from source.
type Node struct {
	ID            string     `json:"id"`
	Kind          NodeKind   `json:"kind"`
	Name          string     `json:"name"`
	QualifiedName string     `json:"qualified_name"`
	FilePath      string     `json:"file_path"`
	Language      string     `json:"language"`
	StartLine     int        `json:"start_line"`
	EndLine       int        `json:"end_line"`
	StartColumn   int        `json:"start_column"`
	EndColumn     int        `json:"end_column"`
	Docstring     string     `json:"docstring,omitempty"`
	Signature     string     `json:"signature,omitempty"`
	Visibility    Visibility `json:"visibility,omitempty"`
	IsExported    bool       `json:"is_exported"`
	IsAsync       bool       `json:"is_async"`
	IsStatic      bool       `json:"is_static"`
	IsAbstract    bool       `json:"is_abstract"`
	Decorators    []string   `json:"decorators,omitempty"`
	TypeParams    []string   `json:"type_parameters,omitempty"`
	UpdatedAt     int64      `json:"updated_at"`
}

// Edge is a directed, typed fact linking two nodes.
type Edge struct {
	Source   string            `json:"source"`
	Target   string            `json:"target"`
	Kind     EdgeKind          `json:"kind"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Line     int               `json:"line,omitempty"`
	Column   int               `json:"column,omitempty"`
}

// FileRecord tracks one indexed file.
type FileRecord struct {
	Path        string `json:"path"`
	ContentHash string `json:"content_hash"`
	Language    string `json:"language"`
	Size        int64  `json:"size"`
	ModifiedAt  int64  `json:"modified_at"`
	IndexedAt   int64  `json:"indexed_at"`
	NodeCount   int    `json:"node_count"`
	Errors      string `json:"errors,omitempty"`
}

// UnresolvedRef is a named usage not yet bound to a definition.
type UnresolvedRef struct {
	ID            int64       `json:"id"`
	FromNodeID    string      `json:"from_node_id"`
	ReferenceName string      `json:"reference_name"`
	ReferenceKind EdgeKind    `json:"reference_kind"`
	Line          int         `json:"line"`
	Column        int         `json:"column"`
	Arity         int         `json:"arity,omitempty"`
	Candidates    []Candidate `json:"candidates,omitempty"`
}

// Candidate is a scored possible target for an unresolved reference.
type Candidate struct {
	NodeID string  `json:"node_id"`
	Score  float64 `json:"score"`
}

// SearchResult pairs a node with its relevance score.
type SearchResult struct {
	Node  Node    `json:"node"`
	Score float64 `json:"score"`
}
