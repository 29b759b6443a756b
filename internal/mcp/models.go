package mcp

// Location is one definition result entry.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	FQN    string `json:"fqn"`
	Kind   string `json:"kind"`
}

// UsageLocation is one usage result entry.
type UsageLocation struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Context string `json:"context_snippet,omitempty"`
}

// DefinitionResponse is the find_definition tool payload.
type DefinitionResponse struct {
	Results []Location `json:"results"`
	Total   int        `json:"total"`
}

// UsagesResponse is the find_usages tool payload.
type UsagesResponse struct {
	Results  []UsageLocation `json:"results"`
	Total    int             `json:"total"`
	Resolved bool            `json:"resolved"`
}

// ReindexResponse is the reindex tool payload.
type ReindexResponse struct {
	Snapshot string `json:"snapshot"`
	Stats    string `json:"stats"`
	Skipped  int    `json:"skipped_files"`
}
