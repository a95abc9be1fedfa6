package dto

// CompiledNodeResponse mirrors compilation.CompiledNode for the HTTP
// surface.
type CompiledNodeResponse struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Inputs          []int  `json:"inputs"`
	Outputs         []int  `json:"outputs"`
	Schedule        []int  `json:"schedule"`
	BufferCount     int    `json:"buffer_count"`
	CalledNodeCount int    `json:"called_node_count"`
}

// CompilationArtifactResponse is the JSON projection of a
// compilation.Artifact returned by POST /compilations and
// GET /compilations/{id}.
type CompilationArtifactResponse struct {
	ID         string                 `json:"id"`
	SourceHash string                 `json:"source_hash"`
	Status     string                 `json:"status"`
	Nodes      []CompiledNodeResponse `json:"nodes,omitempty"`
	FailedNode string                 `json:"failed_node,omitempty"`
	FailReason string                 `json:"fail_reason,omitempty"`
	CreatedAt  int64                  `json:"created_at"`
	UpdatedAt  int64                  `json:"updated_at"`
}
