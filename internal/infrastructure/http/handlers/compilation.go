package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/duragraph/duragraph/internal/application/service"
	"github.com/duragraph/duragraph/internal/domain/compilation"
	"github.com/duragraph/duragraph/internal/domain/node"
	"github.com/duragraph/duragraph/internal/domain/symboltable"
	"github.com/duragraph/duragraph/internal/infrastructure/http/dto"
	pkguuid "github.com/duragraph/duragraph/internal/pkg/uuid"
	"github.com/labstack/echo/v4"
)

// CompilationHandler exposes CompileService over HTTP: submit a compiled
// unit's typed IR, and read back an artifact's final status and per-node
// summaries (pass-by-pass history is not kept).
type CompilationHandler struct {
	compile *service.CompileService
}

// NewCompilationHandler creates a CompilationHandler.
func NewCompilationHandler(compile *service.CompileService) *CompilationHandler {
	return &CompilationHandler{compile: compile}
}

// compileRequest is a compilation unit as the caller already parsed and
// name-resolved it: every node's signal ids, equations and fby memory
// slots, plus the symbol table that assigned them — exactly
// service.Unit's fields, minus SourceHash which is computed server-side
// so a resubmission of identical nodes always gets the same hash.
type compileRequest struct {
	Nodes   []*node.Node       `json:"nodes"`
	Symbols *symboltable.Table `json:"symbols"`
}

// Create handles POST /compilations. The nodes must already be ordered so
// that a node never appears before every node it calls — see
// service.TopologicalOrder for a caller-side helper.
func (h *CompilationHandler) Create(c echo.Context) error {
	var req compileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	}
	if len(req.Nodes) == 0 {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "nodes is required",
		})
	}
	if req.Symbols == nil {
		req.Symbols = symboltable.New()
	}

	unit := service.Unit{
		SourceHash: sourceHash(req.Nodes),
		Nodes:      req.Nodes,
		Symbols:    req.Symbols,
	}

	id := pkguuid.New()
	artifact, err := h.compile.Compile(c.Request().Context(), id, unit)
	if err != nil && artifact == nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "compile_failed",
			Message: err.Error(),
		})
	}
	// A node-level compile failure still produces a fully-recorded Artifact
	// (status failed, a failed_node/fail_reason pair) rather than a bare
	// error — the caller needs to know which node and pass stopped things.
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, toArtifactResponse(artifact))
	}
	return c.JSON(http.StatusCreated, toArtifactResponse(artifact))
}

// Get handles GET /compilations/:id.
func (h *CompilationHandler) Get(c echo.Context) error {
	id := c.Param("id")
	artifact, err := h.compile.Artifacts().FindByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: "compilation artifact not found",
		})
	}
	return c.JSON(http.StatusOK, toArtifactResponse(artifact))
}

// sourceHash fingerprints a unit's nodes so that resubmitting the exact
// same compilation twice is detectable from the artifact alone.
func sourceHash(nodes []*node.Node) string {
	data, _ := json.Marshal(nodes)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func toArtifactResponse(a *compilation.Artifact) dto.CompilationArtifactResponse {
	if a == nil {
		return dto.CompilationArtifactResponse{}
	}
	nodes := make([]dto.CompiledNodeResponse, 0, len(a.Nodes()))
	for _, n := range a.Nodes() {
		nodes = append(nodes, dto.CompiledNodeResponse{
			ID:              n.ID,
			Name:            n.Name,
			Inputs:          n.Inputs,
			Outputs:         n.Outputs,
			Schedule:        n.Schedule,
			BufferCount:     n.BufferCount,
			CalledNodeCount: n.CalledNodeCount,
		})
	}
	return dto.CompilationArtifactResponse{
		ID:         a.ID(),
		SourceHash: a.SourceHash(),
		Status:     string(a.Status()),
		Nodes:      nodes,
		FailedNode: a.FailedNode(),
		FailReason: a.FailReason(),
		CreatedAt:  a.CreatedAt().Unix(),
		UpdatedAt:  a.UpdatedAt().Unix(),
	}
}
