package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/duragraph/duragraph/internal/domain/compilation"
	"github.com/duragraph/duragraph/internal/pkg/errors"
	pkguuid "github.com/duragraph/duragraph/internal/pkg/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CompilationRepository implements service.ArtifactRepository.
type CompilationRepository struct {
	pool       *pgxpool.Pool
	eventStore *EventStore
}

// NewCompilationRepository creates a new CompilationRepository.
func NewCompilationRepository(pool *pgxpool.Pool, eventStore *EventStore) *CompilationRepository {
	return &CompilationRepository{pool: pool, eventStore: eventStore}
}

// Save upserts an artifact's projection row and appends any events recorded
// since the last flush, mirroring AssistantRepository's CRUD-table-plus-
// event-store split.
func (r *CompilationRepository) Save(ctx context.Context, a *compilation.Artifact) error {
	nodesJSON, err := json.Marshal(a.Nodes())
	if err != nil {
		return errors.Internal("marshaling compiled nodes", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO compilation_artifacts
			(id, source_hash, status, nodes, failed_node, fail_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			nodes = EXCLUDED.nodes,
			failed_node = EXCLUDED.failed_node,
			fail_reason = EXCLUDED.fail_reason,
			updated_at = EXCLUDED.updated_at
	`,
		a.ID(), a.SourceHash(), string(a.Status()), nodesJSON,
		a.FailedNode(), a.FailReason(), a.CreatedAt(), a.UpdatedAt(),
	)
	if err != nil {
		return errors.Internal("failed to save compilation artifact", err)
	}

	if events := a.Events(); len(events) > 0 {
		streamID := pkguuid.New()
		if err := r.eventStore.SaveEvents(ctx, streamID, "compilation_artifact", a.ID(), events); err != nil {
			return err
		}
		a.ClearEvents()
	}
	return nil
}

// FindByID retrieves a compilation artifact's current projection.
func (r *CompilationRepository) FindByID(ctx context.Context, id string) (*compilation.Artifact, error) {
	var artifactID, sourceHash, status, failedNode, failReason string
	var nodesJSON []byte
	var createdAt, updatedAt time.Time

	err := r.pool.QueryRow(ctx, `
		SELECT id, source_hash, status, nodes, failed_node, fail_reason, created_at, updated_at
		FROM compilation_artifacts
		WHERE id = $1
	`, id).Scan(&artifactID, &sourceHash, &status, &nodesJSON, &failedNode, &failReason, &createdAt, &updatedAt)
	if err != nil {
		return nil, errors.NotFound("compilation artifact", id)
	}

	var nodes []compilation.CompiledNode
	if err := json.Unmarshal(nodesJSON, &nodes); err != nil {
		return nil, errors.Internal("unmarshaling compiled nodes", err)
	}

	return compilation.ReconstructArtifact(artifactID, sourceHash, compilation.Status(status), nodes, failedNode, failReason, createdAt, updatedAt), nil
}
