package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codegraph-hq/codegraph/internal/extractor"
	"github.com/codegraph-hq/codegraph/internal/graph"
	"github.com/codegraph-hq/codegraph/internal/tiers"
)

// Analysis status lifecycle
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store provides database operations
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new store
func NewStore(db *DB) *Store {
	return &Store{pool: db.Pool()}
}

// Ping verifies database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Analysis represents one analysis record
type Analysis struct {
	ID        uuid.UUID        `json:"id"`
	Source    string           `json:"source"`
	RepoURL   *string          `json:"repo_url,omitempty"`
	CommitSHA *string          `json:"commit_sha,omitempty"`
	Status    string           `json:"status"`
	Error     *string          `json:"error,omitempty"`
	Summary   *json.RawMessage `json:"summary,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// CreateAnalysis inserts a new analysis in pending state
func (s *Store) CreateAnalysis(ctx context.Context, a *Analysis) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Status = StatusPending
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt

	_, err := s.pool.Exec(ctx, `
		INSERT INTO analyses (id, source, repo_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.Source, a.RepoURL, a.Status, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

// UpdateAnalysisStatus moves an analysis through its lifecycle. errMsg and
// summary may be nil.
func (s *Store) UpdateAnalysisStatus(ctx context.Context, id uuid.UUID, status string, errMsg *string, summary []byte) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE analyses
		SET status = $2, error = $3, summary = COALESCE($4, summary), updated_at = now()
		WHERE id = $1
	`, id, status, errMsg, nullableJSON(summary))
	if err != nil {
		return fmt.Errorf("failed to update analysis status: %w", err)
	}
	return nil
}

// SetCommitSHA records the analyzed commit for repo-backed analyses
func (s *Store) SetCommitSHA(ctx context.Context, id uuid.UUID, sha string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE analyses SET commit_sha = $2, updated_at = now() WHERE id = $1
	`, id, sha)
	if err != nil {
		return fmt.Errorf("failed to set commit sha: %w", err)
	}
	return nil
}

// GetAnalysis fetches one analysis by id
func (s *Store) GetAnalysis(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	a := &Analysis{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, source, repo_url, commit_sha, status, error, summary, created_at, updated_at
		FROM analyses WHERE id = $1
	`, id).Scan(&a.ID, &a.Source, &a.RepoURL, &a.CommitSHA, &a.Status, &a.Error, &a.Summary, &a.CreatedAt, &a.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return a, nil
}

// ListAnalyses returns recent analyses, newest first
func (s *Store) ListAnalyses(ctx context.Context, limit int) ([]*Analysis, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, source, repo_url, commit_sha, status, error, summary, created_at, updated_at
		FROM analyses ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var out []*Analysis
	for rows.Next() {
		a := &Analysis{}
		if err := rows.Scan(&a.ID, &a.Source, &a.RepoURL, &a.CommitSHA, &a.Status, &a.Error, &a.Summary, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAnalysis removes an analysis and, via cascade, its graph and tiers
func (s *Store) DeleteAnalysis(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	return nil
}

// SaveGraph upserts the node and edge collections. Node and edge ids are
// pure functions of file paths, so re-running an unchanged tree hits the
// same rows and the ON CONFLICT targets rely on that.
func (s *Store) SaveGraph(ctx context.Context, analysisID uuid.UUID, g *graph.Graph) error {
	batch := &pgx.Batch{}
	for _, n := range g.Nodes {
		imports, err := json.Marshal(n.Imports)
		if err != nil {
			return fmt.Errorf("failed to marshal imports for %s: %w", n.Path, err)
		}
		batch.Queue(`
			INSERT INTO graph_nodes (analysis_id, id, path, name, folder, language, role, category, description, imports, size, lines)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (analysis_id, id) DO UPDATE SET
				path = EXCLUDED.path, name = EXCLUDED.name, folder = EXCLUDED.folder,
				language = EXCLUDED.language, role = EXCLUDED.role,
				category = EXCLUDED.category, description = EXCLUDED.description,
				imports = EXCLUDED.imports, size = EXCLUDED.size, lines = EXCLUDED.lines
		`, analysisID, n.ID, n.Path, n.Name, n.Folder, string(n.Language), n.Role, n.Category, n.Description, imports, n.Size, n.Lines)
	}
	for _, e := range g.Edges {
		batch.Queue(`
			INSERT INTO graph_edges (analysis_id, id, source, target, kind, label)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (analysis_id, id) DO UPDATE SET
				source = EXCLUDED.source, target = EXCLUDED.target,
				kind = EXCLUDED.kind, label = EXCLUDED.label
		`, analysisID, e.ID, e.Source, e.Target, string(e.Kind), e.Label)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert graph row: %w", err)
		}
	}
	return nil
}

// SaveTiers upserts the tier report items
func (s *Store) SaveTiers(ctx context.Context, analysisID uuid.UUID, report *tiers.Report) error {
	batch := &pgx.Batch{}
	for _, it := range report.Items {
		batch.Queue(`
			INSERT INTO function_tiers (analysis_id, file, qualified_name, start_line, node_id, kind, score, tier, percentile, internal_calls, external_calls)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (analysis_id, file, qualified_name, start_line) DO UPDATE SET
				node_id = EXCLUDED.node_id, kind = EXCLUDED.kind,
				score = EXCLUDED.score, tier = EXCLUDED.tier,
				percentile = EXCLUDED.percentile,
				internal_calls = EXCLUDED.internal_calls,
				external_calls = EXCLUDED.external_calls
		`, analysisID, it.File, it.QualifiedName, it.StartLine, it.NodeID, it.Kind, it.Score, string(it.Tier), it.Percentile, it.InternalCalls, it.ExternalCalls)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert tier row: %w", err)
		}
	}
	return nil
}

// GetGraph loads the stored node/edge collections for an analysis
func (s *Store) GetGraph(ctx context.Context, analysisID uuid.UUID) (*graph.Graph, error) {
	g := &graph.Graph{Nodes: []graph.Node{}, Edges: []graph.Edge{}}

	rows, err := s.pool.Query(ctx, `
		SELECT id, path, name, folder, language, COALESCE(role,''), COALESCE(category,''), COALESCE(description,''), imports, size, lines
		FROM graph_nodes WHERE analysis_id = $1 ORDER BY path
	`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n graph.Node
		var lang string
		var imports []byte
		if err := rows.Scan(&n.ID, &n.Path, &n.Name, &n.Folder, &lang, &n.Role, &n.Category, &n.Description, &imports, &n.Size, &n.Lines); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		n.Language = extractor.Language(lang)
		if len(imports) > 0 {
			if err := json.Unmarshal(imports, &n.Imports); err != nil {
				return nil, fmt.Errorf("failed to decode imports for %s: %w", n.Path, err)
			}
		}
		g.Nodes = append(g.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	edgeRows, err := s.pool.Query(ctx, `
		SELECT id, source, target, kind, COALESCE(label,'')
		FROM graph_edges WHERE analysis_id = $1 ORDER BY id
	`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var e graph.Edge
		var kind string
		if err := edgeRows.Scan(&e.ID, &e.Source, &e.Target, &kind, &e.Label); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		e.Kind = extractor.ImportKind(kind)
		g.Edges = append(g.Edges, e)
	}
	return g, edgeRows.Err()
}

// GetTiers loads the stored tier items for an analysis, best score first
func (s *Store) GetTiers(ctx context.Context, analysisID uuid.UUID) ([]tiers.Item, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT file, qualified_name, start_line, COALESCE(node_id,''), COALESCE(kind,''), score, tier, percentile, internal_calls, external_calls
		FROM function_tiers WHERE analysis_id = $1 ORDER BY score DESC, file, qualified_name
	`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tiers: %w", err)
	}
	defer rows.Close()

	var out []tiers.Item
	for rows.Next() {
		var it tiers.Item
		var tier string
		if err := rows.Scan(&it.File, &it.QualifiedName, &it.StartLine, &it.NodeID, &it.Kind, &it.Score, &tier, &it.Percentile, &it.InternalCalls, &it.ExternalCalls); err != nil {
			return nil, fmt.Errorf("failed to scan tier: %w", err)
		}
		it.Tier = tiers.Tier(tier)
		it.Name = simpleName(it.QualifiedName)
		out = append(out, it)
	}
	return out, rows.Err()
}

// simpleName strips the class qualifier: qualified names join with dots,
// so the simple name is the last segment.
func simpleName(qualified string) string {
	if idx := strings.LastIndex(qualified, "."); idx >= 0 {
		return qualified[idx+1:]
	}
	return qualified
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
