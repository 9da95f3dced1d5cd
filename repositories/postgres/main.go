// Package postgres reads the relational side of a variant search: which
// index holds a family's variants, who is in the family, and what analysts
// have recorded about a variant. The schema is owned by the application
// that writes it; nothing here modifies it.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"varsearch/api/models"
	genomeBuild "varsearch/api/models/constants/genome-build"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"go.uber.org/zap"
)

const (
	driverName = "pgx"
	defaultDSN = "postgres://localhost/varsearch?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRepository opens and pings the database at dsn.
func NewRepository(ctx context.Context, dsn string, logger *zap.Logger) (*Repository, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(driverName, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("connected to postgres")
	return NewRepositoryFromDB(db, logger), nil
}

func NewRepositoryFromDB(db *sql.DB, logger *zap.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

func (r *Repository) Close() error { return r.db.Close() }

// DB exposes the underlying handle for health checks and tests.
func (r *Repository) DB() *sql.DB { return r.db }

// GetFamilyDataset returns nil when the family is unknown or has no index.
func (r *Repository) GetFamilyDataset(ctx context.Context, projectId string, familyId string) (*models.Dataset, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT f.elasticsearch_index, f.genome_version
		FROM family f
		JOIN project p ON p.id = f.project_id
		WHERE p.project_id = $1 AND f.family_id = $2`, projectId, familyId)
	return scanDataset(row)
}

// GetProjectDataset returns nil when the project is unknown or has no
// project-wide index.
func (r *Repository) GetProjectDataset(ctx context.Context, projectId string) (*models.Dataset, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT p.elasticsearch_index, p.genome_version
		FROM project p
		WHERE p.project_id = $1`, projectId)
	return scanDataset(row)
}

func scanDataset(row *sql.Row) (*models.Dataset, error) {
	var index, version sql.NullString
	if err := row.Scan(&index, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select dataset: %w", err)
	}
	if !index.Valid || index.String == "" {
		return nil, nil
	}
	return &models.Dataset{
		IndexName:   index.String,
		GenomeBuild: genomeBuild.CastToGenomeBuild(version.String),
	}, nil
}

func (r *Repository) GetFamilyIndividualIds(ctx context.Context, projectId string, familyId string) ([]string, error) {
	return r.selectStrings(ctx, `
		SELECT i.individual_id
		FROM individual i
		JOIN family f ON f.id = i.family_id
		JOIN project p ON p.id = f.project_id
		WHERE p.project_id = $1 AND f.family_id = $2
		ORDER BY i.individual_id`, projectId, familyId)
}

func (r *Repository) GetProjectIndividualIds(ctx context.Context, projectId string) ([]string, error) {
	return r.selectStrings(ctx, `
		SELECT i.individual_id
		FROM individual i
		JOIN family f ON f.id = i.family_id
		JOIN project p ON p.id = f.project_id
		WHERE p.project_id = $1
		ORDER BY i.individual_id`, projectId)
}

// GetDiseaseGeneLists names the project's gene lists that contain geneId.
func (r *Repository) GetDiseaseGeneLists(ctx context.Context, projectId string, geneId string) ([]string, error) {
	return r.selectStrings(ctx, `
		SELECT gl.name
		FROM gene_list gl
		JOIN gene_list_gene glg ON glg.gene_list_id = gl.id
		JOIN project_gene_list pgl ON pgl.gene_list_id = gl.id
		JOIN project p ON p.id = pgl.project_id
		WHERE p.project_id = $1 AND glg.gene_id = $2
		ORDER BY gl.name`, projectId, geneId)
}

// GetVariantNotes lists the family's notes on a variant, newest first.
func (r *Repository) GetVariantNotes(ctx context.Context, projectId string, familyId string,
	xpos int64, ref string, alt string) ([]models.VariantNote, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT n.note, COALESCE(n.author, ''), COALESCE(to_char(n.date_saved, 'YYYY-MM-DD"T"HH24:MI:SS'), '')
		FROM variant_note n
		JOIN family f ON f.id = n.family_id
		JOIN project p ON p.id = f.project_id
		WHERE p.project_id = $1 AND f.family_id = $2 AND n.xpos = $3 AND n.ref = $4 AND n.alt = $5
		ORDER BY n.date_saved DESC`, projectId, familyId, xpos, ref, alt)
	if err != nil {
		return nil, fmt.Errorf("select notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	notes := []models.VariantNote{}
	for rows.Next() {
		var n models.VariantNote
		if err := rows.Scan(&n.Note, &n.Author, &n.DateSaved); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *Repository) GetVariantTags(ctx context.Context, projectId string, familyId string,
	xpos int64, ref string, alt string) ([]models.VariantTag, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.name, COALESCE(t.color, ''), COALESCE(t.author, ''), COALESCE(to_char(t.date_saved, 'YYYY-MM-DD"T"HH24:MI:SS'), '')
		FROM variant_tag t
		JOIN family f ON f.id = t.family_id
		JOIN project p ON p.id = f.project_id
		WHERE p.project_id = $1 AND f.family_id = $2 AND t.xpos = $3 AND t.ref = $4 AND t.alt = $5
		ORDER BY t.date_saved`, projectId, familyId, xpos, ref, alt)
	if err != nil {
		return nil, fmt.Errorf("select tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tags := []models.VariantTag{}
	for rows.Next() {
		var t models.VariantTag
		if err := rows.Scan(&t.Name, &t.Color, &t.Author, &t.DateSaved); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *Repository) selectStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
