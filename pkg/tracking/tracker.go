// Package tracking is the experiment-tracking sink: a local SQLite
// database recording parameters, metrics, and artifact copies per
// training run.
package tracking

import (
	"context"
	"database/sql"
	"embed"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

//go:embed sql/*
var f embed.FS

// Run is one experiment-tracking entry.
type Run struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Model            string             `json:"model"`
	Target           string             `json:"target"`
	Scoring          string             `json:"scoring"`
	CVScore          float64            `json:"cv_score"`
	CreatedAt        time.Time          `json:"created_at"`
	ConfiguredParams map[string]string  `json:"configured_params,omitempty"`
	EffectiveParams  map[string]string  `json:"effective_params,omitempty"`
	Metrics          map[string]float64 `json:"metrics,omitempty"`
	Artifacts        []Artifact         `json:"artifacts,omitempty"`
}

// Artifact is a copy of one training output file.
type Artifact struct {
	Name    string `json:"name"`
	Content []byte `json:"-"`
	Size    int    `json:"size"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Tracker wraps the tracking database.
type Tracker struct {
	db *sql.DB
}

// Open initializes the tracking database at path, creating the schema
// when the file doesn't exist yet.
func Open(path string) (*Tracker, error) {
	if path == "" {
		return nil, errors.New("tracking path not specified")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening tracking database: %s", path)
	}

	b, err := f.ReadFile("sql/ddl.sql")
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to read the schema creation file")
	}
	if _, err := db.Exec(string(b)); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to create tracking schema in: %s", path)
	}

	return &Tracker{db: db}, nil
}

// Close releases the underlying database handle.
func (t *Tracker) Close() error {
	return t.db.Close()
}

// LogRun writes one run with its params, metrics, and artifact copies
// in a single transaction.
func (t *Tracker) LogRun(ctx context.Context, r *Run) error {
	if r == nil {
		return errors.New("run required")
	}
	if r.ID == "" {
		r.ID = NewRunID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "error starting tracking transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, name, model, target, scoring, cv_score, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Model, r.Target, r.Scoring, r.CVScore, r.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return errors.Wrap(err, "error inserting run")
	}

	for name, val := range r.ConfiguredParams {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_params (run_id, name, value, configured) VALUES (?, ?, ?, 1)`,
			r.ID, name, val); err != nil {
			return errors.Wrapf(err, "error inserting configured param: %s", name)
		}
	}
	for name, val := range r.EffectiveParams {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_params (run_id, name, value, configured) VALUES (?, ?, ?, 0)`,
			r.ID, name, val); err != nil {
			return errors.Wrapf(err, "error inserting effective param: %s", name)
		}
	}
	for name, val := range r.Metrics {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_metrics (run_id, name, value) VALUES (?, ?, ?)`,
			r.ID, name, val); err != nil {
			return errors.Wrapf(err, "error inserting metric: %s", name)
		}
	}
	for _, a := range r.Artifacts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_artifacts (run_id, name, content) VALUES (?, ?, ?)`,
			r.ID, a.Name, a.Content); err != nil {
			return errors.Wrapf(err, "error inserting artifact: %s", a.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "error committing tracking transaction")
	}
	slog.Debug("run logged", "id", r.ID, "artifacts", len(r.Artifacts))
	return nil
}

// ListRuns returns the most recent runs, newest first, without
// artifact contents.
func (t *Tracker) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := t.db.QueryContext(ctx,
		`SELECT id, name, model, target, scoring, cv_score, created_at FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "error querying runs")
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "error iterating runs")
}

// GetRun returns one run with its params and metrics. Artifact
// contents stay in the database; only names and sizes are returned.
func (t *Tracker) GetRun(ctx context.Context, id string) (*Run, error) {
	row := t.db.QueryRowContext(ctx,
		`SELECT id, name, model, target, scoring, cv_score, created_at FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Errorf("run not found: %s", id)
		}
		return nil, err
	}

	r.ConfiguredParams = map[string]string{}
	r.EffectiveParams = map[string]string{}
	params, err := t.db.QueryContext(ctx,
		`SELECT name, value, configured FROM run_params WHERE run_id = ?`, id)
	if err != nil {
		return nil, errors.Wrap(err, "error querying run params")
	}
	defer params.Close()
	for params.Next() {
		var name, value string
		var configured int
		if err := params.Scan(&name, &value, &configured); err != nil {
			return nil, errors.Wrap(err, "error scanning run param")
		}
		if configured == 1 {
			r.ConfiguredParams[name] = value
		} else {
			r.EffectiveParams[name] = value
		}
	}

	r.Metrics = map[string]float64{}
	metrics, err := t.db.QueryContext(ctx,
		`SELECT name, value FROM run_metrics WHERE run_id = ?`, id)
	if err != nil {
		return nil, errors.Wrap(err, "error querying run metrics")
	}
	defer metrics.Close()
	for metrics.Next() {
		var name string
		var value float64
		if err := metrics.Scan(&name, &value); err != nil {
			return nil, errors.Wrap(err, "error scanning run metric")
		}
		r.Metrics[name] = value
	}

	artifacts, err := t.db.QueryContext(ctx,
		`SELECT name, length(content) FROM run_artifacts WHERE run_id = ? ORDER BY name`, id)
	if err != nil {
		return nil, errors.Wrap(err, "error querying run artifacts")
	}
	defer artifacts.Close()
	for artifacts.Next() {
		var a Artifact
		if err := artifacts.Scan(&a.Name, &a.Size); err != nil {
			return nil, errors.Wrap(err, "error scanning run artifact")
		}
		r.Artifacts = append(r.Artifacts, a)
	}
	return r, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var r Run
	var created string
	if err := row.Scan(&r.ID, &r.Name, &r.Model, &r.Target, &r.Scoring, &r.CVScore, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "error scanning run")
	}
	ts, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing run timestamp")
	}
	r.CreatedAt = ts
	return &r, nil
}
