// Package postgres implements store.Store on PostgreSQL via the pgx stdlib
// driver. Table data and collaborator lists are jsonb columns, mirroring the
// document shape clients exchange.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/voltio/voltio-backend/internal/model"
	"github.com/voltio/voltio-backend/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
    project_id          TEXT PRIMARY KEY,
    name                TEXT NOT NULL,
    description         TEXT NOT NULL DEFAULT '',
    type                TEXT NOT NULL DEFAULT 'residential',
    company             TEXT NOT NULL DEFAULT '',
    location            TEXT NOT NULL DEFAULT '',
    client              TEXT NOT NULL DEFAULT '',
    contact_email       TEXT NOT NULL DEFAULT '',
    contact_phone       TEXT NOT NULL DEFAULT '',
    owner_id            TEXT NOT NULL,
    collaborators       JSONB NOT NULL DEFAULT '[]',
    modifications_count INTEGER NOT NULL DEFAULT 0,
    data                JSONB NOT NULL DEFAULT '{}',
    last_modified_by    TEXT NOT NULL DEFAULT '',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner_id);
`

// Open opens a connection using the pgx stdlib driver and verifies
// connectivity, retrying the first ping with exponential backoff so the
// service survives a database that is still coming up.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = 30 * time.Second
	ping := func() error { return db.PingContext(ctx) }
	if err := backoff.Retry(ping, backoff.WithContext(bo, ctx)); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens dsn, applies the schema, and returns the store.
func New(ctx context.Context, dsn string) (store.Store, error) {
	db, err := Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return NewWithDB(ctx, db)
}

// NewWithDB applies the schema on an already-open connection.
func NewWithDB(ctx context.Context, db *sql.DB) (store.Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &pgStore{db: db}, nil
}

type pgStore struct{ db *sql.DB }

func (s *pgStore) Projects() store.Projects { return &projects{db: s.db} }

func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type projects struct{ db *sql.DB }

const projectColumns = `project_id, name, description, type, company, location, client,
    contact_email, contact_phone, owner_id, collaborators, modifications_count,
    data, last_modified_by, created_at, updated_at`

func (p *projects) Create(ctx context.Context, m *model.Project) (*model.Project, error) {
	out := *m
	if out.ProjectID == "" {
		out.ProjectID = uuid.New().String()
	}
	if out.Collaborators == nil {
		out.Collaborators = []string{}
	}
	if out.Data == nil {
		out.Data = model.TableSet{}
	}

	collab, err := json.Marshal(out.Collaborators)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(out.Data)
	if err != nil {
		return nil, err
	}

	row := p.db.QueryRowContext(ctx, `
        INSERT INTO projects (project_id, name, description, type, company, location, client,
            contact_email, contact_phone, owner_id, collaborators, modifications_count,
            data, last_modified_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING created_at, updated_at
    `, out.ProjectID, out.Name, out.Description, out.Type, out.Company, out.Location,
		out.Client, out.ContactEmail, out.ContactPhone, out.OwnerID, collab,
		out.ModificationsCount, data, out.LastModifiedBy)
	if err := row.Scan(&out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *projects) Get(ctx context.Context, projectID string) (*model.Project, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE project_id=$1`, projectID)
	return scanProject(row)
}

func (p *projects) ListByUser(ctx context.Context, userID string) ([]*model.Project, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT `+projectColumns+` FROM projects
        WHERE owner_id=$1 OR collaborators ? $2
        ORDER BY updated_at DESC
    `, userID, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var res []*model.Project
	for rows.Next() {
		pr, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, pr)
	}
	return res, rows.Err()
}

func (p *projects) UpdateMeta(ctx context.Context, projectID string, upd model.ProjectUpdate) (*model.Project, error) {
	row := p.db.QueryRowContext(ctx, `
        UPDATE projects SET
            name          = COALESCE($1, name),
            description   = COALESCE($2, description),
            type          = COALESCE($3, type),
            company       = COALESCE($4, company),
            location      = COALESCE($5, location),
            client        = COALESCE($6, client),
            contact_email = COALESCE($7, contact_email),
            contact_phone = COALESCE($8, contact_phone),
            updated_at    = now()
        WHERE project_id=$9
        RETURNING `+projectColumns+`
    `, upd.Name, upd.Description, upd.Type, upd.Company, upd.Location, upd.Client,
		upd.ContactEmail, upd.ContactPhone, projectID)
	return scanProject(row)
}

func (p *projects) SaveData(ctx context.Context, projectID string, data model.TableSet, modifiedBy string) (*model.Project, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	row := p.db.QueryRowContext(ctx, `
        UPDATE projects SET
            data                = $1,
            last_modified_by    = $2,
            modifications_count = modifications_count + 1,
            updated_at          = now()
        WHERE project_id=$3
        RETURNING `+projectColumns+`
    `, raw, modifiedBy, projectID)
	return scanProject(row)
}

func (p *projects) Delete(ctx context.Context, projectID string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM projects WHERE project_id=$1`, projectID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (p *projects) AddCollaborator(ctx context.Context, projectID, email string) (*model.Project, error) {
	row := p.db.QueryRowContext(ctx, `
        UPDATE projects SET
            collaborators = CASE
                WHEN collaborators ? $1 THEN collaborators
                ELSE collaborators || to_jsonb($1::text)
            END,
            updated_at = now()
        WHERE project_id=$2
        RETURNING `+projectColumns+`
    `, email, projectID)
	return scanProject(row)
}

func (p *projects) RemoveCollaborator(ctx context.Context, projectID, email string) (*model.Project, error) {
	row := p.db.QueryRowContext(ctx, `
        UPDATE projects SET
            collaborators = collaborators - $1,
            updated_at    = now()
        WHERE project_id=$2
        RETURNING `+projectColumns+`
    `, email, projectID)
	return scanProject(row)
}

type rowScanner interface{ Scan(dest ...any) error }

func scanProject(r rowScanner) (*model.Project, error) {
	var out model.Project
	var collab, data []byte
	err := r.Scan(&out.ProjectID, &out.Name, &out.Description, &out.Type, &out.Company,
		&out.Location, &out.Client, &out.ContactEmail, &out.ContactPhone, &out.OwnerID,
		&collab, &out.ModificationsCount, &data, &out.LastModifiedBy, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(collab, &out.Collaborators); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &out.Data); err != nil {
		return nil, err
	}
	return &out, nil
}
