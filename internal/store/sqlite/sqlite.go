// Package sqlite implements store.Store on a local SQLite file, used for
// single-machine deployments and tests.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

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
    collaborators       TEXT NOT NULL DEFAULT '[]',
    modifications_count INTEGER NOT NULL DEFAULT 0,
    data                TEXT NOT NULL DEFAULT '{}',
    last_modified_by    TEXT NOT NULL DEFAULT '',
    created_at          TIMESTAMP NOT NULL,
    updated_at          TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner_id);
`

// Open opens (or creates) a SQLite database at the given path and enables
// WAL journal mode.
func Open(path string) (*sql.DB, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens the database at path, applies the schema, and returns the store.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB applies the schema on an already-open connection.
func NewWithDB(db *sql.DB) (store.Store, error) {
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Projects() store.Projects { return &projects{db: s.db} }

func (s *sqliteStore) HealthPing(ctx context.Context) error {
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
	now := time.Now().UTC()
	out.CreatedAt = now
	out.UpdatedAt = now

	collab, err := json.Marshal(out.Collaborators)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(out.Data)
	if err != nil {
		return nil, err
	}

	_, err = p.db.ExecContext(ctx, `
        INSERT INTO projects (project_id, name, description, type, company, location, client,
            contact_email, contact_phone, owner_id, collaborators, modifications_count,
            data, last_modified_by, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
    `, out.ProjectID, out.Name, out.Description, out.Type, out.Company, out.Location,
		out.Client, out.ContactEmail, out.ContactPhone, out.OwnerID, string(collab),
		out.ModificationsCount, string(data), out.LastModifiedBy, now, now)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *projects) Get(ctx context.Context, projectID string) (*model.Project, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE project_id=?`, projectID)
	return scanProject(row)
}

func (p *projects) ListByUser(ctx context.Context, userID string) ([]*model.Project, error) {
	// Collaborators are matched against the JSON array text; exact-value
	// match via instr on the quoted email keeps the query index-free but
	// simple at this scale.
	rows, err := p.db.QueryContext(ctx, `
        SELECT `+projectColumns+` FROM projects
        WHERE owner_id=? OR instr(collaborators, ?) > 0
        ORDER BY updated_at DESC
    `, userID, `"`+userID+`"`)
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
	res, err := p.db.ExecContext(ctx, `
        UPDATE projects SET
            name          = COALESCE(?, name),
            description   = COALESCE(?, description),
            type          = COALESCE(?, type),
            company       = COALESCE(?, company),
            location      = COALESCE(?, location),
            client        = COALESCE(?, client),
            contact_email = COALESCE(?, contact_email),
            contact_phone = COALESCE(?, contact_phone),
            updated_at    = ?
        WHERE project_id=?
    `, upd.Name, upd.Description, upd.Type, upd.Company, upd.Location, upd.Client,
		upd.ContactEmail, upd.ContactPhone, time.Now().UTC(), projectID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return p.Get(ctx, projectID)
}

func (p *projects) SaveData(ctx context.Context, projectID string, data model.TableSet, modifiedBy string) (*model.Project, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	res, err := p.db.ExecContext(ctx, `
        UPDATE projects SET
            data                = ?,
            last_modified_by    = ?,
            modifications_count = modifications_count + 1,
            updated_at          = ?
        WHERE project_id=?
    `, string(raw), modifiedBy, time.Now().UTC(), projectID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return p.Get(ctx, projectID)
}

func (p *projects) Delete(ctx context.Context, projectID string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM projects WHERE project_id=?`, projectID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (p *projects) AddCollaborator(ctx context.Context, projectID, email string) (*model.Project, error) {
	return p.mutateCollaborators(ctx, projectID, func(list []string) []string {
		for _, c := range list {
			if c == email {
				return list
			}
		}
		return append(list, email)
	})
}

func (p *projects) RemoveCollaborator(ctx context.Context, projectID, email string) (*model.Project, error) {
	return p.mutateCollaborators(ctx, projectID, func(list []string) []string {
		out := list[:0]
		for _, c := range list {
			if c != email {
				out = append(out, c)
			}
		}
		return out
	})
}

func (p *projects) mutateCollaborators(ctx context.Context, projectID string, mutate func([]string) []string) (*model.Project, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	if err := tx.QueryRowContext(ctx, `SELECT collaborators FROM projects WHERE project_id=?`, projectID).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	list = mutate(list)
	if list == nil {
		list = []string{}
	}
	updated, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE projects SET collaborators=?, updated_at=? WHERE project_id=?`,
		string(updated), time.Now().UTC(), projectID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p.Get(ctx, projectID)
}

type rowScanner interface{ Scan(dest ...any) error }

func scanProject(r rowScanner) (*model.Project, error) {
	var out model.Project
	var collab, data string
	err := r.Scan(&out.ProjectID, &out.Name, &out.Description, &out.Type, &out.Company,
		&out.Location, &out.Client, &out.ContactEmail, &out.ContactPhone, &out.OwnerID,
		&collab, &out.ModificationsCount, &data, &out.LastModifiedBy, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(collab), &out.Collaborators); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &out.Data); err != nil {
		return nil, err
	}
	return &out, nil
}
