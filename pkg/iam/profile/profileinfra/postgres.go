package profileinfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/Abraxas-365/portal/pkg/iam/profile"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

// PostgresStore implements profile.Store on a jsonb column. Updates fire
// the profile.updated notification trigger.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func key(email kernel.Email) string {
	return kernel.NewEmail(email.String()).String()
}

func (s *PostgresStore) Get(ctx context.Context, email kernel.Email) (profile.RawDocument, error) {
	var raw types.JSONText
	err := s.db.GetContext(ctx, &raw, `SELECT document FROM profiles WHERE email = $1`, key(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, profile.ErrNotFound().WithDetail("email", key(email))
		}
		return nil, profile.ErrStoreFailure("get", err)
	}

	var doc profile.RawDocument
	if err := raw.Unmarshal(&doc); err != nil {
		return nil, profile.ErrStoreFailure("decode", err).WithDetail("email", key(email))
	}
	return doc, nil
}

func (s *PostgresStore) Set(ctx context.Context, email kernel.Email, doc profile.RawDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return profile.ErrStoreFailure("encode", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (email, document) VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET document = EXCLUDED.document, updated_at = now()`,
		key(email), types.JSONText(raw),
	)
	if err != nil {
		return profile.ErrStoreFailure("set", err).WithDetail("email", key(email))
	}
	return nil
}

// Create inserts doc only when no document exists for email. Inserts do not
// fire the update trigger.
func (s *PostgresStore) Create(ctx context.Context, email kernel.Email, doc profile.RawDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return profile.ErrStoreFailure("encode", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (email, document) VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING`,
		key(email), types.JSONText(raw),
	)
	if err != nil {
		return profile.ErrStoreFailure("create", err).WithDetail("email", key(email))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return profile.ErrStoreFailure("create", err).WithDetail("email", key(email))
	}
	if n == 0 {
		return profile.ErrExists().WithDetail("email", key(email))
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, email kernel.Email, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return profile.ErrStoreFailure("encode", err)
	}
	return s.affectOne(ctx, "update", email,
		`UPDATE profiles SET document = document || $2::jsonb, updated_at = now() WHERE email = $1`,
		key(email), types.JSONText(raw),
	)
}

func (s *PostgresStore) Delete(ctx context.Context, email kernel.Email) error {
	return s.affectOne(ctx, "delete", email, `DELETE FROM profiles WHERE email = $1`, key(email))
}

func (s *PostgresStore) OrganizationExists(ctx context.Context, id kernel.OrganizationID) (bool, error) {
	if id.IsEmpty() {
		return false, nil
	}
	var exists bool
	if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM organizations WHERE id = $1)`, id.String()); err != nil {
		return false, profile.ErrStoreFailure("organization_exists", err)
	}
	return exists, nil
}

// CreateOrganization registers an organization id
func (s *PostgresStore) CreateOrganization(ctx context.Context, id kernel.OrganizationID, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		id.String(), name,
	)
	if err != nil {
		return profile.ErrStoreFailure("create_organization", err)
	}
	return nil
}

func (s *PostgresStore) affectOne(ctx context.Context, op string, email kernel.Email, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return profile.ErrStoreFailure(op, err).WithDetail("email", key(email))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return profile.ErrStoreFailure(op, err).WithDetail("email", key(email))
	}
	if n == 0 {
		return profile.ErrNotFound().WithDetail("email", key(email))
	}
	return nil
}

var _ profile.Store = (*PostgresStore)(nil)
