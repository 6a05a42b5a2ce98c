package identityinfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Abraxas-365/portal/pkg/iam/identity"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

const uniqueViolation = "23505"

// PostgresStore implements identity.Store
type PostgresStore struct {
	db         *sqlx.DB
	bcryptCost int
}

// NewPostgresStore creates the store
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, bcryptCost: bcrypt.DefaultCost}
}

type identityRow struct {
	ID           string             `db:"id"`
	Email        string             `db:"email"`
	PasswordHash string             `db:"password_hash"`
	Disabled     bool               `db:"disabled"`
	CustomClaims types.NullJSONText `db:"custom_claims"`
	CreatedAt    time.Time          `db:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at"`
}

func (r identityRow) toDomain() (*identity.Identity, error) {
	ident := &identity.Identity{
		ID:           kernel.NewIdentityID(r.ID),
		Email:        kernel.Email(r.Email),
		PasswordHash: r.PasswordHash,
		Disabled:     r.Disabled,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.CustomClaims.Valid {
		var claims kernel.CustomClaims
		if err := json.Unmarshal(r.CustomClaims.JSONText, &claims); err != nil {
			return nil, identity.ErrStoreFailure("decode_claims", err).WithDetail("identity_id", r.ID)
		}
		ident.CustomClaims = &claims
	}
	return ident, nil
}

const selectIdentity = `SELECT id, email, password_hash, disabled, custom_claims, created_at, updated_at FROM identities`

func (s *PostgresStore) Create(ctx context.Context, params identity.CreateParams) (*identity.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, identity.ErrStoreFailure("hash_password", err)
	}

	var row identityRow
	err = s.db.GetContext(ctx, &row, `
		INSERT INTO identities (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, disabled, custom_claims, created_at, updated_at`,
		uuid.New().String(), kernel.NewEmail(params.Email.String()).String(), string(hash),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, identity.ErrEmailExists().WithDetail("email", params.Email)
		}
		return nil, identity.ErrStoreFailure("create", err)
	}
	return row.toDomain()
}

func (s *PostgresStore) Get(ctx context.Context, id kernel.IdentityID) (*identity.Identity, error) {
	if _, err := uuid.Parse(id.String()); err != nil {
		return nil, identity.ErrNotFound().WithDetail("identity_id", id)
	}
	return s.getOne(ctx, selectIdentity+` WHERE id = $1`, id.String())
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email kernel.Email) (*identity.Identity, error) {
	return s.getOne(ctx, selectIdentity+` WHERE email = $1`, kernel.NewEmail(email.String()).String())
}

func (s *PostgresStore) getOne(ctx context.Context, query string, arg string) (*identity.Identity, error) {
	var row identityRow
	if err := s.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identity.ErrNotFound().WithDetail("key", arg)
		}
		return nil, identity.ErrStoreFailure("get", err)
	}
	return row.toDomain()
}

func (s *PostgresStore) Delete(ctx context.Context, id kernel.IdentityID) error {
	return s.exec(ctx, "delete", id, `DELETE FROM identities WHERE id = $1`, id.String())
}

func (s *PostgresStore) SetCustomClaims(ctx context.Context, id kernel.IdentityID, claims kernel.CustomClaims) error {
	raw, err := json.Marshal(claims)
	if err != nil {
		return identity.ErrStoreFailure("encode_claims", err)
	}
	return s.exec(ctx, "set_claims", id,
		`UPDATE identities SET custom_claims = $2, updated_at = now() WHERE id = $1`,
		id.String(), types.JSONText(raw),
	)
}

func (s *PostgresStore) SetDisabled(ctx context.Context, id kernel.IdentityID, disabled bool) error {
	return s.exec(ctx, "set_disabled", id,
		`UPDATE identities SET disabled = $2, updated_at = now() WHERE id = $1`,
		id.String(), disabled,
	)
}

func (s *PostgresStore) List(ctx context.Context, after kernel.IdentityID, limit int) ([]*identity.Identity, kernel.IdentityID, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []identityRow
	var err error
	if after.IsEmpty() {
		err = s.db.SelectContext(ctx, &rows, selectIdentity+` ORDER BY id LIMIT $1`, limit)
	} else {
		err = s.db.SelectContext(ctx, &rows, selectIdentity+` WHERE id > $1 ORDER BY id LIMIT $2`, after.String(), limit)
	}
	if err != nil {
		return nil, "", identity.ErrStoreFailure("list", err)
	}

	out := make([]*identity.Identity, 0, len(rows))
	for _, r := range rows {
		ident, err := r.toDomain()
		if err != nil {
			return nil, "", err
		}
		out = append(out, ident)
	}

	var next kernel.IdentityID
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (s *PostgresStore) exec(ctx context.Context, op string, id kernel.IdentityID, query string, args ...any) error {
	if _, err := uuid.Parse(id.String()); err != nil {
		return identity.ErrNotFound().WithDetail("identity_id", id)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return identity.ErrStoreFailure(op, err).WithDetail("identity_id", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return identity.ErrStoreFailure(op, err).WithDetail("identity_id", id)
	}
	if n == 0 {
		return identity.ErrNotFound().WithDetail("identity_id", id)
	}
	return nil
}

var _ identity.Store = (*PostgresStore)(nil)
