package identityinfra

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Abraxas-365/portal/pkg/eventx"
	"github.com/Abraxas-365/portal/pkg/iam/identity"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/Abraxas-365/portal/pkg/logx"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MemoryStore is an in-process identity.Store. When a publisher is set it
// emits identity.created the way the Postgres trigger does.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[kernel.IdentityID]*identity.Identity
	publisher  eventx.Publisher
	bcryptCost int
}

// NewMemoryStore creates an empty store. publisher may be nil.
func NewMemoryStore(publisher eventx.Publisher) *MemoryStore {
	return &MemoryStore{
		byID:       make(map[kernel.IdentityID]*identity.Identity),
		publisher:  publisher,
		bcryptCost: bcrypt.MinCost,
	}
}

func (s *MemoryStore) Create(ctx context.Context, params identity.CreateParams) (*identity.Identity, error) {
	email := kernel.NewEmail(params.Email.String())

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, identity.ErrStoreFailure("hash_password", err)
	}

	s.mu.Lock()
	for _, existing := range s.byID {
		if existing.Email == email {
			s.mu.Unlock()
			return nil, identity.ErrEmailExists().WithDetail("email", email)
		}
	}
	now := time.Now().UTC()
	ident := &identity.Identity{
		ID:           kernel.NewIdentityID(uuid.New().String()),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byID[ident.ID] = ident
	out := clone(ident)
	s.mu.Unlock()

	s.publish(ctx, out)
	return out, nil
}

func (s *MemoryStore) publish(ctx context.Context, ident *identity.Identity) {
	if s.publisher == nil {
		return
	}
	ev, err := eventx.NewEvent(kernel.EventIdentityCreated, ident.Email.String(), kernel.IdentityCreatedPayload{ID: ident.ID})
	if err == nil {
		_, err = s.publisher.Publish(ctx, ev)
	}
	if err != nil {
		logx.WithError(err).WithField("email", ident.Email).Error("identity: failed to publish identity.created")
	}
}

func (s *MemoryStore) Get(_ context.Context, id kernel.IdentityID) (*identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.byID[id]
	if !ok {
		return nil, identity.ErrNotFound().WithDetail("identity_id", id)
	}
	return clone(ident), nil
}

func (s *MemoryStore) GetByEmail(_ context.Context, email kernel.Email) (*identity.Identity, error) {
	email = kernel.NewEmail(email.String())
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ident := range s.byID {
		if ident.Email == email {
			return clone(ident), nil
		}
	}
	return nil, identity.ErrNotFound().WithDetail("email", email)
}

func (s *MemoryStore) Delete(_ context.Context, id kernel.IdentityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return identity.ErrNotFound().WithDetail("identity_id", id)
	}
	delete(s.byID, id)
	return nil
}

func (s *MemoryStore) SetCustomClaims(_ context.Context, id kernel.IdentityID, claims kernel.CustomClaims) error {
	return s.update(id, func(ident *identity.Identity) {
		c := claims
		ident.CustomClaims = &c
	})
}

func (s *MemoryStore) SetDisabled(_ context.Context, id kernel.IdentityID, disabled bool) error {
	return s.update(id, func(ident *identity.Identity) {
		ident.Disabled = disabled
	})
}

func (s *MemoryStore) List(_ context.Context, after kernel.IdentityID, limit int) ([]*identity.Identity, kernel.IdentityID, error) {
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	ids := make([]kernel.IdentityID, 0, len(s.byID))
	for id := range s.byID {
		if after.IsEmpty() || id > after {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]*identity.Identity, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(s.byID[id]))
	}
	s.mu.RUnlock()

	var next kernel.IdentityID
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (s *MemoryStore) update(id kernel.IdentityID, fn func(*identity.Identity)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ident, ok := s.byID[id]
	if !ok {
		return identity.ErrNotFound().WithDetail("identity_id", id)
	}
	fn(ident)
	ident.UpdatedAt = time.Now().UTC()
	return nil
}

func clone(ident *identity.Identity) *identity.Identity {
	cp := *ident
	if ident.CustomClaims != nil {
		c := *ident.CustomClaims
		cp.CustomClaims = &c
	}
	return &cp
}

// MemoryLinkStore is an in-process identity.LinkStore
type MemoryLinkStore struct {
	mu    sync.Mutex
	links map[string]identity.SignInLink
}

func NewMemoryLinkStore() *MemoryLinkStore {
	return &MemoryLinkStore{links: make(map[string]identity.SignInLink)}
}

func (s *MemoryLinkStore) Save(_ context.Context, link identity.SignInLink, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[link.Code] = link
	return nil
}

func (s *MemoryLinkStore) Consume(_ context.Context, code string) (*identity.SignInLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[code]
	if !ok {
		return nil, identity.ErrInvalidLink()
	}
	delete(s.links, code)
	return &link, nil
}

var (
	_ identity.Store     = (*MemoryStore)(nil)
	_ identity.LinkStore = (*MemoryLinkStore)(nil)
)
