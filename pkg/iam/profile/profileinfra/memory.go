package profileinfra

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Abraxas-365/portal/pkg/eventx"
	"github.com/Abraxas-365/portal/pkg/iam/profile"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/Abraxas-365/portal/pkg/logx"
)

// MemoryStore is an in-process profile.Store. When a publisher is set it
// emits profile.updated on every overwrite or merge, like the Postgres
// trigger.
type MemoryStore struct {
	mu        sync.RWMutex
	docs      map[string]profile.RawDocument
	orgs      map[kernel.OrganizationID]bool
	publisher eventx.Publisher

	// OrgCheckErr, when set, is returned by OrganizationExists.
	OrgCheckErr error
}

func NewMemoryStore(publisher eventx.Publisher) *MemoryStore {
	return &MemoryStore{
		docs:      make(map[string]profile.RawDocument),
		orgs:      make(map[kernel.OrganizationID]bool),
		publisher: publisher,
	}
}

// AddOrganization registers an organization id
func (s *MemoryStore) AddOrganization(id kernel.OrganizationID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[id] = true
}

func (s *MemoryStore) Get(_ context.Context, email kernel.Email) (profile.RawDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key(email)]
	if !ok {
		return nil, profile.ErrNotFound().WithDetail("email", key(email))
	}
	return copyDoc(doc), nil
}

func (s *MemoryStore) Set(ctx context.Context, email kernel.Email, doc profile.RawDocument) error {
	doc, err := normalize(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	before, existed := s.docs[key(email)]
	s.docs[key(email)] = doc
	s.mu.Unlock()

	if existed {
		s.publishUpdate(ctx, key(email), before, doc)
	}
	return nil
}

func (s *MemoryStore) Create(_ context.Context, email kernel.Email, doc profile.RawDocument) error {
	doc, err := normalize(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[key(email)]; ok {
		return profile.ErrExists().WithDetail("email", key(email))
	}
	s.docs[key(email)] = doc
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, email kernel.Email, fields map[string]any) error {
	patch, err := normalize(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	before, ok := s.docs[key(email)]
	if !ok {
		s.mu.Unlock()
		return profile.ErrNotFound().WithDetail("email", key(email))
	}
	after := copyDoc(before)
	for k, v := range patch {
		after[k] = v
	}
	s.docs[key(email)] = after
	s.mu.Unlock()

	s.publishUpdate(ctx, key(email), before, after)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, email kernel.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[key(email)]; !ok {
		return profile.ErrNotFound().WithDetail("email", key(email))
	}
	delete(s.docs, key(email))
	return nil
}

func (s *MemoryStore) OrganizationExists(_ context.Context, id kernel.OrganizationID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.OrgCheckErr != nil {
		return false, s.OrgCheckErr
	}
	return s.orgs[id], nil
}

func (s *MemoryStore) publishUpdate(ctx context.Context, email string, before, after profile.RawDocument) {
	if s.publisher == nil {
		return
	}
	ev, err := eventx.NewEvent(kernel.EventProfileUpdated, email, kernel.ProfileUpdatedPayload{
		Before: before,
		After:  after,
	})
	if err == nil {
		_, err = s.publisher.Publish(ctx, ev)
	}
	if err != nil {
		logx.WithError(err).WithField("email", email).Error("profile: failed to publish profile.updated")
	}
}

// normalize round-trips through JSON so stored values have the same
// dynamic types as documents read back from Postgres.
func normalize(doc map[string]any) (profile.RawDocument, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, profile.ErrStoreFailure("encode", err)
	}
	var out profile.RawDocument
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, profile.ErrStoreFailure("decode", err)
	}
	if out == nil {
		out = profile.RawDocument{}
	}
	return out, nil
}

func copyDoc(doc profile.RawDocument) profile.RawDocument {
	out := make(profile.RawDocument, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

var _ profile.Store = (*MemoryStore)(nil)
