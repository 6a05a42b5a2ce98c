package profileinfra

import (
	"context"
	"encoding/json"

	"github.com/Abraxas-365/portal/pkg/fsx"
	"github.com/Abraxas-365/portal/pkg/iam/profile"
	"github.com/Abraxas-365/portal/pkg/kernel"
)

const placeholderDir = "userImages"

// Placeholder is the empty auxiliary resource created for every new user
type Placeholder struct {
	ImageBlob *string `json:"imageBlob"`
}

// FSPlaceholderStore keeps placeholders as JSON files on an fsx.FileWriter
type FSPlaceholderStore struct {
	fs fsx.FileWriter
}

func NewFSPlaceholderStore(fs fsx.FileWriter) *FSPlaceholderStore {
	return &FSPlaceholderStore{fs: fs}
}

// PlaceholderPath returns the storage path of the placeholder for email
func PlaceholderPath(email kernel.Email) string {
	return placeholderDir + "/" + key(email) + ".json"
}

// CreatePlaceholder writes an empty placeholder, replacing any existing one
func (s *FSPlaceholderStore) CreatePlaceholder(ctx context.Context, email kernel.Email) error {
	data, err := json.Marshal(Placeholder{})
	if err != nil {
		return profile.ErrStoreFailure("encode_placeholder", err)
	}
	if err := s.fs.WriteFile(ctx, PlaceholderPath(email), data); err != nil {
		return profile.ErrStoreFailure("create_placeholder", err).WithDetail("email", key(email))
	}
	return nil
}

var _ profile.PlaceholderStore = (*FSPlaceholderStore)(nil)
