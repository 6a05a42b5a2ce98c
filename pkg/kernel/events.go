package kernel

// Store change notifications. The Postgres triggers emit the same type
// names and payload shapes.
const (
	EventIdentityCreated = "identity.created"
	EventProfileUpdated  = "profile.updated"
)

// IdentityCreatedPayload accompanies EventIdentityCreated, keyed by email
type IdentityCreatedPayload struct {
	ID IdentityID `json:"id"`
}

// ProfileUpdatedPayload accompanies EventProfileUpdated, keyed by email
type ProfileUpdatedPayload struct {
	Before map[string]any `json:"before"`
	After  map[string]any `json:"after"`
}
