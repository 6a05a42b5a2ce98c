package kernel

import "strings"

// IdentityID is the opaque, provider-assigned id of an identity record
type IdentityID string

func NewIdentityID(id string) IdentityID { return IdentityID(id) }
func (u IdentityID) String() string      { return string(u) }
func (u IdentityID) IsEmpty() bool       { return string(u) == "" }

// OrganizationID references an organization by id
type OrganizationID string

func NewOrganizationID(id string) OrganizationID { return OrganizationID(id) }
func (o OrganizationID) String() string          { return string(o) }
func (o OrganizationID) IsEmpty() bool           { return string(o) == "" }

// Email is the join key between the identity provider and the profile store.
// Values built with NewEmail are trimmed and lower-cased.
type Email string

func NewEmail(raw string) Email { return Email(strings.ToLower(strings.TrimSpace(raw))) }
func (e Email) String() string  { return string(e) }
func (e Email) IsEmpty() bool   { return string(e) == "" }
