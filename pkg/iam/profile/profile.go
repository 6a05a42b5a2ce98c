// Package profile models the profile documents that authorize an identity:
// organization membership, role flags and onboarding state. Documents are
// stored schemaless and validated on read.
package profile

import (
	"reflect"

	"github.com/Abraxas-365/portal/pkg/kernel"
)

// Document field names
const (
	FieldIsAdmin                = "isAdmin"
	FieldIsSuperAdmin           = "isSuperAdmin"
	FieldDisabled               = "disabled"
	FieldOrganizationID         = "organizationID"
	FieldFirstName              = "firstName"
	FieldLastName               = "lastName"
	FieldIsFirstTimeUser        = "isFirstTimeUser"
	FieldPasswordResetRequested = "passwordResetRequested"
)

// syncFields are the fields whose change must reach the identity record
var syncFields = []string{FieldDisabled, FieldIsSuperAdmin, FieldIsAdmin, FieldOrganizationID}

// RawDocument is a profile document as stored
type RawDocument map[string]any

// Profile is a well-formed profile document
type Profile struct {
	IsAdmin                bool                  `json:"isAdmin"`
	IsSuperAdmin           bool                  `json:"isSuperAdmin,omitempty"`
	Disabled               bool                  `json:"disabled"`
	OrganizationID         kernel.OrganizationID `json:"organizationID"`
	FirstName              string                `json:"firstName"`
	LastName               string                `json:"lastName"`
	IsFirstTimeUser        bool                  `json:"isFirstTimeUser"`
	PasswordResetRequested bool                  `json:"passwordResetRequested,omitempty"`
}

// Parse validates the shape of raw. isAdmin and disabled must be booleans;
// organizationID, firstName and lastName must be strings. Other fields are
// read when they have the expected type and ignored otherwise.
func Parse(raw RawDocument) (*Profile, error) {
	if raw == nil {
		return nil, ErrMalformed("document", "missing")
	}

	isAdmin, ok := raw[FieldIsAdmin].(bool)
	if !ok {
		return nil, ErrMalformed(FieldIsAdmin, "must be a boolean")
	}
	orgID, ok := raw[FieldOrganizationID].(string)
	if !ok {
		return nil, ErrMalformed(FieldOrganizationID, "must be a string")
	}
	disabled, ok := raw[FieldDisabled].(bool)
	if !ok {
		return nil, ErrMalformed(FieldDisabled, "must be a boolean")
	}
	firstName, ok := raw[FieldFirstName].(string)
	if !ok {
		return nil, ErrMalformed(FieldFirstName, "must be a string")
	}
	lastName, ok := raw[FieldLastName].(string)
	if !ok {
		return nil, ErrMalformed(FieldLastName, "must be a string")
	}

	p := &Profile{
		IsAdmin:        isAdmin,
		Disabled:       disabled,
		OrganizationID: kernel.NewOrganizationID(orgID),
		FirstName:      firstName,
		LastName:       lastName,
	}
	p.IsSuperAdmin, _ = raw[FieldIsSuperAdmin].(bool)
	p.IsFirstTimeUser, _ = raw[FieldIsFirstTimeUser].(bool)
	p.PasswordResetRequested, _ = raw[FieldPasswordResetRequested].(bool)
	return p, nil
}

// Claims is the projection stamped on the identity record
func (p *Profile) Claims() kernel.CustomClaims {
	return kernel.CustomClaims{
		IsAdmin:        p.IsAdmin,
		OrganizationID: p.OrganizationID,
	}
}

// ToDocument renders the profile for storage
func (p *Profile) ToDocument() RawDocument {
	doc := RawDocument{
		FieldIsAdmin:         p.IsAdmin,
		FieldDisabled:        p.Disabled,
		FieldOrganizationID:  p.OrganizationID.String(),
		FieldFirstName:       p.FirstName,
		FieldLastName:        p.LastName,
		FieldIsFirstTimeUser: p.IsFirstTimeUser,
	}
	if p.IsSuperAdmin {
		doc[FieldIsSuperAdmin] = true
	}
	if p.PasswordResetRequested {
		doc[FieldPasswordResetRequested] = true
	}
	return doc
}

// SyncFieldsChanged reports whether any of disabled, isSuperAdmin, isAdmin
// or organizationID differ between before and after. A field present on one
// side only counts as a change.
func SyncFieldsChanged(before, after RawDocument) bool {
	for _, f := range syncFields {
		b, bok := before[f]
		a, aok := after[f]
		if bok != aok || !reflect.DeepEqual(a, b) {
			return true
		}
	}
	return false
}
