package profile

import (
	"testing"

	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDoc() RawDocument {
	return RawDocument{
		"isAdmin":         false,
		"organizationID":  "org-1",
		"disabled":        false,
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"isFirstTimeUser": true,
	}
}

func TestParseValid(t *testing.T) {
	p, err := Parse(validDoc())
	require.NoError(t, err)
	assert.Equal(t, kernel.OrganizationID("org-1"), p.OrganizationID)
	assert.True(t, p.IsFirstTimeUser)
	assert.Equal(t, kernel.CustomClaims{IsAdmin: false, OrganizationID: "org-1"}, p.Claims())
}

func TestParseRejectsWrongShapes(t *testing.T) {
	tests := []struct {
		field string
		value any
	}{
		{"isAdmin", "true"},
		{"isAdmin", nil},
		{"organizationID", 42.0},
		{"disabled", "no"},
		{"firstName", false},
		{"lastName", nil},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			doc := validDoc()
			if tt.value == nil {
				delete(doc, tt.field)
			} else {
				doc[tt.field] = tt.value
			}
			_, err := Parse(doc)
			assert.True(t, errx.IsType(err, errx.TypeMalformed))
			assert.True(t, errx.HasCode(err, CodeMalformed))
		})
	}
}

func TestParseNilDocument(t *testing.T) {
	_, err := Parse(nil)
	assert.True(t, errx.IsType(err, errx.TypeMalformed))
}

func TestParseToleratesLooseOptionalFields(t *testing.T) {
	doc := validDoc()
	doc["isSuperAdmin"] = "yes"
	doc["passwordResetRequested"] = true

	p, err := Parse(doc)
	require.NoError(t, err)
	assert.False(t, p.IsSuperAdmin)
	assert.True(t, p.PasswordResetRequested)
}

func TestToDocumentRoundTrip(t *testing.T) {
	p, err := Parse(validDoc())
	require.NoError(t, err)

	again, err := Parse(p.ToDocument())
	require.NoError(t, err)
	assert.Equal(t, p, again)
}

func TestSyncFieldsChanged(t *testing.T) {
	base := validDoc()

	tests := []struct {
		name   string
		mutate func(RawDocument)
		want   bool
	}{
		{"name change only", func(d RawDocument) { d["firstName"] = "Grace" }, false},
		{"onboarding flag only", func(d RawDocument) { d["isFirstTimeUser"] = false }, false},
		{"reset flag only", func(d RawDocument) { d["passwordResetRequested"] = true }, false},
		{"admin flip", func(d RawDocument) { d["isAdmin"] = true }, true},
		{"disabled flip", func(d RawDocument) { d["disabled"] = true }, true},
		{"organization move", func(d RawDocument) { d["organizationID"] = "org-2" }, true},
		{"super admin added", func(d RawDocument) { d["isSuperAdmin"] = false }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			after := RawDocument{}
			for k, v := range base {
				after[k] = v
			}
			tt.mutate(after)
			assert.Equal(t, tt.want, SyncFieldsChanged(base, after))
		})
	}
}
