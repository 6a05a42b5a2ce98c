package identitysync

import (
	"github.com/Abraxas-365/portal/pkg/iam/profile"
)

// Rejection reasons
const (
	ReasonProfileMissing   = "profile_missing"
	ReasonProfileMalformed = "profile_malformed"
	ReasonOrgMissing       = "organization_missing"
)

// Action is what the enforcer does with a new identity
type Action int

const (
	ActionAccept Action = iota
	ActionReject
)

func (a Action) String() string {
	if a == ActionAccept {
		return "accept"
	}
	return "reject"
}

// Verdict is the outcome of judging an identity against its profile
type Verdict struct {
	Action Action
	Reason string
	// DeleteProfile is set when a rejected identity had a stored document
	DeleteProfile bool
	Profile       *profile.Profile
	Cause         error
}

// Judge decides whether an identity may persist. doc is nil when no profile
// document exists; orgExists is only consulted for a well-formed document.
func Judge(doc profile.RawDocument, orgExists bool) Verdict {
	if doc == nil {
		return Verdict{Action: ActionReject, Reason: ReasonProfileMissing}
	}

	p, err := profile.Parse(doc)
	if err != nil {
		return Verdict{Action: ActionReject, Reason: ReasonProfileMalformed, DeleteProfile: true, Cause: err}
	}

	if !orgExists {
		return Verdict{Action: ActionReject, Reason: ReasonOrgMissing, DeleteProfile: true, Profile: p}
	}

	return Verdict{Action: ActionAccept, Profile: p}
}
