package verificationsrv

import (
	"context"

	"github.com/Abraxas-365/portal/pkg/iam"
	"github.com/Abraxas-365/portal/pkg/iam/auth"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/Abraxas-365/portal/pkg/logx"
	"github.com/Abraxas-365/portal/pkg/metricsx"
	"github.com/Abraxas-365/portal/pkg/verification"
)

type VerificationService struct {
	issuer  verification.Issuer
	metrics *metricsx.Metrics
}

func NewVerificationService(issuer verification.Issuer, metrics *metricsx.Metrics) *VerificationService {
	return &VerificationService{issuer: issuer, metrics: metrics}
}

// GetVerificationCode asks the issuer for a code. Unauthenticated callers
// are refused before any network call.
func (s *VerificationService) GetVerificationCode(ctx context.Context, caller *kernel.Claims, req verification.IssueCodeRequest) (*verification.Code, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		s.metrics.VerificationCode(metricsx.OutcomeDenied)
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, iam.ErrInvalidRequest(err)
	}

	code, err := s.issuer.Issue(ctx, req)
	if err != nil {
		s.metrics.VerificationCode(metricsx.OutcomeUpstream)
		logx.WithContext(ctx).WithError(err).WithFields(logx.Fields{
			"identity_id": caller.IdentityID,
			"test_type":   req.TestType,
		}).Error("verification code request failed")
		return nil, err
	}

	s.metrics.VerificationCode(metricsx.OutcomeIssued)
	logx.WithContext(ctx).WithFields(logx.Fields{
		"identity_id": caller.IdentityID,
		"test_type":   req.TestType,
	}).Info("verification code issued")
	return code, nil
}
