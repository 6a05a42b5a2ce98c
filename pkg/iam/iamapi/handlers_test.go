package iamapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/Abraxas-365/portal/pkg/iam/auth"
	"github.com/Abraxas-365/portal/pkg/iam/identity"
	"github.com/Abraxas-365/portal/pkg/iam/provisioning"
	"github.com/Abraxas-365/portal/pkg/iam/recovery"
	"github.com/Abraxas-365/portal/pkg/kernel"
	"github.com/Abraxas-365/portal/pkg/verification"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	got    provisioning.CreateUserRequest
	caller *kernel.Claims
	err    error
}

func (f *fakeUsers) CreateUser(_ context.Context, caller *kernel.Claims, req provisioning.CreateUserRequest) (*identity.View, error) {
	f.caller, f.got = caller, req
	if f.err != nil {
		return nil, f.err
	}
	return &identity.View{UID: "id-new", Email: kernel.NewEmail(*req.Email)}, nil
}

type fakeRecovery struct {
	email string
	ip    string
	err   error
}

func (f *fakeRecovery) InitiatePasswordRecovery(_ context.Context, req recovery.PasswordRecoveryRequest, ip string) error {
	f.email, f.ip = req.Email, ip
	return f.err
}

func (f *fakeRecovery) CompleteSignIn(_ context.Context, req recovery.RedeemLinkRequest, _ string) (*recovery.SignInResult, error) {
	if req.Code != "abc123" {
		return nil, identity.ErrInvalidLink()
	}
	return &recovery.SignInResult{Token: "session-token"}, nil
}

func (f *fakeRecovery) SignInWithPassword(_ context.Context, req recovery.PasswordSignInRequest, _ string) (*recovery.SignInResult, error) {
	if req.Email != "a@b.org" || req.Password != "temporary-pass" {
		return nil, identity.ErrBadCredentials()
	}
	return &recovery.SignInResult{Token: "password-token"}, nil
}

type fakeCodes struct{ calls int }

func (f *fakeCodes) GetVerificationCode(context.Context, *kernel.Claims, verification.IssueCodeRequest) (*verification.Code, error) {
	f.calls++
	return &verification.Code{Code: json.RawMessage(`"77"`)}, nil
}

type harness struct {
	app      *fiber.App
	tokens   *auth.JWTService
	users    *fakeUsers
	recovery *fakeRecovery
	codes    *fakeCodes
}

func newHarness(t *testing.T, throttle *IPRateLimiter) *harness {
	t.Helper()
	h := &harness{
		tokens:   auth.NewJWTService("handlers-test-secret", time.Hour, "portal"),
		users:    &fakeUsers{},
		recovery: &fakeRecovery{},
		codes:    &fakeCodes{},
	}
	h.app = fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return errx.WriteFiber(c, err, false)
		},
	})
	NewHandlers(h.users, h.recovery, h.codes, throttle).RegisterRoutes(h.app, auth.NewAuthMiddleware(h.tokens))
	return h
}

func (h *harness) token(t *testing.T, claims kernel.Claims) string {
	t.Helper()
	tok, err := h.tokens.IssueToken(claims)
	require.NoError(t, err)
	return tok
}

func (h *harness) post(t *testing.T, path, body, token string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

var adminClaims = kernel.Claims{IdentityID: "admin-1", Email: "admin@example.org", IsAdmin: true, OrganizationID: "org-1"}

func TestCreateUserRequiresAdmin(t *testing.T) {
	h := newHarness(t, nil)
	body := `{"email":"a@b.org","firstName":"A","lastName":"B","isAdmin":false}`

	resp, out := h.post(t, "/api/v1/users", body, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHENTICATED", out["type"])

	member := adminClaims
	member.IsAdmin = false
	resp, out = h.post(t, "/api/v1/users", body, h.token(t, member))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "PERMISSION_DENIED", out["type"])
	assert.Nil(t, h.users.caller)
}

func TestCreateUserAsAdmin(t *testing.T) {
	h := newHarness(t, nil)

	resp, out := h.post(t, "/api/v1/users", `{"email":"A@B.org","firstName":"A","lastName":"B","isAdmin":true}`, h.token(t, adminClaims))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "a@b.org", out["email"])
	require.NotNil(t, h.users.caller)
	assert.Equal(t, kernel.OrganizationID("org-1"), h.users.caller.OrganizationID)
	assert.True(t, *h.users.got.IsAdmin)
}

func TestCreateUserWrongFieldTypeIsInvalidArgument(t *testing.T) {
	h := newHarness(t, nil)

	resp, out := h.post(t, "/api/v1/users", `{"email":"a@b.org","firstName":"A","lastName":"B","isAdmin":"yes"}`, h.token(t, adminClaims))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ARGUMENT", out["type"])
}

func TestCreateUserSurfacesAlreadyExists(t *testing.T) {
	h := newHarness(t, nil)
	h.users.err = provisioning.ErrRegistry.New(provisioning.CodeAlreadyExists)

	resp, out := h.post(t, "/api/v1/users", `{"email":"a@b.org","firstName":"A","lastName":"B","isAdmin":false}`, h.token(t, adminClaims))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "The email address is already in use by another account.", out["error"])
}

func TestRecoveryIsPublic(t *testing.T) {
	h := newHarness(t, nil)

	resp, _ := h.post(t, "/api/v1/auth/recovery", `{"email":"a@b.org"}`, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "a@b.org", h.recovery.email)
}

func TestRecoveryNotFound(t *testing.T) {
	h := newHarness(t, nil)
	h.recovery.err = recovery.ErrRegistry.New(recovery.CodeNotFound)

	resp, out := h.post(t, "/api/v1/auth/recovery", `{"email":"a@b.org"}`, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", out["type"])
}

func TestRecoveryIsThrottledPerIP(t *testing.T) {
	h := newHarness(t, NewIPRateLimiter(0.001, 2, time.Minute))

	for i := 0; i < 2; i++ {
		resp, _ := h.post(t, "/api/v1/auth/recovery", `{"email":"a@b.org"}`, "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	}

	resp, out := h.post(t, "/api/v1/auth/recovery", `{"email":"a@b.org"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RESOURCE_EXHAUSTED", out["type"])
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestRedeemSignInLink(t *testing.T) {
	h := newHarness(t, nil)

	resp, out := h.post(t, "/api/v1/auth/link/redeem", `{"oobCode":"abc123"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "session-token", out["token"])

	resp, _ = h.post(t, "/api/v1/auth/link/redeem", `{"oobCode":"ffff"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPasswordSignInIsPublic(t *testing.T) {
	h := newHarness(t, nil)

	resp, out := h.post(t, "/api/v1/auth/signin", `{"email":"a@b.org","password":"temporary-pass"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "password-token", out["token"])

	resp, out = h.post(t, "/api/v1/auth/signin", `{"email":"a@b.org","password":"guess"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHENTICATED", out["type"])
}

func TestVerificationCodeRequiresAuthentication(t *testing.T) {
	h := newHarness(t, nil)
	body := `{"testType":"likely","testDate":"2020-07-02"}`

	resp, _ := h.post(t, "/api/v1/verification/code", body, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, h.codes.calls)

	member := adminClaims
	member.IsAdmin = false
	resp, out := h.post(t, "/api/v1/verification/code", body, h.token(t, member))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "77", out["code"])
}
