package auth

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("s3cret", 5)
	token, expires, err := tm.GenerateToken("EMP00002", domain.SubjectKindEmployee, domain.RoleEmployee)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expires, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.PSN("EMP00002"), claims.PSN())
	assert.Equal(t, domain.SubjectKindEmployee, claims.Kind)
	assert.Equal(t, domain.RoleEmployee, claims.Role)
}

func TestTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	issuer := NewTokenManager("a", 1)
	token, _, err := issuer.GenerateToken("700", domain.SubjectKindHR, domain.RoleHR)
	require.NoError(t, err)

	_, err = NewTokenManager("b", 1).ParseToken(token)
	assert.Error(t, err)

	late := NewTokenManager("a", 1)
	late.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = late.ParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("pa55word", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "pa55word"))
	assert.ErrorIs(t, ComparePassword(hash, "guess"), ErrPasswordMismatch)
	assert.False(t, NeedsRehash(hash, bcrypt.MinCost))
	assert.True(t, NeedsRehash(hash, bcrypt.MinCost+1))
	assert.True(t, NeedsRehash("not-a-hash", bcrypt.MinCost))
}

func TestDirectoryResolver(t *testing.T) {
	ctx := context.Background()
	repos := memory.New()
	require.NoError(t, repos.Employees.Save(ctx, &domain.Employee{PSN: "EMP00002", Name: "Vikram Shah"}))
	require.NoError(t, repos.HR.Save(ctx, &domain.HRMember{PSN: "800", Name: "Sunil", Role: domain.RoleHeadHR}))
	require.NoError(t, repos.Credentials.Save(ctx, &domain.Credential{PSN: "1", Kind: domain.SubjectKindAdmin}))
	r := NewDirectoryResolver(repos)

	actor, err := r.Resolve(ctx, "EMP00002", domain.SubjectKindEmployee)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, actor.Role)
	require.NotNil(t, actor.Employee)

	actor, err = r.Resolve(ctx, "800", domain.SubjectKindHR)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHeadHR, actor.Role)

	actor, err = r.Resolve(ctx, "1", domain.SubjectKindAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, actor.Role)

	_, err = r.Resolve(ctx, "EMP00002", domain.SubjectKindSupervisor)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, err = r.Resolve(ctx, "EMP00002", domain.SubjectKindAdmin)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

type staticResolver struct{ actor domain.Actor }

func (s staticResolver) Resolve(context.Context, domain.PSN, domain.SubjectKind) (domain.Actor, error) {
	return s.actor, nil
}

func codeOf(t *testing.T, app *fiber.App, header string) int {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

func testApp(actor domain.Actor, guard fiber.Handler) (*fiber.App, *TokenManager) {
	tm := NewTokenManager("k", 5)
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
	}})
	mw := NewAuthMiddleware(tm, staticResolver{actor: actor}, time.Second)
	app.Get("/", mw.Handle, guard, func(c *fiber.Ctx) error { return c.SendStatus(204) })
	return app, tm
}

func TestMiddlewareAndGuards(t *testing.T) {
	hr := domain.HRActor(&domain.HRMember{PSN: "700", Role: domain.RoleHR})
	app, tm := testApp(hr, RequireStaff(domain.RoleHR, domain.RoleIS))
	token, _, err := tm.GenerateToken("700", domain.SubjectKindHR, domain.RoleHR)
	require.NoError(t, err)

	assert.Equal(t, 401, codeOf(t, app, ""))
	assert.Equal(t, 401, codeOf(t, app, "Basic abc"))
	assert.Equal(t, 401, codeOf(t, app, "Bearer nope"))
	assert.Equal(t, 204, codeOf(t, app, "Bearer "+token))

	headHR := domain.HRActor(&domain.HRMember{PSN: "800", Role: domain.RoleHeadHR})
	app, tm = testApp(headHR, RequireStaff(domain.RoleHR))
	token, _, err = tm.GenerateToken("800", domain.SubjectKindHR, domain.RoleHeadHR)
	require.NoError(t, err)
	assert.Equal(t, 403, codeOf(t, app, "Bearer "+token))

	employee := domain.EmployeeActor(&domain.Employee{PSN: "EMP00002"})
	app, tm = testApp(employee, RequireAdmin())
	token, _, err = tm.GenerateToken("EMP00002", domain.SubjectKindEmployee, domain.RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, 403, codeOf(t, app, "Bearer "+token))

	app, tm = testApp(employee, RequireEmployee())
	token, _, err = tm.GenerateToken("EMP00002", domain.SubjectKindEmployee, domain.RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, 204, codeOf(t, app, "Bearer "+token))
}
