package auth_test

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"club95/internal/auth"
	auth_db "club95/internal/auth/db"
	"club95/internal/models"
)

func setupService(t *testing.T) (*auth.Service, *auth.TokenIssuer, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := bunDB.NewCreateTable().Model((*models.User)(nil)).Exec(context.Background()); err != nil {
		t.Fatalf("Failed to create users table: %v", err)
	}

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	return auth.NewService(&auth_db.DB{Bun: bunDB}, issuer), issuer, bunDB
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, bunDB := setupService(t)
	defer bunDB.Close()
	ctx := context.Background()

	user, err := svc.Register(ctx, auth.RegisterInput{
		Email:     "Alice@Club95.dev",
		Password:  "password123",
		FirstName: "Alice",
		LastName:  "Moreau",
	})
	assert.NoError(t, err)
	assert.Equal(t, "alice@club95.dev", user.Email)
	assert.NotEqual(t, "password123", user.PasswordHash)

	token, loggedIn, err := svc.Login(ctx, "alice@club95.dev", "password123")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)

	// Case and whitespace in the email don't matter at login.
	_, _, err = svc.Login(ctx, "  ALICE@club95.dev ", "password123")
	assert.NoError(t, err)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, bunDB := setupService(t)
	defer bunDB.Close()
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterInput{Email: "not-an-email", Password: "password123"})
	assert.Error(t, err)

	_, err = svc.Register(ctx, auth.RegisterInput{Email: "short@club95.dev", Password: "short"})
	assert.Error(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, bunDB := setupService(t)
	defer bunDB.Close()
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterInput{Email: "alice@club95.dev", Password: "password123"})
	assert.NoError(t, err)

	_, err = svc.Register(ctx, auth.RegisterInput{Email: "ALICE@club95.dev", Password: "password456"})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc, _, bunDB := setupService(t)
	defer bunDB.Close()
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterInput{Email: "alice@club95.dev", Password: "password123"})
	assert.NoError(t, err)

	// Unknown email and wrong password both come back as the same error.
	_, _, err = svc.Login(ctx, "nobody@club95.dev", "password123")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "alice@club95.dev", "wrong-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestProfile(t *testing.T) {
	svc, _, bunDB := setupService(t)
	defer bunDB.Close()
	ctx := context.Background()

	user, err := svc.Register(ctx, auth.RegisterInput{Email: "alice@club95.dev", Password: "password123"})
	assert.NoError(t, err)

	profile, err := svc.Profile(ctx, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, user.Email, profile.Email)

	_, err = svc.Profile(ctx, "missing")
	assert.Error(t, err)
}

func TestTokenIssueAndVerify(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue("user1")
	assert.NoError(t, err)

	userID, err := issuer.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, "user1", userID)

	// A token signed with a different secret is rejected.
	other := auth.NewTokenIssuer("other-secret", time.Hour)
	_, err = other.Verify(token)
	assert.Error(t, err)

	_, err = issuer.Verify("not-a-token")
	assert.Error(t, err)
}

func TestTokenExpiry(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", -time.Minute)

	token, err := issuer.Issue("user1")
	assert.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)

	var gotUserID string
	handler := auth.Middleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = auth.UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// No header.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Malformed header.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token.
	token, err := issuer.Issue("user1")
	assert.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user1", gotUserID)
}
