package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipeshare_backend/apierr"
	"recipeshare_backend/logger"
	"recipeshare_backend/models"
	"recipeshare_backend/store"
	"recipeshare_backend/store/memstore"
)

type fakeGoogle struct {
	id  *GoogleIdentity
	err error
}

func (f fakeGoogle) Verify(context.Context, string) (*GoogleIdentity, error) {
	return f.id, f.err
}

func newService(g GoogleVerifier) (*Service, *memstore.Store) {
	st := memstore.New()
	return NewService(st, NewTokens("test-secret", time.Hour), g, logger.Nop()), st
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	code, _ := apierr.Status(err)
	return code
}

func TestTokensRoundTrip(t *testing.T) {
	tok := NewTokens("secret", time.Minute)
	signed, exp, err := tok.Issue("u1", "ann")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 2*time.Second)

	claims, err := tok.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "ann", claims.Username)

	_, err = NewTokens("other", time.Minute).Parse(signed)
	assert.Error(t, err)
}

func TestTokensExpire(t *testing.T) {
	tok := NewTokens("secret", time.Minute)
	signed, _, err := tok.Issue("u1", "ann")
	require.NoError(t, err)

	tok.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tok.Parse(signed)
	assert.Error(t, err)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", "anything"))
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Email: " Ann@Example.com ", Username: "ann", Password: "password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "ann@example.com", res.User.Email)
	assert.Equal(t, "ann", res.User.DisplayName)

	_, err = svc.Register(ctx, RegisterInput{Email: "ann@example.com", Username: "ann2", Password: "password1"})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	res, err = svc.Login(ctx, "ANN@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "ann", res.User.Username)

	_, err = svc.Login(ctx, "ann@example.com", "nope")
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	_, err = svc.Login(ctx, "ghost@example.com", "password1")
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	u, err := svc.Verify(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, u.ID)

	_, err = svc.Verify(ctx, "garbage")
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	sess, err := svc.SessionFor(res.Token)
	require.NoError(t, err)
	assert.Equal(t, Session{UserID: res.User.ID, Username: "ann"}, sess)
}

func TestRegisterRejectsBlankUsername(t *testing.T) {
	svc, users := newService(nil)
	ctx := context.Background()

	for _, name := range []string{"    ", "  ab  "} {
		_, err := svc.Register(ctx, RegisterInput{Email: "blank@example.com", Username: name, Password: "password1"})
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err), "%q", name)
	}
	_, err := users.GetUserByEmail(ctx, "blank@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	res, err := svc.Register(ctx, RegisterInput{Email: "blank@example.com", Username: "  abc  ", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "abc", res.User.Username)
}

func TestGoogleCreatesThenReuses(t *testing.T) {
	svc, st := newService(fakeGoogle{id: &GoogleIdentity{
		Subject: "g-1", Email: "bea@example.com", EmailVerified: true, Name: "Bea",
	}})
	ctx := context.Background()

	first, err := svc.Google(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "bea", first.User.Username)
	assert.Equal(t, "Bea", first.User.DisplayName)

	second, err := svc.Google(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	u, err := st.GetUserByGoogleSubject(ctx, "g-1")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, u.ID)
}

func TestGoogleLinksExistingEmail(t *testing.T) {
	svc, st := newService(fakeGoogle{id: &GoogleIdentity{Subject: "g-2", Email: "cal@example.com", EmailVerified: true}})
	ctx := context.Background()
	require.NoError(t, st.CreateUser(ctx, &models.User{ID: "cal", Email: "cal@example.com", Username: "cal"}))

	res, err := svc.Google(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "cal", res.User.ID)
}

func TestGoogleUsernameCollision(t *testing.T) {
	svc, st := newService(fakeGoogle{id: &GoogleIdentity{Subject: "g-3", Email: "dan@other.com", EmailVerified: true}})
	ctx := context.Background()
	require.NoError(t, st.CreateUser(ctx, &models.User{ID: "x", Email: "dan@example.com", Username: "dan"}))

	res, err := svc.Google(ctx, "token")
	require.NoError(t, err)
	assert.NotEqual(t, "dan", res.User.Username)
	assert.Contains(t, res.User.Username, "dan-")
}

func TestGoogleRejectedOrDisabled(t *testing.T) {
	svc, _ := newService(fakeGoogle{err: errors.New("bad audience")})
	_, err := svc.Google(context.Background(), "token")
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	disabled, _ := newService(nil)
	_, err = disabled.Google(context.Background(), "token")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestSessionContext(t *testing.T) {
	_, ok := SessionFrom(context.Background())
	assert.False(t, ok)

	ctx := WithSession(context.Background(), Session{UserID: "u", Username: "n"})
	s, ok := SessionFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u", s.UserID)
}

func TestUsernameFrom(t *testing.T) {
	assert.Equal(t, "jane.doe", usernameFrom("Jane.Doe@example.com", ""))
	assert.Equal(t, "cook", usernameFrom("", "李"))
	assert.Equal(t, "bobsmith", usernameFrom("", "Bob Smith"))
}
