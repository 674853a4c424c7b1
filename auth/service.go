package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"recipeshare_backend/apierr"
	"recipeshare_backend/logger"
	"recipeshare_backend/models"
	"recipeshare_backend/store"
)

const (
	usernameAttempts = 5
	minUsername      = 3
	maxUsername      = 30
)

type Result struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

type RegisterInput struct {
	Email       string
	Username    string
	Password    string
	DisplayName string
}

type Service struct {
	users  store.Users
	tokens *Tokens
	google GoogleVerifier
	log    *logger.Logger
	now    func() time.Time
}

// NewService wires the auth flows. google may be nil, which disables Google
// sign-in.
func NewService(users store.Users, tokens *Tokens, google GoogleVerifier, log *logger.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		google: google,
		log:    log.With("service", "AuthService"),
		now:    time.Now,
	}
}

func (s *Service) issue(u *models.User) (*Result, error) {
	token, exp, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	u.Normalize()
	return &Result{Token: token, ExpiresAt: exp, User: *u}, nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	username := strings.TrimSpace(in.Username)
	if n := utf8.RuneCountInString(username); n < minUsername || n > maxUsername {
		return nil, apierr.BadRequest("username must be %d to %d characters", minUsername, maxUsername)
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	now := s.now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(in.Email),
		Username:     username,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if u.DisplayName == "" {
		u.DisplayName = u.Username
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apierr.Conflict("email or username already registered")
		}
		return nil, apierr.Internal(err)
	}
	s.log.Info("user registered", "user_id", u.ID)
	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apierr.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		return nil, apierr.Unauthorized("invalid email or password")
	}
	return s.issue(u)
}

// Google signs a user in with a Google ID token, linking the Google account to
// an existing user with the same e-mail or creating a new user.
func (s *Service) Google(ctx context.Context, idToken string) (*Result, error) {
	if s.google == nil {
		return nil, apierr.New(http.StatusNotFound, "google_disabled", errors.New("google sign-in is not configured"))
	}
	id, err := s.google.Verify(ctx, idToken)
	if err != nil {
		s.log.Warn("google token rejected", "error", err)
		return nil, apierr.Unauthorized("invalid google token")
	}

	u, err := s.users.GetUserByGoogleSubject(ctx, id.Subject)
	if err == nil {
		return s.issue(u)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apierr.Internal(err)
	}

	email := normalizeEmail(id.Email)
	if email != "" && id.EmailVerified {
		u, err = s.users.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			if err := s.users.LinkGoogleSubject(ctx, u.ID, id.Subject); err != nil {
				return nil, apierr.Internal(err)
			}
			u.GoogleSubject = id.Subject
			s.log.Info("google account linked", "user_id", u.ID)
			return s.issue(u)
		case !errors.Is(err, store.ErrNotFound):
			return nil, apierr.Internal(err)
		}
	}

	u, err = s.createGoogleUser(ctx, id, email)
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *Service) createGoogleUser(ctx context.Context, id *GoogleIdentity, email string) (*models.User, error) {
	base := usernameFrom(email, id.Name)
	now := s.now().UTC()
	for attempt := 0; attempt < usernameAttempts; attempt++ {
		name := base
		if attempt > 0 {
			name = fmt.Sprintf("%s-%s", base, uuid.NewString()[:4])
		}
		u := &models.User{
			ID:            uuid.NewString(),
			Email:         email,
			Username:      name,
			GoogleSubject: id.Subject,
			DisplayName:   id.Name,
			Avatar:        id.Picture,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if u.DisplayName == "" {
			u.DisplayName = name
		}
		err := s.users.CreateUser(ctx, u)
		if err == nil {
			s.log.Info("user registered with google", "user_id", u.ID)
			return u, nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return nil, apierr.Internal(err)
		}
	}
	return nil, apierr.Conflict("could not allocate a username")
}

// Verify resolves a bearer token to its user.
func (s *Service) Verify(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apierr.Unauthorized("invalid or expired token")
	}
	u, err := s.users.GetUser(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apierr.Unauthorized("user no longer exists")
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return u, nil
}

// SessionFor parses token without touching the store.
func (s *Service) SessionFor(token string) (Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Session{}, apierr.Unauthorized("invalid or expired token")
	}
	return Session{UserID: claims.Subject, Username: claims.Username}, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func usernameFrom(email, name string) string {
	src := name
	if at := strings.IndexByte(email, '@'); at > 0 {
		src = email[:at]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(src) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() < 3 {
		return "cook"
	}
	return b.String()
}
