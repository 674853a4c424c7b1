package auth

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

type googleVerifier struct {
	validator *idtoken.Validator
	clientID  string
}

// NewGoogleVerifier checks ID tokens against Google's signing keys and the
// given OAuth client id.
func NewGoogleVerifier(ctx context.Context, clientID string) (GoogleVerifier, error) {
	v, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("google validator: %w", err)
	}
	return &googleVerifier{validator: v, clientID: clientID}, nil
}

func (g *googleVerifier) Verify(ctx context.Context, token string) (*GoogleIdentity, error) {
	p, err := g.validator.Validate(ctx, token, g.clientID)
	if err != nil {
		return nil, err
	}
	id := &GoogleIdentity{Subject: p.Subject}
	id.Email, _ = p.Claims["email"].(string)
	id.EmailVerified, _ = p.Claims["email_verified"].(bool)
	id.Name, _ = p.Claims["name"].(string)
	id.Picture, _ = p.Claims["picture"].(string)
	return id, nil
}
