// Package oauth adapts an OIDC identity provider (Google) to the account
// linker's ExternalIdentity contract.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/hackforge/platform/internal/config"
	"github.com/hackforge/platform/internal/domain"
)

// Provider wraps the OAuth2 code flow plus OIDC ID-token verification.
type Provider struct {
	name     string
	config   *oauth2.Config
	verifier *gooidc.IDTokenVerifier
}

// NewGoogleProvider discovers the issuer's endpoints and builds a provider
// for the authorization-code flow.
func NewGoogleProvider(ctx context.Context, cfg config.OAuthConfig) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("oauth client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("oauth client secret is required")
	}

	issuer := strings.TrimSuffix(cfg.IssuerURL, "/")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery failed: %w", err)
	}

	return &Provider{
		name: "google",
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     op.Endpoint(),
		},
		verifier: op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// Name returns the provider tag stored on LinkedAccount rows.
func (p *Provider) Name() string {
	return p.name
}

// AuthURL builds the provider authorization URL carrying the anti-forgery
// state value.
func (p *Provider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades the callback code for a verified identity assertion.
func (p *Provider) Exchange(ctx context.Context, code string) (*domain.ExternalIdentity, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("token response carries no id_token")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("id token verification failed: %w", err)
	}

	var claims struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode id token claims: %w", err)
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.New("id token missing subject or email")
	}

	return &domain.ExternalIdentity{
		Provider:          p.name,
		ProviderAccountID: claims.Subject,
		Email:             claims.Email,
		Name:              claims.Name,
		AvatarURL:         claims.Picture,
	}, nil
}
