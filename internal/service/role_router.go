package service

import (
	"net/url"
	"strings"

	"github.com/hackforge/platform/internal/domain"
)

// Canonical landing pages per role. Domain handlers consume these; they
// never recompute them.
const (
	AdminLanding     = "/admin/dashboard"
	TeacherLanding   = "/teacher/dashboard"
	StudentLanding   = "/student/dashboard"
	PublicLanding    = "/"
	LoginPath        = "/auth/login"
	UnauthorizedPath = "/auth/unauthorized"
)

// Landing computes the canonical landing page for a role. The switch is
// exhaustive over the closed Role set; unknown or absent roles land on the
// public page.
func Landing(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return AdminLanding
	case domain.RoleTeacher:
		return TeacherLanding
	case domain.RoleStudent:
		return StudentLanding
	default:
		return PublicLanding
	}
}

// LandingForClaims is Landing applied to an optional session.
func LandingForClaims(claims *domain.SessionClaims) string {
	if claims == nil {
		return PublicLanding
	}
	return Landing(claims.Role)
}

// SafeRedirect validates a caller-supplied post-login target. Only
// same-origin relative paths that are not themselves auth endpoints are
// honored; everything else falls back to the given default. This is the
// open-redirect guard for every externally supplied "return to" value.
func SafeRedirect(raw, fallback string) string {
	if raw == "" {
		return fallback
	}

	// Browsers normalize backslashes to slashes, turning "/\evil.example"
	// into a protocol-relative redirect; reject them outright.
	if strings.ContainsRune(raw, '\\') {
		return fallback
	}

	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}

	// Protocol-relative URLs ("//evil.example") parse with an empty Host
	// on some inputs; require a single leading slash.
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return fallback
	}

	// Redirecting back into the auth endpoints would loop.
	if strings.HasPrefix(u.Path, "/auth/") || strings.HasPrefix(u.Path, "/api/auth/") {
		return fallback
	}

	return u.Path + formatQuery(u)
}

func formatQuery(u *url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	return "?" + u.RawQuery
}
