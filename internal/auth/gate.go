package auth

import (
	"errors"
	"fmt"
	"strings"

	"piringsehat/pkg/domain"
)

// ErrUnauthenticated covers every admission failure: missing credential,
// failed verification, and a verified subject with no local user record.
// Callers map it to 401 without distinguishing the sub-step.
var ErrUnauthenticated = errors.New("unauthorized")

// TokenVerifier validates a bearer credential against the external
// identity provider and returns the verified subject identifier.
type TokenVerifier interface {
	VerifySubject(token string) (string, error)
}

// Directory maps a verified subject identifier to a local user record.
type Directory interface {
	GetUserBySubject(subjectID string) (domain.User, bool, error)
}

// Gate admits or rejects requests to protected routes. It composes token
// verification with directory resolution and never writes anything.
type Gate struct {
	verifier  TokenVerifier
	directory Directory
}

// NewGate wires the gate with its verifier and user directory.
func NewGate(verifier TokenVerifier, directory Directory) *Gate {
	return &Gate{verifier: verifier, directory: directory}
}

// Authenticate resolves the Authorization header value into a Principal.
// A directory read failure is reported as-is so the boundary can surface a
// 500 instead of masking an outage as a credential problem.
func (g *Gate) Authenticate(authHeader string) (domain.Principal, error) {
	token, ok := BearerToken(authHeader)
	if !ok {
		return domain.Principal{}, fmt.Errorf("%w: missing credential", ErrUnauthenticated)
	}
	subject, err := g.verifier.VerifySubject(token)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %s", ErrUnauthenticated, "invalid credential")
	}
	user, found, err := g.directory.GetUserBySubject(subject)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("resolve subject: %w", err)
	}
	if !found {
		// Verified identity without a local record is still an auth failure;
		// the caller has no remediation path at this layer.
		return domain.Principal{}, fmt.Errorf("%w: unknown subject", ErrUnauthenticated)
	}
	return domain.Principal{
		SubjectID: subject,
		UserID:    user.ID,
		Role:      user.Role,
	}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. Anything without the Bearer prefix counts as missing.
func BearerToken(authHeader string) (string, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
