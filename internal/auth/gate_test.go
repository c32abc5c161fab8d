package auth

import (
	"errors"
	"testing"

	"piringsehat/pkg/domain"
)

type fakeVerifier struct {
	subject string
	err     error
	calls   int
}

func (f *fakeVerifier) VerifySubject(string) (string, error) {
	f.calls++
	return f.subject, f.err
}

type fakeDirectory struct {
	users map[string]domain.User
	err   error
	calls int
}

func (f *fakeDirectory) GetUserBySubject(subjectID string) (domain.User, bool, error) {
	f.calls++
	if f.err != nil {
		return domain.User{}, false, f.err
	}
	u, ok := f.users[subjectID]
	return u, ok, nil
}

func TestGateRejectsMissingCredentialWithoutVerifying(t *testing.T) {
	verifier := &fakeVerifier{subject: "uid-1"}
	directory := &fakeDirectory{}
	gate := NewGate(verifier, directory)

	for _, header := range []string{"", "Bearer ", "Basic abc", "token-without-prefix"} {
		if _, err := gate.Authenticate(header); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("header %q: expected ErrUnauthenticated, got %v", header, err)
		}
	}
	if verifier.calls != 0 {
		t.Fatalf("verifier should not be called for missing credentials, got %d calls", verifier.calls)
	}
	if directory.calls != 0 {
		t.Fatalf("directory should not be called for missing credentials, got %d calls", directory.calls)
	}
}

func TestGateRejectsInvalidTokenBeforeDirectoryLookup(t *testing.T) {
	verifier := &fakeVerifier{err: errors.New("signature invalid")}
	directory := &fakeDirectory{}
	gate := NewGate(verifier, directory)

	if _, err := gate.Authenticate("Bearer bad-token"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if directory.calls != 0 {
		t.Fatalf("directory should not be consulted for invalid tokens, got %d calls", directory.calls)
	}
}

func TestGateRejectsUnprovisionedSubject(t *testing.T) {
	verifier := &fakeVerifier{subject: "uid-unknown"}
	directory := &fakeDirectory{users: map[string]domain.User{}}
	gate := NewGate(verifier, directory)

	if _, err := gate.Authenticate("Bearer good-token"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for unknown subject, got %v", err)
	}
}

func TestGateSurfacesDirectoryFailureAsNonAuthError(t *testing.T) {
	verifier := &fakeVerifier{subject: "uid-1"}
	directory := &fakeDirectory{err: errors.New("store down")}
	gate := NewGate(verifier, directory)

	_, err := gate.Authenticate("Bearer good-token")
	if err == nil || errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("directory outage must not look like a credential problem, got %v", err)
	}
}

func TestGateBuildsPrincipal(t *testing.T) {
	verifier := &fakeVerifier{subject: "uid-1"}
	directory := &fakeDirectory{users: map[string]domain.User{
		"uid-1": {ID: "local-1", SubjectID: "uid-1", Role: domain.RoleAdmin},
	}}
	gate := NewGate(verifier, directory)

	p, err := gate.Authenticate("Bearer good-token")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	want := domain.Principal{SubjectID: "uid-1", UserID: "local-1", Role: domain.RoleAdmin}
	if p != want {
		t.Fatalf("principal = %+v, want %+v", p, want)
	}
}
