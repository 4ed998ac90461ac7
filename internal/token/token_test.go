package token

import (
	"testing"
	"time"

	dom "github.com/calculuslmvt/backend101-yt/internal/domain"
)

func testUser() dom.User {
	return dom.User{ID: 42, Username: "alice", Email: "alice@x.com", FullName: "Alice Doe"}
}

func newTestManager(accessTTL, refreshTTL time.Duration) *Manager {
	return NewManager("access-secret", "refresh-secret", accessTTL, refreshTTL)
}

func TestAccessRoundTrip(t *testing.T) {
	t.Parallel()

	m := newTestManager(time.Hour, 24*time.Hour)
	tok, err := m.Access(testUser())
	if err != nil {
		t.Fatalf("Access error: %v", err)
	}

	claims, err := m.VerifyAccess(tok)
	if err != nil {
		t.Fatalf("VerifyAccess error: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" || claims.Email != "alice@x.com" || claims.FullName != "Alice Doe" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	t.Parallel()

	m := newTestManager(time.Hour, 24*time.Hour)
	tok, err := m.Refresh(42)
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}

	claims, err := m.VerifyRefresh(tok)
	if err != nil {
		t.Fatalf("VerifyRefresh error: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("UserID mismatch: got %d want 42", claims.UserID)
	}
}

// Consecutive mints within the same second must still differ, since the
// session layer relies on a rotated token never equaling the replaced one.
func TestMint_EveryTokenDistinct(t *testing.T) {
	t.Parallel()

	m := newTestManager(time.Hour, 24*time.Hour)

	r1, err := m.Refresh(42)
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	r2, err := m.Refresh(42)
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if r1 == r2 {
		t.Fatalf("two refresh tokens for the same user are identical")
	}

	a1, err := m.Access(testUser())
	if err != nil {
		t.Fatalf("Access error: %v", err)
	}
	a2, err := m.Access(testUser())
	if err != nil {
		t.Fatalf("Access error: %v", err)
	}
	if a1 == a2 {
		t.Fatalf("two access tokens for the same user are identical")
	}
}

func TestVerifyAccess_Expired(t *testing.T) {
	t.Parallel()

	m := newTestManager(-1*time.Second, 24*time.Hour)
	tok, err := m.Access(testUser())
	if err != nil {
		t.Fatalf("Access error: %v", err)
	}

	_, err = m.VerifyAccess(tok)
	if err != ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyRefresh_Expired(t *testing.T) {
	t.Parallel()

	m := newTestManager(time.Hour, -1*time.Second)
	tok, err := m.Refresh(42)
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}

	_, err = m.VerifyRefresh(tok)
	if err != ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	m := newTestManager(time.Hour, 24*time.Hour)
	other := NewManager("other-access", "other-refresh", time.Hour, 24*time.Hour)

	tok, err := m.Access(testUser())
	if err != nil {
		t.Fatalf("Access error: %v", err)
	}
	if _, err := other.VerifyAccess(tok); err == nil {
		t.Fatalf("expected error for wrong secret, got nil")
	}
}

// An access token must never verify as a refresh token and vice versa:
// the two secrets are independent.
func TestVerify_CrossSecretRejected(t *testing.T) {
	t.Parallel()

	m := newTestManager(time.Hour, 24*time.Hour)

	access, err := m.Access(testUser())
	if err != nil {
		t.Fatalf("Access error: %v", err)
	}
	if _, err := m.VerifyRefresh(access); err == nil {
		t.Fatalf("access token accepted by VerifyRefresh")
	}

	refresh, err := m.Refresh(42)
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if _, err := m.VerifyAccess(refresh); err == nil {
		t.Fatalf("refresh token accepted by VerifyAccess")
	}
}

func TestVerifyAccess_Malformed(t *testing.T) {
	t.Parallel()

	m := newTestManager(time.Hour, 24*time.Hour)
	if _, err := m.VerifyAccess("not.a.jwt"); err == nil {
		t.Fatalf("expected error for malformed token, got nil")
	}
}
