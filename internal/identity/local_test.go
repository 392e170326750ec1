package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/utils"
)

func setupTestOracle(t *testing.T) (*LocalOracle, docstore.Collection, *MemorySessions) {
	t.Helper()
	store := docstore.NewMemory()
	t.Cleanup(func() { store.Close() })
	sessions := &MemorySessions{}
	accounts := store.Collection("accounts")
	return NewLocalOracle(accounts, sessions), accounts, sessions
}

func TestCreateUserSignsIn(t *testing.T) {
	oracle, accounts, _ := setupTestOracle(t)
	ctx := context.Background()

	var events []string
	cancel := oracle.OnAuthStateChange(func(uid string) { events = append(events, uid) })
	defer cancel()

	uid, err := oracle.CreateUser(ctx, "  Ana@Example.com ", "secret1")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if got, ok := oracle.CurrentUser(); !ok || got != uid {
		t.Errorf("CurrentUser() = %q, %v; want %q", got, ok, uid)
	}
	if len(events) != 1 || events[0] != uid {
		t.Errorf("auth events = %v", events)
	}

	doc, err := accounts.Get(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("account not stored: %v", err)
	}
	if doc.Fields["passwordHash"] == "secret1" {
		t.Error("password stored in plaintext")
	}
}

func TestCreateUserValidation(t *testing.T) {
	oracle, _, _ := setupTestOracle(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"weak password", "a@b.c", "12345", ErrWeakPassword},
		{"empty email", " ", "secret1", ErrInvalidEmail},
		{"no at sign", "nobody", "secret1", ErrInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := oracle.CreateUser(ctx, tt.email, tt.password); !errors.Is(err, tt.want) {
				t.Errorf("CreateUser() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := oracle.CreateUser(ctx, "dup@example.com", "secret1"); err != nil {
		t.Fatal(err)
	}
	if _, err := oracle.CreateUser(ctx, "DUP@example.com", "other12"); !errors.Is(err, ErrEmailInUse) {
		t.Errorf("duplicate CreateUser() error = %v, want ErrEmailInUse", err)
	}
}

func TestSignInAndOut(t *testing.T) {
	oracle, _, sessions := setupTestOracle(t)
	ctx := context.Background()

	uid, err := oracle.CreateUser(ctx, "luis@example.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if err := oracle.SignOut(); err != nil {
		t.Fatal(err)
	}
	if _, ok := oracle.CurrentUser(); ok {
		t.Error("still signed in after SignOut")
	}
	if _, err := sessions.Token(); !errors.Is(err, ErrNoSession) {
		t.Error("token not cleared on sign out")
	}

	if err := oracle.SignIn(ctx, "luis@example.com", "wrong!!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("SignIn(wrong password) error = %v", err)
	}
	if err := oracle.SignIn(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("SignIn(unknown) error = %v", err)
	}
	if err := oracle.SignIn(ctx, "LUIS@example.com", "secret1"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if got, _ := oracle.CurrentUser(); got != uid {
		t.Errorf("CurrentUser() = %q, want %q", got, uid)
	}
}

func TestSessionRestoredAcrossInstances(t *testing.T) {
	store := docstore.NewMemory()
	defer store.Close()
	sessions := &MemorySessions{}
	accounts := store.Collection("accounts")
	ctx := context.Background()

	first := NewLocalOracle(accounts, sessions)
	uid, err := first.CreateUser(ctx, "eva@example.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}

	second := NewLocalOracle(accounts, sessions)
	if got, ok := second.CurrentUser(); !ok || got != uid {
		t.Errorf("restored CurrentUser() = %q, %v; want %q", got, ok, uid)
	}

	later := NewLocalOracle(accounts, sessions, WithClock(utils.FixedClock(time.Now().Add(48*time.Hour))))
	if _, ok := later.CurrentUser(); !ok {
		t.Error("session should still be valid after two days")
	}

	expired := NewLocalOracle(accounts, sessions, WithClock(utils.FixedClock(time.Now().Add(365*24*time.Hour))))
	if _, ok := expired.CurrentUser(); ok {
		t.Error("expired session was restored")
	}
	if _, err := sessions.Token(); !errors.Is(err, ErrNoSession) {
		t.Error("expired session token was not cleared")
	}
}

func TestCancelAuthListener(t *testing.T) {
	oracle, _, _ := setupTestOracle(t)
	calls := 0
	cancel := oracle.OnAuthStateChange(func(string) { calls++ })
	cancel()
	cancel()
	_ = oracle.SignOut()
	if calls != 0 {
		t.Errorf("cancelled listener called %d times", calls)
	}
}

func TestKeyringSessions(t *testing.T) {
	gokeyring.MockInit()
	s := KeyringSessions{}
	_ = s.ClearToken()

	if _, err := s.Token(); !errors.Is(err, ErrNoSession) {
		t.Errorf("Token() error = %v, want ErrNoSession", err)
	}
	if err := s.SaveToken("abc"); err != nil {
		t.Fatal(err)
	}
	if tok, err := s.Token(); err != nil || tok != "abc" {
		t.Errorf("Token() = %q, %v", tok, err)
	}
	if err := s.ClearToken(); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearToken(); err != nil {
		t.Errorf("clearing twice should succeed, got %v", err)
	}

	k1, err := s.SigningKey()
	if err != nil {
		t.Fatal(err)
	}
	k2, err := s.SigningKey()
	if err != nil {
		t.Fatal(err)
	}
	if len(k1) != 32 || string(k1) != string(k2) {
		t.Error("signing key not generated once and reused")
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	tok, err := issueToken(key, "u1", "a@b.c", time.Now(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parseToken([]byte("another key entirely............."), tok, time.Now); err == nil {
		t.Error("token verified with wrong key")
	}
	claims, err := parseToken(key, tok, time.Now)
	if err != nil || claims.Subject != "u1" || claims.Email != "a@b.c" {
		t.Errorf("parseToken() = %+v, %v", claims, err)
	}
}
