package authpw

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"docboard/api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

type reset struct {
	userID    string
	expiresAt time.Time
	used      bool
}

// memoryUsers keeps accounts keyed by email, the way the Postgres store
// enforces email uniqueness.
type memoryUsers struct {
	byEmail map[string]store.User
	resets  map[string]reset
	now     func() time.Time

	createUserFn func(context.Context, store.User) error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{
		byEmail: map[string]store.User{},
		resets:  map[string]reset{},
		now:     time.Now,
	}
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (m *memoryUsers) GetUserByID(_ context.Context, id string) (store.User, error) {
	for _, user := range m.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return store.User{}, sql.ErrNoRows
}

func (m *memoryUsers) CreateUser(ctx context.Context, user store.User) error {
	if m.createUserFn != nil {
		return m.createUserFn(ctx, user)
	}
	m.byEmail[user.Email] = user
	return nil
}

func (m *memoryUsers) update(id string, apply func(*store.User)) error {
	for email, user := range m.byEmail {
		if user.ID == id {
			apply(&user)
			m.byEmail[email] = user
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memoryUsers) UpdateUserVerificationToken(_ context.Context, userID, token string, expiresAt time.Time) error {
	return m.update(userID, func(u *store.User) {
		u.VerificationToken = token
		u.VerificationExpiresAt = &expiresAt
	})
}

func (m *memoryUsers) VerifyUserEmail(_ context.Context, token string) error {
	for email, user := range m.byEmail {
		if user.VerificationToken == token && user.VerificationExpiresAt != nil && m.now().Before(*user.VerificationExpiresAt) {
			user.IsEmailVerified = true
			user.VerificationToken = ""
			m.byEmail[email] = user
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memoryUsers) UpdateUserPassword(_ context.Context, userID, passwordHash string) error {
	return m.update(userID, func(u *store.User) { u.PasswordHash = passwordHash })
}

func (m *memoryUsers) CreatePasswordReset(_ context.Context, userID, token string, expiresAt time.Time) error {
	m.resets[token] = reset{userID: userID, expiresAt: expiresAt}
	return nil
}

func (m *memoryUsers) GetPasswordReset(_ context.Context, token string) (string, error) {
	r, ok := m.resets[token]
	if !ok || r.used || m.now().After(r.expiresAt) {
		return "", sql.ErrNoRows
	}
	return r.userID, nil
}

func (m *memoryUsers) MarkPasswordResetUsed(_ context.Context, token string) error {
	r := m.resets[token]
	r.used = true
	m.resets[token] = r
	return nil
}

func signUp(t *testing.T, svc *Service, email, password string) *SignUpResponse {
	t.Helper()
	resp, err := svc.SignUp(context.Background(), SignUpRequest{
		Email:       email,
		Password:    password,
		DisplayName: "Avery Quinn",
		AvatarURL:   " https://example.com/a.png ",
	})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	return resp
}

func TestSignUpValidation(t *testing.T) {
	users := newMemoryUsers()
	svc := NewService(users)
	signUp(t, svc, "taken@example.com", "password123")

	cases := []struct {
		name string
		req  SignUpRequest
		want error
	}{
		{name: "missing display name", req: SignUpRequest{Email: "a@example.com", Password: "password123"}, want: ErrMissingFields},
		{name: "missing email", req: SignUpRequest{Password: "password123", DisplayName: "A"}, want: ErrMissingFields},
		{name: "malformed email", req: SignUpRequest{Email: "not-an-email", Password: "password123", DisplayName: "A"}, want: ErrInvalidEmail},
		{name: "short password", req: SignUpRequest{Email: "a@example.com", Password: "short", DisplayName: "A"}, want: ErrWeakPassword},
		{name: "email taken in another case", req: SignUpRequest{Email: " Taken@Example.com ", Password: "password123", DisplayName: "A"}, want: ErrEmailTaken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SignUp(context.Background(), tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSignUpStoresNormalizedAccount(t *testing.T) {
	users := newMemoryUsers()
	svc := NewService(users)

	resp := signUp(t, svc, "  Avery@Example.COM ", "password123")

	user, ok := users.byEmail["avery@example.com"]
	if !ok {
		t.Fatalf("expected account stored under normalized email")
	}
	if user.ID != resp.UserID || resp.VerificationToken == "" || !resp.RequiresEmailVerify {
		t.Fatalf("unexpected response %+v", resp)
	}
	if user.IsEmailVerified {
		t.Fatalf("new accounts start unverified")
	}
	if user.AvatarURL != "https://example.com/a.png" {
		t.Fatalf("expected trimmed avatar, got %q", user.AvatarURL)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")); err != nil {
		t.Fatalf("password not hashed with bcrypt: %v", err)
	}
	if user.VerificationExpiresAt == nil {
		t.Fatalf("expected verification expiry")
	}
}

func TestSignUpPropagatesStoreFailure(t *testing.T) {
	users := newMemoryUsers()
	users.createUserFn = func(context.Context, store.User) error { return errors.New("disk full") }
	svc := NewService(users)

	_, err := svc.SignUp(context.Background(), SignUpRequest{Email: "a@example.com", Password: "password123", DisplayName: "A"})
	if err == nil || errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestSignIn(t *testing.T) {
	users := newMemoryUsers()
	svc := NewService(users)
	resp := signUp(t, svc, "avery@example.com", "password123")
	ctx := context.Background()

	t.Run("unverified with correct password", func(t *testing.T) {
		got, err := svc.SignIn(ctx, SignInRequest{Email: "avery@example.com", Password: "password123"})
		if err != nil {
			t.Fatalf("sign in: %v", err)
		}
		if !got.RequiresVerify {
			t.Fatalf("expected verification to be required")
		}
	})

	t.Run("unverified with wrong password", func(t *testing.T) {
		_, err := svc.SignIn(ctx, SignInRequest{Email: "avery@example.com", Password: "wrong-password"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected invalid credentials, got %v", err)
		}
	})

	if err := svc.VerifyEmail(ctx, resp.VerificationToken); err != nil {
		t.Fatalf("verify: %v", err)
	}

	cases := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{name: "verified", email: "AVERY@example.com", password: "password123"},
		{name: "wrong password", email: "avery@example.com", password: "nope-nope", want: ErrInvalidCredentials},
		{name: "unknown email", email: "nobody@example.com", password: "password123", want: ErrInvalidCredentials},
		{name: "empty", want: ErrInvalidCredentials},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.SignIn(ctx, SignInRequest{Email: tc.email, Password: tc.password})
			if tc.want != nil {
				if !errors.Is(err, tc.want) {
					t.Fatalf("expected %v, got %v", tc.want, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("sign in: %v", err)
			}
			if got.RequiresVerify || got.User.ID != resp.UserID {
				t.Fatalf("unexpected response %+v", got)
			}
		})
	}
}

func TestVerifyEmail(t *testing.T) {
	users := newMemoryUsers()
	svc := NewService(users)
	resp := signUp(t, svc, "avery@example.com", "password123")
	ctx := context.Background()

	if err := svc.VerifyEmail(ctx, "  "); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for blank input, got %v", err)
	}
	if err := svc.VerifyEmail(ctx, "unknown"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
	if err := svc.VerifyEmail(ctx, resp.VerificationToken); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !users.byEmail["avery@example.com"].IsEmailVerified {
		t.Fatalf("expected verified account")
	}
	if err := svc.VerifyEmail(ctx, resp.VerificationToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token to be single use, got %v", err)
	}
}

func TestVerifyEmailExpired(t *testing.T) {
	users := newMemoryUsers()
	svc := NewService(users)
	resp := signUp(t, svc, "avery@example.com", "password123")
	users.now = func() time.Time { return time.Now().Add(verificationTTL + time.Minute) }

	if err := svc.VerifyEmail(context.Background(), resp.VerificationToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestPasswordReset(t *testing.T) {
	users := newMemoryUsers()
	svc := NewService(users)
	signUp(t, svc, "avery@example.com", "password123")
	ctx := context.Background()

	token, err := svc.RequestPasswordReset(ctx, "nobody@example.com")
	if err != nil || token != "" {
		t.Fatalf("unknown email must yield no token and no error, got %q %v", token, err)
	}

	token, err = svc.RequestPasswordReset(ctx, " Avery@Example.com ")
	if err != nil || token == "" {
		t.Fatalf("expected reset token, got %q %v", token, err)
	}

	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "short"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password, got %v", err)
	}
	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: "bogus", NewPassword: "new-password"}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "new-password"}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "another-password"}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected reset token to be single use, got %v", err)
	}

	hash := users.byEmail["avery@example.com"].PasswordHash
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-password")); err != nil {
		t.Fatalf("password not updated: %v", err)
	}
}
