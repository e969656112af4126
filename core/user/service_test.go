package user

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/tachera/mlango/core"
)

// fakeRepository is a minimal in-memory Repository for service tests.
type fakeRepository struct {
	users  map[string]User
	nextID int
	err    error // when set, every call fails with it
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{users: make(map[string]User)}
}

func (r *fakeRepository) CheckUniqueness(ctx context.Context, username, email string, excl ...User) error {
	for _, usr := range r.users {
		if len(excl) > 0 && usr.ID == excl[0].ID {
			continue
		}
		if username != "" && usr.Username == username {
			return ErrUsernameExists
		}
		if usr.Email == email {
			return ErrEmailExists
		}
	}
	return nil
}

func (r *fakeRepository) CreateUser(ctx context.Context, usr User) (User, error) {
	if r.err != nil {
		return User{}, r.err
	}
	r.nextID++
	usr.ID = strconv.Itoa(r.nextID)
	r.users[usr.ID] = usr
	return usr, nil
}

func (r *fakeRepository) QueryAllUsers(ctx context.Context) ([]User, error) {
	if r.err != nil {
		return nil, r.err
	}
	users := make([]User, 0, len(r.users))
	for _, usr := range r.users {
		users = append(users, usr)
	}
	return users, nil
}

func (r *fakeRepository) GetUserByID(ctx context.Context, id string) (User, error) {
	if r.err != nil {
		return User{}, r.err
	}
	if usr, ok := r.users[id]; ok {
		return usr, nil
	}
	return User{}, ErrNotFound
}

func (r *fakeRepository) GetUserByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	if r.err != nil {
		return User{}, r.err
	}
	for _, usr := range r.users {
		if usr.Username == uname || usr.Email == uname {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *fakeRepository) UpdateUser(ctx context.Context, usr User) (User, error) {
	if r.err != nil {
		return User{}, r.err
	}
	if _, ok := r.users[usr.ID]; !ok {
		return User{}, ErrNotFound
	}
	r.users[usr.ID] = usr
	return usr, nil
}

type sentMail struct {
	to      string
	subject string
}

type fakeMailService struct {
	sent []sentMail
}

func (svc *fakeMailService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		for _, to := range msg.To {
			svc.sent = append(svc.sent, sentMail{to: to.Address, subject: msg.Subject})
		}
	}
}

func newTestService(repo Repository) *Service {
	conf := &core.Config{
		SecretKey:                 "59a3d1a0807b4d09a6dee4f8a726c73a",
		FrontendBaseURL:           "http://localhost:8080",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		SignInRateLimit:           3,
		SignInRateWindow:          time.Minute,
	}
	InitTokenGenerator(conf)
	return NewService(repo, &fakeMailService{}, conf)
}

func createTestUser(t *testing.T, svc *Service, uname, email, pwd string, role Role, isActive bool) User {
	t.Helper()

	usr, err := svc.Create(context.Background(), NewUser{
		Name:     uname,
		Username: uname,
		Email:    email,
		Role:     role,
		Password: pwd,
	})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if !isActive {
		usr.IsActive = false
		if usr, err = svc.Update(context.Background(), usr); err != nil {
			t.Fatalf("Update(): %v", err)
		}
	}
	return usr
}

func TestServiceAuthenticate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		uname   string
		pwd     string
		wantErr error
	}{
		{name: "valid username", uname: "awenyi", pwd: "Quality#2023"},
		{name: "valid email", uname: "awe@test.cd", pwd: "Quality#2023"},
		{name: "username is case-insensitive", uname: "AwEnYi", pwd: "Quality#2023"},
		{name: "wrong password", uname: "awenyi", pwd: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown account", uname: "nobody", pwd: "Quality#2023", wantErr: ErrInvalidCredentials},
		{name: "deactivated account", uname: "mukeba", pwd: "Quality#2023", wantErr: ErrAccountDeactivated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(newFakeRepository())
			createTestUser(t, svc, "awenyi", "awe@test.cd", "Quality#2023", RoleCenterStaff, true)
			createTestUser(t, svc, "mukeba", "muk@test.cd", "Quality#2023", RoleTeacher, false)

			usr, err := svc.Authenticate(ctx, tt.uname, tt.pwd)
			if errors.Cause(err) != tt.wantErr {
				t.Fatalf("Authenticate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && usr.LastLogin.IsZero() {
				t.Error("LastLogin should be set on success")
			}
		})
	}
}

func TestServiceAuthenticateThrottled(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeRepository())
	createTestUser(t, svc, "awenyi", "awe@test.cd", "Quality#2023", RoleCenterStaff, true)

	for i := 0; i < svc.conf.SignInRateLimit; i++ {
		if _, err := svc.Authenticate(ctx, "awenyi", "nope"); err != ErrInvalidCredentials {
			t.Fatalf("attempt %d: error = %v, want %v", i, err, ErrInvalidCredentials)
		}
	}

	// over the limit; even good credentials are refused
	if _, err := svc.Authenticate(ctx, "awenyi", "Quality#2023"); err != ErrRateLimited {
		t.Fatalf("Authenticate() error = %v, want %v", err, ErrRateLimited)
	}

	// unrelated accounts are not affected
	createTestUser(t, svc, "mukeba", "muk@test.cd", "Quality#2023", RoleTeacher, true)
	if _, err := svc.Authenticate(ctx, "mukeba", "Quality#2023"); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
}

func TestServiceAuthenticateResetsThrottleOnSuccess(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeRepository())
	createTestUser(t, svc, "awenyi", "awe@test.cd", "Quality#2023", RoleCenterStaff, true)

	for i := 0; i < svc.conf.SignInRateLimit-1; i++ {
		if _, err := svc.Authenticate(ctx, "awenyi", "nope"); err != ErrInvalidCredentials {
			t.Fatalf("attempt %d: error = %v, want %v", i, err, ErrInvalidCredentials)
		}
	}
	if _, err := svc.Authenticate(ctx, "awenyi", "Quality#2023"); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	// the successful sign-in cleared the failed attempts
	for i := 0; i < svc.conf.SignInRateLimit; i++ {
		if _, err := svc.Authenticate(ctx, "awenyi", "nope"); err != ErrInvalidCredentials {
			t.Fatalf("attempt %d after reset: error = %v, want %v", i, err, ErrInvalidCredentials)
		}
	}
}

func TestServicePasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := newTestService(repo)
	mailSvc := &fakeMailService{}
	svc.mailSvc = mailSvc

	usr := createTestUser(t, svc, "awenyi", "awe@test.cd", "Quality#2023", RoleCenterStaff, true)

	if err := svc.RequestPasswordReset(ctx, "awe@test.cd"); err != nil {
		t.Fatalf("RequestPasswordReset(): %v", err)
	}
	if len(mailSvc.sent) != 1 || mailSvc.sent[0].to != "awe@test.cd" {
		t.Fatalf("sent = %+v; want one mail to awe@test.cd", mailSvc.sent)
	}

	err := svc.ResetPassword(ctx, ResetUserPassword{
		UID:             EncodeUID(usr),
		Token:           makeToken(usr),
		Password:        "NewQuality#2024",
		PasswordConfirm: "NewQuality#2024",
	})
	if err != nil {
		t.Fatalf("ResetPassword(): %v", err)
	}

	if _, err = svc.Authenticate(ctx, "awenyi", "NewQuality#2024"); err != nil {
		t.Errorf("Authenticate() with new password: %v", err)
	}
	if _, err = svc.Authenticate(ctx, "awenyi", "Quality#2023"); errors.Cause(err) != ErrInvalidCredentials {
		t.Errorf("Authenticate() with old password error = %v, want %v", err, ErrInvalidCredentials)
	}
}

func TestServiceResetPasswordBadUID(t *testing.T) {
	svc := newTestService(newFakeRepository())

	err := svc.ResetPassword(context.Background(), ResetUserPassword{
		UID:             "???",
		Token:           "whatever",
		Password:        "NewQuality#2024",
		PasswordConfirm: "NewQuality#2024",
	})
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("ResetPassword() error = %v, want a validation error", err)
	}
}
