package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofiber/storage/memory/v2"
	"github.com/netdash/authcore/internal/store"
	"github.com/netdash/authcore/model"
	"github.com/netdash/authcore/params"
)

func newTestService(t *testing.T) (*UserService, store.Storage) {
	t.Helper()
	storage := store.NewJSONStorage(memory.New())
	service := NewUserService(NewUserRepository(storage), NewMfaRepository(storage), storage)
	if err := service.EnsureSeedUsers(context.Background()); err != nil {
		t.Fatalf("EnsureSeedUsers failed: %v", err)
	}
	return service, storage
}

func TestEnsureSeedUsers(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	admin, err := service.FindUser(ctx, "admin")
	if err != nil {
		t.Fatalf("seed admin missing: %v", err)
	}
	if admin.ID != params.BootstrapAdminID || admin.Role != model.RoleAdmin {
		t.Fatalf("seed admin = %+v", admin)
	}
	viewer, err := service.FindUser(ctx, "observer")
	if err != nil {
		t.Fatalf("seed viewer missing: %v", err)
	}
	if viewer.Role != model.RoleViewer {
		t.Fatalf("seed viewer role = %q", viewer.Role)
	}

	// seeding is idempotent
	if err := service.EnsureSeedUsers(ctx); err != nil {
		t.Fatalf("second EnsureSeedUsers failed: %v", err)
	}
	all, err := service.ListUsers(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("after reseeding: users=%d err=%v", len(all), err)
	}
}

func TestVerifyPassword(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	ok, err := service.VerifyPassword(ctx, "admin", "admin")
	if err != nil || !ok {
		t.Fatalf("admin/admin: ok=%v err=%v", ok, err)
	}
	ok, err = service.VerifyPassword(ctx, "admin", "wrong")
	if err != nil || ok {
		t.Fatalf("admin/wrong: ok=%v err=%v", ok, err)
	}
	// an unknown user verifies as false without error, indistinguishable
	// from a wrong password
	ok, err = service.VerifyPassword(ctx, "ghost", "admin")
	if err != nil || ok {
		t.Fatalf("unknown user: ok=%v err=%v", ok, err)
	}
}

// TestVerifyPassword_LegacyAdminHash covers the fallback for stores written
// by older dashboard versions: the admin record has no hash of its own and
// the password lives under the single userPasswordHash key.
func TestVerifyPassword_LegacyAdminHash(t *testing.T) {
	storage := store.NewJSONStorage(memory.New())
	repo := NewUserRepository(storage)
	service := NewUserService(repo, NewMfaRepository(storage), storage)
	ctx := context.Background()

	legacy := model.User{
		ID:       params.BootstrapAdminID,
		Username: "admin",
		Role:     model.RoleAdmin,
		Status:   model.StatusActive,
	}
	if err := repo.Insert(ctx, &legacy); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := storage.Save(ctx, params.LegacyAdminHashKey, HashPassword("s3cret-legacy")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	ok, err := service.VerifyPassword(ctx, "admin", "s3cret-legacy")
	if err != nil || !ok {
		t.Fatalf("legacy hash not honored: ok=%v err=%v", ok, err)
	}
	ok, err = service.VerifyPassword(ctx, "admin", "admin")
	if err != nil || ok {
		t.Fatalf("default password accepted despite legacy hash: ok=%v err=%v", ok, err)
	}
}

// TestVerifyPassword_DefaultAdminFallback: no record hash and no legacy key
// means the documented default password applies.
func TestVerifyPassword_DefaultAdminFallback(t *testing.T) {
	storage := store.NewJSONStorage(memory.New())
	repo := NewUserRepository(storage)
	service := NewUserService(repo, NewMfaRepository(storage), storage)
	ctx := context.Background()

	bare := model.User{
		ID:       params.BootstrapAdminID,
		Username: "admin",
		Role:     model.RoleAdmin,
		Status:   model.StatusActive,
	}
	if err := repo.Insert(ctx, &bare); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	ok, err := service.VerifyPassword(ctx, "admin", params.DefaultAdminPassword)
	if err != nil || !ok {
		t.Fatalf("default admin password rejected: ok=%v err=%v", ok, err)
	}
}

func TestSetPassword(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if err := service.SetPassword(ctx, "admin", "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("short password returned %v, want ErrPasswordTooShort", err)
	}
	if err := service.SetPassword(ctx, "ghost", "long-enough"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user returned %v, want ErrUserNotFound", err)
	}
	if err := service.SetPassword(ctx, "admin", "new-password"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	if ok, _ := service.VerifyPassword(ctx, "admin", "new-password"); !ok {
		t.Fatalf("new password rejected")
	}
	if ok, _ := service.VerifyPassword(ctx, "admin", "admin"); ok {
		t.Fatalf("old password still accepted")
	}
}

func TestCreateUser(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	user, err := service.CreateUser(ctx, "operator", "op-password", model.RoleViewer)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.ID == 0 || user.ID == params.BootstrapAdminID {
		t.Fatalf("unexpected generated ID %d", user.ID)
	}
	if user.Status != model.StatusActive {
		t.Fatalf("new user status = %q", user.Status)
	}

	if _, err := service.CreateUser(ctx, "operator", "op-password", model.RoleViewer); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate username returned %v, want ErrUsernameTaken", err)
	}
	if _, err := service.CreateUser(ctx, "x", "op-password", model.Role("root")); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("bad role returned %v, want ErrInvalidRole", err)
	}
	if _, err := service.CreateUser(ctx, "y", "short", model.RoleViewer); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("short password returned %v, want ErrPasswordTooShort", err)
	}
}

func TestToggleStatus(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	status, err := service.ToggleStatus(ctx, "observer")
	if err != nil || status != model.StatusDisabled {
		t.Fatalf("first toggle: status=%q err=%v", status, err)
	}
	status, err = service.ToggleStatus(ctx, "observer")
	if err != nil || status != model.StatusActive {
		t.Fatalf("second toggle: status=%q err=%v", status, err)
	}

	if _, err := service.ToggleStatus(ctx, "admin"); !errors.Is(err, ErrProtectedUser) {
		t.Fatalf("toggling bootstrap admin returned %v, want ErrProtectedUser", err)
	}
	if _, err := service.ToggleStatus(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("toggling unknown user returned %v, want ErrUserNotFound", err)
	}
}

func TestDeleteUser(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if err := service.DeleteUser(ctx, "admin"); !errors.Is(err, ErrProtectedUser) {
		t.Fatalf("deleting bootstrap admin returned %v, want ErrProtectedUser", err)
	}

	// deleting an account drops its enrollment too
	if err := service.EnrollMfa(ctx, "observer", "GEZDGNBVGY3TQOJQ"); err != nil {
		t.Fatalf("EnrollMfa failed: %v", err)
	}
	if err := service.DeleteUser(ctx, "observer"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, err := service.FindUser(ctx, "observer"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("deleted user still found: %v", err)
	}
	if _, err := service.GetMfaEnrollment(ctx, "observer"); !errors.Is(err, ErrMfaNotEnrolled) {
		t.Fatalf("deleted user's enrollment survived: %v", err)
	}
}

func TestRecordLogin(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	when := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	if err := service.RecordLogin(ctx, "admin", when); err != nil {
		t.Fatalf("RecordLogin failed: %v", err)
	}
	admin, err := service.FindUser(ctx, "admin")
	if err != nil {
		t.Fatalf("FindUser failed: %v", err)
	}
	if admin.LastLoginAt == nil || !admin.LastLoginAt.Equal(when) {
		t.Fatalf("LastLoginAt = %v, want %v", admin.LastLoginAt, when)
	}
}

func TestMfaEnrollment(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.GetMfaEnrollment(ctx, "admin"); !errors.Is(err, ErrMfaNotEnrolled) {
		t.Fatalf("unenrolled user returned %v, want ErrMfaNotEnrolled", err)
	}
	if err := service.EnrollMfa(ctx, "ghost", "GEZDGNBVGY3TQOJQ"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("enrolling unknown user returned %v, want ErrUserNotFound", err)
	}

	if err := service.EnrollMfa(ctx, "admin", "GEZDGNBVGY3TQOJQ"); err != nil {
		t.Fatalf("EnrollMfa failed: %v", err)
	}
	enrollment, err := service.GetMfaEnrollment(ctx, "admin")
	if err != nil {
		t.Fatalf("GetMfaEnrollment failed: %v", err)
	}
	if enrollment.Secret != "GEZDGNBVGY3TQOJQ" || !enrollment.Enabled {
		t.Fatalf("enrollment = %+v", enrollment)
	}

	if err := service.DisableMfa(ctx, "admin"); err != nil {
		t.Fatalf("DisableMfa failed: %v", err)
	}
	if _, err := service.GetMfaEnrollment(ctx, "admin"); !errors.Is(err, ErrMfaNotEnrolled) {
		t.Fatalf("disabled enrollment still present: %v", err)
	}
	if err := service.DisableMfa(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("disabling for unknown user returned %v, want ErrUserNotFound", err)
	}
}

func TestResetToken(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.CreateResetToken(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("token for unknown user returned %v, want ErrUserNotFound", err)
	}

	token, err := service.CreateResetToken(ctx, "observer")
	if err != nil || token == "" {
		t.Fatalf("CreateResetToken: token=%q err=%v", token, err)
	}

	username, err := service.ResetPassword(ctx, token, "reset-password")
	if err != nil || username != "observer" {
		t.Fatalf("ResetPassword: username=%q err=%v", username, err)
	}
	if ok, _ := service.VerifyPassword(ctx, "observer", "reset-password"); !ok {
		t.Fatalf("reset password rejected")
	}

	// tokens are single use
	if _, err := service.ResetPassword(ctx, token, "another-password"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("reused token returned %v, want ErrResetTokenInvalid", err)
	}
	if _, err := service.ResetPassword(ctx, "bogus", "another-password"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("bogus token returned %v, want ErrResetTokenInvalid", err)
	}
}

// TestResetToken_Expiry advances the service clock past the token lifetime.
func TestResetToken_Expiry(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	issued := time.Unix(1700000000, 0)
	service.now = func() time.Time { return issued }
	token, err := service.CreateResetToken(ctx, "observer")
	if err != nil {
		t.Fatalf("CreateResetToken failed: %v", err)
	}

	service.now = func() time.Time { return issued.Add(params.ResetTokenExpiration + time.Minute) }
	if _, err := service.ResetPassword(ctx, token, "reset-password"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expired token returned %v, want ErrResetTokenInvalid", err)
	}
}
