package users

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/netdash/authcore/internal/store"
	"github.com/netdash/authcore/model"
	"github.com/netdash/authcore/params"
)

// HashPassword returns the hex-encoded SHA-256 digest the dashboard stores
// for passwords.
func HashPassword(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

type resetTokenRecord struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserService is the credential store: user records, password verification
// and per-username TOTP enrollments.
type UserService struct {
	userRepo    UserRepository
	mfaRepo     MfaRepository
	legacyHash  store.Store[string]
	resetTokens store.Store[resetTokenRecord]
	now         func() time.Time
}

func NewUserService(userRepo UserRepository, mfaRepo MfaRepository, storage store.Storage) *UserService {
	return &UserService{
		userRepo:    userRepo,
		mfaRepo:     mfaRepo,
		legacyHash:  store.New[string](storage, ""),
		resetTokens: store.New[resetTokenRecord](storage, params.ResetTokenKeyPrefix),
		now:         time.Now,
	}
}

// EnsureSeedUsers writes the two bootstrap accounts on first start. The demo
// credentials are documented weak values, not a policy statement.
func (s *UserService) EnsureSeedUsers(ctx context.Context) error {
	existing, err := s.userRepo.All(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	seed := []model.User{
		{
			ID:           params.BootstrapAdminID,
			Username:     params.BootstrapAdminUsername,
			PasswordHash: HashPassword(params.DefaultAdminPassword),
			Role:         model.RoleAdmin,
			Status:       model.StatusActive,
		},
		{
			ID:           model.GenerateID(),
			Username:     params.DefaultViewerUsername,
			PasswordHash: HashPassword(params.DefaultViewerPassword),
			Role:         model.RoleViewer,
			Status:       model.StatusActive,
		},
	}
	for i := range seed {
		if err := s.userRepo.Insert(ctx, &seed[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *UserService) FindUser(ctx context.Context, username string) (*model.User, error) {
	return s.userRepo.FindByUsername(ctx, username)
}

func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.userRepo.All(ctx)
}

// VerifyPassword checks plaintext against the stored hash. An unknown
// username verifies as false; only storage failures surface as errors, so a
// caller cannot tell a missing user from a wrong password.
func (s *UserService) VerifyPassword(ctx context.Context, username string, plaintext string) (bool, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	stored := user.PasswordHash
	if stored == "" && user.ID == params.BootstrapAdminID {
		stored = s.bootstrapAdminHash(ctx)
	}
	candidate := HashPassword(plaintext)
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1, nil
}

// bootstrapAdminHash resolves the primordial admin's hash when its record
// carries none: the legacy single-key hash if present, else the documented
// default password.
func (s *UserService) bootstrapAdminHash(ctx context.Context) string {
	legacy, err := s.legacyHash.Get(ctx, params.LegacyAdminHashKey)
	if err == nil && legacy != "" {
		return legacy
	}
	return HashPassword(params.DefaultAdminPassword)
}

func (s *UserService) SetPassword(ctx context.Context, username string, newPlaintext string) error {
	if len(newPlaintext) < params.PasswordMinLength {
		return ErrPasswordTooShort
	}
	_, err := s.userRepo.Update(ctx, username, func(u *model.User) {
		u.PasswordHash = HashPassword(newPlaintext)
	})
	return err
}

func (s *UserService) RecordLogin(ctx context.Context, username string, when time.Time) error {
	_, err := s.userRepo.Update(ctx, username, func(u *model.User) {
		t := when
		u.LastLoginAt = &t
	})
	return err
}

func (s *UserService) CreateUser(ctx context.Context, username string, password string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if len(password) < params.PasswordMinLength {
		return nil, ErrPasswordTooShort
	}
	user := model.User{
		ID:           model.GenerateID(),
		Username:     username,
		PasswordHash: HashPassword(password),
		Role:         role,
		Status:       model.StatusActive,
	}
	if err := s.userRepo.Insert(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ToggleStatus flips a user between active and disabled. The bootstrap admin
// is protected.
func (s *UserService) ToggleStatus(ctx context.Context, username string) (model.UserStatus, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if user.ID == params.BootstrapAdminID {
		return "", ErrProtectedUser
	}
	updated, err := s.userRepo.Update(ctx, username, func(u *model.User) {
		if u.Status == model.StatusActive {
			u.Status = model.StatusDisabled
		} else {
			u.Status = model.StatusActive
		}
	})
	if err != nil {
		return "", err
	}
	return updated.Status, nil
}

func (s *UserService) DeleteUser(ctx context.Context, username string) error {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user.ID == params.BootstrapAdminID {
		return ErrProtectedUser
	}
	if err := s.userRepo.Delete(ctx, username); err != nil {
		return err
	}
	// enrollment is keyed by username, drop it with the account
	return s.mfaRepo.Delete(ctx, username)
}

func (s *UserService) GetMfaEnrollment(ctx context.Context, username string) (*model.MfaEnrollment, error) {
	return s.mfaRepo.Get(ctx, username)
}

// EnrollMfa commits an enrollment. Callers must have verified a code against
// the secret first; enrollment is a generate-then-confirm two-phase flow.
func (s *UserService) EnrollMfa(ctx context.Context, username string, secret string) error {
	if _, err := s.userRepo.FindByUsername(ctx, username); err != nil {
		return err
	}
	return s.mfaRepo.Save(ctx, &model.MfaEnrollment{
		OwnerUsername: username,
		Secret:        secret,
		Enabled:       true,
	})
}

func (s *UserService) DisableMfa(ctx context.Context, username string) error {
	if _, err := s.userRepo.FindByUsername(ctx, username); err != nil {
		return err
	}
	return s.mfaRepo.Delete(ctx, username)
}

func (s *UserService) CreateResetToken(ctx context.Context, username string) (string, error) {
	if _, err := s.userRepo.FindByUsername(ctx, username); err != nil {
		return "", err
	}
	token := uuid.NewString()
	record := resetTokenRecord{Username: username, CreatedAt: s.now()}
	if err := s.resetTokens.Set(ctx, token, record, params.ResetTokenExpiration); err != nil {
		return "", err
	}
	return token, nil
}

// ResetPassword consumes a reset token. Tokens are single use.
func (s *UserService) ResetPassword(ctx context.Context, token string, newPlaintext string) (string, error) {
	record, err := s.resetTokens.Get(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrResetTokenInvalid
	}
	if err != nil {
		return "", err
	}
	if s.now().Sub(record.CreatedAt) > params.ResetTokenExpiration {
		return "", ErrResetTokenInvalid
	}
	if err := s.SetPassword(ctx, record.Username, newPlaintext); err != nil {
		return "", err
	}
	return record.Username, s.resetTokens.Delete(ctx, token)
}
