package users

import (
	"context"
	"errors"

	"github.com/netdash/authcore/internal/store"
	"github.com/netdash/authcore/model"
	"github.com/netdash/authcore/params"
)

// MfaRepository persists TOTP enrollments under the dashboard's legacy
// per-username keys: mfaSecret_<username> holds the base32 secret and
// mfaEnabled_<username> holds "true" or is absent.
type MfaRepository interface {
	Get(ctx context.Context, username string) (*model.MfaEnrollment, error)
	Save(ctx context.Context, enrollment *model.MfaEnrollment) error
	Delete(ctx context.Context, username string) error
}

type mfaRepository struct {
	secrets store.Store[string]
	enabled store.Store[string]
}

func (r *mfaRepository) Get(ctx context.Context, username string) (*model.MfaEnrollment, error) {
	secret, err := r.secrets.Get(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrMfaNotEnrolled
	}
	if err != nil {
		return nil, err
	}
	flag, err := r.enabled.Get(ctx, username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return &model.MfaEnrollment{
		OwnerUsername: username,
		Secret:        secret,
		Enabled:       flag == "true",
	}, nil
}

func (r *mfaRepository) Save(ctx context.Context, enrollment *model.MfaEnrollment) error {
	if err := r.secrets.Save(ctx, enrollment.OwnerUsername, enrollment.Secret); err != nil {
		return err
	}
	if enrollment.Enabled {
		return r.enabled.Save(ctx, enrollment.OwnerUsername, "true")
	}
	return r.enabled.Delete(ctx, enrollment.OwnerUsername)
}

func (r *mfaRepository) Delete(ctx context.Context, username string) error {
	if err := r.secrets.Delete(ctx, username); err != nil {
		return err
	}
	return r.enabled.Delete(ctx, username)
}

func NewMfaRepository(storage store.Storage) MfaRepository {
	return &mfaRepository{
		secrets: store.New[string](storage, params.MfaSecretKeyPrefix),
		enabled: store.New[string](storage, params.MfaEnabledKeyPrefix),
	}
}
