package users

import (
	"context"
	"errors"
	"sync"

	"github.com/netdash/authcore/internal/store"
	"github.com/netdash/authcore/model"
	"github.com/netdash/authcore/params"
)

// UserRepository persists the user list as a single JSON array under the
// systemUsers key. Writes are read-modify-write under a mutex; the backing
// store itself is last-write-wins.
type UserRepository interface {
	All(ctx context.Context) ([]model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Insert(ctx context.Context, user *model.User) error
	Update(ctx context.Context, username string, mutate func(*model.User)) (*model.User, error)
	Delete(ctx context.Context, username string) error
}

type userRepository struct {
	mu    sync.Mutex
	users store.Store[[]model.User]
}

func (r *userRepository) load(ctx context.Context) ([]model.User, error) {
	users, err := r.users.Get(ctx, params.SystemUsersKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return users, err
}

func (r *userRepository) All(ctx context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			user := users[i]
			return &user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *userRepository) Insert(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].Username == user.Username {
			return ErrUsernameTaken
		}
	}
	users = append(users, *user)
	return r.users.Save(ctx, params.SystemUsersKey, users)
}

func (r *userRepository) Update(ctx context.Context, username string, mutate func(*model.User)) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			mutate(&users[i])
			if err := r.users.Save(ctx, params.SystemUsersKey, users); err != nil {
				return nil, err
			}
			user := users[i]
			return &user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *userRepository) Delete(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].Username == username {
			users = append(users[:i], users[i+1:]...)
			return r.users.Save(ctx, params.SystemUsersKey, users)
		}
	}
	return ErrUserNotFound
}

func NewUserRepository(storage store.Storage) UserRepository {
	return &userRepository{
		users: store.New[[]model.User](storage, ""),
	}
}
