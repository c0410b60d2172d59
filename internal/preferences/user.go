package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/foxseedlab/kissandost/internal/kvstore"
)

var ErrInvalidUser = errors.New("user record needs an id and a name")

type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// Users persists the signed-in user record.
type Users struct {
	kv kvstore.Store
}

func NewUsers(kv kvstore.Store) *Users {
	return &Users{kv: kv}
}

// Load returns the saved user, or nil when nobody is signed in.
func (u *Users) Load(ctx context.Context) (*User, error) {
	raw, ok, err := u.kv.Get(ctx, kvstore.KeyUser)
	if err != nil {
		return nil, fmt.Errorf("failed to read user: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

func (u *Users) Save(ctx context.Context, user User) error {
	if user.ID == "" || user.Name == "" {
		return ErrInvalidUser
	}
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := u.kv.Set(ctx, kvstore.KeyUser, string(b)); err != nil {
		return fmt.Errorf("failed to persist user: %w", err)
	}
	return nil
}

// Clear signs the user out.
func (u *Users) Clear(ctx context.Context) error {
	if err := u.kv.Delete(ctx, kvstore.KeyUser); err != nil {
		return fmt.Errorf("failed to clear user: %w", err)
	}
	return nil
}
