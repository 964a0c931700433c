package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"finly/internal/core"
	"finly/internal/notify"
	"finly/internal/session"
	"finly/internal/storage"
)

// AccountService owns user CRUD, authentication and preference management.
// Every successful mutation notifies the hub; failures never do.
type AccountService struct {
	store   storage.Store
	hub     *notify.Hub
	session *session.Manager
}

func NewAccountService(store storage.Store, hub *notify.Hub, sess *session.Manager) *AccountService {
	return &AccountService{
		store:   store,
		hub:     hub,
		session: sess,
	}
}

// Register validates every field, hashes the password and persists the new
// user with empty settings.
func (s *AccountService) Register(ctx context.Context, name, email, password, confirmPassword string) (core.User, error) {
	email = core.NormalizeEmail(email)
	if err := core.ValidateName(name); err != nil {
		return core.User{}, err
	}
	if err := core.ValidateEmail(email); err != nil {
		return core.User{}, err
	}
	if err := core.ValidatePassword(password); err != nil {
		return core.User{}, err
	}
	if password != confirmPassword {
		return core.User{}, &core.ValidationError{Field: "password", Reason: "passwords do not match"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, name, email, string(hash))
	if err != nil {
		return core.User{}, err
	}

	s.hub.Notify(ctx, notify.Event{Entity: notify.EntityUser, Op: notify.OpCreated, ID: user.ID, OwnerID: user.ID})
	return user, nil
}

// Login checks credentials and returns the user. Any miss, whether the
// account is absent or the password wrong, yields the same generic error.
// Login does not set the current session; callers do that explicitly.
func (s *AccountService) Login(ctx context.Context, email, password string) (core.User, error) {
	email = core.NormalizeEmail(email)
	if err := core.ValidateEmail(email); err != nil {
		return core.User{}, err
	}
	if err := core.ValidatePassword(password); err != nil {
		return core.User{}, err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return core.User{}, core.ErrInvalidCredentials
	}
	return user, nil
}

// SetCurrentUser starts a session for u, typically right after Login.
func (s *AccountService) SetCurrentUser(ctx context.Context, u core.User) {
	s.session.Set(u)
	s.hub.Notify(ctx, notify.Event{Entity: notify.EntitySession, Op: notify.OpLogin, ID: u.ID, OwnerID: u.ID})
}

// CurrentUser returns the session user, if a session is active.
func (s *AccountService) CurrentUser() (core.User, bool) {
	return s.session.Current()
}

// Logout ends the current session.
func (s *AccountService) Logout(ctx context.Context) {
	u, ok := s.session.Current()
	s.session.Clear()
	if ok {
		s.hub.Notify(ctx, notify.Event{Entity: notify.EntitySession, Op: notify.OpLogout, ID: u.ID, OwnerID: u.ID})
	}
}

func (s *AccountService) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *AccountService) UserByID(ctx context.Context, id int64) (core.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// UpdateProfile changes name and email, failing when the new email belongs
// to a different user.
func (s *AccountService) UpdateProfile(ctx context.Context, id int64, name, email string) (core.User, error) {
	email = core.NormalizeEmail(email)
	if err := core.ValidateName(name); err != nil {
		return core.User{}, err
	}
	if err := core.ValidateEmail(email); err != nil {
		return core.User{}, err
	}

	user, err := s.store.UpdateUser(ctx, id, name, email)
	if err != nil {
		return core.User{}, err
	}

	s.hub.Notify(ctx, notify.Event{Entity: notify.EntityUser, Op: notify.OpUpdated, ID: id, OwnerID: id})
	return user, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, id int64, newPassword, confirmPassword string) (core.User, error) {
	if err := core.ValidatePassword(newPassword); err != nil {
		return core.User{}, err
	}
	if newPassword != confirmPassword {
		return core.User{}, &core.ValidationError{Field: "password", Reason: "passwords do not match"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.UpdateUserPassword(ctx, id, string(hash))
	if err != nil {
		return core.User{}, err
	}

	s.hub.Notify(ctx, notify.Event{Entity: notify.EntityUser, Op: notify.OpUpdated, ID: id, OwnerID: id})
	return user, nil
}

// Preferences fetches the settings map. This read is non-critical, so a
// storage failure degrades to empty defaults instead of propagating.
func (s *AccountService) Preferences(ctx context.Context, id int64) core.Settings {
	settings, err := s.store.GetUserSettings(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load preferences, using defaults", "id", id, "error", err)
		return core.Settings{}
	}
	return settings
}

// UpdatePreferences shallow-merges partial into the stored settings. When
// the mutated user is the session user, the session snapshot is refreshed
// so callers holding it see the merged map.
func (s *AccountService) UpdatePreferences(ctx context.Context, id int64, partial core.Settings) (core.Settings, error) {
	merged, err := s.store.UpdateUserSettings(ctx, id, partial)
	if err != nil {
		return nil, err
	}

	if current, ok := s.session.Current(); ok && current.ID == id {
		current.Settings = merged
		s.session.Set(current)
	}

	s.hub.Notify(ctx, notify.Event{Entity: notify.EntityUser, Op: notify.OpUpdated, ID: id, OwnerID: id})
	return merged, nil
}

// DeleteUser removes the user and everything they own.
func (s *AccountService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.hub.Notify(ctx, notify.Event{Entity: notify.EntityUser, Op: notify.OpDeleted, ID: id, OwnerID: id})
	return nil
}
