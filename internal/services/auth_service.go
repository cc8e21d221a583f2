package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"shopfront/internal/domain"
	"shopfront/internal/repos"
)

var ErrBadCreds = errors.New("invalid email or password")

// AuthService signs back office staff in by binding their user to the
// visitor's sid.
type AuthService struct {
	Users *repos.UserRepo
}

func NewAuthService(users *repos.UserRepo) *AuthService { return &AuthService{Users: users} }

func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

// CurrentUser returns nil for anonymous visitors.
func (s *AuthService) CurrentUser(ctx context.Context, sid string) *domain.User {
	if sid == "" {
		return nil
	}
	u, err := s.Users.SessionUser(ctx, sid)
	if err != nil {
		return nil
	}
	return u
}
