package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BuzzLyutic/shared-todo/internal/auth"
	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/repo"
)

var ErrWrongPin = errors.New("wrong pin")

var defaultColors = []string{"#0033A0", "#72B5E8", "#C9A227", "#059669", "#7C3AED", "#DC2626"}

type UserService struct {
	repo repo.UserRepository
	now  func() time.Time
}

func NewUserService(users repo.UserRepository) *UserService {
	return &UserService{repo: users, now: time.Now}
}

func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return model.User{}, err
	}
	hash, err := auth.HashPin(req.Pin)
	if err != nil {
		return model.User{}, invalid("%v", err)
	}
	u := model.User{Name: req.Name, Color: req.Color, PinHash: hash, Role: req.Role}
	if u.Color == "" {
		u.Color = defaultColors[len(u.Name)%len(defaultColors)]
	}
	return s.repo.Create(ctx, u)
}

// Login checks name and PIN. An unknown name yields repo.ErrorNotFound so callers
// can tell it apart from a wrong PIN; lockout is tracked by the client.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (model.User, error) {
	if err := validateStruct(req); err != nil {
		return model.User{}, err
	}
	if !auth.IsValidPin(req.Pin) {
		return model.User{}, invalid("%v", auth.ErrInvalidPin)
	}
	u, err := s.repo.GetByName(ctx, req.Name)
	if err != nil {
		return u, err
	}
	if !auth.VerifyPin(req.Pin, u.PinHash) {
		return model.User{}, ErrWrongPin
	}

	now := s.now()
	if err := s.repo.TouchLogin(ctx, u.ID, now); err != nil {
		return u, err
	}
	u.LastLogin = &now
	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) MarkWelcomed(ctx context.Context, id string) error {
	return s.repo.MarkWelcomed(ctx, id, s.now())
}
