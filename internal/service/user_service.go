package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/repository"
)

// UserService covers profiles and the admin user list.
type UserService struct {
	users  UserStore
	tokens TokenRevoker
	log    *zap.Logger
}

func NewUserService(users UserStore, tokens TokenRevoker, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{users: users, tokens: tokens, log: log}
}

func (s *UserService) Profile(ctx context.Context, id uint64) (model.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, id uint64, p repository.ProfileUpdate) (model.User, error) {
	if strings.TrimSpace(p.FullName) == "" {
		return model.User{}, invalid("full_name", "required")
	}
	if err := s.users.UpdateProfile(ctx, id, p); err != nil {
		return model.User{}, err
	}
	return s.users.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, q string, limit, offset int) ([]model.User, error) {
	return s.users.List(ctx, q, limit, offset)
}

// AdminUpdate edits another account.  An administrator cannot ban
// themselves through it, mirroring ToggleBan.
func (s *UserService) AdminUpdate(ctx context.Context, adminID, id uint64, u repository.AdminUpdate) (model.User, error) {
	fe := fieldErrors{}
	if strings.TrimSpace(u.FullName) == "" {
		fe.add("full_name", "required")
	}
	u.Status = strings.ToLower(strings.TrimSpace(u.Status))
	switch u.Status {
	case "":
		u.Status = model.UserActive
	case model.UserActive, model.UserBanned:
	default:
		fe.add("status", "must be active or banned")
	}
	if err := fe.err(); err != nil {
		return model.User{}, err
	}
	if adminID == id && u.Status == model.UserBanned {
		return model.User{}, repository.ErrForbidden
	}
	if err := s.users.AdminUpdate(ctx, id, u); err != nil {
		return model.User{}, err
	}
	if u.Status == model.UserBanned {
		s.revoke(ctx, id)
	}
	return s.users.GetByID(ctx, id)
}

// ToggleBan flips the account status.  Banning revokes the user's refresh
// tokens so the ban takes effect once the access token expires.
func (s *UserService) ToggleBan(ctx context.Context, adminID, id uint64) (string, error) {
	if adminID == id {
		return "", repository.ErrForbidden
	}
	status, err := s.users.ToggleBan(ctx, id)
	if err != nil {
		return "", err
	}
	if status == model.UserBanned {
		s.revoke(ctx, id)
	}
	s.log.Info("user ban toggled", zap.Uint64("user_id", id), zap.Uint64("admin_id", adminID), zap.String("status", status))
	return status, nil
}

func (s *UserService) Delete(ctx context.Context, adminID, id uint64) error {
	if adminID == id {
		return repository.ErrForbidden
	}
	return s.users.Delete(ctx, id)
}

func (s *UserService) revoke(ctx context.Context, id uint64) {
	if s.tokens == nil {
		return
	}
	if err := s.tokens.RevokeAllForUser(ctx, id); err != nil {
		s.log.Warn("revoke tokens after ban failed", zap.Uint64("user_id", id), zap.Error(err))
	}
}
