package services

import (
	"context"
	"fmt"

	"freelance-chat/internal/repository"

	"go.uber.org/zap"
)

type ProfileService struct {
	repo   repository.ProfileRepository
	cache  ProfileCache
	logger *zap.Logger
}

// NewProfileService builds the identity resolver. cache may be nil.
func NewProfileService(repo repository.ProfileRepository, cache ProfileCache, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, cache: cache, logger: logger}
}

func (s *ProfileService) ResolveParticipantID(ctx context.Context, login string) (int64, error) {
	if s.cache != nil {
		id, ok, err := s.cache.GetProfileID(ctx, login)
		if err != nil {
			s.logger.Warn("profile cache read failed", zap.String("login", login), zap.Error(err))
		} else if ok {
			return id, nil
		}
	}

	id, err := s.repo.GetIDByLogin(ctx, login)
	if err != nil {
		return 0, fmt.Errorf("resolve participant %q: %w", login, err)
	}

	if s.cache != nil {
		if err := s.cache.SetProfileID(ctx, login, id); err != nil {
			s.logger.Warn("profile cache write failed", zap.String("login", login), zap.Error(err))
		}
	}
	return id, nil
}
