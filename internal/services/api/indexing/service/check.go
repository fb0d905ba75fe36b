package service

import (
	"context"

	gh "quickgithub/internal/adapters/github"
	perr "quickgithub/internal/platform/errors"
	"quickgithub/internal/platform/logger"
	"quickgithub/internal/services/api/indexing/domain"
)

const msgBadCheck = "Invalid owner/repo format"

// Check asks upstream whether owner/repo exists
func (s *Svc) Check(ctx context.Context, k domain.RepoKey) (domain.CheckOutput, error) {
	if !k.Valid() {
		return domain.CheckOutput{}, perr.Validationf(msgBadCheck)
	}
	found, err := s.probe.Exists(ctx, k.Owner, k.Repo)
	switch found {
	case gh.Exists:
		return domain.CheckOutput{Exists: true}, nil
	case gh.NotFound:
		return domain.CheckOutput{}, perr.NotFoundf(msgNotOnGitHub)
	}
	logger.Repo(logger.C(ctx), k.FullName()).Warn().Err(err).Msg("github check indeterminate")
	return domain.CheckOutput{}, perr.BadGatewayf(msgCannotVerify)
}
