package service

import (
	"context"

	perr "quickgithub/internal/platform/errors"
	"quickgithub/internal/platform/logger"
	"quickgithub/internal/services/api/indexing/domain"
)

const msgLimitReset = "Repo limit reset to 0"

// ResetLimit zeroes a user's claimed count; only admins may call it
// An empty target resets the caller.
func (s *Svc) ResetLimit(ctx context.Context, by domain.Requester, in domain.ResetLimitInput) (domain.ResetLimitOutput, error) {
	if by.UserID == "" {
		return domain.ResetLimitOutput{}, perr.Unauthorizedf(msgUnauthorized)
	}
	if !by.Admin {
		return domain.ResetLimitOutput{}, perr.Forbiddenf("Forbidden")
	}

	target := in.UserID
	if target == "" {
		target = by.UserID
	}
	ok, err := s.Ledger.ResetClaims(ctx, target)
	if err != nil {
		return domain.ResetLimitOutput{}, err
	}
	if !ok {
		return domain.ResetLimitOutput{}, perr.NotFoundf(msgUserNotFound)
	}

	logger.C(ctx).Info().Str("target", target).Msg("repo limit reset")
	return domain.ResetLimitOutput{OK: true, Message: msgLimitReset}, nil
}
