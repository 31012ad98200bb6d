package reports

import (
	"context"
	"strings"

	"github.com/yungbote/linguapath-backend/internal/domain"
	"github.com/yungbote/linguapath-backend/internal/platform/dbctx"
)

// UserSummary derives the dashboard numbers that depend on all of the user's
// attempts and completions.
func (a *Aggregator) UserSummary(ctx context.Context, userID string) (*domain.UserSummary, error) {
	userID = strings.TrimSpace(userID)
	dbc := dbctx.Of(ctx)
	attempts, err := a.attempts.ListByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	completions, err := a.completions.ListByUser(dbc, userID)
	if err != nil {
		return nil, err
	}

	out := &domain.UserSummary{UserID: userID}
	for _, at := range attempts {
		if at == nil {
			continue
		}
		out.TotalAttempts++
		if at.Successful {
			out.SuccessfulAttempts++
		}
		out.LastActivityAt = maxTime(out.LastActivityAt, ptrTime(at.FinishedAt()))
	}
	best := bestScores(attempts)
	out.SubconceptsAttempted = len(best)
	for _, s := range best {
		if s > 0 {
			out.BestScoreTotal += s
		}
	}
	for _, c := range completions {
		if c != nil && c.Completed {
			out.CompletedUnits++
		}
	}
	return out, nil
}
