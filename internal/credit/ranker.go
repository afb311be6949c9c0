/* Copyright (c) 2025 Copanies
 * SPDX-License-Identifier: BSD-3-Clause */
package credit

import (
    "context"
    "errors"
    "sort"
    "sync"

    "github.com/Copanies/copany-credit/internal/domain"
    "github.com/rs/zerolog"
    "golang.org/x/sync/errgroup"
)

// Store is the persistence collaborator the engine reads from. Activities
// come back in ascending (created_at, id) order; issues are current
// snapshots. The engine never writes through it.
type Store interface {
    ListIssuesForCopany(ctx context.Context, copanyID int64) ([]domain.Issue, error)
    ListActivitiesForIssue(ctx context.Context, issueID int64, limit int) ([]domain.ActivityRecord, error)
}

type Engine struct {
    log        zerolog.Logger
    store      Store
    workers    int
    fetchLimit int
}

func NewEngine(log zerolog.Logger, store Store, workers, fetchLimit int) *Engine {
    if workers <= 0 { workers = 8 }
    if fetchLimit <= 0 { fetchLimit = 1000 }
    return &Engine{log: log, store: store, workers: workers, fetchLimit: fetchLimit}
}

// RankContributors computes the copany leaderboard: per-issue replays run in
// parallel (they share no state), per-user credit is summed across issues,
// and the result is sorted by credit desc, user id asc. Users with zero
// total credit are excluded. A missing issue log zeroes only that issue; a
// failed or cancelled read aborts the whole ranking so a partial leaderboard
// is never presented as final.
func (e *Engine) RankContributors(ctx context.Context, copanyID int64) ([]domain.Contribution, error) {
    issues, err := e.store.ListIssuesForCopany(ctx, copanyID)
    if err != nil {
        return nil, err
    }

    var mu sync.Mutex
    totals := map[string]float64{}
    issueIDs := map[string][]int64{}

    g, gctx := errgroup.WithContext(ctx)
    g.SetLimit(e.workers)
    for _, issue := range issues {
        g.Go(func() error {
            acts, err := e.store.ListActivitiesForIssue(gctx, issue.ID, e.fetchLimit)
            if errors.Is(err, domain.ErrNotFound) {
                e.log.Warn().Int64("issue", issue.ID).Msg("activity log missing; issue contributes zero")
                return nil
            }
            if err != nil {
                return err
            }
            perUser := ComputeIssueCredit(issue, acts)
            if len(perUser) == 0 {
                return nil
            }
            mu.Lock()
            for u, c := range perUser {
                totals[u] += c
                issueIDs[u] = append(issueIDs[u], issue.ID)
            }
            mu.Unlock()
            return nil
        })
    }
    if err := g.Wait(); err != nil {
        return nil, err
    }

    out := make([]domain.Contribution, 0, len(totals))
    for u, c := range totals {
        if c == 0 {
            continue
        }
        ids := issueIDs[u]
        sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
        out = append(out, domain.Contribution{CopanyID: copanyID, UserID: u, CreditScore: c, ContributingIssueIDs: ids})
    }
    sort.Slice(out, func(i, j int) bool {
        if out[i].CreditScore == out[j].CreditScore {
            return out[i].UserID < out[j].UserID
        }
        return out[i].CreditScore > out[j].CreditScore
    })
    return out, nil
}
