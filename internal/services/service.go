/* Copyright (c) 2025 Copanies
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "fmt"
    "strconv"
    "time"

    "github.com/Copanies/copany-credit/internal/config"
    "github.com/Copanies/copany-credit/internal/credit"
    "github.com/Copanies/copany-credit/internal/domain"
    "github.com/Copanies/copany-credit/internal/repo"
    "github.com/rs/zerolog"
)

type Notifier interface {
    SendDigest(ctx context.Context, payload any) error
}

type Service struct {
    cfg    config.Config
    log    zerolog.Logger
    repo   *repo.Repository
    engine *credit.Engine
    notify Notifier
}

func New(cfg config.Config, log zerolog.Logger, r *repo.Repository, engine *credit.Engine, notify Notifier) *Service {
    return &Service{cfg: cfg, log: log, repo: r, engine: engine, notify: notify}
}

// ComputeContributions derives the copany leaderboard from the live log and
// snapshots. All-or-nothing: a collaborator read that exceeds the compute
// deadline surfaces as an error rather than a truncated ranking.
func (s *Service) ComputeContributions(ctx context.Context, copanyID int64) ([]domain.Contribution, error) {
    ctx, cancel := context.WithTimeout(ctx, s.cfg.ComputeTimeout)
    defer cancel()
    return s.engine.RankContributors(ctx, copanyID)
}

func (s *Service) ListIssues(ctx context.Context, copanyID int64) ([]domain.Issue, error) {
    return s.repo.ListIssuesForCopany(ctx, copanyID)
}

func (s *Service) ListActivities(ctx context.Context, issueID int64) ([]domain.ActivityRecord, error) {
    if _, err := s.repo.GetIssue(ctx, issueID); err != nil { return nil, err }
    return s.repo.ListActivitiesForIssue(ctx, issueID, s.cfg.ActivityFetchLimit)
}

// ---- Mutation surface ----
// Every snapshot change lands one append-only activity record; the engine
// itself only ever reads them back.

type NewIssue struct {
    Title    string `json:"title"`
    Priority int    `json:"priority"`
    Level    int    `json:"level"`
    Assignee string `json:"assignee"`
    ActorID  string `json:"actor_id"`
}

func (s *Service) CreateIssue(ctx context.Context, copanyID int64, in NewIssue) (*domain.Issue, error) {
    if err := validateOrdinals(in.Priority, in.Level); err != nil { return nil, err }
    now := time.Now().UTC()
    issue := domain.Issue{
        CopanyID:  copanyID,
        Title:     in.Title,
        State:     domain.StateBacklog,
        Priority:  in.Priority,
        Level:     in.Level,
        Assignee:  in.Assignee,
        CreatedAt: now,
    }
    id, err := s.repo.CreateIssue(ctx, issue)
    if err != nil { return nil, err }
    issue.ID = id
    if err := s.repo.AppendActivities(ctx, []domain.ActivityRecord{
        {IssueID: id, ActorID: in.ActorID, Type: domain.ActivityCreated, NewValue: in.Assignee, CreatedAt: now},
    }); err != nil { return nil, err }
    return &issue, nil
}

type IssuePatch struct {
    Title    *string `json:"title"`
    State    *string `json:"state"`
    Priority *int    `json:"priority"`
    Level    *int    `json:"level"`
    Assignee *string `json:"assignee"`
    Reviewer *string `json:"reviewer"`
    ActorID  string  `json:"actor_id"`
}

func (s *Service) UpdateIssue(ctx context.Context, issueID int64, p IssuePatch) (*domain.Issue, error) {
    issue, err := s.repo.GetIssue(ctx, issueID)
    if err != nil { return nil, err }

    now := time.Now().UTC()
    var acts []domain.ActivityRecord
    add := func(t domain.ActivityType, oldV, newV string) {
        acts = append(acts, domain.ActivityRecord{IssueID: issueID, ActorID: p.ActorID, Type: t, OldValue: oldV, NewValue: newV, CreatedAt: now})
    }

    if p.Title != nil && *p.Title != issue.Title {
        issue.Title = *p.Title
    }
    if p.Assignee != nil && *p.Assignee != issue.Assignee {
        add(domain.ActivityAssigned, issue.Assignee, *p.Assignee)
        issue.Assignee = *p.Assignee
    }
    if p.Priority != nil && *p.Priority != issue.Priority {
        if err := validateOrdinals(*p.Priority, issue.Level); err != nil { return nil, err }
        add(domain.ActivityPriorityChanged, strconv.Itoa(issue.Priority), strconv.Itoa(*p.Priority))
        issue.Priority = *p.Priority
    }
    if p.Level != nil && *p.Level != issue.Level {
        if err := validateOrdinals(issue.Priority, *p.Level); err != nil { return nil, err }
        add(domain.ActivityLevelChanged, strconv.Itoa(issue.Level), strconv.Itoa(*p.Level))
        issue.Level = *p.Level
    }
    if p.Reviewer != nil && *p.Reviewer != "" {
        add(domain.ActivityReviewerAdded, "", *p.Reviewer)
    }
    if p.State != nil {
        next, ok := domain.ParseState(*p.State)
        if !ok { return nil, fmt.Errorf("%w: state %q", credit.ErrInvalidAttribute, *p.State) }
        if next != issue.State {
            switch {
            case next == domain.StateDone:
                add(domain.ActivityClosed, string(issue.State), string(next))
                issue.ClosedAt = &now
            case issue.State == domain.StateDone:
                add(domain.ActivityReopened, string(issue.State), string(next))
                issue.ClosedAt = nil
            default:
                add(domain.ActivityStateChanged, string(issue.State), string(next))
            }
            issue.State = next
        }
    }

    if err := s.repo.UpdateIssue(ctx, *issue); err != nil { return nil, err }
    if err := s.repo.AppendActivities(ctx, acts); err != nil { return nil, err }
    return issue, nil
}

func validateOrdinals(priority, level int) error {
    if _, err := credit.Weight(priority, level); err != nil { return err }
    return nil
}

// ---- Digest ----

type digestEntry struct {
    CopanyID     int64                 `json:"copany_id"`
    Contributors []domain.Contribution `json:"contributors"`
}

// RunLeaderboardDigest recomputes every copany's leaderboard and pushes the
// result to the configured webhook. Nothing is persisted: the ranking stays a
// pure derivation of the log, so a crashed digest can always be re-run.
func (s *Service) RunLeaderboardDigest(ctx context.Context) error {
    ids, err := s.repo.ListCopanyIDs(ctx)
    if err != nil { return err }
    var entries []digestEntry
    for _, id := range ids {
        ranked, err := s.engine.RankContributors(ctx, id)
        if err != nil {
            s.log.Error().Err(err).Int64("copany", id).Msg("digest: ranking failed")
            return err
        }
        if len(ranked) == 0 { continue }
        entries = append(entries, digestEntry{CopanyID: id, Contributors: ranked})
    }
    s.log.Info().Int("copanies", len(entries)).Msg("digest: leaderboards computed")
    if s.notify == nil || len(entries) == 0 { return nil }
    return s.notify.SendDigest(ctx, map[string]any{
        "generated_at": time.Now().UTC().Format(time.RFC3339),
        "leaderboards": entries,
    })
}
