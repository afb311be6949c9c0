/* Copyright (c) 2025 Copanies
 * SPDX-License-Identifier: BSD-3-Clause */
package credit

import (
    "sort"
    "strconv"
    "strings"

    "github.com/Copanies/copany-credit/internal/domain"
)

// replayState is the per-issue state machine folded over the activity log.
type replayState struct {
    assignee  string
    priority  int
    level     int
    closed    bool
    reviewers map[string]struct{}
}

// ComputeIssueCredit replays the issue's activities in ascending
// (created_at, id) order and attributes credit per closure event: the
// assignee at closure earns the full weight of the attributes current at
// that closure, reviewers split an extra reviewerShare of it evenly.
// Pure and deterministic; the inputs are never mutated. Malformed records
// are skipped with the last-known-good state kept, so one bad historical
// record cannot void the whole issue.
func ComputeIssueCredit(issue domain.Issue, activities []domain.ActivityRecord) map[string]float64 {
    ordered := make([]domain.ActivityRecord, len(activities))
    copy(ordered, activities)
    sort.Slice(ordered, func(i, j int) bool {
        if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
            return ordered[i].ID < ordered[j].ID
        }
        return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
    })

    // Priority and level start from the snapshot: issues whose attributes
    // never changed carry no ordinal events, and the snapshot is then exact.
    st := replayState{
        priority:  issue.Priority,
        level:     issue.Level,
        reviewers: map[string]struct{}{},
    }
    credit := map[string]float64{}

    for _, a := range ordered {
        switch a.Type {
        case domain.ActivityCreated:
            if u := strings.TrimSpace(a.NewValue); u != "" {
                st.assignee = u
            }
        case domain.ActivityAssigned:
            // Assignment alone is not completed work; no credit here.
            st.assignee = strings.TrimSpace(a.NewValue)
        case domain.ActivityPriorityChanged:
            if p, ok := parseOrdinal(a.NewValue, MaxPriority()); ok {
                st.priority = p
            }
        case domain.ActivityLevelChanged:
            if l, ok := parseOrdinal(a.NewValue, MaxLevel()); ok {
                st.level = l
            }
        case domain.ActivityReviewerAdded:
            if u := strings.TrimSpace(a.NewValue); u != "" {
                st.reviewers[u] = struct{}{}
            }
        case domain.ActivityClosed:
            if st.closed {
                continue
            }
            st.closed = true
            w, err := Weight(st.priority, st.level)
            if err != nil {
                continue
            }
            if st.assignee != "" {
                credit[st.assignee] += w
            }
            if len(st.reviewers) > 0 {
                share := w * reviewerShare / float64(len(st.reviewers))
                for u := range st.reviewers {
                    credit[u] += share
                }
            }
        case domain.ActivityReopened:
            // Credit is per closure, not per issue: a later close re-awards
            // at the attributes current then, rewarding rework.
            st.closed = false
        case domain.ActivityStateChanged, domain.ActivityCommented:
            // No credit effect.
        default:
            // Unknown kinds are skipped rather than aborting the replay.
        }
    }
    return credit
}

func parseOrdinal(s string, max int) (int, bool) {
    n, err := strconv.Atoi(strings.TrimSpace(s))
    if err != nil || n < 0 || n > max {
        return 0, false
    }
    return n, true
}
