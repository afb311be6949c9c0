package domain

import (
    "errors"
    "time"
)

// ErrNotFound is returned by the store when a copany or issue does not exist.
var ErrNotFound = errors.New("not found")

type IssueState string

const (
    StateBacklog    IssueState = "Backlog"
    StateTodo       IssueState = "Todo"
    StateInProgress IssueState = "InProgress"
    StateDone       IssueState = "Done"
    StateCancelled  IssueState = "Cancelled"
)

func ParseState(s string) (IssueState, bool) {
    switch IssueState(s) {
    case StateBacklog, StateTodo, StateInProgress, StateDone, StateCancelled:
        return IssueState(s), true
    }
    return "", false
}

// ActivityType tags an ActivityRecord. OldValue/NewValue carry exactly what
// that kind needs: a user id for assigned/reviewer_added, an ordinal for
// priority_changed/level_changed, a state name for state_changed.
type ActivityType string

const (
    ActivityCreated         ActivityType = "created"
    ActivityAssigned        ActivityType = "assigned"
    ActivityStateChanged    ActivityType = "state_changed"
    ActivityPriorityChanged ActivityType = "priority_changed"
    ActivityLevelChanged    ActivityType = "level_changed"
    ActivityReviewerAdded   ActivityType = "reviewer_added"
    ActivityClosed          ActivityType = "closed"
    ActivityReopened        ActivityType = "reopened"
    ActivityCommented       ActivityType = "commented"
)

type Issue struct {
    ID        int64      `json:"id"`
    CopanyID  int64      `json:"copany_id"`
    Title     string     `json:"title"`
    State     IssueState `json:"state"`
    Priority  int        `json:"priority"`
    Level     int        `json:"level"`
    Assignee  string     `json:"assignee,omitempty"` // user id, empty when unassigned
    CreatedAt time.Time  `json:"created_at"`
    ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// ActivityRecord is one entry of the append-only activity log. Once written
// it is never mutated or deleted; (CreatedAt, ID) is the total order.
type ActivityRecord struct {
    ID        int64        `json:"id"`
    IssueID   int64        `json:"issue_id"`
    ActorID   string       `json:"actor_id"`
    Type      ActivityType `json:"activity_type"`
    OldValue  string       `json:"old_value,omitempty"`
    NewValue  string       `json:"new_value,omitempty"`
    CreatedAt time.Time    `json:"created_at"`
}

// Contribution is derived at read time and never persisted.
type Contribution struct {
    CopanyID             int64   `json:"copany_id"`
    UserID               string  `json:"user_id"`
    CreditScore          float64 `json:"credit_score"`
    ContributingIssueIDs []int64 `json:"contributing_issue_ids,omitempty"`
}
