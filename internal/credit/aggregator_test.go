package credit

import (
    "math"
    "testing"
    "time"

    "github.com/Copanies/copany-credit/internal/domain"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func act(id int64, typ domain.ActivityType, newVal string, minute int) domain.ActivityRecord {
    return domain.ActivityRecord{ID: id, IssueID: 1, Type: typ, NewValue: newVal, CreatedAt: base.Add(time.Duration(minute) * time.Minute)}
}

func issue(priority, level int) domain.Issue {
    return domain.Issue{ID: 1, CopanyID: 1, State: domain.StateDone, Priority: priority, Level: level, CreatedAt: base}
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestComputeIssueCredit_ClosureAwardsAssigneeAndReviewer(t *testing.T) {
    acts := []domain.ActivityRecord{
        act(1, domain.ActivityCreated, "", 0),
        act(2, domain.ActivityAssigned, "U1", 1),
        act(3, domain.ActivityReviewerAdded, "U2", 2),
        act(4, domain.ActivityClosed, "", 3),
    }
    got := ComputeIssueCredit(issue(1, 2), acts)
    if !almostEqual(got["U1"], 12) { t.Fatalf("assignee credit: expected 12, got %v", got["U1"]) }
    if !almostEqual(got["U2"], 2.4) { t.Fatalf("reviewer credit: expected 2.4, got %v", got["U2"]) }
    if len(got) != 2 { t.Fatalf("unexpected extra users: %v", got) }
}

func TestComputeIssueCredit_ReviewerShareSplitsEvenly(t *testing.T) {
    acts := []domain.ActivityRecord{
        act(1, domain.ActivityAssigned, "U1", 0),
        act(2, domain.ActivityReviewerAdded, "R1", 1),
        act(3, domain.ActivityReviewerAdded, "R2", 2),
        act(4, domain.ActivityClosed, "", 3),
    }
    got := ComputeIssueCredit(issue(0, 1), acts) // weight 3
    if !almostEqual(got["R1"], 0.3) || !almostEqual(got["R2"], 0.3) {
        t.Fatalf("expected 0.3 per reviewer, got %v", got)
    }
}

func TestComputeIssueCredit_Idempotent(t *testing.T) {
    acts := []domain.ActivityRecord{
        act(1, domain.ActivityAssigned, "U1", 0),
        act(2, domain.ActivityClosed, "", 1),
        act(3, domain.ActivityReopened, "", 2),
        act(4, domain.ActivityClosed, "", 3),
    }
    a := ComputeIssueCredit(issue(2, 1), acts)
    b := ComputeIssueCredit(issue(2, 1), acts)
    if len(a) != len(b) { t.Fatalf("runs differ: %v vs %v", a, b) }
    for u, c := range a {
        if !almostEqual(b[u], c) { t.Fatalf("runs differ for %s: %v vs %v", u, c, b[u]) }
    }
}

func TestComputeIssueCredit_NoClosureZeroCredit(t *testing.T) {
    acts := []domain.ActivityRecord{
        act(1, domain.ActivityCreated, "", 0),
        act(2, domain.ActivityAssigned, "U1", 1),
        act(3, domain.ActivityStateChanged, "InProgress", 2),
        act(4, domain.ActivityCommented, "", 3),
    }
    if got := ComputeIssueCredit(issue(3, 3), acts); len(got) != 0 {
        t.Fatalf("expected no credit without a closure, got %v", got)
    }
}

func TestComputeIssueCredit_ReopenRewardsEachClosure(t *testing.T) {
    acts := []domain.ActivityRecord{
        act(1, domain.ActivityCreated, "A", 0),
        act(2, domain.ActivityAssigned, "A", 1),
        act(3, domain.ActivityClosed, "", 2),
        act(4, domain.ActivityReopened, "", 3),
        act(5, domain.ActivityClosed, "", 4),
    }
    got := ComputeIssueCredit(issue(0, 0), acts) // weight 1 per closure
    if !almostEqual(got["A"], 2) { t.Fatalf("expected 2x weight across two closures, got %v", got["A"]) }
}

func TestComputeIssueCredit_SecondCloseWithoutReopenIgnored(t *testing.T) {
    acts := []domain.ActivityRecord{
        act(1, domain.ActivityAssigned, "A", 0),
        act(2, domain.ActivityClosed, "", 1),
        act(3, domain.ActivityClosed, "", 2),
    }
    got := ComputeIssueCredit(issue(0, 0), acts)
    if !almostEqual(got["A"], 1) { t.Fatalf("duplicate close should not re-award: %v", got["A"]) }
}

func TestComputeIssueCredit_AttributeChangesApplyToLaterClosure(t *testing.T) {
    acts := []domain.ActivityRecord{
        act(1, domain.ActivityAssigned, "A", 0),
        act(2, domain.ActivityClosed, "", 1), // weight 1 at priority 0 level 0
        act(3, domain.ActivityReopened, "", 2),
        act(4, domain.ActivityLevelChanged, "2", 3),
        act(5, domain.ActivityPriorityChanged, "1", 4),
        act(6, domain.ActivityClosed, "", 5), // weight 12 at priority 1 level 2
    }
    got := ComputeIssueCredit(issue(0, 0), acts)
    if !almostEqual(got["A"], 13) { t.Fatalf("expected 1+12 across closures, got %v", got["A"]) }
}

func TestComputeIssueCredit_UnassignedClosureOnlyPaysReviewers(t *testing.T) {
    acts := []domain.ActivityRecord{
        act(1, domain.ActivityReviewerAdded, "R1", 0),
        act(2, domain.ActivityClosed, "", 1),
    }
    got := ComputeIssueCredit(issue(1, 2), acts)
    if len(got) != 1 || !almostEqual(got["R1"], 2.4) {
        t.Fatalf("expected only reviewer credit 2.4, got %v", got)
    }
}

func TestComputeIssueCredit_MalformedRecordsSkipped(t *testing.T) {
    acts := []domain.ActivityRecord{
        act(1, domain.ActivityAssigned, "A", 0),
        act(2, domain.ActivityLevelChanged, "banana", 1), // kept: level stays 2
        act(3, domain.ActivityPriorityChanged, "99", 2),  // kept: priority stays 1
        act(4, "escalated", "whatever", 3),               // unknown kind ignored
        act(5, domain.ActivityClosed, "", 4),
    }
    got := ComputeIssueCredit(issue(1, 2), acts)
    if !almostEqual(got["A"], 12) { t.Fatalf("expected last-known-good weight 12, got %v", got["A"]) }
}

func TestComputeIssueCredit_OutOfOrderInputSortedByTimestampThenID(t *testing.T) {
    // Delivered shuffled, and two records collide on timestamp: id breaks the
    // tie, so assigned(id=2) lands before closed(id=3).
    sameMinute := base.Add(5 * time.Minute)
    acts := []domain.ActivityRecord{
        {ID: 3, IssueID: 1, Type: domain.ActivityClosed, CreatedAt: sameMinute},
        {ID: 1, IssueID: 1, Type: domain.ActivityCreated, CreatedAt: base},
        {ID: 2, IssueID: 1, Type: domain.ActivityAssigned, NewValue: "A", CreatedAt: sameMinute},
    }
    got := ComputeIssueCredit(issue(0, 1), acts)
    if !almostEqual(got["A"], 3) { t.Fatalf("expected assignee credited after tie-break ordering, got %v", got) }
}

func TestComputeIssueCredit_DoesNotMutateInput(t *testing.T) {
    acts := []domain.ActivityRecord{
        act(2, domain.ActivityClosed, "", 1),
        act(1, domain.ActivityAssigned, "A", 0),
    }
    _ = ComputeIssueCredit(issue(0, 0), acts)
    if acts[0].Type != domain.ActivityClosed || acts[1].Type != domain.ActivityAssigned {
        t.Fatalf("input slice was reordered: %v", acts)
    }
}
