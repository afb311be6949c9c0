package repo

import (
    "context"
    "errors"
    "time"

    "github.com/Copanies/copany-credit/internal/config"
    "github.com/Copanies/copany-credit/internal/domain"
    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/rs/zerolog"
)

type DB struct {
    Pool *pgxpool.Pool
    log  zerolog.Logger
}

func MustOpen(ctx context.Context, cfg config.Config, log zerolog.Logger) *DB {
    pool, err := pgxpool.New(ctx, cfg.DBDSN)
    if err != nil { log.Fatal().Err(err).Msg("db connect failed") }
    ctx2, cancel := context.WithTimeout(ctx, 10*time.Second); defer cancel()
    if err := pool.Ping(ctx2); err != nil { log.Fatal().Err(err).Msg("db ping failed") }
    return &DB{Pool: pool, log: log}
}

func (d *DB) Close() { d.Pool.Close() }

type Repository struct {
    db  *DB
    log zerolog.Logger
}

func NewRepository(d *DB, log zerolog.Logger) *Repository { return &Repository{db: d, log: log} }

func (r *Repository) TryAdvisoryLock(ctx context.Context, key int64) (bool, error) {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok)
    return ok, err
}

func (r *Repository) AdvisoryUnlock(ctx context.Context, key int64) error {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok)
    if !ok && err == nil { return errors.New("advisory unlock returned false") }
    return err
}

// ---- Issue snapshots ----

func (r *Repository) CreateIssue(ctx context.Context, i domain.Issue) (int64, error) {
    const q = `
        INSERT INTO issues(copany_id, title, state, priority, level, assignee, created_at)
        VALUES($1,$2,$3,$4,$5,NULLIF($6,''),$7)
        RETURNING id`
    created := i.CreatedAt
    if created.IsZero() { created = time.Now().UTC() }
    var id int64
    row := r.db.Pool.QueryRow(ctx, q, i.CopanyID, i.Title, string(i.State), i.Priority, i.Level, i.Assignee, created)
    if err := row.Scan(&id); err != nil { return 0, err }
    return id, nil
}

func (r *Repository) UpdateIssue(ctx context.Context, i domain.Issue) error {
    const q = `UPDATE issues SET title=$2, state=$3, priority=$4, level=$5,
        assignee=NULLIF($6,''), closed_at=$7 WHERE id=$1`
    tag, err := r.db.Pool.Exec(ctx, q, i.ID, i.Title, string(i.State), i.Priority, i.Level, i.Assignee, i.ClosedAt)
    if err != nil { return err }
    if tag.RowsAffected() == 0 { return domain.ErrNotFound }
    return nil
}

func (r *Repository) GetIssue(ctx context.Context, id int64) (*domain.Issue, error) {
    const q = `SELECT id, copany_id, COALESCE(title,''), state, priority, level,
        COALESCE(assignee,''), created_at, closed_at FROM issues WHERE id=$1`
    row := r.db.Pool.QueryRow(ctx, q, id)
    var i domain.Issue
    var state string
    if err := row.Scan(&i.ID, &i.CopanyID, &i.Title, &state, &i.Priority, &i.Level,
        &i.Assignee, &i.CreatedAt, &i.ClosedAt); err != nil {
        if errors.Is(err, pgx.ErrNoRows) { return nil, domain.ErrNotFound }
        return nil, err
    }
    i.State = domain.IssueState(state)
    return &i, nil
}

func (r *Repository) ListIssuesForCopany(ctx context.Context, copanyID int64) ([]domain.Issue, error) {
    rows, err := r.db.Pool.Query(ctx, `SELECT id, copany_id, COALESCE(title,''), state, priority, level,
        COALESCE(assignee,''), created_at, closed_at
        FROM issues WHERE copany_id=$1 ORDER BY id`, copanyID)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.Issue
    for rows.Next() {
        var i domain.Issue
        var state string
        if err := rows.Scan(&i.ID, &i.CopanyID, &i.Title, &state, &i.Priority, &i.Level,
            &i.Assignee, &i.CreatedAt, &i.ClosedAt); err != nil { return nil, err }
        i.State = domain.IssueState(state)
        out = append(out, i)
    }
    return out, rows.Err()
}

// ListCopanyIDs returns every copany that has at least one issue.
func (r *Repository) ListCopanyIDs(ctx context.Context) ([]int64, error) {
    rows, err := r.db.Pool.Query(ctx, `SELECT DISTINCT copany_id FROM issues ORDER BY copany_id`)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []int64
    for rows.Next() {
        var id int64
        if err := rows.Scan(&id); err != nil { return nil, err }
        out = append(out, id)
    }
    return out, rows.Err()
}

// ---- Activity log ----

// AppendActivities writes new log records. The log is append-only: there is
// no update or delete path, and replays never observe a partially written
// record because each insert is atomic.
func (r *Repository) AppendActivities(ctx context.Context, acts []domain.ActivityRecord) error {
    if len(acts) == 0 { return nil }
    batch := &pgx.Batch{}
    const q = `INSERT INTO activities(issue_id, actor_id, activity_type, old_value, new_value, created_at)
        VALUES($1,$2,$3,$4,$5,$6)`
    for _, a := range acts {
        at := a.CreatedAt
        if at.IsZero() { at = time.Now().UTC() }
        batch.Queue(q, a.IssueID, a.ActorID, string(a.Type), a.OldValue, a.NewValue, at)
    }
    br := r.db.Pool.SendBatch(ctx, batch)
    defer br.Close()
    for range acts { if _, err := br.Exec(); err != nil { return err } }
    return nil
}

// ListActivitiesForIssue returns the issue's log in ascending
// (created_at, id) order; id breaks timestamp collisions so the order is
// total and reproducible.
func (r *Repository) ListActivitiesForIssue(ctx context.Context, issueID int64, limit int) ([]domain.ActivityRecord, error) {
    if limit <= 0 { limit = 1000 }
    rows, err := r.db.Pool.Query(ctx, `SELECT id, issue_id, COALESCE(actor_id,''), activity_type,
        COALESCE(old_value,''), COALESCE(new_value,''), created_at
        FROM activities WHERE issue_id=$1 ORDER BY created_at, id LIMIT $2`, issueID, limit)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.ActivityRecord
    for rows.Next() {
        var a domain.ActivityRecord
        var typ string
        if err := rows.Scan(&a.ID, &a.IssueID, &a.ActorID, &typ, &a.OldValue, &a.NewValue, &a.CreatedAt); err != nil { return nil, err }
        a.Type = domain.ActivityType(typ)
        out = append(out, a)
    }
    return out, rows.Err()
}
