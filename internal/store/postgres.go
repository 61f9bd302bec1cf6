package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"gitea.jw6.us/james/calllog/internal/schema"
)

// Pool is the subset of pgxpool.Pool used by the PostgreSQL repositories.
type Pool interface {
	PgxPool
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

const uniqueViolation = "23505"

// pgUserRepo implements UserRepository.
type pgUserRepo struct {
	pool Pool
}

func (r *pgUserRepo) Create(ctx context.Context, in schema.NewUser) (*schema.User, error) {
	defer observeStore(ctx, "users.create")()

	user := schema.User{ID: uuid.NewString(), Username: in.Username, Password: in.Password}
	const q = `INSERT INTO users (id, username, password) VALUES ($1, $2, $3)`
	if _, err := r.pool.Exec(ctx, q, user.ID, user.Username, user.Password); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &user, nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id string) (*schema.User, error) {
	defer observeStore(ctx, "users.get")()
	const q = `SELECT id, username, password FROM users WHERE id=$1`
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *pgUserRepo) GetByUsername(ctx context.Context, username string) (*schema.User, error) {
	defer observeStore(ctx, "users.get_by_username")()
	const q = `SELECT id, username, password FROM users WHERE username=$1`
	return scanUser(r.pool.QueryRow(ctx, q, username))
}

func scanUser(row pgx.Row) (*schema.User, error) {
	var u schema.User
	if err := row.Scan(&u.ID, &u.Username, &u.Password); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// pgCallLogRepo implements CallLogRepository.
type pgCallLogRepo struct {
	pool Pool
}

const callLogColumns = `id, contact_name, phone_number, call_type, duration, is_favorite, "timestamp"`

func (r *pgCallLogRepo) List(ctx context.Context) ([]schema.CallLog, error) {
	defer observeStore(ctx, "call_logs.list")()

	rows, err := r.pool.Query(ctx, `SELECT `+callLogColumns+` FROM call_logs ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list call logs: %w", err)
	}
	defer rows.Close()

	logs := []schema.CallLog{}
	for rows.Next() {
		log, err := scanCallLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list call logs: %w", err)
	}
	return logs, nil
}

func (r *pgCallLogRepo) GetByID(ctx context.Context, id string) (*schema.CallLog, error) {
	defer observeStore(ctx, "call_logs.get")()
	return scanCallLog(r.pool.QueryRow(ctx, `SELECT `+callLogColumns+` FROM call_logs WHERE id=$1`, id))
}

func (r *pgCallLogRepo) Create(ctx context.Context, in schema.NewCallLog) (*schema.CallLog, error) {
	defer observeStore(ctx, "call_logs.create")()

	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	log := schema.CallLog{
		ID:          uuid.NewString(),
		ContactName: in.ContactName,
		PhoneNumber: in.PhoneNumber,
		CallType:    in.CallType,
		Duration:    in.Duration,
		IsFavorite:  in.IsFavorite,
		// timestamptz keeps microseconds; truncate so the returned record
		// matches what a later read yields.
		Timestamp: ts.UTC().Truncate(time.Microsecond),
	}

	const q = `INSERT INTO call_logs (` + callLogColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.pool.Exec(ctx, q, log.ID, log.ContactName, log.PhoneNumber, string(log.CallType),
		log.Duration, log.IsFavorite, log.Timestamp); err != nil {
		return nil, fmt.Errorf("insert call log: %w", err)
	}
	return &log, nil
}

func (r *pgCallLogRepo) Update(ctx context.Context, id string, patch schema.CallLogPatch) (*schema.CallLog, error) {
	defer observeStore(ctx, "call_logs.update")()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	existing, err := scanCallLog(tx.QueryRow(ctx, `SELECT `+callLogColumns+` FROM call_logs WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	updated := existing.Apply(patch)
	updated.Timestamp = updated.Timestamp.UTC().Truncate(time.Microsecond)

	const q = `UPDATE call_logs
SET contact_name=$2, phone_number=$3, call_type=$4, duration=$5, is_favorite=$6, "timestamp"=$7
WHERE id=$1`
	if _, err := tx.Exec(ctx, q, updated.ID, updated.ContactName, updated.PhoneNumber, string(updated.CallType),
		updated.Duration, updated.IsFavorite, updated.Timestamp); err != nil {
		return nil, fmt.Errorf("update call log: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return &updated, nil
}

func (r *pgCallLogRepo) Delete(ctx context.Context, id string) (bool, error) {
	defer observeStore(ctx, "call_logs.delete")()

	tag, err := r.pool.Exec(ctx, `DELETE FROM call_logs WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete call log: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanCallLog(row pgx.Row) (*schema.CallLog, error) {
	var (
		log      schema.CallLog
		callType string
	)
	if err := row.Scan(&log.ID, &log.ContactName, &log.PhoneNumber, &callType, &log.Duration, &log.IsFavorite, &log.Timestamp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan call log: %w", err)
	}
	log.CallType = schema.CallType(callType)
	log.Timestamp = log.Timestamp.UTC()
	return &log, nil
}

// pgTemplateRepo implements TemplateRepository.
type pgTemplateRepo struct {
	pool Pool
}

func (r *pgTemplateRepo) List(ctx context.Context) ([]schema.MessageTemplate, error) {
	defer observeStore(ctx, "templates.list")()

	rows, err := r.pool.Query(ctx, `SELECT id, name, message FROM message_templates ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	templates := []schema.MessageTemplate{}
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

func (r *pgTemplateRepo) GetByID(ctx context.Context, id string) (*schema.MessageTemplate, error) {
	defer observeStore(ctx, "templates.get")()
	return scanTemplate(r.pool.QueryRow(ctx, `SELECT id, name, message FROM message_templates WHERE id=$1`, id))
}

func (r *pgTemplateRepo) Create(ctx context.Context, in schema.NewMessageTemplate) (*schema.MessageTemplate, error) {
	defer observeStore(ctx, "templates.create")()

	tmpl := schema.MessageTemplate{ID: uuid.NewString(), Name: in.Name, Message: in.Message}
	const q = `INSERT INTO message_templates (id, name, message) VALUES ($1, $2, $3)`
	if _, err := r.pool.Exec(ctx, q, tmpl.ID, tmpl.Name, tmpl.Message); err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	return &tmpl, nil
}

func (r *pgTemplateRepo) Delete(ctx context.Context, id string) (bool, error) {
	defer observeStore(ctx, "templates.delete")()

	tag, err := r.pool.Exec(ctx, `DELETE FROM message_templates WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete template: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanTemplate(row pgx.Row) (*schema.MessageTemplate, error) {
	var t schema.MessageTemplate
	if err := row.Scan(&t.ID, &t.Name, &t.Message); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan template: %w", err)
	}
	return &t, nil
}
