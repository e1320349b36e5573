package alarms

import (
	"context"
	"errors"
	"fmt"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"

	"github.com/talehto/voice-alarm-app/internal/domain/alarm"
)

// ErrNotFound is returned when no alarm has the requested id.
var ErrNotFound = errors.New("alarm not found")

// poolSize bounds concurrent connections. The daemon's access pattern
// is a handful of short queries, one writer at a time.
const poolSize = 4

// Store persists alarms in SQLite through a connection pool.
type Store struct {
	pool *sqlitex.Pool
}

// Open opens (creating if needed) the database at path and applies
// pending schema migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	pool, err := sqlitex.Open(path, 0, poolSize)
	if err != nil {
		return nil, fmt.Errorf("open alarm database: %w", err)
	}

	conn := pool.Get(ctx)
	if conn == nil {
		_ = pool.Close()

		return nil, ctx.Err()
	}

	err = migrate(conn, migrationsFS)
	pool.Put(conn)

	if err != nil {
		_ = pool.Close()

		return nil, fmt.Errorf("migrate alarm database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

const alarmColumns = "id, kind, title, body, enabled, single_at, weekly_mask, weekly_hour, weekly_minute, language"

// Insert stores a new alarm and returns its assigned id.
func (s *Store) Insert(ctx context.Context, a *alarm.Alarm) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}

	conn := s.pool.Get(ctx)
	if conn == nil {
		return 0, ctx.Err()
	}
	defer s.pool.Put(conn)

	f := a.EncodeFields()

	err := sqlitex.Exec(conn,
		`INSERT INTO alarms (kind, title, body, enabled, single_at, weekly_mask, weekly_hour, weekly_minute, language)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		nil,
		f.Kind, f.Title, f.Body, boolToInt(f.Enabled),
		nullableArg(f.SingleAt), nullableArg(f.WeeklyMask),
		nullableArg(f.WeeklyHour), nullableArg(f.WeeklyMinute),
		f.Language,
	)
	if err != nil {
		return 0, fmt.Errorf("insert alarm: %w", err)
	}

	return conn.LastInsertRowID(), nil
}

// Update overwrites the stored alarm with the same id.
func (s *Store) Update(ctx context.Context, a *alarm.Alarm) error {
	if err := a.Validate(); err != nil {
		return err
	}

	conn := s.pool.Get(ctx)
	if conn == nil {
		return ctx.Err()
	}
	defer s.pool.Put(conn)

	f := a.EncodeFields()

	err := sqlitex.Exec(conn,
		`UPDATE alarms
		 SET kind = ?, title = ?, body = ?, enabled = ?, single_at = ?,
		     weekly_mask = ?, weekly_hour = ?, weekly_minute = ?, language = ?
		 WHERE id = ?;`,
		nil,
		f.Kind, f.Title, f.Body, boolToInt(f.Enabled),
		nullableArg(f.SingleAt), nullableArg(f.WeeklyMask),
		nullableArg(f.WeeklyHour), nullableArg(f.WeeklyMinute),
		f.Language, f.ID,
	)
	if err != nil {
		return fmt.Errorf("update alarm %d: %w", f.ID, err)
	}

	if conn.Changes() == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID loads one alarm. Returns ErrNotFound when the id is absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*alarm.Alarm, error) {
	conn := s.pool.Get(ctx)
	if conn == nil {
		return nil, ctx.Err()
	}
	defer s.pool.Put(conn)

	var found *alarm.Alarm

	err := sqlitex.Exec(conn,
		"SELECT "+alarmColumns+" FROM alarms WHERE id = ?;",
		func(stmt *sqlite.Stmt) error {
			a, err := scanAlarm(stmt)
			if err != nil {
				return err
			}

			found = a

			return nil
		},
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("get alarm %d: %w", id, err)
	}

	if found == nil {
		return nil, ErrNotFound
	}

	return found, nil
}

// ListAll returns every stored alarm ordered by id.
func (s *Store) ListAll(ctx context.Context) ([]*alarm.Alarm, error) {
	return s.list(ctx, "SELECT "+alarmColumns+" FROM alarms ORDER BY id;")
}

// ListEnabled returns the alarms that should currently be armed.
func (s *Store) ListEnabled(ctx context.Context) ([]*alarm.Alarm, error) {
	return s.list(ctx, "SELECT "+alarmColumns+" FROM alarms WHERE enabled = 1 ORDER BY id;")
}

func (s *Store) list(ctx context.Context, query string) ([]*alarm.Alarm, error) {
	conn := s.pool.Get(ctx)
	if conn == nil {
		return nil, ctx.Err()
	}
	defer s.pool.Put(conn)

	var out []*alarm.Alarm

	err := sqlitex.Exec(conn, query, func(stmt *sqlite.Stmt) error {
		a, err := scanAlarm(stmt)
		if err != nil {
			return err
		}

		out = append(out, a)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}

	return out, nil
}

// SetEnabled flips the enabled flag of one alarm.
func (s *Store) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	conn := s.pool.Get(ctx)
	if conn == nil {
		return ctx.Err()
	}
	defer s.pool.Put(conn)

	err := sqlitex.Exec(conn,
		"UPDATE alarms SET enabled = ? WHERE id = ?;",
		nil, boolToInt(enabled), id)
	if err != nil {
		return fmt.Errorf("set alarm %d enabled=%t: %w", id, enabled, err)
	}

	if conn.Changes() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes one alarm.
func (s *Store) Delete(ctx context.Context, id int64) error {
	conn := s.pool.Get(ctx)
	if conn == nil {
		return ctx.Err()
	}
	defer s.pool.Put(conn)

	err := sqlitex.Exec(conn, "DELETE FROM alarms WHERE id = ?;", nil, id)
	if err != nil {
		return fmt.Errorf("delete alarm %d: %w", id, err)
	}

	if conn.Changes() == 0 {
		return ErrNotFound
	}

	return nil
}

// scanAlarm decodes one result row in alarmColumns order.
func scanAlarm(stmt *sqlite.Stmt) (*alarm.Alarm, error) {
	f := &alarm.Fields{
		ID:       stmt.ColumnInt64(0),
		Kind:     stmt.ColumnText(1),
		Title:    stmt.ColumnText(2),
		Body:     stmt.ColumnText(3),
		Enabled:  stmt.ColumnInt64(4) != 0,
		Language: stmt.ColumnText(9),
	}

	f.SingleAt = columnNullableInt64(stmt, 5)
	f.WeeklyMask = columnNullableInt64(stmt, 6)
	f.WeeklyHour = columnNullableInt64(stmt, 7)
	f.WeeklyMinute = columnNullableInt64(stmt, 8)

	return alarm.DecodeFields(f)
}

func columnNullableInt64(stmt *sqlite.Stmt, col int) *int64 {
	if stmt.ColumnType(col) == sqlite.SQLITE_NULL {
		return nil
	}

	v := stmt.ColumnInt64(col)

	return &v
}

// nullableArg converts a pointer column into an Exec argument, keeping
// NULL for absent values.
func nullableArg(v *int64) interface{} {
	if v == nil {
		return nil
	}

	return *v
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}

	return 0
}
