package alarms

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrate applies the embedded schema scripts that are newer than the
// database's pragma user_version, inside a savepoint.
func migrate(conn *sqlite.Conn, fsys fs.FS) (err error) {
	release := sqlitex.Save(conn)
	defer release(&err)

	var oldVer int

	if err = sqlitex.ExecTransient(conn, "pragma user_version", func(stmt *sqlite.Stmt) error {
		oldVer = stmt.ColumnInt(0)

		return nil
	}); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	scripts, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migration scripts: %w", err)
	}

	currVer := len(scripts)
	if oldVer >= currVer {
		return nil
	}

	sort.Strings(scripts)

	for _, script := range scripts[oldVer:] {
		if err = runScript(conn, fsys, script); err != nil {
			return err
		}
	}

	if err = sqlitex.ExecTransient(conn, "pragma user_version="+strconv.Itoa(currVer), nil); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}

	return nil
}

// runScript executes every statement of one migration file in order.
func runScript(conn *sqlite.Conn, fsys fs.FS, script string) error {
	buf, err := fs.ReadFile(fsys, script)
	if err != nil {
		return fmt.Errorf("read %s: %w", script, err)
	}

	queries := string(buf)

	for i := 0; queries != ""; i++ {
		stmt, trailingBytes, err := conn.PrepareTransient(queries)
		if err != nil {
			return fmt.Errorf("prepare %s, stmt %d: %w", script, i, err)
		}

		usedBytes := len(queries) - trailingBytes
		queries = queries[usedBytes:]

		_, err = stmt.Step()
		stmt.Finalize()

		if err != nil {
			return fmt.Errorf("execute %s, stmt %d: %w", script, i, err)
		}

		queries = strings.TrimSpace(queries)
	}

	return nil
}
