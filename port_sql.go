package kvstash

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type sqlPort struct {
	db         *sql.DB
	table      string
	driverName string
	prefix     string
	getStmt    *sql.Stmt
	upsertStmt *sql.Stmt
}

var sqlIdentPartRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func newSQLPort(cfg PortConfig) (Port, error) {
	if cfg.SQLDriverName == "" || cfg.SQLDSN == "" {
		return nil, errors.New("kvstash: sql driver requires driver name and dsn")
	}
	db, err := sql.Open(cfg.SQLDriverName, cfg.SQLDSN)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if err := validateSQLTableName(cfg.SQLTable); err != nil {
		return nil, err
	}
	p := &sqlPort{
		db:         db,
		table:      cfg.SQLTable,
		driverName: cfg.SQLDriverName,
		prefix:     cfg.Prefix,
	}
	if err := p.ensureSchema(); err != nil {
		return nil, err
	}
	if err := p.prepareStatements(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *sqlPort) Driver() Driver { return DriverSQL }

func (p *sqlPort) Ready(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return ErrPortUnavailable
	}
	return nil
}

func (p *sqlPort) ensureSchema() error {
	var stmt string
	switch p.driverName {
	case "postgres", "pgx":
		stmt = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			k TEXT PRIMARY KEY,
			v BYTEA NOT NULL
		);`, p.table)
	case "mysql":
		stmt = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			k VARBINARY(255) PRIMARY KEY,
			v LONGBLOB NOT NULL
		) ENGINE=InnoDB;`, p.table)
	default: // sqlite
		stmt = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			k TEXT PRIMARY KEY,
			v BLOB NOT NULL
		);`, p.table)
	}
	_, err := p.db.Exec(stmt)
	return err
}

func (p *sqlPort) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := p.getStmt.QueryRowContext(ctx, p.portKey(key)).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cloneBytes(v), true, nil
}

func (p *sqlPort) Put(ctx context.Context, key string, value []byte) error {
	_, err := p.upsertStmt.ExecContext(ctx, p.portKey(key), value, value)
	return err
}

// Increment serializes the read-modify-write in a transaction, taking a row
// lock on backends that support FOR UPDATE.
func (p *sqlPort) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	selectSQL := fmt.Sprintf("SELECT v FROM %s WHERE k = %s", p.table, p.ph(1))
	if p.driverName == "postgres" || p.driverName == "pgx" || p.driverName == "mysql" {
		selectSQL += " FOR UPDATE"
	}

	var v []byte
	err = tx.QueryRowContext(ctx, selectSQL, p.portKey(key)).Scan(&v)
	current := int64(0)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	if err == nil {
		current, err = strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("kvstash: key %q does not contain a numeric value", key)
		}
	}

	next := current + delta
	body := []byte(strconv.FormatInt(next, 10))
	upsertStmt := tx.StmtContext(ctx, p.upsertStmt)
	defer upsertStmt.Close()
	if _, err := upsertStmt.ExecContext(ctx, p.portKey(key), body, body); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return next, nil
}

func (p *sqlPort) portKey(key string) string {
	if p.prefix == "" {
		return key
	}
	return p.prefix + ":" + key
}

func (p *sqlPort) getSQL() string {
	return fmt.Sprintf("SELECT v FROM %s WHERE k = %s", p.table, p.ph(1))
}

func (p *sqlPort) upsertSQL() string {
	// Placeholders must be positional for postgres/pgx.
	p1, p2, p3 := p.ph(1), p.ph(2), p.ph(3)
	switch p.driverName {
	case "postgres", "pgx":
		return fmt.Sprintf("INSERT INTO %s (k, v) VALUES (%s, %s) ON CONFLICT (k) DO UPDATE SET v = %s", p.table, p1, p2, p3)
	case "mysql":
		return fmt.Sprintf("INSERT INTO %s (k, v) VALUES (%s, %s) ON DUPLICATE KEY UPDATE v = %s", p.table, p1, p2, p3)
	default: // sqlite
		return fmt.Sprintf("INSERT INTO %s (k, v) VALUES (%s, %s) ON CONFLICT(k) DO UPDATE SET v = %s", p.table, p1, p2, p3)
	}
}

func (p *sqlPort) prepareStatements() error {
	var err error
	if p.getStmt, err = p.db.Prepare(p.getSQL()); err != nil {
		return err
	}
	if p.upsertStmt, err = p.db.Prepare(p.upsertSQL()); err != nil {
		return err
	}
	return nil
}

func (p *sqlPort) ph(i int) string {
	if p.driverName == "postgres" || p.driverName == "pgx" {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

func validateSQLTableName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("kvstash: sql table name is required")
	}
	for _, part := range strings.Split(name, ".") {
		if !sqlIdentPartRE.MatchString(part) {
			return fmt.Errorf("kvstash: invalid sql table name %q", name)
		}
	}
	return nil
}
