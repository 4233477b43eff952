package migration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"talent-match/internal/database"

	"go.uber.org/zap"
)

// lockKey guards schema changes of the matching tables. It is taken per
// transaction so that it never outlives the pooled connection holding it.
const lockKey int64 = 746295115

var ErrChecksumMismatch = errors.New("migration checksum mismatch")

// Runner brings the engine schema up to date from V<n>__<name>.sql files.
//
// Every pending file runs in its own transaction behind a transaction-scoped
// advisory lock. The applied check is repeated under the lock, so replicas
// that boot together apply each file exactly once. A file whose text changed
// after it was applied stops the run with ErrChecksumMismatch.
type Runner struct {
	Dir    string
	Logger *zap.Logger
}

type Migration struct {
	Version  int64
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// Run applies pending migrations in version order and reports how many ran.
func (r Runner) Run(ctx context.Context, db database.DB) (int, error) {
	if db == nil {
		return 0, errors.New("nil db")
	}

	dir, err := resolveDir(r.Dir)
	if err != nil {
		return 0, err
	}
	migs, err := Load(os.DirFS(dir))
	if err != nil {
		return 0, fmt.Errorf("load migrations from %s: %w", dir, err)
	}
	log := r.logger().With(zap.String("dir", dir))
	if len(migs) == 0 {
		log.Warn("no migrations found")
		return 0, nil
	}

	if _, err := db.Exec(ctx, schemaMigrationsDDL); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := 0
	for _, m := range migs {
		ran, err := apply(ctx, db, m)
		if err != nil {
			return applied, err
		}
		if ran {
			applied++
			log.Info("migration applied", zap.Int64("version", m.Version), zap.String("name", m.Name))
		}
	}
	log.Debug("schema up to date", zap.Int("applied", applied), zap.Int("known", len(migs)))
	return applied, nil
}

func (r Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

const schemaMigrationsDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

var fileRe = regexp.MustCompile(`^V(\d+)__([A-Za-z0-9_.-]+)\.sql$`)

func resolveDir(dir string) (string, error) {
	if strings.TrimSpace(dir) != "" {
		return dir, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	candidate := filepath.Join(filepath.Dir(exe), "migrations")
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "migrations", nil
}

// Load reads migration files from the root of fsys. Other files are ignored
// and a missing root yields no migrations.
func Load(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	migs := make([]Migration, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		match := fileRe.FindStringSubmatch(e.Name())
		if match == nil {
			continue
		}
		m, err := readMigration(fsys, e.Name(), match[1], match[2])
		if err != nil {
			return nil, err
		}
		migs = append(migs, m)
	}

	sort.Slice(migs, func(i, j int) bool { return migs[i].Version < migs[j].Version })
	for i := 1; i < len(migs); i++ {
		if migs[i].Version == migs[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d: %s and %s", migs[i].Version, migs[i-1].Filename, migs[i].Filename)
		}
	}
	return migs, nil
}

func readMigration(fsys fs.FS, filename, version, name string) (Migration, error) {
	v, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return Migration{}, fmt.Errorf("invalid migration version: %s", filename)
	}
	b, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return Migration{}, err
	}
	text := strings.TrimSpace(string(b))
	if text == "" {
		return Migration{}, fmt.Errorf("empty migration file: %s", filename)
	}
	sum := sha256.Sum256([]byte(text))
	return Migration{
		Version:  v,
		Name:     name,
		Filename: filename,
		SQL:      text,
		Checksum: hex.EncodeToString(sum[:]),
	}, nil
}

// apply runs m unless it is already recorded. It reports whether m ran.
func apply(ctx context.Context, db database.DB, m Migration) (bool, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKey); err != nil {
		return false, fmt.Errorf("migration lock: %w", err)
	}

	checksum, found, err := appliedChecksum(ctx, tx, m.Version)
	if err != nil {
		return false, err
	}
	if found {
		if checksum != m.Checksum {
			return false, fmt.Errorf("%w: version=%d file=%s", ErrChecksumMismatch, m.Version, m.Filename)
		}
		return false, nil
	}

	if _, err := tx.Exec(ctx, m.SQL); err != nil {
		return false, fmt.Errorf("apply migration failed: version=%d file=%s: %w", m.Version, m.Filename, err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO schema_migrations (version, name, checksum) VALUES ($1, $2, $3)`,
		m.Version, m.Name, m.Checksum,
	); err != nil {
		return false, fmt.Errorf("record migration %d: %w", m.Version, err)
	}
	return true, tx.Commit(ctx)
}

func appliedChecksum(ctx context.Context, q database.Querier, version int64) (string, bool, error) {
	rows, err := q.Query(ctx, `SELECT checksum FROM schema_migrations WHERE version = $1`, version)
	if err != nil {
		return "", false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return "", false, rows.Err()
	}
	var checksum string
	if err := rows.Scan(&checksum); err != nil {
		return "", false, err
	}
	return checksum, true, rows.Err()
}
