package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists profiles in a SQLite database.
type SQLiteStore struct {
	conn *sqlx.DB
}

type profileRow struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	Game       string `db:"game"`
	Rule       string `db:"rule"`
	RangeStart int64  `db:"range_start"`
	RangeEnd   int64  `db:"range_end"`
	Current    int64  `db:"current"`
	Found      int64  `db:"found"`
	CreatedAt  int64  `db:"created_at"`
	UpdatedAt  int64  `db:"updated_at"`
}

type matchRow struct {
	ProfileID string `db:"profile_id"`
	Seed      int64  `db:"seed"`
	Indexes   string `db:"indexes"`
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Writes come from many scan workers; one connection keeps SQLite from
	// returning SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		game TEXT NOT NULL,
		rule TEXT NOT NULL,
		range_start INTEGER NOT NULL,
		range_end INTEGER NOT NULL,
		current INTEGER NOT NULL,
		found INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS matches (
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		seed INTEGER NOT NULL,
		indexes TEXT NOT NULL,
		PRIMARY KEY (profile_id, seed)
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateProfile(ctx context.Context, p Profile) (Profile, error) {
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	p.Current = int64(p.RangeStart)
	p.Found = 0
	p.CreatedAt, p.UpdatedAt = now, now

	row, err := toRow(p)
	if err != nil {
		return Profile{}, err
	}
	_, err = s.conn.NamedExecContext(ctx, `INSERT INTO profiles
		(id, name, game, rule, range_start, range_end, current, found, created_at, updated_at)
		VALUES (:id, :name, :game, :rule, :range_start, :range_end, :current, :found, :created_at, :updated_at)`, row)
	if err != nil {
		return Profile{}, fmt.Errorf("insert profile: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (Profile, error) {
	var row profileRow
	err := s.conn.GetContext(ctx, &row, "SELECT * FROM profiles WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return fromRow(row)
}

func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]Profile, error) {
	var rows []profileRow
	if err := s.conn.SelectContext(ctx, &rows, "SELECT * FROM profiles ORDER BY created_at, id"); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	out := make([]Profile, 0, len(rows))
	for _, row := range rows {
		p, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *SQLiteStore) UpdateProgress(ctx context.Context, id string, current int64) error {
	res, err := s.conn.ExecContext(ctx,
		"UPDATE profiles SET current = MAX(current, ?), updated_at = ? WHERE id = ?",
		current, time.Now().UTC().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) AddMatch(ctx context.Context, id string, seed int32, indexes []int) error {
	data, err := json.Marshal(indexes)
	if err != nil {
		return fmt.Errorf("encode indexes: %w", err)
	}

	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.GetContext(ctx, &exists, "SELECT COUNT(*) FROM profiles WHERE id = ?", id); err != nil {
		return fmt.Errorf("add match: %w", err)
	}
	if exists == 0 {
		return ErrProfileNotFound
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO matches (profile_id, seed, indexes) VALUES (?, ?, ?)",
		id, seed, string(data)); err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE profiles SET found = (SELECT COUNT(*) FROM matches WHERE profile_id = ?), updated_at = ? WHERE id = ?",
		id, time.Now().UTC().UnixMilli(), id); err != nil {
		return fmt.Errorf("update found: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListMatches(ctx context.Context, id string) ([]Match, error) {
	if _, err := s.GetProfile(ctx, id); err != nil {
		return nil, err
	}
	var rows []matchRow
	if err := s.conn.SelectContext(ctx, &rows,
		"SELECT profile_id, seed, indexes FROM matches WHERE profile_id = ? ORDER BY seed", id); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	out := make([]Match, 0, len(rows))
	for _, row := range rows {
		m := Match{ProfileID: row.ProfileID, Seed: int32(row.Seed)}
		if err := json.Unmarshal([]byte(row.Indexes), &m.Indexes); err != nil {
			return nil, fmt.Errorf("decode match %d: %w", row.Seed, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *SQLiteStore) DeleteProfile(ctx context.Context, id string) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM matches WHERE profile_id = ?", id); err != nil {
		return fmt.Errorf("delete matches: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func toRow(p Profile) (profileRow, error) {
	game, err := json.Marshal(p.Game)
	if err != nil {
		return profileRow{}, fmt.Errorf("encode game: %w", err)
	}
	rule, err := json.Marshal(p.Rule)
	if err != nil {
		return profileRow{}, fmt.Errorf("encode rule: %w", err)
	}
	return profileRow{
		ID:         p.ID,
		Name:       p.Name,
		Game:       string(game),
		Rule:       string(rule),
		RangeStart: int64(p.RangeStart),
		RangeEnd:   int64(p.RangeEnd),
		Current:    p.Current,
		Found:      p.Found,
		CreatedAt:  p.CreatedAt.UnixMilli(),
		UpdatedAt:  p.UpdatedAt.UnixMilli(),
	}, nil
}

func fromRow(row profileRow) (Profile, error) {
	p := Profile{
		ID:         row.ID,
		Name:       row.Name,
		RangeStart: int32(row.RangeStart),
		RangeEnd:   int32(row.RangeEnd),
		Current:    row.Current,
		Found:      row.Found,
		CreatedAt:  time.UnixMilli(row.CreatedAt).UTC(),
		UpdatedAt:  time.UnixMilli(row.UpdatedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(row.Game), &p.Game); err != nil {
		return Profile{}, fmt.Errorf("decode game of %s: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.Rule), &p.Rule); err != nil {
		return Profile{}, fmt.Errorf("decode rule of %s: %w", row.ID, err)
	}
	return p, nil
}
