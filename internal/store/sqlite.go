package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nexifit/nexifit/internal/domain"
	_ "modernc.org/sqlite"
)

// ErrUserExists is returned when adding a user that is already present.
var ErrUserExists = errors.New("user already exists")

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	if err := store.seedTips(); err != nil {
		return nil, fmt.Errorf("seed tips: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS authorized_users (
		addr TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		authorized INTEGER NOT NULL DEFAULT 1,
		date_added INTEGER NOT NULL,
		expires_at INTEGER,
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS admin_users (
		addr TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		date_added INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		addr TEXT NOT NULL,
		action TEXT NOT NULL,
		success INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS streaks (
		addr TEXT PRIMARY KEY,
		current_streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		last_workout_date INTEGER
	);

	CREATE TABLE IF NOT EXISTS workout_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		addr TEXT NOT NULL,
		minutes INTEGER NOT NULL DEFAULT 0,
		calories INTEGER NOT NULL DEFAULT 0,
		progress_percent REAL NOT NULL DEFAULT 0,
		goal TEXT NOT NULL DEFAULT '',
		completed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_workout_logs_addr_date ON workout_logs(addr, completed_at);

	CREATE TABLE IF NOT EXISTS tips (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tip_text TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'general',
		active INTEGER NOT NULL DEFAULT 1,
		date_added INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tip_preferences (
		addr TEXT PRIMARY KEY,
		receive_tips INTEGER NOT NULL DEFAULT 1,
		preferred_time TEXT NOT NULL DEFAULT '07:00',
		last_modified INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tip_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		addr TEXT NOT NULL,
		tip_id INTEGER NOT NULL,
		sent_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tip_history_addr_date ON tip_history(addr, sent_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// IsAuthorized reports whether addr is an active, unexpired user.
func (s *SQLiteStore) IsAuthorized(ctx context.Context, addr string) (bool, error) {
	query := `SELECT authorized, expires_at FROM authorized_users WHERE addr = ?`
	row := s.db.QueryRowContext(ctx, query, addr)

	var authorized int
	var expiresAt sql.NullInt64
	err := row.Scan(&authorized, &expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("scan authorized user: %w", err)
	}

	if authorized != 1 {
		return false, nil
	}
	if expiresAt.Valid && time.Now().After(time.Unix(expiresAt.Int64, 0)) {
		return false, nil
	}
	return true, nil
}

// IsAdmin reports whether addr has an admin record.
func (s *SQLiteStore) IsAdmin(ctx context.Context, addr string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT 1 FROM admin_users WHERE addr = ?`, addr)
	var one int
	err := row.Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("scan admin user: %w", err)
	}
	return true, nil
}

// LogAuthAttempt appends an audit row.
func (s *SQLiteStore) LogAuthAttempt(ctx context.Context, addr, action string, success bool) error {
	query := `INSERT INTO auth_logs (addr, action, success, created_at) VALUES (?, ?, ?, ?)`
	flag := 0
	if success {
		flag = 1
	}
	if _, err := s.db.ExecContext(ctx, query, addr, action, flag, time.Now().Unix()); err != nil {
		return fmt.Errorf("insert auth log: %w", err)
	}
	return nil
}

// AddUser authorizes a new user.
func (s *SQLiteStore) AddUser(ctx context.Context, addr, name string, expiryDays int) error {
	var expiresAt interface{}
	if expiryDays > 0 {
		expiresAt = time.Now().AddDate(0, 0, expiryDays).Unix()
	}

	query := `INSERT INTO authorized_users (addr, name, authorized, date_added, expires_at) VALUES (?, ?, 1, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, addr, name, time.Now().Unix(), expiresAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// RemoveUser deactivates a user.
func (s *SQLiteStore) RemoveUser(ctx context.Context, addr string) (bool, error) {
	return s.setAuthorized(ctx, addr, 0)
}

// ReactivateUser re-enables a deactivated user.
func (s *SQLiteStore) ReactivateUser(ctx context.Context, addr string) (bool, error) {
	return s.setAuthorized(ctx, addr, 1)
}

func (s *SQLiteStore) setAuthorized(ctx context.Context, addr string, flag int) (bool, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE authorized_users SET authorized = ? WHERE addr = ?`, flag, addr)
	if err != nil {
		return false, fmt.Errorf("update authorized flag: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// GetUser retrieves a user record, or nil if not found.
func (s *SQLiteStore) GetUser(ctx context.Context, addr string) (*domain.User, error) {
	query := `SELECT addr, name, authorized, date_added, expires_at, notes FROM authorized_users WHERE addr = ?`
	row := s.db.QueryRowContext(ctx, query, addr)

	user, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	return user, nil
}

// ListUsers returns all users, most recently added first.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT addr, name, authorized, date_added, expires_at, notes FROM authorized_users ORDER BY date_added DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func scanUser(scan func(dest ...any) error) (*domain.User, error) {
	var user domain.User
	var authorized int
	var dateAdded int64
	var expiresAt sql.NullInt64

	if err := scan(&user.Addr, &user.Name, &authorized, &dateAdded, &expiresAt, &user.Notes); err != nil {
		return nil, err
	}

	user.Authorized = authorized == 1
	user.DateAdded = time.Unix(dateAdded, 0)
	if expiresAt.Valid {
		t := time.Unix(expiresAt.Int64, 0)
		user.ExpiresAt = &t
	}
	return &user, nil
}

// AuthorizedAddrs returns the addresses of all active users.
func (s *SQLiteStore) AuthorizedAddrs(ctx context.Context) ([]string, error) {
	now := time.Now().Unix()
	query := `SELECT addr FROM authorized_users WHERE authorized = 1 AND (expires_at IS NULL OR expires_at >= ?)`
	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("query authorized addrs: %w", err)
	}
	defer rows.Close()

	var addrs []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scan addr: %w", err)
		}
		addrs = append(addrs, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate addrs: %w", err)
	}
	return addrs, nil
}

// CleanExpiredUsers deactivates users whose expiry date has passed.
func (s *SQLiteStore) CleanExpiredUsers(ctx context.Context) (int64, error) {
	query := `UPDATE authorized_users SET authorized = 0 WHERE expires_at IS NOT NULL AND expires_at < ? AND authorized = 1`
	result, err := s.db.ExecContext(ctx, query, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("clean expired users: %w", err)
	}
	return result.RowsAffected()
}

// GetStreak retrieves a user's streak record, or nil if none exists.
func (s *SQLiteStore) GetStreak(ctx context.Context, addr string) (*domain.StreakRecord, error) {
	query := `SELECT addr, current_streak, longest_streak, last_workout_date FROM streaks WHERE addr = ?`
	row := s.db.QueryRowContext(ctx, query, addr)

	var rec domain.StreakRecord
	var lastWorkout sql.NullInt64
	err := row.Scan(&rec.Addr, &rec.Current, &rec.Longest, &lastWorkout)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan streak row: %w", err)
	}
	if lastWorkout.Valid {
		t := time.Unix(lastWorkout.Int64, 0)
		rec.LastWorkoutDate = &t
	}
	return &rec, nil
}

// PutStreak creates or replaces a user's streak record.
func (s *SQLiteStore) PutStreak(ctx context.Context, rec *domain.StreakRecord) error {
	var lastWorkout interface{}
	if rec.LastWorkoutDate != nil {
		lastWorkout = rec.LastWorkoutDate.Unix()
	}

	query := `
	INSERT INTO streaks (addr, current_streak, longest_streak, last_workout_date)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(addr) DO UPDATE SET
		current_streak = excluded.current_streak,
		longest_streak = excluded.longest_streak,
		last_workout_date = excluded.last_workout_date`

	if _, err := s.db.ExecContext(ctx, query, rec.Addr, rec.Current, rec.Longest, lastWorkout); err != nil {
		return fmt.Errorf("upsert streak: %w", err)
	}
	return nil
}

// AppendWorkoutLog records one completed workout.
func (s *SQLiteStore) AppendWorkoutLog(ctx context.Context, entry *domain.WorkoutLog) error {
	query := `
	INSERT INTO workout_logs (addr, minutes, calories, progress_percent, goal, completed_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		entry.Addr, entry.Minutes, entry.Calories,
		entry.ProgressPercent, entry.Goal, entry.CompletedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert workout log: %w", err)
	}
	return nil
}

// WeeklySummary aggregates workouts since the given time.
func (s *SQLiteStore) WeeklySummary(ctx context.Context, addr string, since time.Time) (*domain.WeeklySummary, error) {
	query := `
	SELECT COUNT(*), COALESCE(SUM(minutes), 0), COALESCE(SUM(calories), 0), COALESCE(AVG(progress_percent), 0)
	FROM workout_logs WHERE addr = ? AND completed_at >= ?`

	var summary domain.WeeklySummary
	row := s.db.QueryRowContext(ctx, query, addr, since.Unix())
	if err := row.Scan(&summary.Workouts, &summary.Minutes, &summary.Calories, &summary.AvgProgress); err != nil {
		return nil, fmt.Errorf("scan weekly aggregate: %w", err)
	}
	if summary.Workouts == 0 {
		return nil, nil
	}

	goalQuery := `SELECT goal FROM workout_logs WHERE addr = ? AND completed_at >= ? ORDER BY completed_at DESC LIMIT 1`
	if err := s.db.QueryRowContext(ctx, goalQuery, addr, since.Unix()).Scan(&summary.LastGoal); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("scan last goal: %w", err)
	}
	return &summary, nil
}

// ActiveTips returns all active tips.
func (s *SQLiteStore) ActiveTips(ctx context.Context) ([]domain.Tip, error) {
	query := `SELECT id, tip_text, category, active FROM tips WHERE active = 1 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active tips: %w", err)
	}
	defer rows.Close()

	var tips []domain.Tip
	for rows.Next() {
		var tip domain.Tip
		var active int
		if err := rows.Scan(&tip.ID, &tip.Text, &tip.Category, &active); err != nil {
			return nil, fmt.Errorf("scan tip row: %w", err)
		}
		tip.Active = active == 1
		tips = append(tips, tip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tips: %w", err)
	}
	return tips, nil
}

// RecentTipIDs returns IDs of tips sent to addr since the given time.
func (s *SQLiteStore) RecentTipIDs(ctx context.Context, addr string, since time.Time) ([]int64, error) {
	query := `SELECT DISTINCT tip_id FROM tip_history WHERE addr = ? AND sent_at >= ?`
	rows, err := s.db.QueryContext(ctx, query, addr, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("query recent tip ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tip id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tip ids: %w", err)
	}
	return ids, nil
}

// AppendTipHistory records that a tip was sent to addr.
func (s *SQLiteStore) AppendTipHistory(ctx context.Context, addr string, tipID int64, sentAt time.Time) error {
	query := `INSERT INTO tip_history (addr, tip_id, sent_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, addr, tipID, sentAt.Unix()); err != nil {
		return fmt.Errorf("insert tip history: %w", err)
	}
	return nil
}

// AddTip inserts a new active tip.
func (s *SQLiteStore) AddTip(ctx context.Context, text, category string) (int64, error) {
	query := `INSERT INTO tips (tip_text, category, active, date_added) VALUES (?, ?, 1, ?)`
	result, err := s.db.ExecContext(ctx, query, text, category, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("insert tip: %w", err)
	}
	return result.LastInsertId()
}

// DeactivateTip retires a tip.
func (s *SQLiteStore) DeactivateTip(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE tips SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deactivate tip: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// TipPreference returns the daily-tip preference for addr.
func (s *SQLiteStore) TipPreference(ctx context.Context, addr string) (*domain.TipPreference, error) {
	query := `SELECT addr, receive_tips, preferred_time FROM tip_preferences WHERE addr = ?`
	row := s.db.QueryRowContext(ctx, query, addr)

	var pref domain.TipPreference
	var receive int
	err := row.Scan(&pref.Addr, &receive, &pref.PreferredTime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan tip preference: %w", err)
	}
	pref.ReceiveTips = receive == 1
	return &pref, nil
}

// SetTipPreference creates or updates the daily-tip opt-in for addr.
func (s *SQLiteStore) SetTipPreference(ctx context.Context, addr string, receive bool) error {
	flag := 0
	if receive {
		flag = 1
	}
	query := `
	INSERT INTO tip_preferences (addr, receive_tips, last_modified)
	VALUES (?, ?, ?)
	ON CONFLICT(addr) DO UPDATE SET
		receive_tips = excluded.receive_tips,
		last_modified = excluded.last_modified`

	if _, err := s.db.ExecContext(ctx, query, addr, flag, time.Now().Unix()); err != nil {
		return fmt.Errorf("upsert tip preference: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
