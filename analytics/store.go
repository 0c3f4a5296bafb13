package analytics

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// tsLayout is how timestamps are stored. Fixed-width UTC text keeps range
// comparisons lexicographic and lets strftime bucket them.
const tsLayout = "2006-01-02 15:04:05"

func formatTS(t time.Time) string { return t.UTC().Format(tsLayout) }

// Store persists visits, bot visits and settings in SQLite.
type Store struct {
	db *sql.DB

	salt struct {
		once  sync.Once
		value string
		err   error
	}
}

// NewStore opens (creating if needed) the analytics database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			visitor_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			browser TEXT NOT NULL,
			os TEXT NOT NULL,
			device TEXT NOT NULL,
			path TEXT NOT NULL,
			referrer TEXT,
			screen_size TEXT,
			timestamp TEXT NOT NULL,
			duration_sec INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS bot_visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bot_name TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			user_agent TEXT NOT NULL,
			path TEXT NOT NULL,
			timestamp TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_visits_timestamp ON visits(timestamp);
		CREATE INDEX IF NOT EXISTS idx_visits_visitor_path ON visits(visitor_id, path);
		CREATE INDEX IF NOT EXISTS idx_bot_visits_timestamp ON bot_visits(timestamp);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// currentSchemaVersion is the latest schema version. Increment when adding migrations.
const currentSchemaVersion = 1

func (s *Store) migrate(ctx context.Context) error {
	verStr, err := s.GetSetting(ctx, "schema_version")
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	version := 0
	if verStr != "" {
		if version, err = strconv.Atoi(verStr); err != nil {
			return fmt.Errorf("parse schema version %q: %w", verStr, err)
		}
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported %d", version, currentSchemaVersion)
	}
	return s.SetSetting(ctx, "schema_version", strconv.Itoa(currentSchemaVersion))
}

// GetSetting returns the value stored under key, or "" when absent.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var val string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return val, err
}

// SetSetting upserts a setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Salt returns the installation's IP hashing salt, generating and
// persisting it on first use. The result is loaded once per Store.
func (s *Store) Salt(ctx context.Context) (string, error) {
	s.salt.once.Do(func() {
		v, err := s.GetSetting(ctx, "hash_salt")
		if err != nil {
			s.salt.err = fmt.Errorf("read hash salt: %w", err)
			return
		}
		if v == "" {
			b := make([]byte, 32)
			if _, err := rand.Read(b); err != nil {
				s.salt.err = fmt.Errorf("generate salt: %w", err)
				return
			}
			v = hex.EncodeToString(b)
			if err := s.SetSetting(ctx, "hash_salt", v); err != nil {
				s.salt.err = fmt.Errorf("store hash salt: %w", err)
				return
			}
		}
		s.salt.value = v
	})
	return s.salt.value, s.salt.err
}

// SaveVisit inserts a page view.
func (s *Store) SaveVisit(ctx context.Context, v *Visit) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO visits (visitor_id, session_id, ip_hash, browser, os, device,
			path, referrer, screen_size, timestamp, duration_sec)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.VisitorID, v.SessionID, v.IPHash, v.Browser, v.OS, v.Device,
		v.Path, v.Referrer, v.ScreenSize, formatTS(v.Timestamp), v.DurationSec)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	v.ID, _ = res.LastInsertId()
	return nil
}

// UpdateVisitDuration sets the duration of the visitor's latest view of path.
func (s *Store) UpdateVisitDuration(ctx context.Context, visitorID, path string, durationSec int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE visits SET duration_sec = ?
		WHERE id = (
			SELECT id FROM visits WHERE visitor_id = ? AND path = ?
			ORDER BY timestamp DESC, id DESC LIMIT 1
		)`, durationSec, visitorID, path)
	if err != nil {
		return fmt.Errorf("update visit duration: %w", err)
	}
	return nil
}

// SaveBotVisit inserts a crawler page view.
func (s *Store) SaveBotVisit(ctx context.Context, bv *BotVisit) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO bot_visits (bot_name, ip_hash, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		bv.BotName, bv.IPHash, bv.UserAgent, bv.Path, formatTS(bv.Timestamp))
	if err != nil {
		return fmt.Errorf("insert bot visit: %w", err)
	}
	bv.ID, _ = res.LastInsertId()
	return nil
}

// Granularity selects how the time series in Stats is bucketed.
type Granularity int

const (
	Daily Granularity = iota
	Hourly
	Monthly
)

func (g Granularity) strftime() string {
	switch g {
	case Hourly:
		return "%H:00"
	case Monthly:
		return "%Y-%m"
	default:
		return "%Y-%m-%d"
	}
}

const topLimit = 10

func periodLabel(from, to time.Time) string {
	return from.Format("2006-01-02") + " to " + to.Format("2006-01-02")
}

// GetStats aggregates visits in [from, to). The queries run concurrently.
func (s *Store) GetStats(ctx context.Context, from, to time.Time, g Granularity) (*Stats, error) {
	stats := &Stats{Period: periodLabel(from, to)}
	f, t := formatTS(from), formatTS(to)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", name, err)
				}
				mu.Unlock()
			}
		}()
	}

	run("count views", func() error {
		return s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visits WHERE timestamp >= ? AND timestamp < ?`,
			f, t).Scan(&stats.TotalViews)
	})
	run("count unique visitors", func() error {
		return s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT visitor_id) FROM visits WHERE timestamp >= ? AND timestamp < ?`,
			f, t).Scan(&stats.UniqueVisitors)
	})
	run("avg duration", func() error {
		var avg sql.NullFloat64
		err := s.db.QueryRowContext(ctx, `SELECT AVG(duration_sec) FROM visits
			WHERE timestamp >= ? AND timestamp < ? AND duration_sec > 0`, f, t).Scan(&avg)
		if avg.Valid {
			stats.AvgDuration = int(avg.Float64)
		}
		return err
	})
	run("top pages", func() (err error) {
		stats.TopPages, err = s.pageStats(ctx, "visits", f, t)
		return err
	})
	run("latest pages", func() (err error) {
		stats.LatestPages, err = s.latestPages(ctx, f, t)
		return err
	})
	run("browser stats", func() (err error) {
		stats.BrowserStats, err = s.dimension(ctx, "visits", "browser", f, t)
		return err
	})
	run("os stats", func() (err error) {
		stats.OSStats, err = s.dimension(ctx, "visits", "os", f, t)
		return err
	})
	run("device stats", func() (err error) {
		stats.DeviceStats, err = s.dimension(ctx, "visits", "device", f, t)
		return err
	})
	run("referrer stats", func() (err error) {
		stats.ReferrerStats, err = s.dimension(ctx, "visits", "referrer", f, t)
		return err
	})
	run("views series", func() (err error) {
		stats.DailyViews, err = s.series(ctx, "visits", g, f, t)
		return err
	})
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return stats, nil
}

// GetBotStats aggregates crawler visits in [from, to).
func (s *Store) GetBotStats(ctx context.Context, from, to time.Time, g Granularity) (*BotStats, error) {
	stats := &BotStats{Period: periodLabel(from, to)}
	f, t := formatTS(from), formatTS(to)

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bot_visits WHERE timestamp >= ? AND timestamp < ?`,
		f, t).Scan(&stats.TotalVisits)
	if err != nil {
		return nil, fmt.Errorf("count bot visits: %w", err)
	}
	if stats.TopBots, err = s.dimension(ctx, "bot_visits", "bot_name", f, t); err != nil {
		return nil, fmt.Errorf("top bots: %w", err)
	}
	if stats.TopPages, err = s.pageStats(ctx, "bot_visits", f, t); err != nil {
		return nil, fmt.Errorf("top bot pages: %w", err)
	}
	if stats.DailyVisits, err = s.series(ctx, "bot_visits", g, f, t); err != nil {
		return nil, fmt.Errorf("bot views: %w", err)
	}
	return stats, nil
}

// table and column are package constants, never request input.
func (s *Store) dimension(ctx context.Context, table, column, from, to string) ([]DimensionStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(`+column+`, ''), COUNT(*) AS n FROM `+table+`
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY 1 ORDER BY n DESC, 1 LIMIT ?`, from, to, topLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DimensionStat{}
	for rows.Next() {
		var d DimensionStat
		if err := rows.Scan(&d.Name, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) pageStats(ctx context.Context, table, from, to string) ([]PageStat, error) {
	dims, err := s.dimension(ctx, table, "path", from, to)
	if err != nil {
		return nil, err
	}
	out := make([]PageStat, len(dims))
	for i, d := range dims {
		out[i] = PageStat{Path: d.Name, Views: d.Count}
	}
	return out, nil
}

func (s *Store) latestPages(ctx context.Context, from, to string) ([]LatestPageVisit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, timestamp, browser FROM visits
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp DESC, id DESC LIMIT ?`, from, to, topLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LatestPageVisit{}
	for rows.Next() {
		var v LatestPageVisit
		if err := rows.Scan(&v.Path, &v.Timestamp, &v.Browser); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) series(ctx context.Context, table string, g Granularity, from, to string) ([]DailyView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT strftime(?, timestamp) AS bucket, COUNT(*) FROM `+table+`
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY bucket ORDER BY MIN(timestamp)`, g.strftime(), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DailyView{}
	for rows.Next() {
		var v DailyView
		if err := rows.Scan(&v.Date, &v.Views); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetRealtimeVisitors counts distinct visitors seen since the given instant.
func (s *Store) GetRealtimeVisitors(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT visitor_id) FROM visits WHERE timestamp >= ?`,
		formatTS(since)).Scan(&n)
	return n, err
}

// CleanupOldVisits deletes visits and bot visits older than cutoff and
// returns the number of rows removed.
func (s *Store) CleanupOldVisits(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"visits", "bot_visits"} {
		res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE timestamp < ?`, formatTS(cutoff))
		if err != nil {
			return total, fmt.Errorf("cleanup %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}
