// Package journal keeps an sqlite record of every control cycle: one row per
// session and one row per decision. It is written from the control loop via
// vehicle.Recorder and read back by the CLI and the admin SQL routes.
package journal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/sukyun02/2026-autonomous-driving/internal/control"
	"github.com/sukyun02/2026-autonomous-driving/internal/vehicle"
)

// ErrUnknownSession is returned by Recent when no session row exists.
var ErrUnknownSession = errors.New("journal: unknown session")

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
}

type Journal struct {
	*sql.DB
	path string
}

// Open opens (creating if needed) the journal at path and applies pending
// migrations.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; readers go through WAL.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", p, err)
		}
	}

	j := &Journal{DB: db, path: path}
	if err := j.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	diagf("opened %s", path)
	return j, nil
}

// Path returns the file the journal was opened from.
func (j *Journal) Path() string { return j.path }

// Session is one row of the sessions table.
type Session struct {
	ID        string          `json:"session_id"`
	StartedAt time.Time       `json:"started_at"`
	Config    json.RawMessage `json:"config"`
	Decisions int64           `json:"decisions"`
}

// StartSession inserts a session row. An empty id gets a fresh uuid. cfg is
// stored as JSON for later inspection and may be nil.
func (j *Journal) StartSession(id string, startedAt time.Time, cfg any) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	raw := []byte("{}")
	if cfg != nil {
		b, err := json.Marshal(cfg)
		if err != nil {
			return "", fmt.Errorf("encode session config: %w", err)
		}
		raw = b
	}
	_, err := j.Exec(
		`INSERT INTO sessions (session_id, started_unix_nanos, config_json) VALUES (?, ?, ?)`,
		id, startedAt.UnixNano(), string(raw),
	)
	if err != nil {
		return "", fmt.Errorf("insert session %s: %w", id, err)
	}
	diagf("session %s started", id)
	return id, nil
}

// Record appends one decision row. It satisfies vehicle.Recorder.
func (j *Journal) Record(st vehicle.Status) error {
	_, err := j.Exec(`
		INSERT INTO decisions (
			session_id, frame, lane, light,
			scanner_present, scanner_nearest_mm,
			ultrasonic_present, ultrasonic_nearest_cm, ultrasonic_sensor,
			command, rule, transmitted, reason, created_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.SessionID, st.Cycle, st.Lane.String(), st.Light.String(),
		st.Scanner.Present, st.Scanner.Nearest,
		st.Ultrasonic.Present, st.Ultrasonic.Nearest, st.Ultrasonic.Sensor,
		string([]byte{byte(st.Command)}), int(st.Rule), st.Transmitted, st.Reason,
		st.At.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert decision %s/%d: %w", st.SessionID, st.Cycle, err)
	}
	tracef("%s/%d %c transmitted=%v", st.SessionID, st.Cycle, byte(st.Command), st.Transmitted)
	return nil
}

var _ vehicle.Recorder = (*Journal)(nil)

// Entry is one row of the decisions table.
type Entry struct {
	SessionID         string          `json:"session_id"`
	Frame             int64           `json:"frame"`
	Lane              string          `json:"lane"`
	Light             string          `json:"light"`
	ScannerPresent    bool            `json:"scanner_present"`
	ScannerNearestMM  int             `json:"scanner_nearest_mm"`
	UltrasonicPresent bool            `json:"ultrasonic_present"`
	UltrasonicNearest int             `json:"ultrasonic_nearest_cm"`
	UltrasonicSensor  string          `json:"ultrasonic_sensor,omitempty"`
	Command           control.Command `json:"command"`
	Rule              control.Rule    `json:"rule"`
	Transmitted       bool            `json:"transmitted"`
	Reason            string          `json:"reason"`
	At                time.Time       `json:"at"`
}

func (e Entry) String() string {
	sent := " "
	if e.Transmitted {
		sent = "*"
	}
	return fmt.Sprintf("%6d %c%s lane=%-7s light=%-6s %s",
		e.Frame, byte(e.Command), sent, e.Lane, e.Light, e.Reason)
}

// Recent returns the last n decisions of a session, oldest first. n <= 0
// returns every row.
func (j *Journal) Recent(sessionID string, n int) ([]Entry, error) {
	var exists int
	err := j.QueryRow(`SELECT COUNT(*) FROM sessions WHERE session_id = ?`, sessionID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}

	limit := n
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.Query(`
		SELECT session_id, frame, lane, light,
			scanner_present, scanner_nearest_mm,
			ultrasonic_present, ultrasonic_nearest_cm, ultrasonic_sensor,
			command, rule, transmitted, reason, created_unix_nanos
		FROM decisions
		WHERE session_id = ?
		ORDER BY frame DESC, decision_id DESC
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			command string
			rule    int
			nanos   int64
		)
		if err := rows.Scan(
			&e.SessionID, &e.Frame, &e.Lane, &e.Light,
			&e.ScannerPresent, &e.ScannerNearestMM,
			&e.UltrasonicPresent, &e.UltrasonicNearest, &e.UltrasonicSensor,
			&command, &rule, &e.Transmitted, &e.Reason, &nanos,
		); err != nil {
			return nil, err
		}
		if len(command) == 1 {
			e.Command = control.Command(command[0])
		}
		e.Rule = control.Rule(rule)
		e.At = time.Unix(0, nanos).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Rows came back newest first.
	for i, k := 0, len(out)-1; i < k; i, k = i+1, k-1 {
		out[i], out[k] = out[k], out[i]
	}
	return out, nil
}

// Sessions lists the most recent n sessions, newest first, with their
// decision counts. n <= 0 lists all of them.
func (j *Journal) Sessions(n int) ([]Session, error) {
	limit := n
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.Query(`
		SELECT s.session_id, s.started_unix_nanos, s.config_json,
			(SELECT COUNT(*) FROM decisions d WHERE d.session_id = s.session_id)
		FROM sessions s
		ORDER BY s.started_unix_nanos DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			s     Session
			nanos int64
			cfg   string
		)
		if err := rows.Scan(&s.ID, &nanos, &cfg, &s.Decisions); err != nil {
			return nil, err
		}
		s.StartedAt = time.Unix(0, nanos).UTC()
		s.Config = json.RawMessage(cfg)
		out = append(out, s)
	}
	return out, rows.Err()
}
