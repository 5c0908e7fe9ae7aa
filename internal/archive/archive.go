package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Archive persists completed turns so an interview transcript survives
// the process. It is supporting storage only: live state stays in
// memory and nothing in the answer flow reads back from here.
type Archive struct {
	db *sql.DB
}

// Turn is one archived question/answer pair.
type Turn struct {
	ID        int64     `json:"id"`
	RoomID    string    `json:"room_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Cached    bool      `json:"cached"`
	CreatedAt time.Time `json:"created_at"`
}

// Open creates or opens the archive database at path.
func Open(path string) (*Archive, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &Archive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return a, nil
}

// Close releases the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS turns (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		room_id    TEXT NOT NULL,
		question   TEXT NOT NULL,
		answer     TEXT NOT NULL,
		cached     INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_turns_room ON turns(room_id);
	`
	_, err := a.db.Exec(schema)
	return err
}

// RecordTurn appends one completed turn for a room.
func (a *Archive) RecordTurn(ctx context.Context, roomID, question, answer string, cached bool) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO turns (room_id, question, answer, cached, created_at) VALUES (?, ?, ?, ?, ?)`,
		roomID, question, answer, cached, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record turn: %w", err)
	}
	return nil
}

// Turns returns a room's archived turns in arrival order.
func (a *Archive) Turns(ctx context.Context, roomID string) ([]Turn, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, room_id, question, answer, cached, created_at FROM turns WHERE room_id = ? ORDER BY id`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.RoomID, &t.Question, &t.Answer, &t.Cached, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Rooms lists the room ids present in the archive.
func (a *Archive) Rooms(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT DISTINCT room_id FROM turns ORDER BY room_id`)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, id)
	}
	return rooms, rows.Err()
}
