package archive

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/parassareen1/relay-chat/internal/types"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Archive is an optional Postgres sink for relayed messages. Rooms are
// authoritative in memory; the archive is written fire-and-forget and a
// failed write never blocks or fails delivery.
type Archive struct {
	log  *log.Logger
	conn *sql.DB
}

func Open(logger *log.Logger, dsn string) (*Archive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}

	return &Archive{log: logger, conn: db}, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

// SaveMessage records a relayed message. Errors are logged and
// swallowed.
func (a *Archive) SaveMessage(roomId string, msg types.Message) {
	_, err := a.conn.Exec(
		"INSERT INTO messages (room_id, role, content, image_url, created_at) "+
			"VALUES ($1, $2, $3, $4, $5)",
		roomId,
		string(msg.Role),
		msg.Text,
		msg.ImageURL,
		msg.Timestamp,
	)
	if err != nil {
		a.log.Println("error archiving message:", err)
	}
}

// DeleteRoom drops a room's archived messages after the room itself is
// deleted.
func (a *Archive) DeleteRoom(roomId string) {
	_, err := a.conn.Exec("DELETE FROM messages WHERE room_id = $1", roomId)
	if err != nil {
		a.log.Println("error deleting archived room:", err)
	}
}

func (a *Archive) Close() error {
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}
