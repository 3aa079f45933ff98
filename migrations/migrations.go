// Package migrations embeds the MySQL schema for the self-hosted photo source.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var FS embed.FS

func Up(dsn string) error {
	return run(dsn, "up", (*migrate.Migrate).Up)
}

func Down(dsn string) error {
	return run(dsn, "down", (*migrate.Migrate).Down)
}

// Version reports the applied schema version. dirty is set when a previous
// migration failed half way.
func Version(dsn string) (version uint, dirty bool, err error) {
	m, err := migrator(dsn)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func run(dsn, direction string, step func(*migrate.Migrate) error) error {
	m, err := migrator(dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	err = step(m)
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	return nil
}

func migrator(dsn string) (*migrate.Migrate, error) {
	src, err := iofs.New(FS, ".")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	driver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		return nil, fmt.Errorf("create driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "mysql", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}
