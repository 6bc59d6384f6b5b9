package migration

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	// Blank import required for PostgreSQL driver registration for migrations
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"cardkeeper/internal/app/server/config"
)

// Migrator - интерфейс для самой библиотеки migrate.Migrate
type Migrator interface {
	Up() error
	Version() (uint, bool, error)
	Close() (error, error)
}

// MigrationEngine - фабрика для создания мигратора (чтобы не лезть в ФС и БД в тестах)
type MigrationEngine func(sourceURL, databaseURL string) (Migrator, error)

type Migration struct {
	cfg    *config.Config
	engine MigrationEngine
}

func NewMigration(conf *config.Config, engine MigrationEngine) *Migration {
	return &Migration{
		cfg:    conf,
		engine: engine,
	}
}

// DefaultEngine - реальная реализация для продакшена
func DefaultEngine(sourceURL, databaseURL string) (Migrator, error) {
	return migrate.New(sourceURL, databaseURL)
}

func (mg *Migration) open() (Migrator, error) {
	return mg.engine("file://"+mg.cfg.DB.Migrations, mg.cfg.DB.DatabaseURI)
}

func (mg *Migration) Up() (err error) {
	m, err := mg.open()
	if err != nil {
		return err
	}
	defer func() {
		err = closeMigrator(m, err)
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w; migration up error", err)
	}
	return nil
}

// Version возвращает примененную версию схемы. Пустая база - версия 0.
func (mg *Migration) Version() (version uint, dirty bool, err error) {
	m, err := mg.open()
	if err != nil {
		return 0, false, err
	}
	defer func() {
		err = closeMigrator(m, err)
	}()

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func closeMigrator(m Migrator, err error) error {
	serr, dberr := m.Close()
	if serr != nil {
		if err != nil {
			err = fmt.Errorf("%w; migration source error: %v", err, serr)
		} else {
			err = serr
		}
	}
	if dberr != nil {
		if err != nil {
			err = fmt.Errorf("%w; migration database error: %v", err, dberr)
		} else {
			err = dberr
		}
	}
	return err
}
