package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"kaizen/internal/middleware"

	"gorm.io/gorm"
)

// MigrationStore records which embedded migrations ran against a database.
type MigrationStore interface {
	Applied(ctx context.Context) ([]MigrationLog, error)
	GetAppliedMigrations(ctx context.Context) ([]int, error)
	ApplyMigration(ctx context.Context, m Migration) error
	RemoveMigration(ctx context.Context, version int) error
}

type migrationStore struct {
	db *gorm.DB
}

// MigrationLog is one applied migration. Checksum is the sha256 of the up
// script at the time it ran; rows written before checksums existed are empty.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255"`
	Checksum  string    `gorm:"size:64"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (MigrationLog) TableName() string {
	return "migration_logs"
}

const ensureMigrationLogTableSQL = `
CREATE TABLE IF NOT EXISTS migration_logs (
	version BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	checksum VARCHAR(64) NOT NULL DEFAULT '',
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
ALTER TABLE migration_logs ADD COLUMN IF NOT EXISTS checksum VARCHAR(64) NOT NULL DEFAULT '';`

func NewMigrationStore(db *gorm.DB) MigrationStore {
	return &migrationStore{db: db}
}

func (s *migrationStore) Applied(ctx context.Context) ([]MigrationLog, error) {
	var logs []MigrationLog
	if err := s.db.WithContext(ctx).Order("version ASC").Find(&logs).Error; err != nil {
		if isMissingTableError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read migration_logs: %w", err)
	}
	return logs, nil
}

func (s *migrationStore) GetAppliedMigrations(ctx context.Context) ([]int, error) {
	logs, err := s.Applied(ctx)
	if err != nil {
		return nil, err
	}
	versions := make([]int, 0, len(logs))
	for _, l := range logs {
		versions = append(versions, l.Version)
	}
	return versions, nil
}

func isMissingTableError(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}
	msg := err.Error()
	return (strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")) ||
		strings.Contains(msg, "no such table")
}

// ApplyMigration runs the up script and its log row in one transaction.
func (s *migrationStore) ApplyMigration(ctx context.Context, m Migration) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.UpScript).Error; err != nil {
			return fmt.Errorf("apply migration %s: %w", m.String(), err)
		}
		entry := &MigrationLog{Version: m.Version, Name: m.Name, Checksum: m.Checksum()}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("record migration %s: %w", m.String(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	middleware.Logger.Info("Migration applied", slog.String("migration", m.String()))
	return nil
}

func (s *migrationStore) RemoveMigration(ctx context.Context, version int) error {
	if err := s.db.WithContext(ctx).Where("version = ?", version).Delete(&MigrationLog{}).Error; err != nil {
		return fmt.Errorf("remove migration record %06d: %w", version, err)
	}
	return nil
}

// RunMigrations applies every embedded migration not yet recorded.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	return runMigrations(ctx, db, migrations)
}

func runMigrations(ctx context.Context, db *gorm.DB, registered []Migration) error {
	if err := db.WithContext(ctx).Exec(ensureMigrationLogTableSQL).Error; err != nil {
		return fmt.Errorf("ensure migration_logs table: %w", err)
	}

	store := NewMigrationStore(db)
	applied, err := store.Applied(ctx)
	if err != nil {
		return err
	}
	if err := checkAppliedLogs(applied, registered); err != nil {
		return err
	}

	done := make(map[int]bool, len(applied))
	for _, l := range applied {
		done[l.Version] = true
	}
	for _, m := range registered {
		if done[m.Version] {
			continue
		}
		middleware.Logger.Info("Applying migration", slog.String("migration", m.String()))
		if err := store.ApplyMigration(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// checkAppliedLogs refuses a database that ran migrations this build does
// not know, or whose recorded up script differs from the embedded one.
func checkAppliedLogs(applied []MigrationLog, registered []Migration) error {
	byVersion := make(map[int]Migration, len(registered))
	for _, m := range registered {
		byVersion[m.Version] = m
	}

	var unknown, drifted []string
	for _, l := range applied {
		m, ok := byVersion[l.Version]
		switch {
		case !ok:
			unknown = append(unknown, fmt.Sprintf("%06d", l.Version))
		case l.Checksum != "" && l.Checksum != m.Checksum():
			drifted = append(drifted, m.String())
		}
	}
	sort.Strings(unknown)

	switch {
	case len(unknown) > 0:
		return fmt.Errorf("migration_logs contains versions this build does not ship: %s", strings.Join(unknown, ", "))
	case len(drifted) > 0:
		return fmt.Errorf("applied migrations were edited after they ran: %s; add a new migration instead", strings.Join(drifted, ", "))
	}
	return nil
}

// RollbackMigration runs the down script of an applied migration and drops its log row.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m := GetMigrationByVersion(version)
	if m == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}
	if !containsVersion(applied, version) {
		return fmt.Errorf("migration %s has not been applied", m.String())
	}

	middleware.Logger.Info("Rolling back migration", slog.String("migration", m.String()))
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return fmt.Errorf("roll back %s: %w", m.String(), err)
		}
		return NewMigrationStore(tx).RemoveMigration(ctx, version)
	})
}

func containsVersion(versions []int, version int) bool {
	for _, v := range versions {
		if v == version {
			return true
		}
	}
	return false
}
