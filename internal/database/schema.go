package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"kaizen/internal/config"
	"kaizen/internal/middleware"

	"gorm.io/gorm"
)

const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// integrityIndex is a unique index the board relies on to settle races:
// one like per user and post, one survey per post, one blacklist row per jti.
type integrityIndex struct {
	Table string
	Name  string
}

var integrityIndexes = []integrityIndex{
	{Table: "likes", Name: "idx_likes_post_user"},
	{Table: "surveys", Name: "idx_surveys_post_id"},
	{Table: "blacklisted_tokens", Name: "idx_blacklisted_tokens_jti"},
}

// schemaPlan is what ApplySchema will do for a config.
type schemaPlan struct {
	Mode    string
	RunSQL  bool
	RunAuto bool
}

type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
	MissingIndexes     []string
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

func planSchema(cfg *config.Config) (schemaPlan, error) {
	plan := schemaPlan{Mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}
	prodLike := isProdLikeEnv(cfg.Env)

	switch plan.Mode {
	case SchemaModeSQL:
		plan.RunSQL = true
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.RunAuto = true
	case SchemaModeHybrid:
		// production schemas come from reviewed SQL only
		plan.RunSQL = true
		plan.RunAuto = !prodLike
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}
	return plan, nil
}

// ApplySchema brings the board schema up to date and then checks that the
// unique indexes behind likes, surveys and token rotation are in place.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if plan.RunSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}

	if plan.RunAuto {
		if plan.Mode == SchemaModeAuto && cfg.DBAutoMigrateAllowDestructive {
			middleware.Logger.Warn("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true set for DB_SCHEMA_MODE=auto; review schema diffs before production deployment")
		}
		middleware.Logger.Info("Running GORM AutoMigrate",
			slog.String("mode", plan.Mode),
			slog.String("env", cfg.Env),
			slog.Int("models", len(PersistentModels())),
		)
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	if missing := missingIntegrityIndexes(db.WithContext(ctx)); len(missing) > 0 {
		return fmt.Errorf("schema is missing unique indexes: %s", strings.Join(missing, ", "))
	}
	return nil
}

func missingIntegrityIndexes(db *gorm.DB) []string {
	var missing []string
	m := db.Migrator()
	for _, idx := range integrityIndexes {
		if !m.HasTable(idx.Table) || !m.HasIndex(idx.Table, idx.Name) {
			missing = append(missing, idx.Table+"."+idx.Name)
		}
	}
	return missing
}

func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               plan.Mode,
		Environment:        cfg.Env,
		WillRunSQL:         plan.RunSQL,
		WillRunAutoMigrate: plan.RunAuto,
		MissingIndexes:     missingIntegrityIndexes(db.WithContext(ctx)),
	}
	if !plan.RunSQL {
		return status, nil
	}

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied

	done := make(map[int]bool, len(applied))
	for _, version := range applied {
		done[version] = true
	}
	for _, m := range GetMigrations() {
		if !done[m.Version] {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
