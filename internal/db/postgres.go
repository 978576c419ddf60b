package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/letter5700/backend/internal/platform/envutil"
	"github.com/letter5700/backend/internal/platform/logger"
	"github.com/letter5700/backend/internal/types"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	host := envutil.String("POSTGRES_HOST", "localhost")
	port := envutil.String("POSTGRES_PORT", "5432")
	user := envutil.String("POSTGRES_USER", "postgres")
	password := envutil.String("POSTGRES_PASSWORD", "")
	name := envutil.String("POSTGRES_NAME", "letter5700")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	serviceLog.Info("Connecting to Postgres...", "host", host, "database", name)
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := s.db.AutoMigrate(
		&types.Member{},
		&types.DailyRecord{},
		&types.Advice{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := s.db.Exec(`
		ALTER TABLE "daily_record"
		ADD CONSTRAINT "fk_daily_record_member_id"
		FOREIGN KEY ("member_id")
		REFERENCES "member"("id")
		ON DELETE CASCADE
	`).Error; err != nil {
		s.log.Warn("fk_daily_record_member_id not added (may already exist)", "error", err)
	}
	if err := s.db.Exec(`
		ALTER TABLE "advice"
		ADD CONSTRAINT "fk_advice_daily_record_id"
		FOREIGN KEY ("daily_record_id")
		REFERENCES "daily_record"("id")
		ON DELETE CASCADE
	`).Error; err != nil {
		s.log.Warn("fk_advice_daily_record_id not added (may already exist)", "error", err)
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
