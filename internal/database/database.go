package database

import (
	"fmt"

	"github.com/fluxhq/flux-api/internal/config"
	"github.com/fluxhq/flux-api/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the configured relational store. Postgres is the
// default; mysql is supported for deployments that already run one.
func Connect(cfg *config.Config) error {
	var dialector gorm.Dialector

	switch cfg.DBDriver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		dialector = mysql.Open(dsn)
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	var err error
	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	return nil
}

func Migrate() error {
	return MigrateOn(DB)
}

// MigrateOn runs the schema migration against an explicit connection
// (tests use it with an in-memory sqlite database).
func MigrateOn(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Identity{},
		&models.Organization{},
		&models.OrgMembership{},
		&models.OrgJoinCode{},
		&models.Team{},
		&models.TeamMembership{},
		&models.TeamLink{},
		&models.TeamJoinCode{},
		&models.Goal{},
		&models.Task{},
		&models.TaskAssignment{},
		&models.TaskNote{},
		&models.TaskNoteMention{},
		&models.TaskStatusLog{},
		&models.CalendarEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func GetDB() *gorm.DB {
	return DB
}

// SetDB sets the database instance (used for testing)
func SetDB(db *gorm.DB) {
	DB = db
}
