package database

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"odenehouk/config"
	"odenehouk/internal/domain"
	"odenehouk/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Opener builds a gorm dialector for one storage backend.
type Opener func(dsn string) (gorm.Dialector, error)

var openers = map[string]Opener{
	"mysql": func(dsn string) (gorm.Dialector, error) {
		return mysql.Open(dsn), nil
	},
	"postgres": func(dsn string) (gorm.Dialector, error) {
		return postgres.Open(dsn), nil
	},
	"sqlite": func(dsn string) (gorm.Dialector, error) {
		if !strings.HasPrefix(dsn, "file:") && !strings.Contains(dsn, ":memory:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, err
			}
		}
		return sqlite.Open(dsn), nil
	},
}

// Drivers lists the registered storage backends.
func Drivers() []string {
	names := make([]string, 0, len(openers))
	for name := range openers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	open, ok := openers[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unknown database driver %q (have %s)", cfg.Driver, strings.Join(Drivers(), ", "))
	}
	dialector, err := open(cfg.DSN)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductFile{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.AccessPermission{},
		&models.Subscription{},
		&models.WebhookEvent{},
		&models.RefreshToken{},
		&models.AuditLog{},
		&models.OutboxEvent{},
	)
}

// SeedAdmin creates the bootstrap admin account when credentials are configured
// and no user with that email exists yet.
func SeedAdmin(db *gorm.DB, cfg *config.SecurityConfig) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[seed] admin lookup failed: %v", err)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[seed] hash admin password: %v", err)
		return
	}
	admin := &models.User{
		UUID:         uuid.NewString(),
		Name:         "Administrator",
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Status:       domain.UserStatusActive,
	}
	if err := db.Create(admin).Error; err != nil {
		log.Printf("[seed] create admin: %v", err)
		return
	}
	log.Printf("[seed] admin account %s created", email)
}
