package database

import (
	"testing"

	"odenehouk/config"
	"odenehouk/internal/domain"
	"odenehouk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(t *testing.T) *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:" + t.Name() + "?mode=memory&cache=shared",
		MaxIdleConns: 1,
		MaxOpenConns: 1,
	}
}

func TestNewDB_UnknownDriver(t *testing.T) {
	_, err := NewDB(&config.DatabaseConfig{Driver: "oracle", DSN: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
	assert.Equal(t, []string{"mysql", "postgres", "sqlite"}, Drivers())
}

func TestAutoMigrateAndSeedAdmin(t *testing.T) {
	db, err := NewDB(memoryConfig(t))
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	sec := &config.SecurityConfig{AdminEmail: "Admin@Example.com", AdminPassword: "s3cret-pass"}
	SeedAdmin(db, sec)
	SeedAdmin(db, sec)

	var admins []models.User
	require.NoError(t, db.Where("role = ?", domain.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@example.com", admins[0].Email)
	assert.NotEqual(t, "s3cret-pass", admins[0].PasswordHash)
}
