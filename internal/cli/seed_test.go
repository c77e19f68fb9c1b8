package cli

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bookstore-next/internal/config"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/provider"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupSeedContainer(t *testing.T) *provider.Container {
	t.Helper()
	dsn := fmt.Sprintf("file:cli_seed_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.MigrateDB(db))

	previous := models.DB
	models.DB = db
	t.Cleanup(func() { models.DB = previous })

	container, err := provider.NewContainer(&config.Config{})
	require.NoError(t, err)
	t.Cleanup(container.Close)
	return container
}

func TestSeedDemoDataIsIdempotent(t *testing.T) {
	container := setupSeedContainer(t)
	ctx := context.Background()

	seeded, err := seedDemoData(ctx, container)
	require.NoError(t, err)
	assert.True(t, seeded)

	var products int64
	require.NoError(t, container.DB.Model(&models.Product{}).Count(&products).Error)
	assert.Equal(t, int64(len(seedBooks)), products)

	promo, err := container.PromoCodeRepo.GetByCode("WELCOME10")
	require.NoError(t, err)
	require.NotNil(t, promo)

	seeded, err = seedDemoData(ctx, container)
	require.NoError(t, err)
	assert.False(t, seeded)
	require.NoError(t, container.DB.Model(&models.Product{}).Count(&products).Error)
	assert.Equal(t, int64(len(seedBooks)), products)
}
