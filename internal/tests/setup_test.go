//go:build integration

package tests

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/database"
	"github.com/javajoker/storefront-backend/internal/models"
)

// setupDB starts a PostgreSQL container and migrates the schema into it.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("storefront_test"),
		tcpostgres.WithUsername("storefront"),
		tcpostgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(connStr), database.GormConfig("silent"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	require.NoError(t, database.RunMigrations(db))
	require.NoError(t, database.SeedInitialData(db))
	return db
}

// resetDB empties every table except the seeded taxonomy.
func resetDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	err := db.Exec(`TRUNCATE order_items, orders, reviews, cart_items, wishlist_items,
		sessions, oauth_profiles, customers, addresses, products RESTART IDENTITY CASCADE`).Error
	require.NoError(t, err)
}

func createCustomer(t *testing.T, db *gorm.DB, username string) *models.Customer {
	t.Helper()

	customer := &models.Customer{
		Name:     username,
		Username: username,
		Email:    username + "@example.com",
	}
	require.NoError(t, customer.SetPassword("password"))
	require.NoError(t, db.Create(customer).Error)
	return customer
}

func createProduct(t *testing.T, db *gorm.DB, name, category, supplier string, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:         name,
		Price:        decimal.RequireFromString("9.99"),
		Stock:        stock,
		CategoryName: category,
		SupplierName: supplier,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}
