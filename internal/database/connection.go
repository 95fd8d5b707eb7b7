// internal/database/connection.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/models"
)

// GormConfig returns the ORM settings shared by the server and the tests.
// Driver errors are translated so callers can match gorm.ErrDuplicatedKey.
func GormConfig(logLevel string) *gorm.Config {
	level := logger.Info
	if logLevel == "silent" {
		level = logger.Silent
	}

	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}
}

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), GormConfig(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host":     cfg.Host,
		"database": cfg.Database,
	}).Info("Database connection established")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

// Models lists every table in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.Address{},
		&models.Customer{},
		&models.OAuthProfile{},
		&models.Session{},
		&models.Category{},
		&models.Supplier{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Review{},
		&models.CartItem{},
		&models.WishlistItem{},
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Case-insensitive contains filters on the catalog
		"CREATE INDEX IF NOT EXISTS idx_products_category_lower ON products (lower(category_name))",
		"CREATE INDEX IF NOT EXISTS idx_products_supplier_lower ON products (lower(supplier_name))",
		"CREATE INDEX IF NOT EXISTS idx_products_in_stock ON products (id) WHERE stock <> 0",

		// Order history and bestsellers
		"CREATE INDEX IF NOT EXISTS idx_orders_customer_created ON orders (customer_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_product_order ON order_items (product_id, order_id)",

		// Reviews
		"CREATE INDEX IF NOT EXISTS idx_reviews_product_created ON reviews (product_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_customer_recommend ON reviews (customer_id, recommend, created_at DESC)",

		// Session sweeping
		"CREATE INDEX IF NOT EXISTS idx_sessions_customer_expires ON sessions (customer_id, expires_at)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).WithField("statement", index).Warn("Failed to create index")
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// SeedInitialData inserts the default catalog taxonomy. Existing rows are
// left untouched.
func SeedInitialData(db *gorm.DB) error {
	logrus.Info("Seeding initial data...")

	categories := []models.Category{
		{Name: "Kitchen", Description: "Cookware, utensils and small appliances"},
		{Name: "Garden", Description: "Tools and furniture for outdoor spaces"},
		{Name: "Electronics", Description: "Gadgets, audio and accessories"},
		{Name: "Books", Description: "Fiction, non-fiction and reference"},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&categories).Error; err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	suppliers := []models.Supplier{
		{Name: "Northwind", Location: "Manchester", Description: "Homeware wholesaler", EstablishYear: 1998},
		{Name: "Greenleaf", Location: "Bristol", Description: "Garden specialists", EstablishYear: 2006},
		{Name: "Voltaic", Location: "London", Description: "Consumer electronics distributor", EstablishYear: 2012},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&suppliers).Error; err != nil {
		return fmt.Errorf("failed to seed suppliers: %w", err)
	}

	logrus.Info("Initial data seeding completed")
	return nil
}

// PurgeExpiredSessions deletes session rows past their expiry.
func PurgeExpiredSessions(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// WithTransaction runs fn in a transaction bound to ctx. The transaction is
// rolled back when fn returns an error or panics.
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}
