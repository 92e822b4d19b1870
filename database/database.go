package database

import (
	"fmt"
	"log"
	"os"

	"github.com/HaianCao/library-management-system/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB connects to the backing MySQL/MariaDB store and runs migrations.
// Connection details come from the environment; a missing password is fatal.
func InitDB() {
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "3306")
	dbUser := getEnv("DB_USER", "library-user")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := getEnv("DB_NAME", "library-db")

	if dbPassword == "" {
		log.Fatal("DB_PASSWORD environment variable is required")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local", dbUser, dbPassword, dbHost, dbPort, dbName)

	db, err := Open(mysql.Open(dsn))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	DB = db

	log.Println("Successfully connected to the database and ran migrations")
}

// Open opens a database on the given dialector and migrates the schema.
// Production uses the MySQL dialector; tests pass sqlite.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the schema auto-migration. The unique indexes on
// users.username, users.email and books.isbn enforce the uniqueness
// constraints at the storage layer, not by pre-check-then-insert.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Book{},
		&models.Borrowing{},
		&models.ActivityLog{},
		&models.Notification{},
	); err != nil {
		return fmt.Errorf("error migrating database: %v", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
