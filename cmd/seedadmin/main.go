// Command seedadmin creates or resets a local admin account directly in the
// database, for operators bootstrapping an environment where the configured
// administrator identity is not enough (e.g. a second librarian account).
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/HaianCao/library-management-system/database"
	"github.com/HaianCao/library-management-system/models"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
	"gorm.io/gorm"
)

// readPassword securely reads a password with masking
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

func readLine(sc *bufio.Scanner, prompt string) string {
	fmt.Print(prompt)
	if !sc.Scan() {
		return ""
	}
	return strings.TrimSpace(sc.Text())
}

func main() {
	_ = godotenv.Load()
	database.InitDB()

	sc := bufio.NewScanner(os.Stdin)

	username := readLine(sc, "Username: ")
	email := readLine(sc, "Email: ")
	if username == "" || email == "" {
		fmt.Fprintln(os.Stderr, "Username and email are required")
		os.Exit(1)
	}

	password, err := readPassword("Password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read password: %v\n", err)
		os.Exit(1)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read password: %v\n", err)
		os.Exit(1)
	}
	if password != confirm {
		fmt.Fprintln(os.Stderr, "Passwords do not match")
		os.Exit(1)
	}
	if len(password) < 6 {
		fmt.Fprintln(os.Stderr, "Password must be at least 6 characters")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash password: %v\n", err)
		os.Exit(1)
	}
	passwordHash := string(hash)

	var existing models.User
	err = database.DB.Where("LOWER(username) = LOWER(?)", username).First(&existing).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"password_hash": passwordHash,
			"role":          models.RoleAdmin,
			"email":         email,
		}
		if err := database.DB.Model(&existing).Updates(updates).Error; err != nil {
			fmt.Fprintf(os.Stderr, "Failed to update user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated existing user %s to admin\n", username)
	case errors.Is(err, gorm.ErrRecordNotFound):
		user := models.User{
			ID:           uuid.NewString(),
			Username:     &username,
			PasswordHash: &passwordHash,
			Email:        email,
			FirstName:    "Library",
			LastName:     "Admin",
			Role:         models.RoleAdmin,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created admin user %s\n", username)
	default:
		fmt.Fprintf(os.Stderr, "Database error: %v\n", err)
		os.Exit(1)
	}
}
