package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/civilmastersolution/cms-backend/internal/storage"
	"github.com/civilmastersolution/cms-backend/pkg/models"
)

var (
	adminEmail    string
	adminPassword string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage back-office admin accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create an admin account",
	Long: `Create a back-office admin account in the database.

The password is prompted for interactively unless --password is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdminCreate,
}

var adminDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete an admin account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminDelete,
}

var adminPasswdCmd = &cobra.Command{
	Use:   "passwd <username>",
	Short: "Change an admin's password",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminPasswd,
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd)
	adminCmd.AddCommand(adminDeleteCmd)
	adminCmd.AddCommand(adminPasswdCmd)

	adminCreateCmd.Flags().StringVarP(&adminEmail, "email", "e", "", "Admin email address")
	adminCreateCmd.Flags().StringVarP(&adminPassword, "password", "p", "", "Admin password (prompted if omitted)")
	adminPasswdCmd.Flags().StringVarP(&adminPassword, "password", "p", "", "New password (prompted if omitted)")
}

func runAdminCreate(cmd *cobra.Command, args []string) error {
	username := strings.TrimSpace(args[0])
	if username == "" {
		return errors.New("username must not be empty")
	}

	password := adminPassword
	if password == "" {
		var err error
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	db, err := storage.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	admin := &models.Admin{
		Username:     username,
		Email:        adminEmail,
		PasswordHash: string(hash),
	}
	adminStore := storage.NewAdminStore(db)
	if err := adminStore.Create(ctx, admin); err != nil {
		if !errors.Is(err, storage.ErrAlreadyExists) {
			return err
		}
		// Re-running bootstrap rotates the existing account's password.
		if err := adminStore.UpdatePassword(ctx, username, string(hash)); err != nil {
			return err
		}
		fmt.Printf("Admin %q already exists, password updated\n", username)
		return nil
	}

	fmt.Printf("Created admin %q (id %d)\n", admin.Username, admin.ID)
	return nil
}

func runAdminDelete(cmd *cobra.Command, args []string) error {
	db, err := storage.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.NewAdminStore(db).Delete(context.Background(), args[0]); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("admin %q not found", args[0])
		}
		return err
	}

	fmt.Printf("Deleted admin %q\n", args[0])
	return nil
}

func runAdminPasswd(cmd *cobra.Command, args []string) error {
	password := adminPassword
	if password == "" {
		var err error
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	db, err := storage.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.NewAdminStore(db).UpdatePassword(context.Background(), args[0], string(hash)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("admin %q not found", args[0])
		}
		return err
	}

	fmt.Printf("Updated password for %q\n", args[0])
	return nil
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	if term.IsTerminal(int(syscall.Stdin)) {
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}

	// Piped input (scripts, tests)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
