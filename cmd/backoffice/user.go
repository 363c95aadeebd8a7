package main

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dcadvisors/backoffice/internal/auth"
)

var userPassword string

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User management commands",
}

var userHashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Print the bcrypt hash to put in auth.users",
	RunE:  runUserHashPassword,
}

func init() {
	userHashPasswordCmd.Flags().StringVar(&userPassword, "password", "", "Password (will prompt if not provided)")
	userCmd.AddCommand(userHashPasswordCmd)
}

func runUserHashPassword(cmd *cobra.Command, args []string) error {
	password := userPassword
	if password == "" {
		fmt.Print("Enter password: ")
		pwBytes, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()
		password = string(pwBytes)

		fmt.Print("Confirm password: ")
		pwBytes2, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()

		if password != string(pwBytes2) {
			return fmt.Errorf("passwords do not match")
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
