package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/daemon"
)

func init() { //nolint: gochecknoinits
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "Display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Login email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Initial password")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	resetPasswordCmd.Flags().StringVar(&resetEmail, "email", "", "Login email of the account")
	resetPasswordCmd.Flags().StringVar(&resetPassword, "password", "", "New password")
	_ = resetPasswordCmd.MarkFlagRequired("email")
	_ = resetPasswordCmd.MarkFlagRequired("password")

	userCmd.AddCommand(createAdminCmd, resetPasswordCmd)
	rootCmd.AddCommand(userCmd)
}

var (
	adminName     string
	adminEmail    string
	adminPassword string
	resetEmail    string
	resetPassword string

	userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	createAdminCmd = &cobra.Command{
		Use:   "create-admin",
		Short: "Create an active admin account",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig(false)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			gormDB, err := daemon.Database(&cfg)
			if err != nil {
				return err
			}

			user, err := daemon.CreateAdmin(gormDB, adminName, adminEmail, adminPassword)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (id %d)\n", user.Email, user.ID)

			return err
		},
	}

	resetPasswordCmd = &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for an account",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig(false)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(resetPassword) < minPasswordLen {
				return fmt.Errorf("%w: at least %d characters", errPasswordTooShort, minPasswordLen)
			}

			gormDB, err := daemon.Database(&cfg)
			if err != nil {
				return err
			}

			users := auth.NewLocalProvider(gormDB)

			user, err := users.GetUserByEmail(resetEmail)
			if err != nil {
				return fmt.Errorf("%s: %w", resetEmail, err)
			}

			if err := users.ResetPassword(user.ID, resetPassword); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "password of %s (id %d) was reset\n", user.Email, user.ID)

			return err
		},
	}
)

const minPasswordLen = 8

var errPasswordTooShort = errors.New("password too short")
