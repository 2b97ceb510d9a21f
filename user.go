package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lexicon/database"
	"lexicon/models"
	"lexicon/repository"
	"lexicon/services"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			logger := commonRun(cfg)
			db, err := database.Init(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()
			if err := database.Migrate(db); err != nil {
				return err
			}
			logger.Info("[Main] Database migration completed.", "component", programName)
			return nil
		},
	}
}

func userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(userCreateCommand())
	return cmd
}

func userCreateCommand() *cobra.Command {
	var (
		username    string
		displayName string
		password    string
		admin       bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a contributor or admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			logger := commonRun(cfg)
			if password == "" {
				password = os.Getenv("LEXICON_USER_PASSWORD")
			}
			if displayName == "" {
				displayName = username
			}
			role := models.RoleContributor
			if admin {
				role = models.RoleAdmin
			}

			db, err := database.Init(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()
			if err := database.Migrate(db); err != nil {
				return err
			}

			auth := services.NewAuthService(repository.NewUserRepository(db), services.AuthConfig{
				TokenSecret: []byte(cfg.Auth.TokenSecret),
				BcryptCost:  cfg.Auth.BcryptCost,
			}, nil)
			user, err := auth.Register(cmd.Context(), username, displayName, password, role)
			if err != nil {
				var verr *services.ValidationError
				if errors.As(err, &verr) {
					return fmt.Errorf("cannot create user: %s", verr.Error())
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&displayName, "display-name", "", "name shown in version history (defaults to username)")
	cmd.Flags().StringVar(&password, "password", "", "password (or set LEXICON_USER_PASSWORD)")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant moderation rights")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
