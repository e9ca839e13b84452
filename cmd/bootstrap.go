/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/farman-pharma/apiserver/config"
	"github.com/farman-pharma/apiserver/internal/db"
	"github.com/farman-pharma/apiserver/internal/services"
	"github.com/farman-pharma/apiserver/internal/store"
	"github.com/farman-pharma/apiserver/types"
)

var (
	bootstrapEmail    string
	bootstrapPassword string
	bootstrapName     string
)

// bootstrapCmd creates the first superadmin so a fresh deployment can be
// administered before any Google sign-in has happened.
var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the initial superadmin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = dbConn.Close()
		}()

		hash, err := bcrypt.GenerateFromPassword([]byte(bootstrapPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		userService := services.NewUserService(store.NewUserRepository(dbConn))
		user, err := userService.Bootstrap(cmd.Context(), types.User{
			Name:         bootstrapName,
			Email:        bootstrapEmail,
			IsAdmin:      true,
			AdminRole:    types.RoleSuperadmin,
			PasswordHash: string(hash),
		})
		if err != nil {
			return fmt.Errorf("create superadmin: %w", err)
		}

		fmt.Printf("created superadmin %s (id %d)\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
	bootstrapCmd.Flags().StringVar(&bootstrapEmail, "email", "", "superadmin email")
	bootstrapCmd.Flags().StringVar(&bootstrapPassword, "password", "", "superadmin password")
	bootstrapCmd.Flags().StringVar(&bootstrapName, "name", "Admin", "display name")
	_ = bootstrapCmd.MarkFlagRequired("email")
	_ = bootstrapCmd.MarkFlagRequired("password")
}
