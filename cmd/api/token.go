package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk-sla/internal/auth"
	"github.com/spec-kit/helpdesk-sla/internal/config"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

var (
	flagUserID string
	flagRole   string
	flagTTLMin int
)

// tokenCmd mints a bearer token for local testing.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Generate a JWT (HS256) for API authentication",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Auth.JWTSecret == "" {
			return errors.New("AUTH_JWT_SECRET is empty")
		}
		ttl := cfg.Auth.AccessTokenTTLMinutes
		if flagTTLMin > 0 {
			ttl = flagTTLMin
		}
		tm := auth.NewTokenManager(cfg.Auth.JWTSecret, ttl)
		token, expiresAt, err := tm.GenerateToken(flagUserID, domain.UserRole(strings.ToUpper(flagRole)))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.UTC().Format("2006-01-02T15:04:05Z"))
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&flagUserID, "user", "", "user id placed in the sub claim")
	tokenCmd.Flags().StringVar(&flagRole, "role", string(domain.UserRoleAgent), "REQUESTER, AGENT or MANAGER")
	tokenCmd.Flags().IntVar(&flagTTLMin, "ttl", 0, "lifetime in minutes (default from AUTH_ACCESS_TOKEN_TTL_MINUTES)")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}
