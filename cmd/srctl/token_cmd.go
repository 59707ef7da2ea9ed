package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/peterfiasco/easylawBe-sub000/internal/api/dto"
	"github.com/peterfiasco/easylawBe-sub000/internal/auth"
	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
)

func newTokenCmd() *cobra.Command {
	var subject, role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			principal := domain.Principal{ID: subject, Role: domain.Role(role)}
			if !principal.Role.Valid() {
				return fmt.Errorf("invalid --role %q", role)
			}
			cfg, _, err := loadEnv()
			if err != nil {
				return err
			}
			tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
			token, expiresAt, err := tokens.Issue(principal)
			if err != nil {
				return err
			}
			return writeJSON(dto.TokenResponse{Token: token, ExpiresAt: expiresAt})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Principal id (required)")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleUser), "Role: user or admin")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
