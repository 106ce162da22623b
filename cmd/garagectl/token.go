package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	appctx "garageflow/internal/core/context"
	"garageflow/internal/core/id"
	"garageflow/internal/domain/auth"
)

var (
	tokenGarage string
	tokenUser   string
	tokenEmail  string
	tokenRoles  []string
	tokenTTL    time.Duration
)

// tokenCmd issues access tokens for scripts and local testing. Interactive
// sign-in belongs to the identity provider.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token signed with JWT_SECRET",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is not set")
		}
		garageID, err := id.Parse(tokenGarage)
		if err != nil {
			return fmt.Errorf("invalid --garage: %w", err)
		}
		for _, r := range tokenRoles {
			switch r {
			case auth.RoleOwner, auth.RoleMechanic, auth.RoleFrontDesk:
			default:
				return fmt.Errorf("unknown role %q", r)
			}
		}

		jwtCfg := auth.DefaultJWTConfig(cfg.JWTSecret)
		if tokenTTL > 0 {
			jwtCfg.AccessTokenTTL = tokenTTL
		}
		userID := tokenUser
		if userID == "" {
			userID = id.New().String()
		}
		token, expires, err := auth.NewJWTService(jwtCfg).GenerateAccessToken(appctx.UserContext{
			UserID:   userID,
			GarageID: garageID.String(),
			Email:    tokenEmail,
			Roles:    tokenRoles,
		})
		if err != nil {
			return err
		}
		log.Infow("token issued", "garage_id", garageID, "user_id", userID, "roles", strings.Join(tokenRoles, ","), "expires_at", expires)
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenGarage, "garage", "", "garage id")
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id (random when empty)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "user email")
	tokenCmd.Flags().StringSliceVar(&tokenRoles, "role", []string{auth.RoleOwner}, "roles to grant")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default from JWT config)")
	_ = tokenCmd.MarkFlagRequired("garage")
}
