package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/tabsettle/internal/auth"
)

type tokenOptions struct {
	*rootOptions
	UserID string
	TTL    time.Duration
}

func newTokenCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &tokenOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a user",
		Long: `Mint a bearer token signed with JWT_SECRET.

Example:
  tabsettle token --user alice
  tabsettle token --user bob --ttl 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.rootOptions)
			if err != nil {
				return err
			}
			ttl := cfg.JWTTTL
			if opts.TTL > 0 {
				ttl = opts.TTL
			}
			token, err := auth.NewJWTManager(cfg.JWTSecret, ttl).Generate(opts.UserID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user", "", "user id to put in the token (required)")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 0, "token lifetime (default JWT_TTL)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
