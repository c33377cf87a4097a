package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/mmynk/tabsettle/internal/events"
)

type watchOptions struct {
	*rootOptions
	GroupID string
}

func newWatchCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &watchOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print a group's settlement events from Redis",
		Long: `Subscribe to a group's Redis channel and print each settlement event
as one JSON line until interrupted. Requires REDIS_ADDR.

Example:
  tabsettle watch --group 7f0c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.rootOptions)
			if err != nil {
				return err
			}
			if cfg.RedisAddr == "" {
				return errors.New("REDIS_ADDR is not set")
			}

			client := redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			defer client.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			enc := json.NewEncoder(cmd.OutOrStdout())
			err = events.NewRedisPublisher(client).Subscribe(ctx, opts.GroupID, func(e events.Event) {
				if err := enc.Encode(e); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "failed to write event:", err)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.GroupID, "group", "", "group id to watch (required)")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}
