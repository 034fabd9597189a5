package cli

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/facelock/internal/buildinfo"
	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/server/auth"
	"github.com/spf13/cobra"
)

// getPassword is swapped in tests.
var getPassword = GetPassword

func (a *App) newTokenCmd() *cobra.Command {
	var (
		userID, username string
		ttl              time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token with the server secret (development only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := []byte(a.config.SecretKey)
			if len(secret) == 0 {
				pw, err := getPassword("Server secret", cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				defer common.WipeByteArray(pw)
				secret = pw
			}

			if username == "" {
				username = userID
			}
			token, err := auth.GenerateToken(auth.Identity{UserID: userID, Username: username}, secret, ttl)
			if err != nil {
				return err
			}

			return a.output(cmd, map[string]string{"accessToken": token}, func() {
				fmt.Fprintln(cmd.OutOrStdout(), token)
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id")
	cmd.Flags().StringVar(&username, "username", "", "display name (defaults to the user id)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token validity")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}
}

func (a *App) newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			if err := c.Ping(ctx); err != nil {
				return err
			}
			return a.output(cmd, map[string]string{"status": "OK"}, func() {
				fmt.Fprintln(cmd.OutOrStdout(), "OK")
			})
		},
	}
}
