package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tasukuchiba/channel_chat/internal/auth"
)

func newTokenCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "prints a signed token to pass as auth_token",
		Args:  cobra.NoArgs,
	}
	sub := cmd.Flags().String("sub", "", "user id")
	name := cmd.Flags().String("name", "", "display name")
	picture := cmd.Flags().String("picture", "", "avatar url")
	ttl := cmd.Flags().Duration("ttl", time.Hour, "validity")
	secret := cmd.Flags().String("secret", "", "signing secret (defaults to AUTH_TOKEN_SECRET)")
	_ = cmd.MarkFlagRequired("sub")

	// 署名だけなのでストアは開かない
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := s.load()
		if err != nil {
			return err
		}
		s.cfg = cfg
		return nil
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		key := *secret
		if key == "" {
			key = s.cfg.AuthTokenSecret
		}
		if key == "" {
			return errNoSecret
		}
		token, err := auth.IssueToken([]byte(key), auth.Claims{
			Subject: *sub,
			Name:    *name,
			Picture: *picture,
		}, s.cfg.AuthTokenIssuer, s.cfg.AuthTokenAudience, *ttl)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	}
	return cmd
}
