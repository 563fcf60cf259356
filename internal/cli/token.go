package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"quiz-session-service/internal/config"
	"quiz-session-service/internal/domain"
)

// NewTokenCmd prints a bearer token for an existing user.
func NewTokenCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			c, err := build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.close()

			user, err := c.service.CurrentUser(cmd.Context(), domain.Principal{UserID: args[0]})
			if err != nil {
				return err
			}
			token, err := c.tokens.Issue(user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
