package cli

import (
	"github.com/spf13/cobra"
)

// NewSaltKeyCommand creates the salt-key command group.
func NewSaltKeyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "salt-key",
		Short: "Show or replace the random salt key",
		Long: `The salt key is 512 random bytes generated on first use. It is mixed
into every password, so it must travel with your settings (see export).`,
	}
	cmd.AddCommand(newSaltKeyShowCommand(rootOpts))
	cmd.AddCommand(newSaltKeyRegenerateCommand(rootOpts))
	return cmd
}

func newSaltKeyShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Print the stored salt key",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			key, err := a.svc.SaltKey(cmd.Context())
			if err != nil {
				return opts.fail(cmd, ExitFailure, "failed to read salt key", err)
			}
			return opts.formatter(cmd).Success(map[string]string{"salt_key": key}, key)
		},
	}
}

func newSaltKeyRegenerateCommand(opts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Replace the salt key (changes every password)",
		Long: `Regenerate replaces the salt key with fresh random bytes. Every password
krunch has ever produced changes; there is no way back unless you kept an
export. Pass --yes to confirm.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return NewExitError(ExitCommandError, "refusing to regenerate the salt key without --yes")
			}
			a, err := opts.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			key, err := a.svc.RegenerateSaltKey(cmd.Context())
			if err != nil {
				return opts.fail(cmd, ExitCommandError, "failed to regenerate salt key", err)
			}
			return opts.formatter(cmd).Success(map[string]string{"salt_key": key}, "Salt key regenerated.")
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm that all passwords will change")
	return cmd
}
