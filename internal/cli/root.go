package cli

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string

	env *Env
}

// Env holds the process collaborators commands talk to. Tests replace them.
type Env struct {
	Clipboard Clipboard

	// Stdin is read by commands that accept "-" as a file name.
	Stdin io.Reader

	// ReadPassword prompts for the master secret on a terminal.
	ReadPassword func(prompt string, stderr io.Writer) ([]byte, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

func defaultEnv() *Env {
	return &Env{
		Clipboard:    systemClipboard{},
		Stdin:        os.Stdin,
		ReadPassword: readTerminalPassword,
	}
}

// NewRootCommand creates the root command for the krunch CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithEnv(defaultEnv())
}

// NewRootCommandWithEnv creates the root command bound to env.
func NewRootCommandWithEnv(env *Env) *cobra.Command {
	opts := &RootOptions{env: env}

	cmd := &cobra.Command{
		Use:   "krunch",
		Short: "krunch - deterministic site passwords",
		Long: `krunch derives a per-site password from one master secret.

Nothing is stored but a random salt key and the per-domain overrides
(iterations, truncation, special characters) you choose. The same secret,
salt key and domain always give the same password.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: search $KRUNCH_CONFIG, ./krunch.yaml, XDG config)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "preference database (overrides config)")

	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewOverridesCommand(opts))
	cmd.AddCommand(NewSaltKeyCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// fail renders err through the formatter and returns the ExitError the
// command should return.
func (o *RootOptions) fail(cmd *cobra.Command, code int, message string, err error) error {
	_ = o.formatter(cmd).Error(ErrorCode(err), fmt.Sprintf("%s: %v", message, err), nil)
	return WrapExitError(code, message, err)
}
