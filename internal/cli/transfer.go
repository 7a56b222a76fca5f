package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the salt key, default iterations and overrides",
		Long: `Export writes the settings document that reproduces every password on
another machine. It contains the salt key; keep it private.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	a, err := opts.openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.svc.Export(cmd.Context())
	if err != nil {
		return opts.fail(cmd, ExitFailure, "failed to export settings", err)
	}

	if opts.Output == "" {
		_, err := cmd.OutOrStdout().Write(doc)
		return err
	}
	if err := os.WriteFile(opts.Output, doc, 0o600); err != nil {
		return WrapExitError(ExitCommandError, "failed to write export", err)
	}
	return opts.formatter(cmd).Success(map[string]string{"output": opts.Output},
		fmt.Sprintf("Settings exported to %s", opts.Output))
}

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	File      string
	Clipboard bool
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace settings with an exported document",
		Long: `Import validates a settings document and replaces the stored salt key,
default iterations and overrides with it. A document that fails validation
changes nothing. Comments and trailing commas are accepted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the document from a file (- for stdin)")
	cmd.Flags().BoolVar(&opts.Clipboard, "clipboard", false, "read the document from the clipboard")
	cmd.MarkFlagsMutuallyExclusive("file", "clipboard")
	cmd.MarkFlagsOneRequired("file", "clipboard")

	return cmd
}

func (o *ImportOptions) read() ([]byte, error) {
	switch {
	case o.Clipboard:
		text, err := o.env.Clipboard.ReadText()
		if err != nil {
			return nil, fmt.Errorf("read clipboard: %w", err)
		}
		return []byte(text), nil
	case o.File == "-":
		return io.ReadAll(o.env.Stdin)
	default:
		return os.ReadFile(o.File)
	}
}

func runImport(opts *ImportOptions, cmd *cobra.Command) error {
	data, err := opts.read()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read settings document", err)
	}

	a, err := opts.openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	settings, err := a.svc.Import(cmd.Context(), data)
	if err != nil {
		return opts.fail(cmd, ExitFailure, "import rejected", err)
	}

	return opts.formatter(cmd).Success(map[string]string{
		"default_iterations": settings.DefaultIterations,
	}, fmt.Sprintf("Settings imported (default iterations %s).", settings.DefaultIterations))
}
