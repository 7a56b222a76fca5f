package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/krunch/internal/attrs"
	"github.com/roach88/krunch/internal/service"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Iterations uint32
	Truncate   int32
	NoSpecial  bool
	As         string
	Save       bool
	Copy       bool
	SecretFile string
}

// GenerateResult is the JSON form of one generated password.
type GenerateResult struct {
	RequestID string `json:"request_id,omitempty"`
	Domain    string `json:"domain"`
	Password  string `json:"password,omitempty"`
	Override  string `json:"override,omitempty"`
	Saved     bool   `json:"saved"`
	Copied    bool   `json:"copied,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <domain-or-url>...",
		Short: "Generate the password for one or more sites",
		Long: `Generate derives the password for each site from the master secret.

Saved overrides for a domain are applied automatically. Flags change the
attributes for this run; with --save (the default) the difference from the
defaults is remembered for next time.

Passing --truncate -1 removes a saved truncation and --no-special=false
re-enables special characters.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args, cmd)
		},
	}

	cmd.Flags().Uint32Var(&opts.Iterations, "iterations", 0, "PBKDF2 iteration count for this site")
	cmd.Flags().Int32Var(&opts.Truncate, "truncate", 0, "truncate the password to n characters (-1 clears)")
	cmd.Flags().BoolVar(&opts.NoSpecial, "no-special", false, "use only letters, digits, '-' and '_'")
	cmd.Flags().StringVar(&opts.As, "as", "", "derive with this domain instead (site aliases)")
	cmd.Flags().BoolVar(&opts.Save, "save", true, "remember changed attributes for the domain")
	cmd.Flags().BoolVar(&opts.Copy, "copy", false, "copy the password to the clipboard instead of printing it")
	cmd.Flags().StringVar(&opts.SecretFile, "secret-file", "", "read the master secret from a file instead of prompting")

	return cmd
}

func (o *GenerateOptions) edits(cmd *cobra.Command) (service.Edits, error) {
	var e service.Edits
	flags := cmd.Flags()
	if flags.Changed("iterations") {
		if o.Iterations == 0 {
			return e, fmt.Errorf("--iterations must be at least 1")
		}
		e.Iterations = attrs.Some(o.Iterations)
	}
	if flags.Changed("truncate") {
		if o.Truncate < attrs.NoTruncation {
			return e, fmt.Errorf("--truncate must be -1 or more, got %d", o.Truncate)
		}
		e.Truncation = attrs.Some(o.Truncate)
	}
	if flags.Changed("no-special") {
		e.SuppressSpecialChars = attrs.Some(o.NoSpecial)
	}
	if flags.Changed("as") {
		if strings.TrimSpace(o.As) == "" {
			return e, fmt.Errorf("--as must not be empty")
		}
		if strings.Contains(o.As, attrs.Delimiter) {
			return e, fmt.Errorf("--as must not contain %q", attrs.Delimiter)
		}
		e.Domain = attrs.Some(o.As)
	}
	return e, nil
}

func runGenerate(opts *GenerateOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	edits, err := opts.edits(cmd)
	if err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}
	if opts.Copy && len(args) != 1 {
		return NewExitError(ExitCommandError, "--copy needs exactly one domain")
	}

	secret, err := opts.readSecret(opts.SecretFile, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read master secret", err)
	}
	defer clear(secret)

	a, err := opts.openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	reqs := make([]service.Request, len(args))
	for i, arg := range args {
		reqs[i] = service.Request{Input: arg, Edits: edits}
	}

	outs, err := a.svc.GenerateAll(cmd.Context(), secret, reqs, opts.Save)
	if err != nil {
		return opts.fail(cmd, ExitCommandError, "generation cycle failed", err)
	}

	results := make([]GenerateResult, len(outs))
	var lines []string
	failed := 0
	for i, out := range outs {
		r := GenerateResult{
			RequestID: out.RequestID,
			Domain:    out.Domain,
			Saved:     out.Saved,
		}
		if out.Err != nil {
			failed++
			r.Error = out.Err.Error()
			results[i] = r
			if opts.Format != "json" {
				_ = formatter.Error(ErrorCode(out.Err), fmt.Sprintf("%s: %v", args[i], out.Err), out.RequestID)
			}
			continue
		}
		if out.Override.Exist() {
			r.Override = out.Override.String()
		}

		if opts.Copy {
			if err := opts.env.Clipboard.WriteText(out.Password); err != nil {
				return opts.fail(cmd, ExitFailure, "failed to copy password", err)
			}
			r.Copied = true
			formatter.Notice("Password for %s copied to clipboard", out.Domain)
		} else {
			r.Password = out.Password
			if len(outs) == 1 {
				lines = append(lines, out.Password)
			} else {
				lines = append(lines, out.Domain+"\t"+out.Password)
			}
		}
		if out.Saved {
			a.logger.Debug("override saved", "domain", out.Domain, "request_id", out.RequestID)
		}
		results[i] = r
	}

	if err := formatter.Success(results, strings.Join(lines, "\n")); err != nil {
		return err
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d passwords could not be generated", failed, len(outs)))
	}
	return nil
}
