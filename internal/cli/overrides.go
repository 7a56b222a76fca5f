package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/krunch/internal/service"
)

// OverrideView is the JSON form of one stored override.
type OverrideView struct {
	Domain            string `json:"domain"`
	Encoded           string `json:"encoded"`
	Alias             string `json:"alias,omitempty"`
	Iterations        uint32 `json:"iterations,omitempty"`
	Truncation        int32  `json:"truncation,omitempty"`
	AllowSpecialChars bool   `json:"allow_special_chars"`
}

func newOverrideView(e service.OverrideEntry) OverrideView {
	v := OverrideView{
		Domain:            e.Domain,
		Encoded:           e.Encoded,
		AllowSpecialChars: e.Attributes.AllowSpecialChars(),
	}
	v.Alias, _ = e.Attributes.Domain.Get()
	v.Iterations, _ = e.Attributes.Iterations.Get()
	v.Truncation, _ = e.Attributes.Truncation.Get()
	return v
}

// NewOverridesCommand creates the overrides command group.
func NewOverridesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overrides",
		Short: "Inspect and remove saved per-domain overrides",
	}
	cmd.AddCommand(newOverridesListCommand(rootOpts))
	cmd.AddCommand(newOverridesShowCommand(rootOpts))
	cmd.AddCommand(newOverridesDeleteCommand(rootOpts))
	return cmd
}

func newOverridesListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List saved overrides",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverridesList(opts, cmd)
		},
	}
}

func runOverridesList(opts *RootOptions, cmd *cobra.Command) error {
	a, err := opts.openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.svc.ListOverrides(cmd.Context())
	if err != nil {
		return opts.fail(cmd, ExitCommandError, "failed to list overrides", err)
	}

	views := make([]OverrideView, len(entries))
	for i, e := range entries {
		views[i] = newOverrideView(e)
	}

	if len(views) == 0 {
		return opts.formatter(cmd).Success(views, "No overrides saved.")
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOMAIN\tALIAS\tITERATIONS\tTRUNCATE\tSPECIAL")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n",
			v.Domain, orDash(v.Alias), orDash(formatUnset(v.Iterations)), orDash(formatUnset(v.Truncation)), v.AllowSpecialChars)
	}
	tw.Flush()
	return opts.formatter(cmd).Success(views, strings.TrimRight(b.String(), "\n"))
}

func newOverridesShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <domain-or-url>",
		Short:         "Show the override saved for a domain",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverridesShow(opts, args, cmd)
		},
	}
}

func runOverridesShow(opts *RootOptions, args []string, cmd *cobra.Command) error {
	a, err := opts.openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	entry, ok, err := a.svc.ShowOverride(cmd.Context(), args[0])
	if err != nil {
		return opts.fail(cmd, ExitCommandError, "failed to read override", err)
	}
	if !ok {
		_ = opts.formatter(cmd).Error(CodeNotFound, fmt.Sprintf("no override saved for %s", entry.Domain), nil)
		return NewExitError(ExitFailure, "no override saved for "+entry.Domain)
	}

	v := newOverrideView(entry)
	text := fmt.Sprintf("Domain:      %s\nEncoded:     %s\nAlias:       %s\nIterations:  %s\nTruncate:    %s\nSpecial:     %t",
		v.Domain, v.Encoded, orDash(v.Alias), orDash(formatUnset(v.Iterations)), orDash(formatUnset(v.Truncation)), v.AllowSpecialChars)
	return opts.formatter(cmd).Success(v, text)
}

func newOverridesDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <domain-or-url>",
		Short:         "Forget the override saved for a domain",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverridesDelete(opts, args, cmd)
		},
	}
}

func runOverridesDelete(opts *RootOptions, args []string, cmd *cobra.Command) error {
	a, err := opts.openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	deleted, err := a.svc.DeleteOverride(cmd.Context(), args[0])
	if err != nil {
		return opts.fail(cmd, ExitCommandError, "failed to delete override", err)
	}

	text := "No override saved for " + args[0]
	if deleted {
		text = "Deleted override for " + args[0]
	}
	return opts.formatter(cmd).Success(map[string]any{
		"input":   args[0],
		"deleted": deleted,
	}, text)
}

func formatUnset[T uint32 | int32](n T) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprint(n)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
