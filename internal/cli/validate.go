package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/twinq/internal/criteria"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Strict bool // fail unless every backend can render the request
}

// ValidationResult holds the backend support of one request.
type ValidationResult struct {
	Entity    string                    `json:"entity"`
	Portable  bool                      `json:"portable"`
	Supported map[criteria.Backend]bool `json:"supported"`
	Warnings  []string                  `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <request-file>",
		Short: "Check which backends can render a request",
		Long: `Check a request without rendering it.

Reports each backend's support for the filter tree and one warning per
filter node a backend cannot render. Malformed requests fail.

Exit codes:
  0 - Request is valid (and portable, with --strict)
  1 - Request is invalid, or not portable with --strict
  2 - Command error (missing files, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail unless every backend can render the request")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	resolver, err := loadResolver(opts.setting(opts.Registry, KeyRegistry))
	if err != nil {
		return formatter.Fail(exitCode(err), errorCode(err), "failed to load registry", err)
	}
	req, err := loadRequest(path)
	if err != nil {
		return formatter.Fail(exitCode(err), errorCode(err), "failed to load request", err)
	}

	q, err := req.EntityQuery(resolver)
	if err == nil {
		err = criteria.Check(q.Filter)
	}
	if err == nil {
		_, err = req.IndexQuery(resolver)
	}
	if err != nil {
		return formatter.Fail(ExitFailure, errorCode(err), "invalid request", err)
	}

	v := criteria.Validate(q.Filter)
	if len(req.Joins) > 0 {
		v.Supported[criteria.BackendIndex] = false
		v.Warnings = append(v.Warnings, fmt.Sprintf("joins: %d join(s) cannot be rendered by %s", len(req.Joins), criteria.BackendIndex))
	}
	result := ValidationResult{
		Entity:    req.Entity,
		Portable:  v.Portable(),
		Supported: v.Supported,
		Warnings:  v.Warnings,
	}
	formatter.VerboseLog("Validated %s: portable=%t", req.Entity, result.Portable)

	if opts.Strict && !result.Portable {
		if formatter.JSON() {
			if err := formatter.Error(ErrCodeUnsupported, "request is not portable", result); err != nil {
				return err
			}
		} else {
			writeValidation(formatter.Writer, result)
		}
		return NewExitError(ExitFailure, "request is not portable")
	}

	return formatter.Success(result, func(w io.Writer) {
		writeValidation(w, result)
	})
}

func writeValidation(w io.Writer, r ValidationResult) {
	for _, b := range criteria.Backends {
		mark := "✓"
		if !r.Supported[b] {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, b)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
	if r.Portable {
		fmt.Fprintf(w, "✓ %s renders on every backend\n", r.Entity)
	}
}
