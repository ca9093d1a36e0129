package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/twinq/internal/store"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Driver   string
	DSN      string
	Schema   string // SQL script run before the query
	Criteria bool   // force the structured criteria path
}

// ExecResult holds the rows or count of one executed request.
type ExecResult struct {
	Entity string      `json:"entity"`
	Mode   string      `json:"mode"`
	Count  int64       `json:"count"`
	Rows   []store.Row `json:"rows,omitempty"`
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <request-file>",
		Short: "Run a request against a relational database",
		Long: `Render a request for the relational backend and run it.

The request runs as query text with named parameters, or as a structured
criteria query when the request sets criteria: true or --criteria is given.

Supported drivers: sqlite3, postgres, mysql, duckdb.

Examples:
  twinq exec ./requests/products.yaml --dsn ./shop.db
  twinq exec ./requests/products.yaml --driver postgres --dsn "postgres://localhost/shop?sslmode=disable"
  twinq exec ./requests/products.yaml --schema ./fixtures.sql --criteria`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Driver, "driver", "", "database driver (default from config, sqlite3)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "data source name (default from config)")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "SQL script to run before the query")
	cmd.Flags().BoolVar(&opts.Criteria, "criteria", false, "run as a structured criteria query")

	return cmd
}

func runExec(opts *ExecOptions, path string, cmd *cobra.Command) error {
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
	if err != nil {
		return formatter.Fail(ExitFailure, errorCode(err), "invalid request", err)
	}
	if opts.Criteria {
		q.UseCriteria = true
	}

	driver := opts.setting(opts.Driver, KeyDriver)
	st, err := store.Open(driver, opts.setting(opts.DSN, KeyDSN),
		store.WithTables(resolver),
		store.WithLogger(opts.logger()))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConnect, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if opts.Schema != "" {
		script, err := os.ReadFile(opts.Schema)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, "failed to read schema", err)
		}
		if err := st.Exec(ctx, string(script)); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeExecution, "schema failed", err)
		}
		formatter.VerboseLog("Applied schema %s", opts.Schema)
	}

	res, err := st.Run(ctx, q)
	if err != nil {
		code := errorCode(err)
		if code == ErrCodeGeneric {
			code = ErrCodeExecution
		}
		return formatter.Fail(ExitFailure, code, "query failed", err)
	}

	result := ExecResult{Entity: req.Entity, Mode: "query", Count: res.Count, Rows: res.Rows}
	if q.UseCriteria {
		result.Mode = "criteria"
	}
	formatter.VerboseLog("%s returned %d row(s) through %s", driver, res.Count, result.Mode)

	return formatter.Success(result, func(w io.Writer) {
		if q.Count {
			fmt.Fprintf(w, "count: %d\n", res.Count)
			return
		}
		rows := make([]map[string]any, len(res.Rows))
		for i, r := range res.Rows {
			rows[i] = r
		}
		writeTable(w, rows)
		fmt.Fprintf(w, "(%d rows)\n", len(res.Rows))
	})
}
