package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/twinq/internal/index"
	"github.com/roach88/twinq/internal/index/memindex"
	"github.com/roach88/twinq/internal/solr"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	SolrURL  string
	SolrCore string
	Docs     string // YAML or JSON document list searched in memory
}

// SearchResult holds the response of one index request.
type SearchResult struct {
	Entity string `json:"entity"`
	Source string `json:"source"`
	*index.Result
}

// searchFunc runs a rendered index request.
type searchFunc func(ctx context.Context, req index.Request) (*index.Result, error)

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <request-file>",
		Short: "Run a request against a search index",
		Long: `Render a request for the search index and run it.

The request goes to a Solr core (--solr-url, --solr-core) or, with --docs,
to an in-memory index loaded from a YAML or JSON list of documents.

Examples:
  twinq search ./requests/products.yaml --solr-url http://localhost:8983/solr --solr-core products
  twinq search ./requests/products.yaml --docs ./products.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SolrURL, "solr-url", "", "Solr base URL (default from config)")
	cmd.Flags().StringVar(&opts.SolrCore, "solr-core", "", "Solr core (default from config)")
	cmd.Flags().StringVar(&opts.Docs, "docs", "", "search an in-memory index of these documents")

	return cmd
}

func runSearch(opts *SearchOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	resolver, err := loadResolver(opts.setting(opts.Registry, KeyRegistry))
	if err != nil {
		return formatter.Fail(exitCode(err), errorCode(err), "failed to load registry", err)
	}
	req, err := loadRequest(path)
	if err != nil {
		return formatter.Fail(exitCode(err), errorCode(err), "failed to load request", err)
	}
	if len(req.Joins) > 0 {
		return formatter.Fail(ExitFailure, ErrCodeUnsupported, "joins have no index form", nil)
	}

	q, err := req.IndexQuery(resolver)
	if err != nil {
		return formatter.Fail(ExitFailure, errorCode(err), "invalid request", err)
	}
	rendered, err := index.NewRenderer(resolver, index.WithLogger(opts.logger())).Render(q)
	if err != nil {
		return formatter.Fail(ExitFailure, errorCode(err), "index rendering failed", err)
	}

	search, source, err := opts.searcher(req.Entity)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "no search index", err)
	}
	formatter.VerboseLog("Searching %s in %s", req.Entity, source)

	res, err := search(cmd.Context(), rendered)
	if err != nil {
		code := errorCode(err)
		if code == ErrCodeGeneric {
			code = ErrCodeExecution
		}
		return formatter.Fail(ExitFailure, code, "search failed", err)
	}

	result := SearchResult{Entity: req.Entity, Source: source, Result: res}
	return formatter.Success(result, func(w io.Writer) {
		writeSearch(w, res)
	})
}

// searcher picks the in-memory index when documents are given, else Solr.
func (o *SearchOptions) searcher(entity string) (searchFunc, string, error) {
	if o.Docs != "" {
		docs, err := loadDocuments(o.Docs)
		if err != nil {
			return nil, "", err
		}
		ix := memindex.New(memindex.WithLogger(o.logger()))
		ix.Add(entity, docs...)
		return ix.Search, o.Docs, nil
	}

	url := o.setting(o.SolrURL, KeySolrURL)
	core := o.setting(o.SolrCore, KeySolrCore)
	if url == "" {
		return nil, "", fmt.Errorf("set --solr-url or --docs")
	}
	client, err := solr.NewClient(url, core, solr.WithLogger(o.logger()))
	if err != nil {
		return nil, "", err
	}
	return client.Query, client.Endpoint(), nil
}

// loadDocuments reads a YAML or JSON list of documents.
func loadDocuments(path string) ([]index.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}
	var docs []index.Document
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode documents %s: %w", path, err)
	}
	return docs, nil
}

func writeSearch(w io.Writer, res *index.Result) {
	rows := make([]map[string]any, len(res.Documents))
	for i, doc := range res.Documents {
		rows[i] = doc
	}
	writeTable(w, rows)
	fmt.Fprintf(w, "(%d of %d documents)\n", len(res.Documents), res.Count)

	for _, field := range slices.Sorted(maps.Keys(res.Facets)) {
		fmt.Fprintf(w, "facet %s:\n", field)
		for _, fc := range res.Facets[field] {
			fmt.Fprintf(w, "  %s: %d\n", fc.Value, fc.Count)
		}
	}
	for _, query := range slices.Sorted(maps.Keys(res.FacetQueries)) {
		fmt.Fprintf(w, "facet query %s: %d\n", query, res.FacetQueries[query])
	}
	if res.Suggestion != "" {
		fmt.Fprintf(w, "did you mean: %s\n", res.Suggestion)
	}
}
