// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the enabled sources concurrently",
	Long: `Search sends the query to every selected source at once, drops results
that appear more than once, and ranks the rest. A source that fails or times
out is reported and skipped; the others still answer.

Use --web for the deep web search set (web index, encyclopedia, and arXiv for
technical queries).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := queryFromFlags(cmd, strings.Join(args, " "))
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		if format != "table" && format != "json" && format != "csl" {
			return fmt.Errorf("unknown format %q (want table, json, or csl)", format)
		}

		reg := newRegistry(cfg)
		backends, err := selectBackends(cmd, reg, q)
		if err != nil {
			return err
		}

		ctx, stop := withSignals(cmd.Context())
		defer stop()

		out, err := search.Aggregate(ctx, q, backends, cfg.Search, search.Options{Logger: logger.Named("search")})
		if err != nil {
			return err
		}
		for _, src := range out.SourcesQueried {
			if e, failed := out.SourceErrors[src]; failed {
				fmt.Fprintf(os.Stderr, "Warning: %s failed: %v\n", src.DisplayName(), e)
			}
		}

		w := cmd.OutOrStdout()
		switch format {
		case "json":
			return search.FormatJSON(out, w)
		case "csl":
			return search.FormatCSL(out, w)
		default:
			search.FormatTable(out, w)
			fmt.Fprintf(os.Stderr, "%d unique of %d upstream matches, %d duplicates removed\n",
				out.TotalCount, out.UpstreamTotal, out.DuplicatesRemoved)
			return nil
		}
	},
}

func init() {
	searchCmd.Flags().StringSlice("source", nil, "sources to query (repeatable; default all enabled)")
	searchCmd.Flags().Bool("web", false, "run the deep web search set instead of the literature sources")
	searchCmd.Flags().Int("max-results", 0, "maximum number of results to return (default search.max_results)")
	searchCmd.Flags().String("from", "", "publication date lower bound (YYYY-MM-DD)")
	searchCmd.Flags().Int("from-year", 0, "earliest publication year")
	searchCmd.Flags().Int("to-year", 0, "latest publication year")
	searchCmd.Flags().StringSlice("article-type", nil, "PubMed publication types (e.g. Review)")
	searchCmd.Flags().Bool("open-access", false, "only free full text")
	searchCmd.Flags().Bool("humans", false, "only human studies (PubMed)")
	searchCmd.Flags().Bool("sort-date", false, "sort by publication date where the source supports it")
	searchCmd.Flags().String("type", "", "CrossRef work type (e.g. journal-article)")
	searchCmd.Flags().StringSlice("field", nil, "Semantic Scholar fields of study")
	searchCmd.Flags().String("status", "", "trial recruitment status")
	searchCmd.Flags().String("phase", "", "trial phase")
	searchCmd.Flags().String("study-type", "", "trial study type")
	searchCmd.Flags().String("format", "table", "output format: table, json, or csl")

	rootCmd.AddCommand(searchCmd)
}

// queryFromFlags builds the query and its filters from the command flags.
func queryFromFlags(cmd *cobra.Command, text string) (search.Query, error) {
	f := cmd.Flags()
	q := search.Query{FreeText: strings.TrimSpace(text)}
	q.MaxResults, _ = f.GetInt("max-results")

	if from, _ := f.GetString("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return search.Query{}, fmt.Errorf("--from: %w", err)
		}
		q.Filters.DateFrom = t
	}
	q.Filters.YearFrom, _ = f.GetInt("from-year")
	q.Filters.YearTo, _ = f.GetInt("to-year")
	q.Filters.ArticleTypes, _ = f.GetStringSlice("article-type")
	q.Filters.FreeFullText, _ = f.GetBool("open-access")
	q.Filters.Humans, _ = f.GetBool("humans")
	q.Filters.SortByDate, _ = f.GetBool("sort-date")
	q.Filters.WorkType, _ = f.GetString("type")
	q.Filters.FieldsOfStudy, _ = f.GetStringSlice("field")
	q.Filters.Status, _ = f.GetString("status")
	q.Filters.Phase, _ = f.GetString("phase")
	q.Filters.StudyType, _ = f.GetString("study-type")
	return q, nil
}

// selectBackends resolves --web and --source against the registry.
func selectBackends(cmd *cobra.Command, reg *search.Registry, q search.Query) ([]search.Backend, error) {
	if web, _ := cmd.Flags().GetBool("web"); web {
		backends := reg.Web(q, true)
		if len(backends) == 0 {
			return nil, fmt.Errorf("web search is disabled by search.sources")
		}
		return backends, nil
	}

	names, _ := cmd.Flags().GetStringSlice("source")
	sources, err := parseSources(names)
	if err != nil {
		return nil, err
	}
	return reg.Select(sources)
}
