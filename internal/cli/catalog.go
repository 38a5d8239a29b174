package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hoshipkg/hoshi/pkg/catalog"
	"github.com/hoshipkg/hoshi/pkg/errors"
)

// syncCommand creates the sync command.
func (c *CLI) syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [constellation]",
		Short: "Refresh constellation metadata",
		Long: `Sync fetches constellation metadata, bypassing the cache, and stores the
fresh documents. Without an argument every configured constellation is synced.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeConstellations,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			cons := cfg.Constellations
			if len(args) == 1 {
				con, ok := catalog.FindConstellation(cfg.Constellations, args[0])
				if !ok {
					return errors.New(errors.ErrCodeNotFound, "unknown constellation %q (configured: %s)", args[0], constellationNames(cfg.Constellations))
				}
				cons = []catalog.Constellation{con}
			}

			client, backend, err := c.newCatalog(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer backend.Close()

			t := newTimer(c.Logger)
			spinner := newSpinnerWithContext(cmd.Context(), "Syncing constellations...")
			spinner.Start()
			results := client.FetchAll(cmd.Context(), cons, true)
			spinner.Stop()

			var failed error
			total := 0
			for _, r := range results {
				if r.Err != nil {
					printError("%s: %s", r.Constellation.Name, errors.UserMessage(r.Err))
					if failed == nil {
						failed = r.Err
					}
					continue
				}
				total += len(r.Metadata.Packages)
				printSuccess("Synced %s", StyleHighlight.Render(r.Constellation.Name))
				printDetail("%d package(s) from %s", len(r.Metadata.Packages), r.Constellation.MetadataURL)
			}
			t.done(fmt.Sprintf("Synced %d package(s)", total))
			return failed
		},
	}
}

type searchHit struct {
	artifact      catalog.Artifact
	constellation string
}

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	var (
		constellation string
		noCache       bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search constellations for packages",
		Long: `Search lists packages whose name contains the query, or equals it ignoring
case. A constellation that cannot be fetched is reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[0]
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			cons := cfg.Constellations
			if constellation != "" {
				con, ok := catalog.FindConstellation(cfg.Constellations, constellation)
				if !ok {
					return errors.New(errors.ErrCodeNotFound, "unknown constellation %q (configured: %s)", constellation, constellationNames(cfg.Constellations))
				}
				cons = []catalog.Constellation{con}
			}

			client, backend, err := c.newCatalog(cmd.Context(), cfg, noCache)
			if err != nil {
				return err
			}
			defer backend.Close()

			spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Searching for %q...", query))
			spinner.Start()
			results := client.FetchAll(cmd.Context(), cons, false)
			spinner.Stop()

			hits := collectHits(results, query)
			if len(hits) == 0 {
				printInfo("No packages match %q", query)
				return nil
			}

			rows := make([][]string, len(hits))
			for i, h := range hits {
				rows[i] = []string{h.artifact.Name, h.artifact.Version, formatSize(h.artifact.SizeMB), h.constellation, h.artifact.Description}
			}
			fmt.Println(renderTable([]string{"Package", "Version", "Size", "Constellation", "Description"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVarP(&constellation, "constellation", "c", "", "search only this constellation")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "fetch without using the cache")
	_ = cmd.RegisterFlagCompletionFunc("constellation", c.completeConstellations)
	return cmd
}

// collectHits searches each fetched constellation and merges the matches,
// sorted by name. Failed constellations are reported.
func collectHits(results []catalog.Result, query string) []searchHit {
	var hits []searchHit
	for _, r := range results {
		if r.Err != nil {
			printWarning("Skipping %s: %s", r.Constellation.Name, errors.UserMessage(r.Err))
			continue
		}
		for _, a := range catalog.Search(r.Metadata.Packages, query) {
			hits = append(hits, searchHit{artifact: a, constellation: r.Constellation.Name})
		}
	}
	slices.SortStableFunc(hits, func(a, b searchHit) int {
		return strings.Compare(a.artifact.Name, b.artifact.Name)
	})
	return hits
}

func constellationNames(cons []catalog.Constellation) string {
	names := make([]string, len(cons))
	for i, c := range cons {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}
