package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hoshipkg/hoshi/pkg/catalog"
	"github.com/hoshipkg/hoshi/pkg/progress"
	"github.com/hoshipkg/hoshi/pkg/transfer"
)

// fetchCommand creates the fetch command, a single download with progress.
func (c *CLI) fetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <url> <file> [dir]",
		Short: "Download a single file with progress",
		Example: `  hoshi fetch http://localhost:8000/cometlib-1.0.0.tar.gz cometlib.tar.gz
  hoshi fetch https://example.com/big.zip big.zip /tmp/downloads`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, file := args[0], args[1]
			dir := "."
			if len(args) == 3 {
				dir = args[2]
			}

			downloader := transfer.NewDownloader(transfer.WithLogger(c.Logger))

			display := newDisplay(os.Stderr, c.Logger)
			item := catalog.Artifact{Name: file, DownloadURL: url}
			display.Start([]catalog.Artifact{item})

			ch := progress.NewChannel(progress.DefaultBuffer)
			done := make(chan struct{})
			go func() {
				defer close(done)
				progress.NewAggregator().Run(ch, display.Track(item))
			}()

			path, err := downloader.Download(cmd.Context(), url, dir, file, ch)
			<-done
			display.Stop()
			if err != nil {
				return err
			}

			printSuccess("Downloaded %s", file)
			printFile(path)
			return nil
		},
	}
}
