package cli

import (
	"github.com/spf13/cobra"

	"github.com/hoshipkg/hoshi/pkg/archive"
	"github.com/hoshipkg/hoshi/pkg/errors"
)

// archiveCommand creates the archive command group.
func (c *CLI) archiveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Create and extract tar, tar.gz, tar.bz2, tar.xz and zip archives",
		Long: `The archive format is chosen from the final extension of the archive path:
.tar, .gz (gzip tar), .bz2 (bzip2 tar), .xz (xz tar) or .zip.`,
	}

	cmd.AddCommand(c.archiveCreateCommand())
	cmd.AddCommand(c.archiveExtractCommand())
	return cmd
}

func (c *CLI) archiveCreateCommand() *cobra.Command {
	var archivePath string

	cmd := &cobra.Command{
		Use:   "create -a <archive> <path>...",
		Short: "Pack files and directories into an archive",
		Example: `  hoshi archive create -a release.tar.gz bin/ README.md
  hoshi archive create -a docs.zip docs`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := archive.KindFromPath(archivePath); err != nil {
				return err
			}
			t := newTimer(c.Logger)
			spinner := newSpinnerWithContext(cmd.Context(), "Creating "+archivePath+"...")
			spinner.Start()
			if err := archive.Create(archivePath, args); err != nil {
				spinner.StopWithError("Could not create " + archivePath)
				return err
			}
			spinner.StopWithSuccess("Created archive")
			t.done("Archive created")
			printFile(archivePath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&archivePath, "archive", "a", "", "archive file to create (required)")
	_ = cmd.MarkFlagRequired("archive")
	return cmd
}

func (c *CLI) archiveExtractCommand() *cobra.Command {
	var archivePath, output string

	cmd := &cobra.Command{
		Use:   "extract -a <archive> [-o <dir>]",
		Short: "Unpack an archive into a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New(errors.ErrCodeInvalidPath, "output directory must not be empty")
			}
			t := newTimer(c.Logger)
			spinner := newSpinnerWithContext(cmd.Context(), "Extracting "+archivePath+"...")
			spinner.Start()
			if err := archive.Extract(archivePath, output); err != nil {
				spinner.StopWithError("Could not extract " + archivePath)
				return err
			}
			spinner.StopWithSuccess("Extracted " + archivePath)
			t.done("Archive extracted")
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&archivePath, "archive", "a", "", "archive file to extract (required)")
	cmd.Flags().StringVarP(&output, "output", "o", ".", "directory to extract into")
	_ = cmd.MarkFlagRequired("archive")
	return cmd
}
