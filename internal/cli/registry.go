package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hoshipkg/hoshi/pkg/errors"
)

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed packages",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			reg, err := newStore(cfg).Load()
			if err != nil {
				return err
			}
			pkgs := reg.List()

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(pkgs)
			}
			if len(pkgs) == 0 {
				printInfo("No packages installed")
				printDetail("Registry: %s", cfg.RegistryPath)
				return nil
			}

			rows := make([][]string, len(pkgs))
			for i, p := range pkgs {
				rows[i] = []string{p.Name, p.Version, p.InstallPath}
			}
			fmt.Println(renderTable([]string{"Package", "Version", "Path"}, rows))
			printDetail("%d package(s) in %s", len(pkgs), cfg.RegistryPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the records as JSON")
	return cmd
}

// deleteCommand creates the delete command. It edits the registry only;
// installed files are left in place.
func (c *CLI) deleteCommand() *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:     "delete <package>",
		Aliases: []string{"remove", "rm"},
		Short:   "Remove a package from the registry",
		Long: `Delete removes a package record from the registry. Installed files are not
touched. Without --version and with several versions installed, the highest
version is removed.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeInstalled,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := errors.ValidatePackageName(name); err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			store := newStore(cfg)
			unlock, err := store.Lock(cmd.Context())
			if err != nil {
				return err
			}
			defer releaseLock(c.Logger, unlock)

			reg, err := store.Load()
			if err != nil {
				return err
			}
			removed, ok := reg.Remove(name, version)
			if !ok {
				if version != "" {
					return errors.New(errors.ErrCodeNotFound, "package %s %s is not installed", name, version)
				}
				return errors.New(errors.ErrCodeNotFound, "package %s is not installed", name)
			}
			if err := store.Save(reg); err != nil {
				return err
			}

			printSuccess("Removed %s %s from the registry", removed.Name, removed.Version)
			printDetail("Files remain in %s", removed.InstallPath)
			if left := reg.Versions(name); len(left) > 0 {
				printDetail("%d other version(s) of %s still installed", len(left), name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "remove this exact version")
	return cmd
}

// releaseLock runs unlock and logs a failure instead of dropping it.
func releaseLock(logger *log.Logger, unlock func() error) {
	if err := unlock(); err != nil {
		logger.Warn("failed to release registry lock", "error", err)
	}
}
