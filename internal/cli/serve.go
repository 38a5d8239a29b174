package cli

import (
	"github.com/spf13/cobra"

	"github.com/hoshipkg/hoshi/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var dir, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a directory of constellations and archives over HTTP",
		Long: `Serve exposes a local directory holding constellation documents and the
archives they reference. The default address matches the built-in
constellation URLs (http://localhost:8000).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := server.New(dir, c.Logger)
			if err != nil {
				return err
			}
			infos, err := srv.Constellations()
			if err != nil {
				return err
			}
			printInfo("Serving %s on %s", StyleValue.Render(srv.Dir()), StyleLink.Render("http://"+displayAddr(addr)))
			for _, info := range infos {
				printDetail("%s (%s, %d packages)", info.Name, info.File, info.Packages)
			}
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to serve")
	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	return cmd
}

// displayAddr turns ":8000" into "localhost:8000".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
