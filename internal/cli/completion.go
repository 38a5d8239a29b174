package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for hoshi.

To load completions:

Bash:
  $ source <(hoshi completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ hoshi completion bash > /etc/bash_completion.d/hoshi
  # macOS:
  $ hoshi completion bash > $(brew --prefix)/etc/bash_completion.d/hoshi

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ hoshi completion zsh > "${fpath[1]}/_hoshi"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ hoshi completion fish | source

  # To load completions for each session, execute once:
  $ hoshi completion fish > ~/.config/fish/completions/hoshi.fish

PowerShell:
  PS> hoshi completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> hoshi completion powershell > hoshi.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// completeInstalled completes package names from the registry.
func (c *CLI) completeInstalled(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	reg, err := newStore(cfg).Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	seen := make(map[string]bool)
	var names []string
	for _, p := range reg.List() {
		if !seen[p.Name] && strings.HasPrefix(p.Name, toComplete) {
			seen[p.Name] = true
			names = append(names, p.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeConstellations completes configured constellation names.
func (c *CLI) completeConstellations(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var names []string
	for _, con := range cfg.Constellations {
		if strings.HasPrefix(strings.ToLower(con.Name), strings.ToLower(toComplete)) {
			names = append(names, con.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
