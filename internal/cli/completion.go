package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for nunet.

To load completions:

Bash:
  $ source <(nunet completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ nunet completion bash > /etc/bash_completion.d/nunet
  # macOS:
  $ nunet completion bash > $(brew --prefix)/etc/bash_completion.d/nunet

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ nunet completion zsh > "${fpath[1]}/_nunet"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ nunet completion fish | source

  # To load completions for each session, execute once:
  $ nunet completion fish > ~/.config/fish/completions/nunet.fish

PowerShell:
  PS> nunet completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> nunet completion powershell > nunet.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(output)
			case "zsh":
				return cmd.Root().GenZshCompletion(output)
			case "fish":
				return cmd.Root().GenFishCompletion(output, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(output)
			}
			return nil
		},
	}

	return cmd
}

// registerCompletions limits file completion for design and script
// arguments to the extensions they accept.
func registerCompletions(root *cobra.Command) {
	designExts := func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"nunet", "json", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	}
	_ = root.RegisterFlagCompletionFunc("design", designExts)

	for _, cmd := range root.Commands() {
		if cmd.Name() == "apply" {
			cmd.ValidArgsFunction = func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
				if len(args) > 0 {
					return nil, cobra.ShellCompDirectiveNoFileComp
				}
				return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
			}
		}
	}
}
