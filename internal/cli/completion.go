package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell
// completion scripts.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for the named shell.

Load it directly, for example:

  source <(snapstack completion bash)
  snapstack completion fish | source

or install it where your shell expects completions:

  snapstack completion bash > /etc/bash_completion.d/snapstack
  snapstack completion zsh  > "${fpath[1]}/_snapstack"
  snapstack completion fish > ~/.config/fish/completions/snapstack.fish`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(os.Stdout)
			case "zsh":
				return root.GenZshCompletion(os.Stdout)
			case "fish":
				return root.GenFishCompletion(os.Stdout, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell %q", args[0])
			}
		},
	}
}
