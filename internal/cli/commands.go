package cli

import (
	"github.com/rileyhilliard/pfdash/internal/errors"
	"github.com/spf13/cobra"
)

// Command-specific flags
var (
	dashboardOpts      DashboardOptions
	initHostFlag       string
	initUserFlag       string
	initForce          bool
	initNonInteractive bool
	initSkipCheck      bool
	doctorHost         string
	doctorJSON         bool
)

// initCmd writes a starter config
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a pfdash config file",
	Long: `Write a starter config for pfdash.

Offers the hosts in ~/.ssh/config, asks for the SSH user and host key policy,
and checks that the router answers before saving.

Examples:
  pfdash init
  pfdash init --host admin@192.168.1.1
  pfdash init --host router --non-interactive --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Init(InitOptions{
			Path:           cfgFile,
			Host:           initHostFlag,
			Username:       initUserFlag,
			Overwrite:      initForce,
			NonInteractive: initNonInteractive,
			SkipCheck:      initSkipCheck,
		})
	},
}

// doctorCmd checks the config, the connection and the router's tools
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose config and router problems",
	Long: `Check that pfdash can run against your router.

Validates the config, logs in over SSH, reads the pfSense version and
config.xml, and checks that every tool the dashboard runs is installed.

Examples:
  pfdash doctor
  pfdash doctor --host admin@192.168.1.1
  pfdash doctor --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd.OutOrStdout(), cfgFile, doctorHost, doctorJSON)
	},
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for pfdash.

Examples:
  # Bash
  pfdash completion bash > /etc/bash_completion.d/pfdash

  # Zsh
  pfdash completion zsh > "${fpath[1]}/_pfdash"

  # Fish
  pfdash completion fish > ~/.config/fish/completions/pfdash.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(out)
		default:
			return errors.New(errors.ErrExec,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

func init() {
	// dashboard flags
	rootCmd.Flags().StringVar(&dashboardOpts.Host, "host", "", "router to connect to (overrides ssh.hostname)")
	rootCmd.Flags().BoolVar(&dashboardOpts.Plain, "plain", false, "redraw with plain escape codes instead of the full-screen UI")

	// init command flags
	initCmd.Flags().StringVar(&initHostFlag, "host", "", "router host, user@host or ~/.ssh/config alias")
	initCmd.Flags().StringVar(&initUserFlag, "user", "", "SSH user")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "don't prompt; requires --host")
	initCmd.Flags().BoolVar(&initSkipCheck, "skip-check", false, "don't test the connection before saving")

	// doctor command flags
	doctorCmd.Flags().StringVar(&doctorHost, "host", "", "router to check (overrides ssh.hostname)")
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output in JSON format")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(completionCmd)
}
