package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// -------------------- MAIN --------------------

type options struct {
	configPath  string
	keypairPath string
	cluster     string
}

func newRootCmd() *cobra.Command {
	var opts options

	homeDir, _ := os.UserHomeDir()

	cmd := &cobra.Command{
		Use:   "gif-portal",
		Short: "Submit, browse and upvote GIFs stored in a Solana program",
		Long: `gif-portal is a terminal front-end for the GIF portal program.

It connects a solana-keygen wallet, lists the GIFs kept in the program's
ledger account and lets you add new ones or upvote existing ones.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newModel(opts)
			if err != nil {
				return err
			}
			defer m.shutdown()

			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", filepath.Join(homeDir, ".gif-portal-config.json"), "path to the config file")
	cmd.Flags().StringVar(&opts.keypairPath, "keypair", "", "solana-keygen wallet file (overrides keypair_path)")
	cmd.Flags().StringVar(&opts.cluster, "cluster", "", "name of the configured cluster to use")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}
