// Root command for the loungepos CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vileopratama/vitech/config"
	"github.com/vileopratama/vitech/pkg/lounge"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
)

// cfg is loaded by PersistentPreRunE so all subcommands can use it.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "loungepos",
	Short:         "loungepos manages the offline point of sale data store",
	Version:       lounge.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(resolveConfigDir())
		if err != nil {
			return sysError("load config: %s", err)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: $(CWD)/.loungepos)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: from config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(pendingCmd)
}

// resolveConfigDir follows the precedence --config-dir flag >
// LOUNGEPOS_CONFIG_DIR env > $(CWD)/.loungepos.
func resolveConfigDir() string {
	if flagConfigDir != "" {
		return flagConfigDir
	}
	if dir := os.Getenv("LOUNGEPOS_CONFIG_DIR"); dir != "" {
		return dir
	}
	return ".loungepos"
}

// resolveDataDir follows the precedence --data-dir flag > config.yaml
// storage.data_dir.
func resolveDataDir() string {
	if flagDataDir != "" {
		return flagDataDir
	}
	return cfg.Storage.DataDir
}

// codedError carries an exit code up to main.
type codedError struct {
	code int
	msg  string
}

func (e *codedError) Error() string { return e.msg }

func sysError(format string, args ...any) error {
	return &codedError{code: exitSysError, msg: fmt.Sprintf(format, args...)}
}
