// Init command: create the configuration and the local database.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vileopratama/vitech/internal/localstore"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the local data store",
	Long:  "Create the configuration directory, a default config.yaml and the local database.",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	store := localstore.NewStore()
	if err := store.Attach(localstore.Config{
		DataDir:    resolveDataDir(),
		InstanceID: cfg.Instance.ID,
	}); err != nil {
		return sysError("initialize storage: %s", err)
	}
	if err := store.Detach(); err != nil {
		return sysError("finalize storage: %s", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "loungepos initialized successfully")
	return nil
}
