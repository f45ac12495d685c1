// Pending command: list the settled orders still waiting for a push
// acknowledgement.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vileopratama/vitech/internal/localstore"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List orders queued for push",
	Args:  cobra.NoArgs,
	RunE:  runPending,
}

// pendingEntry is one row of the pending listing.
type pendingEntry struct {
	UID   string `json:"uid"`
	XID   string `json:"xid,omitempty"`
	Queue string `json:"queue"`
}

func runPending(cmd *cobra.Command, args []string) error {
	store := localstore.NewStore()
	if err := store.Attach(localstore.Config{
		DataDir:    resolveDataDir(),
		InstanceID: cfg.Instance.ID,
	}); err != nil {
		return sysError("open storage: %s", err)
	}
	defer store.Detach()

	queues := []struct {
		name  string
		store *localstore.OrderStore
	}{
		{name: "orders", store: localstore.NewOrderStore(store, "unpaid_orders", "orders")},
		{name: "checkout_orders", store: localstore.NewOrderStore(store, "unpaid_checkout_orders", "checkout_orders")},
	}

	var entries []pendingEntry
	for _, q := range queues {
		records, err := q.store.LoadSettled()
		if err != nil {
			return sysError("read queue %s: %s", q.name, err)
		}
		for _, r := range records {
			entries = append(entries, pendingEntry{UID: r.ID, XID: r.XID, Queue: q.name})
		}
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if entries == nil {
			entries = []pendingEntry{}
		}
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "no orders pending")
		return nil
	}
	for _, e := range entries {
		if e.XID != "" {
			fmt.Fprintf(out, "%s\t%s\t%s\n", e.UID, e.Queue, e.XID)
		} else {
			fmt.Fprintf(out, "%s\t%s\n", e.UID, e.Queue)
		}
	}
	fmt.Fprintf(out, "%d order(s) pending\n", len(entries))
	return nil
}
