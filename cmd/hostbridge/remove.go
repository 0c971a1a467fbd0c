package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd(m *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <ADDRESS:PORT|HOST>",
		Short: "Remove a route by connect endpoint or hostname",
		Long: `Remove routes.

With ADDRESS:PORT every hostname served by that bridge is removed together
with the bridge. With HOST the hostname is removed, or every hostname
containing HOST when no exact match exists; a bridge is deleted once no
hostname refers to it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return m.handle(m.remove(cmd, args[0]))
		},
	}
}

func (m *app) remove(cmd *cobra.Command, target string) error {
	session, err := m.open(cmd.Context(), true)
	if err != nil {
		return err
	}

	result, err := session.Reconciler.Remove(cmd.Context(), target)
	if err != nil {
		return err
	}

	for _, entry := range result.Entries {
		fmt.Fprintf(m.out, "Removed host %q.\n", entry.Host)
	}
	for _, b := range result.Bridges {
		fmt.Fprintf(m.out, "Removed bridge to %s.\n", b.ConnectTo)
	}
	return nil
}
