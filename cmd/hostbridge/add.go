package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd(m *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <ADDRESS:PORT> <HOST>",
		Short: "Route a hostname to a local address and port",
		Long: `Route HOST to ADDRESS:PORT.

A forwarding rule from a free loopback address on the listen port to
ADDRESS:PORT is created unless one exists, then HOST is mapped to that
loopback address in the hosts file. When the hosts file cannot be written,
a rule created by this call is deleted again.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return m.handle(m.add(cmd, args[0], args[1]))
		},
	}
}

func (m *app) add(cmd *cobra.Command, connect string, host string) error {
	session, err := m.open(cmd.Context(), true)
	if err != nil {
		return err
	}

	result, err := session.Reconciler.Add(cmd.Context(), connect, host)
	if err != nil {
		return err
	}

	switch {
	case result.Exists:
		fmt.Fprintf(m.out, "Host already exists for %s\n", result.ConnectTo)
	case result.Created:
		fmt.Fprintf(m.out, "Added %s to new bridge for %q.\n", result.ConnectTo, result.Host)
	default:
		fmt.Fprintf(m.out, "Added %s to existing bridge for %q.\n", result.ConnectTo, result.Host)
	}
	return nil
}
