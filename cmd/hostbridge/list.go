package main

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/yanet-platform/hostbridge/internal/hosts"
)

var listCmdArgs struct {
	All  bool
	Host string
}

func newListCmd(m *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show bridges and the hostnames routed through them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return m.handle(m.list(cmd, listCmdArgs.All, listCmdArgs.Host))
		},
	}

	cmd.Flags().BoolVar(&listCmdArgs.All, "all", false, "Also show bridges without hostnames")
	cmd.Flags().StringVar(&listCmdArgs.Host, "host", "", "Show only hostnames matching the glob, \"*\" stops at dots, \"**\" does not")

	return cmd
}

func (m *app) list(cmd *cobra.Command, all bool, pattern string) error {
	var filter glob.Glob
	if pattern != "" {
		var err error
		if filter, err = glob.Compile(pattern, '.'); err != nil {
			return fmt.Errorf("invalid host pattern %q: %w", pattern, err)
		}
	}

	session, err := m.open(cmd.Context(), false)
	if err != nil {
		return err
	}

	shown := 0
	for _, route := range session.Reconciler.List() {
		entries := route.Entries
		if filter != nil {
			entries = matching(entries, filter)
		}
		if len(entries) == 0 && !all {
			continue
		}

		fmt.Fprintf(m.out, "Listening to %q for host(s):\n", route.Bridge.ConnectTo.String())
		for _, entry := range entries {
			fmt.Fprintf(m.out, "\t- %s\n", entry.Host)
		}
		fmt.Fprintln(m.out)
		shown++
	}

	if shown == 0 {
		fmt.Fprintln(m.out, "No bridges found.")
	}
	return nil
}

func matching(entries []hosts.Entry, filter glob.Glob) []hosts.Entry {
	var out []hosts.Entry
	for _, entry := range entries {
		if filter.Match(entry.Host) {
			out = append(out, entry)
		}
	}
	return out
}
