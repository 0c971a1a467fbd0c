package main

import (
	"github.com/spf13/cobra"
)

func newTestCmd(m *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test <ADDRESS:PORT|HOST>",
		Short: "Serve a page for the route's hostnames to check it from a browser",
		Long: `Start a web server on the connect endpoint of a route.

Every request whose Host header names one of the route's hostnames is
answered with a short page. The server runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return m.handle(m.test(cmd, args[0]))
		},
	}
}

func (m *app) test(cmd *cobra.Command, target string) error {
	session, err := m.open(cmd.Context(), false)
	if err != nil {
		return err
	}

	listener := m.newListener(m.log.Named("demo"), m.out)
	return session.Reconciler.Test(cmd.Context(), target, listener)
}
