package main

import (
	"github.com/spf13/cobra"
)

func (a *app) createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <value>",
		Short: "Store a value and print the new record",
		Long: `Create stores a value. The server classifies it: numbers become integers
or floats, "true" and "false" become booleans, everything else is text.

Example:
  dicectl create 42
  dicectl create "hello world"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.client.Create(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printRecord(cmd.OutOrStdout(), rec)
		},
	}
}
