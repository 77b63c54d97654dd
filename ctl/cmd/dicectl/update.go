package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dicekv/dicekv/ctl/internal/client"
)

func (a *app) updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <id> <value>",
		Short: "Replace the value of a record",
		Long: `Update replaces the value of an existing record. The record's retention
weight is redrawn, so an update can make it more or less likely to be evicted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rec, err := a.client.Update(cmd.Context(), id, args[1])
			if errors.Is(err, client.ErrNotFound) {
				return fmt.Errorf("cannot update, no data with id %d", id)
			}
			if err != nil {
				return err
			}
			return a.printRecord(cmd.OutOrStdout(), rec)
		},
	}
}
