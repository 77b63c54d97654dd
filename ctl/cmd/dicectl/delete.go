package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dicekv/dicekv/ctl/internal/client"
)

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a record",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			err = a.client.Delete(cmd.Context(), id)
			if errors.Is(err, client.ErrNotFound) {
				return fmt.Errorf("cannot delete, no data with id %d", id)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", id)
			return nil
		},
	}
}
