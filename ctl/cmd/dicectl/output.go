package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dicekv/dicekv/pkg/types"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeRecords prints records as an aligned table.
func writeRecords(w io.Writer, recs []types.RecordResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tRETENTION\tVALUE")
	for _, r := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%.3f\t%s\n", r.ID, r.Type, r.RetentionWeight, r.Display)
	}
	return tw.Flush()
}

func (a *app) printRecord(w io.Writer, r types.RecordResponse) error {
	if a.jsonOutput() {
		return writeJSON(w, r)
	}
	return writeRecords(w, []types.RecordResponse{r})
}
