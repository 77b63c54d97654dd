package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/dicekv/dicekv/pkg/types"
)

func (a *app) watchCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream record snapshots until interrupted",
		Long: `Watch opens the server's WebSocket stream and prints every snapshot it
receives: one on connect, one per broadcast interval and one after every
eviction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, header := a.client.WatchURL()
			dialer := websocket.Dialer{
				HandshakeTimeout: a.v.GetDuration(keyTimeout),
				TLSClientConfig:  a.client.TLSConfig(),
			}
			conn, resp, err := dialer.DialContext(cmd.Context(), url, header)
			if err != nil {
				if resp != nil {
					return fmt.Errorf("watch %s: HTTP %d: %w", url, resp.StatusCode, err)
				}
				return fmt.Errorf("watch %s: %w", url, err)
			}
			defer conn.Close()

			ctx := cmd.Context()
			done := make(chan struct{})
			defer close(done)
			go func() {
				select {
				case <-ctx.Done():
					conn.Close()
				case <-done:
				}
			}()

			out := cmd.OutOrStdout()
			for n := 0; count <= 0 || n < count; n++ {
				_, raw, err := conn.ReadMessage()
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return fmt.Errorf("watch: read: %w", err)
				}

				if a.jsonOutput() {
					fmt.Fprintln(out, string(raw))
					continue
				}
				var msg types.StreamMessage
				if err := json.Unmarshal(raw, &msg); err != nil {
					return fmt.Errorf("watch: decode: %w", err)
				}
				fmt.Fprintf(out, "--- %s %s: %d records\n", msg.Event, stamp(msg.Data.GeneratedAt), len(msg.Data.Records))
				if err := writeRecords(out, msg.Data.Records); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "stop after this many snapshots (0 streams forever)")
	return cmd
}

// stamp shortens an RFC3339 timestamp to local wall-clock time.
func stamp(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Local().Format("15:04:05")
}
