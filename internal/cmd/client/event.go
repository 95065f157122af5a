package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	transports "github.com/rhurkes/wx-storage/internal/cmd/client/transports"
	"github.com/rhurkes/wx-storage/internal/eventlog"
)

// NewEventCommand constructs the `event` command group and subcommands.
func NewEventCommand() *cobra.Command {
	eventCmd := &cobra.Command{Use: "event", Short: "Event operations"}
	eventCmd.AddCommand(newEventPutCommand(), newEventGetCommand())
	return eventCmd
}

// newEventPutCommand constructs the `event put` subcommand.
func newEventPutCommand() *cobra.Command {
	putCmd := &cobra.Command{
		Use:   "put",
		Short: "Store one event and print its resume token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			at, _ := cmd.Flags().GetString("at")
			kind, _ := cmd.Flags().GetUint16("kind")
			data, _ := cmd.Flags().GetString("data")

			ts, err := parseTimestamp(at)
			if err != nil {
				return err
			}
			if ts == 0 {
				ts = uint64(time.Now().UnixMicro())
			}
			key, err := getTransport().PutEvent(cmd.Context(), eventlog.Record{
				TimestampMicros: ts,
				Kind:            kind,
				Payload:         []byte(data),
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "token:", encodeToken(key))
			return nil
		},
	}
	putCmd.Flags().String("at", "", "Event timestamp: microseconds or RFC3339 (default now)")
	putCmd.Flags().Uint16("kind", 0, "Event kind")
	putCmd.Flags().String("data", "", "Event payload")
	return putCmd
}

// newEventGetCommand constructs the `event get` subcommand.
func newEventGetCommand() *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print events from a timestamp or after a token, one JSON object per line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, _ := cmd.Flags().GetString("start")
			after, _ := cmd.Flags().GetString("after")
			limit, _ := cmd.Flags().GetInt("limit")

			var req transports.EventsRequest
			if after != "" {
				k, err := parseToken(after)
				if err != nil {
					return err
				}
				req.After = &k
			} else {
				ts, err := parseTimestamp(start)
				if err != nil {
					return err
				}
				req.Start = ts
			}

			events, err := getTransport().GetEvents(cmd.Context(), req)
			if err != nil {
				return err
			}
			if limit > 0 && len(events) > limit {
				events = events[:limit]
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, ev := range events {
				if err := enc.Encode(decodedEvent(ev)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	getCmd.Flags().String("start", "", "Start timestamp: microseconds or RFC3339 (default: server lookback window)")
	getCmd.Flags().String("after", "", "Resume after this token (base64)")
	getCmd.Flags().Int("limit", 0, "Print at most N events (0 = all)")
	return getCmd
}
