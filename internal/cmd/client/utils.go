package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	transports "github.com/rhurkes/wx-storage/internal/cmd/client/transports"
	"github.com/rhurkes/wx-storage/internal/eventlog"
)

// grpcAddrFromEnv returns the server address from WX_GRPC or a default.
// Unix sockets are addressed as unix:///path/to.sock.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("WX_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:50051"
}

// dialGRPCContext dials the server with insecure transport for local use.
func dialGRPCContext(ctx context.Context) (*grpc.ClientConn, error) {
	return grpc.DialContext(ctx, grpcAddrFromEnv(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()))
}

func getTransport() transports.Transport {
	return transports.NewGrpcTransport(dialGRPCContext)
}

// parseTimestamp accepts microseconds since the epoch or RFC3339.
func parseTimestamp(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q; expected microseconds or RFC3339", s)
	}
	return uint64(t.UnixMicro()), nil
}

// parseToken decodes a base64 resume token into an event key.
func parseToken(s string) (eventlog.Key, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return eventlog.Key{}, fmt.Errorf("invalid token: %w", err)
	}
	return eventlog.ParseKey(b)
}

func encodeToken(k eventlog.Key) string { return base64.StdEncoding.EncodeToString(k[:]) }

// decodedEvent renders an event with one of payload_json, payload_text or payload_b64.
func decodedEvent(ev eventlog.Event) map[string]any {
	out := map[string]any{
		"token":     encodeToken(ev.Key),
		"timestamp": ev.Record.TimestampMicros,
		"kind":      ev.Record.Kind,
	}
	payload := ev.Record.Payload
	if len(payload) > 0 && (payload[0] == '{' || payload[0] == '[') {
		var v any
		if json.Unmarshal(payload, &v) == nil {
			out["payload_json"] = v
			return out
		}
	}
	if utf8.Valid(payload) {
		out["payload_text"] = string(payload)
		return out
	}
	out["payload_b64"] = base64.StdEncoding.EncodeToString(payload)
	return out
}
