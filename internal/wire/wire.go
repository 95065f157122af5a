// Package wire defines the request/response envelope exchanged with the
// storage server: a command byte followed by a command-specific payload in,
// a status byte followed by a payload out.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Command selects the operation of a request.
type Command byte

const (
	PutScalar Command = 0
	GetScalar Command = 1
	PutEvent  Command = 2
	GetEvents Command = 3
)

func (c Command) String() string {
	switch c {
	case PutScalar:
		return "put_scalar"
	case GetScalar:
		return "get_scalar"
	case PutEvent:
		return "put_event"
	case GetEvents:
		return "get_events"
	default:
		return fmt.Sprintf("command(%d)", byte(c))
	}
}

// Status is the first byte of every response.
type Status byte

const (
	StatusOK    Status = 0
	StatusError Status = 1
)

// ErrShortPayload is returned when a payload is too short for its declared framing.
var ErrShortPayload = errors.New("short payload")

// Request builds a request envelope.
func Request(cmd Command, payload []byte) []byte {
	out := make([]byte, 0, 1+len(payload))
	out = append(out, byte(cmd))
	return append(out, payload...)
}

// SplitRequest returns the command and payload of req. The payload aliases req.
func SplitRequest(req []byte) (Command, []byte, bool) {
	if len(req) == 0 {
		return 0, nil, false
	}
	return Command(req[0]), req[1:], true
}

// OK builds a success response around payload.
func OK(payload []byte) []byte {
	out := make([]byte, 0, 1+len(payload))
	out = append(out, byte(StatusOK))
	return append(out, payload...)
}

// Error builds a failure response carrying err's message.
func Error(err error) []byte {
	msg := err.Error()
	out := make([]byte, 0, 1+len(msg))
	out = append(out, byte(StatusError))
	return append(out, msg...)
}

// ResponseError is the client-side view of a failure response.
type ResponseError struct {
	Message string
}

func (e *ResponseError) Error() string { return "server: " + e.Message }

// ParseResponse returns the payload of a success response, or a
// *ResponseError for a failure response.
func ParseResponse(resp []byte) ([]byte, error) {
	if len(resp) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrShortPayload)
	}
	switch Status(resp[0]) {
	case StatusOK:
		return resp[1:], nil
	case StatusError:
		return nil, &ResponseError{Message: string(resp[1:])}
	default:
		return nil, fmt.Errorf("unknown response status %d", resp[0])
	}
}

// EncodeScalarPut frames a PutScalar payload: keyLen u32 BE | key | value.
func EncodeScalarPut(key string, value []byte) []byte {
	out := make([]byte, 0, 4+len(key)+len(value))
	out = binary.BigEndian.AppendUint32(out, uint32(len(key)))
	out = append(out, key...)
	return append(out, value...)
}

// DecodeScalarPut is the inverse of EncodeScalarPut. value aliases p.
func DecodeScalarPut(p []byte) (key string, value []byte, err error) {
	if len(p) < 4 {
		return "", nil, fmt.Errorf("%w: put_scalar needs a 4 byte key length, got %d bytes", ErrShortPayload, len(p))
	}
	n := uint64(binary.BigEndian.Uint32(p))
	if n > uint64(len(p)-4) {
		return "", nil, fmt.Errorf("%w: key length %d exceeds remaining %d bytes", ErrShortPayload, n, len(p)-4)
	}
	return string(p[4 : 4+n]), p[4+n:], nil
}

// EventsQuery is the decoded GetEvents payload.
type EventsQuery struct {
	// Start is an inclusive timestamp; zero means the server default window.
	Start uint64
	// After, when set, resumes strictly after the given 16 byte event key.
	After []byte
}

// Default reports whether the query asks for the server default window.
func (q EventsQuery) Default() bool { return q.Start == 0 && q.After == nil }

const (
	eventsTimestampLen = 8
	eventsKeyLen       = 16
)

// EncodeEventsFrom frames a GetEvents payload starting at ts (inclusive).
// Zero selects the server default window.
func EncodeEventsFrom(ts uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, ts)
}

// EncodeEventsAfter frames a GetEvents payload resuming after key.
func EncodeEventsAfter(key []byte) []byte {
	return append([]byte(nil), key...)
}

// DecodeEventsQuery parses a GetEvents payload: empty or 8 bytes (timestamp)
// or 16 bytes (resume key). An all-zero payload of either width selects the
// server default window.
func DecodeEventsQuery(p []byte) (EventsQuery, error) {
	switch len(p) {
	case 0:
		return EventsQuery{}, nil
	case eventsTimestampLen:
		return EventsQuery{Start: binary.BigEndian.Uint64(p)}, nil
	case eventsKeyLen:
		if allZero(p) {
			return EventsQuery{}, nil
		}
		return EventsQuery{After: p}, nil
	default:
		if len(p) < eventsTimestampLen {
			return EventsQuery{}, fmt.Errorf("%w: get_events needs 0, 8 or 16 bytes, got %d", ErrShortPayload, len(p))
		}
		return EventsQuery{}, fmt.Errorf("get_events payload must be 0, 8 or 16 bytes, got %d", len(p))
	}
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
