package id

import (
	"context"
	"crypto/md5"
	"io"
	"strings"

	"github.com/gofrs/uuid"
)

// GenTraceID new normal traceID
func GenTraceID() string {
	return GenUUIDString()
}

// TraceIDFrom new traceID from text
func TraceIDFrom(text string) string {
	return UUIDFromString(text)
}

// TraceIDFromParts deterministic traceID of parts joined by ":"
func TraceIDFromParts(parts ...string) string {
	return UUIDFromString(strings.Join(parts, ":"))
}

// GenUUIDString new uuid
func GenUUIDString() string {
	return uuid.Must(uuid.NewV4()).String()
}

// UUIDFromString  new uuid string from string
func UUIDFromString(text string) string {
	h := md5.New()
	io.WriteString(h, text)
	sum := h.Sum(nil)
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	return uuid.FromBytesOrNil(sum).String()
}

type traceKey struct{}

// WithTraceID ctx carrying the trace id of the operation in progress
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// TraceIDFromContext trace id set by WithTraceID, a new one if none
func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceKey{}).(string); ok && traceID != "" {
		return traceID
	}

	return GenTraceID()
}
