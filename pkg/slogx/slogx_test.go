package slogx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRespectsLevelAndFormat(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := New(Config{
		App:    "backoffice",
		Env:    "test",
		Level:  "warn",
		Format: "json",
		Output: buf,
	})

	logger.Info("filtered out")
	require.Zero(t, buf.Len())

	logger.Warn("kept")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "kept", record["msg"])
	require.Equal(t, "backoffice", record["app"])
	require.Equal(t, "test", record["env"])
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	logger := Nop()
	ctx := WithContext(context.Background(), logger)
	require.Same(t, logger, FromContext(ctx))

	// Without a stored logger the default is returned, never nil.
	require.NotNil(t, FromContext(context.Background()))
}

func TestWithRequestIDEnrichesContextLogger(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	base := slog.New(slog.NewJSONHandler(buf, nil))

	ctx := WithContext(context.Background(), base)
	ctx = WithRequestID(ctx, "01ARZ3NDEKTSV4RRFFQ69G5FAV")

	FromContext(ctx).Info("request")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", record["req_id"])
}
