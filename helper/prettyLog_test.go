package helper

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prettyHandler(buf *bytes.Buffer, level slog.Level) *PrettyHandler {
	return NewPrettyHandler(buf, PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: level},
	})
}

func TestNewPrettyHandler(t *testing.T) {
	t.Run("Valid call NewPrettyHandler", func(t *testing.T) {
		var buf bytes.Buffer

		handler := prettyHandler(&buf, slog.LevelInfo)

		require.NotNil(t, handler, "Expected NewPrettyHandler to return a non-nil handler")
		assert.NotNil(t, handler.Handler, "Expected handler to have a non-nil Handler field")
		assert.NotNil(t, handler.l, "Expected handler to have a non-nil logger field")
	})

	t.Run("Valid call NewPrettyHandler with empty options", func(t *testing.T) {
		var buf bytes.Buffer

		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})

		assert.NotNil(t, handler, "Expected handler to be created with empty options")
	})
}

func TestPrettyHandlerHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("Formats every level with its label", func(t *testing.T) {
		levels := map[slog.Level]string{
			slog.LevelDebug: "DEBUG:",
			slog.LevelInfo:  "INFO:",
			slog.LevelWarn:  "WARN:",
			slog.LevelError: "ERROR:",
		}

		for level, label := range levels {
			var buf bytes.Buffer
			handler := prettyHandler(&buf, slog.LevelDebug)

			record := slog.NewRecord(time.Now(), level, "Query state changed", 0)
			record.AddAttrs(slog.String("state", "RETRIEVING"))

			err := handler.Handle(ctx, record)

			assert.NoError(t, err, "Expected Handle to not return an error")
			output := buf.String()
			assert.Contains(t, output, label, "Expected output to contain the level label")
			assert.Contains(t, output, "Query state changed", "Expected output to contain the message")
			assert.Contains(t, output, "state", "Expected output to contain the attribute key")
			assert.Contains(t, output, "RETRIEVING", "Expected output to contain the attribute value")
		}
	})

	t.Run("Renders attributes as indented json", func(t *testing.T) {
		var buf bytes.Buffer
		handler := prettyHandler(&buf, slog.LevelInfo)

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "Ingestion finished", 0)
		record.AddAttrs(
			slog.String("filename", "handbook.pdf"),
			slog.Int("chunks", 42),
			slog.Bool("skipped", false),
		)

		err := handler.Handle(ctx, record)

		assert.NoError(t, err, "Expected Handle to not return an error")
		output := buf.String()
		assert.Contains(t, output, "handbook.pdf", "Expected output to contain the filename attribute")
		assert.Contains(t, output, "42", "Expected output to contain the chunk count")
		assert.Contains(t, output, "skipped", "Expected output to contain the skipped attribute")
	})

	t.Run("Renders empty attributes as empty object", func(t *testing.T) {
		var buf bytes.Buffer
		handler := prettyHandler(&buf, slog.LevelInfo)

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "Connected to database", 0)

		err := handler.Handle(ctx, record)

		assert.NoError(t, err, "Expected Handle to not return an error")
		assert.Contains(t, buf.String(), "{}", "Expected output to contain empty JSON object for attributes")
	})

	t.Run("Renders nested attributes", func(t *testing.T) {
		var buf bytes.Buffer
		handler := prettyHandler(&buf, slog.LevelInfo)

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "Document stored", 0)
		record.AddAttrs(slog.Any("metadata", map[string]interface{}{
			"chunking_method": "sentence",
		}))

		err := handler.Handle(ctx, record)

		assert.NoError(t, err, "Expected Handle to not return an error")
		output := buf.String()
		assert.Contains(t, output, "metadata", "Expected output to contain the attribute key")
		assert.Contains(t, output, "chunking_method", "Expected output to contain the nested key")
	})

	t.Run("Formats timestamp with milliseconds", func(t *testing.T) {
		var buf bytes.Buffer
		handler := prettyHandler(&buf, slog.LevelInfo)

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "time test", 0)

		err := handler.Handle(ctx, record)

		assert.NoError(t, err, "Expected Handle to not return an error")
		assert.Regexp(t, `\[\d{2}:\d{2}:\d{2}\.\d{3}\]`, buf.String(),
			"Expected output to contain properly formatted timestamp")
	})
}
