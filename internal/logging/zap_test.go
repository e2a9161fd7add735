package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
		check   func(t *testing.T, out string)
	}{
		{format: FormatText, check: func(t *testing.T, out string) {
			assert.Contains(t, out, "msg=hello")
			assert.Contains(t, out, "k=v")
		}},
		{format: "", check: func(t *testing.T, out string) {
			assert.Contains(t, out, "msg=hello")
		}},
		{format: FormatJSON, check: func(t *testing.T, out string) {
			var m map[string]any
			require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &m))
			assert.Equal(t, "hello", m["msg"])
			assert.Equal(t, "v", m["k"])
		}},
		{format: FormatZap, check: func(t *testing.T, out string) {
			var m map[string]any
			require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &m))
			assert.Equal(t, "hello", m["msg"])
			assert.Equal(t, "v", m["k"])
		}},
		{format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(tt.format, &buf)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			l.Info(context.Background(), "hello", "k", "v")
			tt.check(t, buf.String())
		})
	}
}

func TestZapLogger_WithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(FormatZap, &buf)
	require.NoError(t, err)

	l.With("module", "grpc_server").Warn(context.Background(), "slow call", "method", "Get")

	out := buf.String()
	assert.Contains(t, out, `"module":"grpc_server"`)
	assert.Contains(t, out, `"method":"Get"`)
	assert.Contains(t, out, `"level":"warn"`)
}

func TestNop_Discards(t *testing.T) {
	l := Nop()
	l.Error(context.Background(), "ignored", "a", 1)
	l.With("x", 1).Debug(context.Background(), "ignored")
}
