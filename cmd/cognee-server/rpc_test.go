package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRPC(t *testing.T, method string, params any) jsonRPCResponse {
	t.Helper()
	body := map[string]any{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		body["params"] = params
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)

	srv := newServer(nil, slog.Default())
	req := httptest.NewRequest("POST", "/mcp", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var resp jsonRPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandleRPC_Initialize(t *testing.T) {
	resp := doRPC(t, "initialize", nil)
	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]any)
	assert.Equal(t, protocolVersion, result["protocolVersion"])
}

func TestHandleRPC_ListTools(t *testing.T) {
	resp := doRPC(t, "mcp/listTools", nil)
	require.Nil(t, resp.Error)
	tools, ok := resp.Result.([]any)
	require.True(t, ok)
	assert.Len(t, tools, 4)
}

func TestHandleRPC_UnknownMethod(t *testing.T) {
	resp := doRPC(t, "mcp/doesNotExist", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
}

func TestHandleRPC_CallTool_UnknownTool(t *testing.T) {
	resp := doRPC(t, "mcp/callTool", map[string]any{"name": "bogus", "arguments": map[string]any{}})
	require.NotNil(t, resp.Error)
}
