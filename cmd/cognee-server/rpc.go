package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	cognee "github.com/topoteretes/cognee-go"
	"github.com/topoteretes/cognee-go/engine/cognify"
	"github.com/topoteretes/cognee-go/engine/domain"
	"github.com/topoteretes/cognee-go/engine/retrieval"
)

const protocolVersion = "2024-11-05"

// jsonRPCRequest is one JSON-RPC 2.0 call.
type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// jsonRPCResponse is one JSON-RPC 2.0 reply; Error is non-nil only on
// failure, Result only on success, matching the spec's success/error
// union.
type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *jsonRPCError   `json:"error,omitempty"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// textContent is the MCP content block shape every callTool response uses.
type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type callToolResult struct {
	Content []textContent `json:"content"`
}

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func newServer(engine *cognee.Engine, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		handleRPC(engine, logger, w, r)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

func handleRPC(engine *cognee.Engine, logger *slog.Logger, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req jsonRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRPC(w, jsonRPCResponse{JSONRPC: "2.0", Error: &jsonRPCError{Code: -32700, Message: "parse error"}})
		return
	}

	resp := jsonRPCResponse{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "initialize":
		resp.Result = map[string]any{
			"protocolVersion": protocolVersion,
			"serverInfo":      map[string]any{"name": "cognee-go", "version": "0.1.0"},
			"capabilities":    map[string]any{"tools": map[string]any{}},
		}
	case "mcp/listTools":
		resp.Result = cognee.ListTools()
	case "mcp/callTool":
		result, err := callTool(r.Context(), engine, req.Params)
		if err != nil {
			logger.Warn("mcp/callTool failed", "error", err)
			resp.Error = &jsonRPCError{Code: -32000, Message: err.Error()}
		} else {
			resp.Result = result
		}
	default:
		resp.Error = &jsonRPCError{Code: -32601, Message: "method not found: " + req.Method}
	}

	writeRPC(w, resp)
}

func writeRPC(w http.ResponseWriter, resp jsonRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// toolArgs is the union of every tool's argument shape — simplest to
// decode once since the four tools' parameter sets barely overlap.
type toolArgs struct {
	OwnerID   string   `json:"owner_id"`
	Dataset   string   `json:"dataset"`
	Datasets  []string `json:"datasets"`
	Text      string   `json:"text"`
	Source    string   `json:"source"`
	Query     string   `json:"query"`
	QueryType string   `json:"query_type"`
	TopK      int      `json:"top_k"`
}

func callTool(ctx context.Context, engine *cognee.Engine, raw json.RawMessage) (callToolResult, error) {
	var params callToolParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return callToolResult{}, fmt.Errorf("parse callTool params: %w", err)
	}
	var args toolArgs
	if len(params.Arguments) > 0 {
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			return callToolResult{}, fmt.Errorf("parse tool arguments: %w", err)
		}
	}

	switch params.Name {
	case "cognify":
		return callCognify(ctx, engine, args, cognify.StrategyNaive, "Ingested")
	case "codify":
		return callCognify(ctx, engine, args, cognify.StrategyCode, "Indexed")
	case "search":
		return callSearch(ctx, engine, args)
	case "prune":
		return callPrune(ctx, engine, args)
	default:
		return callToolResult{}, fmt.Errorf("unknown tool: %s", params.Name)
	}
}

func callCognify(ctx context.Context, engine *cognee.Engine, args toolArgs, strategy cognify.ChunkStrategy, successText string) (callToolResult, error) {
	if err := engine.Cognify(ctx, args.OwnerID, args.Datasets, strategy); err != nil {
		return callToolResult{}, err
	}
	return textResult(successText), nil
}

// callSearch searches the single dataset named by the "dataset" argument;
// a "datasets" list in the arguments is accepted but not read.
func callSearch(ctx context.Context, engine *cognee.Engine, args toolArgs) (callToolResult, error) {
	searchType := retrieval.SearchType(args.QueryType)
	if searchType == "" {
		searchType = retrieval.NaturalLanguage
	}
	opts := retrieval.DefaultOptions()
	if args.TopK > 0 {
		opts.TopK = args.TopK
	}

	result, err := engine.Search(ctx, domain.SearchRequest{
		Dataset: domain.DatasetRef{OwnerID: args.OwnerID, DatasetID: args.Dataset},
		Query:   args.Query,
	}, searchType, opts)
	if err != nil {
		if errors.Is(err, retrieval.ErrEntityNotFound) {
			return textResult("No matching results."), nil
		}
		return callToolResult{}, err
	}
	return textResult(result.Text), nil
}

func callPrune(ctx context.Context, engine *cognee.Engine, args toolArgs) (callToolResult, error) {
	if err := engine.Prune(ctx, domain.DatasetRef{OwnerID: args.OwnerID, DatasetID: args.Dataset}); err != nil {
		return callToolResult{}, err
	}
	return textResult("Pruned"), nil
}

func textResult(text string) callToolResult {
	return callToolResult{Content: []textContent{{Type: "text", Text: text}}}
}
