package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/huangsam/commitmap/internal/contract"
	"github.com/huangsam/commitmap/schema"
)

var fullHashRe = regexp.MustCompile(`^[0-9a-f]{40}$`)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	mgr contract.StoreManager
}

func (h *toolHandler) store() (contract.RelationStore, error) {
	if h.mgr == nil {
		return nil, fmt.Errorf("relation store is not initialized")
	}
	store := h.mgr.GetRelationStore()
	if store == nil {
		return nil, fmt.Errorf("relation store is not initialized")
	}
	return store, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetStoreStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := h.store()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status, err := store.GetStatus(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}
	return jsonResult(status)
}

func (h *toolHandler) handleGetFileCommits(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := contract.NormalizePath(request.GetString("path", ""))
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	limit := request.GetInt("limit", 0)
	if limit < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("limit cannot be negative (received %d)", limit)), nil
	}

	store, err := h.store()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	commits, err := store.FileCommits(ctx, path, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	if commits == nil {
		commits = []schema.CommitRecord{}
	}
	return jsonResult(map[string]any{"path": path, "commits": commits})
}

func (h *toolHandler) handleGetCommitFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hash := strings.ToLower(strings.TrimSpace(request.GetString("hash", "")))
	if !fullHashRe.MatchString(hash) {
		return mcp.NewToolResultError(fmt.Sprintf("hash must be 40 hex characters (received %q)", hash)), nil
	}

	store, err := h.store()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	files, err := store.CommitFiles(ctx, hash)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	if files == nil {
		files = []string{}
	}
	return jsonResult(map[string]any{"hash": hash, "files": files})
}

func (h *toolHandler) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := h.store()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	runs, err := store.AllRuns(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	slices.Reverse(runs)
	if l := request.GetInt("limit", 0); l > 0 && l < len(runs) {
		runs = runs[:l]
	}
	if runs == nil {
		runs = []schema.RunRecord{}
	}
	return jsonResult(runs)
}
