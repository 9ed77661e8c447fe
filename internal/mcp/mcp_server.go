// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/huangsam/commitmap/internal/contract"
)

// NewMCPServer initializes and configures the commitmap MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Commitmap Relation Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{mgr: mgr}

	// --- 1. Tool: get_store_status ---
	s.AddTool(mcp.NewTool("get_store_status",
		mcp.WithDescription("Report row counts, size and the last populate run of the commit/file relation store."),
	), h.handleGetStoreStatus)

	// --- 2. Tool: get_file_commits ---
	s.AddTool(mcp.NewTool("get_file_commits",
		mcp.WithDescription("List the commits that touched a file, newest first."),
		mcp.WithString("path", mcp.Description("Repository-relative file path, using forward slashes."), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Limit the number of commits returned.")),
	), h.handleGetFileCommits)

	// --- 3. Tool: get_commit_files ---
	s.AddTool(mcp.NewTool("get_commit_files",
		mcp.WithDescription("List the files touched by a commit."),
		mcp.WithString("hash", mcp.Description("Full 40 character commit hash."), mcp.Required()),
	), h.handleGetCommitFiles)

	// --- 4. Tool: list_runs ---
	s.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List recorded populate runs, newest first."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of runs returned.")),
	), h.handleListRuns)

	return s
}

// StartMCPServer starts the commitmap MCP server on stdio.
func StartMCPServer(_ context.Context, mgr contract.StoreManager) error {
	s := NewMCPServer(mgr)
	return server.ServeStdio(s)
}
