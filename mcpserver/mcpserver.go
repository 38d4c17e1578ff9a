// Package mcpserver exposes read-only MCP tools over a running bridge:
// list_devices, list_operations, and get_device_info. It never calls
// Dispatch or any mutating bridge method, the same boundary admin
// enforces.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// BridgeView is the read-only projection mcpserver needs out of
// bridge.Bridge.
type BridgeView interface {
	Devices() []string
	Topics() []string
}

// AdapterView is the read-only projection needed for get_device_info.
type AdapterView interface {
	Topics() []string
}

// Server wraps mark3labs/mcp-go's server.MCPServer with the DAB
// introspection tools registered.
type Server struct {
	mcp *server.MCPServer
}

// New builds an MCP server with list_devices, list_operations, and
// get_device_info tools wired against bridge. deviceAdapter resolves a
// deviceId to its adapter for get_device_info, matching the narrow-callback
// shape admin.New uses instead of depending on package dab directly.
func New(bridge BridgeView, deviceAdapter func(deviceID string) (AdapterView, bool)) *Server {
	s := server.NewMCPServer("DAB Bridge", "1.0.0")

	listDevices := mcp.NewTool("list_devices", mcp.WithDescription("List the deviceIds currently registered on this bridge"))
	s.AddTool(listDevices, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(map[string]any{"devices": bridge.Devices()})
	})

	listOperations := mcp.NewTool("list_operations", mcp.WithDescription("List every topic this bridge currently subscribes to, across all devices"))
	s.AddTool(listOperations, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(map[string]any{"topics": bridge.Topics()})
	})

	getDeviceInfo := mcp.NewTool("get_device_info",
		mcp.WithDescription("Get the operations implemented by one device adapter"),
		mcp.WithString("deviceId", mcp.Required(), mcp.Description("The deviceId to look up")),
	)
	s.AddTool(getDeviceInfo, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		deviceID, err := requiredString(req, "deviceId")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		adapter, ok := deviceAdapter(deviceID)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("no such device %q", deviceID)), nil
		}
		return jsonResult(map[string]any{
			"deviceId":   deviceID,
			"operations": adapter.Topics(),
		})
	})

	return &Server{mcp: s}
}

func requiredString(req mcp.CallToolRequest, key string) (string, error) {
	args := req.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(body)), nil
}

// Run serves the MCP server over stdio until it's closed.
func (s *Server) Run() error {
	slog.Info("started stdio MCP introspection server")
	defer slog.Info("shut down stdio MCP introspection server")
	return server.ServeStdio(s.mcp)
}
