// Package server implements an MCP (Model Context Protocol) server exposing
// trail detection as tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - frame_detect: Search an archived frame for trails
//   - frame_mask: Report which catalog sources mask an archived frame
//   - file_detect: Search an arbitrary image file, optionally with a catalog
//
// Frames are addressed by run, camcol, filter and field and resolved through
// the archive layout described in package archive.
//
// # Response Format
//
// Tool results are returned as JSON text inside MCP's content envelope:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// # Error Handling
//
// Errors follow JSON-RPC 2.0 conventions:
//   - -32601: Method not found
//   - -32602: Invalid params
//   - -32000: Tool execution failed
package server
