// Package server implements the MCP (Model Context Protocol) server that exposes
// the marker candidate pipeline as tools.
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
//   - image_load: Load an image and report its metadata
//   - marker_detect: Find quadrilateral marker candidates
//   - marker_components: List every labeled component with its status
//   - marker_edge_mask: Show the gradient detector's output
//   - marker_debug_render: Draw labels or candidate outlines
//   - marker_crop_candidate: Crop one candidate from the source image
//   - marker_config: Inspect or change detector settings
//
// All geometry in tool results is in frame pixels, that is, pixels of the
// image after frame_resize_factor has been applied. marker_crop_candidate is
// the exception: it works in source image pixels.
//
// # Concurrency
//
// Detection calls share one detector and are serialised. Every completed
// detection is also published to the server's Latest slot.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
package server
