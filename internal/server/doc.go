// Package server implements the MCP (Model Context Protocol) server for chart digitizing.
//
// This package provides a JSON-RPC 2.0 server that exposes the digitizer
// workspace through the MCP protocol. A client loads a chart image, calibrates
// its axes, names the curves, places probes and reads back per-curve values.
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
// Image access:
//   - image_load: Load the chart and make it active
//   - image_dimensions: Get width and height
//   - image_sample_color: Get color at pixel
//   - mask_load: Load or clear the highlight mask
//
// Calibration:
//   - digitize_calibrate: Set axis reference points
//   - digitize_transform: Convert between pixel and data coordinates
//
// Labels and settings:
//   - digitize_labels: Edit the ordered label list and colors
//   - digitize_settings: Update global detection settings
//
// Probes:
//   - digitize_probe_add, digitize_probe_generate
//   - digitize_probe_update, digitize_probe_remove
//   - digitize_manual, digitize_manual_import
//
// Results:
//   - digitize_profile: Brightness profile behind a probe
//   - digitize_detect: Run detection now
//   - digitize_results: Merged values and per-label series
//   - digitize_preview: Annotated PNG of the chart
//   - digitize_status: Workspace and scheduler state
//
// # Detection Scheduling
//
// Tools that change state only queue detection. A background loop drains the
// queue once per frame, so a burst of updates to one probe costs one
// detection. Tools that report results flush the queue before answering.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.NewWithSettings(settings)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
