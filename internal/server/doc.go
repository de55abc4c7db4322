// Package server implements the MCP (Model Context Protocol) server for the
// slide review pipeline.
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
//   - deck_lint: Off-canvas and overlap checks, optional shape map export
//   - slide_annotate: Draw numbered shape marks onto a rendered slide
//   - slide_critique: Ask the vision model about one marked slide
//   - deck_review: Run the whole lint, render, critique loop
//   - image_dimensions: Width and height of an image
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A slide that could not be critiqued and a review run that was aborted are
// results, not errors: the returned record says what happened.
//
// # Usage
//
//	srv := server.New(server.Options{Critic: critic, Renderer: renderer})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
