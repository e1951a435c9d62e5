// Package server implements the MCP (Model Context Protocol) server for the
// quad detector.
//
// This package provides a JSON-RPC 2.0 server that exposes the rectangle
// detection pipeline and its intermediate stages as MCP tools, so that AI
// clients can locate screens, documents and other quadrilaterals in images
// with sub-pixel precision.
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
// Image Information:
//   - quad_load: Dimensions, format and luminance range
//
// Pipeline Stages:
//   - quad_detect_lines: Line segments, optionally merged (none, greedy, hemicube)
//   - quad_detect_corners: L-, T- and X-shaped junctions
//
// Rectangles:
//   - quad_detect_rectangles: The full detection pipeline
//   - quad_guess_rectangles: Rectangles from their two upper corners
//   - quad_refine_rectangle: Sub-pixel refinement of four given corners
//
// Rendering:
//   - quad_overlay: Detected rectangles drawn on the image
//   - quad_crop: Bounding box of a quadrilateral
//
// Rectangle corners are always ordered top-left, bottom-left, bottom-right,
// top-right in image coordinates with Y pointing down.
//
// # Tuning
//
// New takes an optional config.TuningConfig. Its values replace the detector
// defaults; arguments given in a tool call replace both.
//
// # Image Caching
//
// The server keeps decoded images and their luminance frames in an
// imaging.ImageCache for the lifetime of the process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure), -32602 (malformed params) or
//     -32601 (unknown method)
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(tuning)
//	srv.SetDebug(os.Getenv("QUAD_MCP_LOG_LEVEL") == "debug")
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
