package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/ironsheep/quad-detect-mcp/internal/config"
	"github.com/ironsheep/quad-detect-mcp/internal/imaging"
)

// ServerName and ServerVersion are reported during initialize.
const (
	ServerName    = "quad-detect-mcp"
	ServerVersion = "0.1.0"

	protocolVersion = "2024-11-05"
)

// Server handles MCP protocol communication
type Server struct {
	cache  *imaging.ImageCache
	tuning *config.TuningConfig
	debug  bool
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON-RPC error codes used by the server.
const (
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolFailed     = -32000
)

// New creates a new MCP server instance. A nil tuning config uses the
// detector defaults for everything.
func New(tuning *config.TuningConfig) *Server {
	if tuning == nil {
		tuning = config.EmptyTuningConfig()
	}
	return &Server{
		cache:  imaging.NewImageCache(),
		tuning: tuning,
	}
}

// SetDebug enables per-stage logging of the detection pipeline.
func (s *Server) SetDebug(debug bool) {
	s.debug = debug
}

// Run serves requests from stdin until it is closed.
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// maxRequestSize bounds a single request line.
const maxRequestSize = 1 << 20

// Serve reads one JSON-RPC request per line from r and writes each response
// to w. Lines that do not parse are logged and skipped; notifications get no
// reply.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestSize)
	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp == nil {
			continue
		}
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}
	return nil
}

func (s *Server) methods() map[string]func(*MCPRequest) *MCPResponse {
	return map[string]func(*MCPRequest) *MCPResponse{
		"initialize": s.handleInitialize,
		"tools/list": s.handleToolsList,
		"tools/call": s.handleToolsCall,
		"ping": func(req *MCPRequest) *MCPResponse {
			return resultResponse(req.ID, map[string]interface{}{})
		},
	}
}

// handleRequest routes a request to its method handler. It returns nil for
// notifications, which must not be answered.
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	if strings.HasPrefix(req.Method, "notifications/") {
		return nil
	}
	handler, ok := s.methods()[req.Method]
	if !ok {
		return errorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), "")
	}
	return handler(req)
}

func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return resultResponse(req.ID, map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    ServerName,
			"version": ServerVersion,
		},
	})
}

func resultResponse(id interface{}, result interface{}) *MCPResponse {
	return &MCPResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	resp := &MCPResponse{JSONRPC: "2.0", ID: id, Error: &MCPError{Code: code, Message: message}}
	if data != "" {
		resp.Error.Data = data
	}
	return resp
}

// logf is handed to the detection pipeline when debug logging is on.
func (s *Server) logf() func(format string, args ...interface{}) {
	if !s.debug {
		return nil
	}
	return log.Printf
}
