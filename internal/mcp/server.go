package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/arturoeanton/gitgrade-analyzer/internal/domain"
	"github.com/arturoeanton/gitgrade-analyzer/internal/middleware"
	"github.com/arturoeanton/gitgrade-analyzer/internal/port"
	"github.com/arturoeanton/gitgrade-analyzer/internal/service"
)

// maxRequestBody bounds a single JSON-RPC request.
const maxRequestBody = 1 << 20

// Server implements the Model Context Protocol (MCP) server.
// It exposes repository grading as tools for external AI agents.
type Server struct {
	analysisService *service.AnalysisService
	limiter         *service.RateLimiter
	audit           port.AuditStore
	port            string
}

// NewServer creates a new MCP server. limiter and audit may be nil.
func NewServer(analysisService *service.AnalysisService, limiter *service.RateLimiter, audit port.AuditStore, port string) *Server {
	return &Server{
		analysisService: analysisService,
		limiter:         limiter,
		audit:           audit,
		port:            port,
	}
}

// Tool represents an MCP tool definition.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ToolResult is the payload of a tools/call response.
type ToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`

	// status is the HTTP-equivalent outcome recorded in the audit log.
	status int
}

// Content is one block of tool output.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Handler returns the HTTP routes served by the MCP server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", s.handleRPC)
	mux.HandleFunc("/mcp/sse", s.handleSSE)
	return mux
}

// Start begins the MCP server on the configured port.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("MCP server starting", "port", s.port)
	return srv.ListenAndServe()
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()

	var req JSONRPCRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, nil, -32700, "parse error")
		return
	}

	// Notifications carry no id and must not be answered.
	if req.ID == nil && strings.HasPrefix(req.Method, "notifications/") {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	var result interface{}
	var err error

	switch req.Method {
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, err = s.callTool(r.Context(), clientIdentity(r), req.Params)
		s.record(r, start, callStatus(result, err))
	case "initialize":
		result = map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]string{
				"name":    "gitgrade-analyzer",
				"version": "1.0.0",
			},
			"capabilities": map[string]interface{}{
				"tools": map[string]bool{"listChanged": false},
			},
		}
	default:
		writeError(w, req.ID, -32601, "method not found")
		return
	}

	if err != nil {
		writeError(w, req.ID, -32602, err.Error())
		return
	}

	writeResult(w, req.ID, result)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Send initial endpoint message
	fmt.Fprintf(w, "event: endpoint\ndata: /mcp\n\n")
	flusher.Flush()

	// Keep connection alive
	<-r.Context().Done()
}

func (s *Server) listTools() map[string]interface{} {
	tools := []Tool{
		{
			Name:        "analyze_repo",
			Description: "Grade a public GitHub repository and return a JSON report with score, level, metrics and an improvement roadmap",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"repo_url": {"type": "string", "description": "Repository URL, e.g. https://github.com/owner/repo"}
				},
				"required": ["repo_url"]
			}`),
		},
		{
			Name:        "list_levels",
			Description: "List the score ranges that map to each level label",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {}
			}`),
		},
	}
	return map[string]interface{}{"tools": tools}
}

// callTool runs a tool. Unknown tools and malformed params are protocol
// errors; a failing analysis is reported in the result with IsError set.
func (s *Server) callTool(ctx context.Context, identity string, params json.RawMessage) (interface{}, error) {
	var req struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	switch req.Name {
	case "analyze_repo":
		var args struct {
			RepoURL string `json:"repo_url"`
		}
		if len(req.Arguments) > 0 {
			if err := json.Unmarshal(req.Arguments, &args); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
		}

		if _, err := service.ParseURL(args.RepoURL); err != nil {
			return toolError(err), nil
		}
		if s.limiter != nil {
			if err := s.limiter.Allow(ctx, identity, time.Now()); err != nil {
				return toolError(err), nil
			}
		}

		report, err := s.analysisService.Analyze(ctx, args.RepoURL)
		if err != nil {
			slog.Warn("MCP analyze_repo failed", "repo_url", args.RepoURL, "error", err)
			return toolError(err), nil
		}
		text, err := json.Marshal(report)
		if err != nil {
			return nil, fmt.Errorf("encode report: %w", err)
		}
		return textResult(string(text)), nil

	case "list_levels":
		text, err := json.Marshal(s.analysisService.Levels())
		if err != nil {
			return nil, fmt.Errorf("encode levels: %w", err)
		}
		return textResult(string(text)), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", req.Name)
	}
}

// callStatus maps a tools/call outcome to the status stored in the audit log.
func callStatus(result interface{}, err error) int {
	if err != nil {
		return http.StatusBadRequest
	}
	if tr, ok := result.(ToolResult); ok && tr.status != 0 {
		return tr.status
	}
	return http.StatusOK
}

func (s *Server) record(r *http.Request, start time.Time, status int) {
	if s.audit == nil {
		return
	}
	entry := domain.AuditLog{
		Identity:   clientIdentity(r),
		Action:     domain.AuditActionMCPCall,
		Path:       "tools/call",
		Status:     status,
		DurationMS: time.Since(start).Milliseconds(),
		IP:         remoteIP(r),
		UserAgent:  r.UserAgent(),
		CreatedAt:  start.UTC(),
	}
	if err := s.audit.WriteAudit(r.Context(), entry); err != nil {
		slog.Error("failed to write audit log", "error", err)
	}
}

func textResult(text string) ToolResult {
	return ToolResult{Content: []Content{{Type: "text", Text: text}}}
}

func toolError(err error) ToolResult {
	status, msg := port.PublicError(err)
	return ToolResult{Content: []Content{{Type: "text", Text: msg}}, IsError: true, status: status}
}

// clientIdentity applies the HTTP identity rule: X-Client-Id, else remote IP.
func clientIdentity(r *http.Request) string {
	return middleware.Identity(r.Header.Get(middleware.ClientIDHeader), remoteIP(r))
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to write MCP response", "error", err)
	}
}

func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to write MCP response", "error", err)
	}
}
