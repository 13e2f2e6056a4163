package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/souvenir"
	"github.com/aretw0/souvenir/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const statusURI = "souvenir://status"

// Engine defines the operations the MCP server needs from the Souvenir engine.
type Engine interface {
	Current(ctx context.Context) (*domain.QandA, error)
	Answer(ctx context.Context, index int) (bool, error)
	Reveal(ctx context.Context) error
	Status(ctx context.Context) (souvenir.Status, error)
	Cancel(ctx context.Context, moduleID string) error
}

// AnswerArgs are the arguments of the answer tool.
type AnswerArgs struct {
	Index int `json:"index"`
}

// AnswerResult is the structured result of the answer tool.
type AnswerResult struct {
	Correct bool `json:"correct" jsonschema_description:"Whether the chosen answer was the correct one"`
}

// CancelArgs are the arguments of the cancel_module tool.
type CancelArgs struct {
	ModuleID string `json:"module_id"`
}

// Server exposes a running Souvenir engine to MCP clients, so an agent can
// play the quiz.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		engine: engine,
		logger: logger,
		mcpServer: server.NewMCPServer("souvenir-mcp", strings.TrimSpace(souvenir.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("current_question",
		mcp.WithDescription("Get the question being presented, with its possible answers in order."),
	), s.handleCurrent)

	answerTool := mcp.NewTool("answer",
		mcp.WithDescription("Answer the question being presented by the index of the chosen answer."),
		mcp.WithNumber("index", mcp.Required(), mcp.Min(0), mcp.Description("Zero-based index into the answers")),
		mcp.WithOutputSchema[AnswerResult](),
	)
	s.mcpServer.AddTool(answerTool, mcp.NewStructuredToolHandler(s.handleAnswer))

	s.mcpServer.AddTool(mcp.NewTool("reveal",
		mcp.WithDescription("Reveal the answer of the current question without scoring it."),
	), s.handleReveal)

	s.mcpServer.AddTool(mcp.NewTool("status",
		mcp.WithDescription("Get the engine status: slot, pending batches, score and module tasks."),
	), s.handleStatus)

	cancelTool := mcp.NewTool("cancel_module",
		mcp.WithDescription("Stop watching one module. Its pending questions are still asked."),
		mcp.WithString("module_id", mcp.Required(), mcp.Description("Module ID as listed by status")),
	)
	s.mcpServer.AddTool(cancelTool, mcp.NewTypedToolHandler(s.handleCancel))
}

func (s *Server) handleCurrent(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := s.engine.Current(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("current question: %v", err)), nil
	}
	if q == nil {
		return mcp.NewToolResultText("No question is being presented."), nil
	}
	data, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleAnswer(ctx context.Context, _ mcp.CallToolRequest, args AnswerArgs) (AnswerResult, error) {
	correct, err := s.engine.Answer(ctx, args.Index)
	if err != nil {
		return AnswerResult{}, fmt.Errorf("answer failed: %w", err)
	}
	s.logger.Info("MCP answer", "index", args.Index, "correct", correct)
	return AnswerResult{Correct: correct}, nil
}

func (s *Server) handleReveal(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.engine.Reveal(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reveal failed: %v", err)), nil
	}
	return mcp.NewToolResultText("Revealed."), nil
}

func (s *Server) handleStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.statusJSON(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(data), nil
}

func (s *Server) handleCancel(ctx context.Context, _ mcp.CallToolRequest, args CancelArgs) (*mcp.CallToolResult, error) {
	if args.ModuleID == "" {
		return mcp.NewToolResultError("module_id is required"), nil
	}
	if err := s.engine.Cancel(ctx, args.ModuleID); err != nil {
		if errors.Is(err, domain.ErrModuleNotFound) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}
	return mcp.NewToolResultText(fmt.Sprintf("Module %s cancelled.", args.ModuleID)), nil
}

func (s *Server) statusJSON(ctx context.Context) (string, error) {
	st, err := s.engine.Status(ctx)
	if err != nil {
		return "", fmt.Errorf("status failed: %w", err)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(statusURI, "Souvenir Engine Status",
		mcp.WithMIMEType("application/json"),
	), s.readStatus)
}

func (s *Server) readStatus(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := s.statusJSON(ctx)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      statusURI,
			MIMEType: "application/json",
			Text:     data,
		},
	}, nil
}
