// Package mcp serves the chat pipeline as MCP tools over stdio, so desktop
// assistants can ask on behalf of one configured user.
package mcp

import (
	"context"
	"encoding/json"
	"io"
	stdlog "log"
	"os"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/alphamail/chatbot/internal/core"
	"github.com/alphamail/chatbot/pkg/log"
)

type Server struct {
	chat     core.ChatService
	userID   int64
	timezone string
	mcp      *server.MCPServer

	in  io.Reader
	out io.Writer
}

func NewServer(chat core.ChatService, userID int64, timezone string) *Server {
	s := &Server{
		chat:     chat,
		userID:   userID,
		timezone: timezone,
		in:       os.Stdin,
		out:      os.Stdout,
	}

	s.mcp = server.NewMCPServer(core.AppName, core.AppVersion, server.WithToolCapabilities(false))
	s.mcp.AddTool(askTool(), s.handleAsk)
	s.mcp.AddTool(searchTool(), s.handleSearch)
	return s
}

func askTool() mcpproto.Tool {
	return mcpproto.NewTool("ask",
		mcpproto.WithDescription("Ask the business assistant in natural language. It can register schedules and answer questions about schedules, purchase orders and quotes."),
		mcpproto.WithString("message", mcpproto.Required(), mcpproto.Description("The request, e.g. '5월 24일 10시 기획회의 일정 잡아줘'")),
		mcpproto.WithString("timezone", mcpproto.Description("IANA zone or UTC offset of the user, e.g. Asia/Seoul or +09:00")),
	)
}

func searchTool() mcpproto.Tool {
	return mcpproto.NewTool("search",
		mcpproto.WithDescription("Search one document type of the user's business data and answer from the matches."),
		mcpproto.WithString("document_type", mcpproto.Required(),
			mcpproto.Enum(string(core.DocumentTypeSchedule), string(core.DocumentTypePurchaseOrder), string(core.DocumentTypeQuote), string(core.DocumentTypeEmail)),
			mcpproto.Description("Which documents to search")),
		mcpproto.WithString("query", mcpproto.Required(), mcpproto.Description("What to look for")),
		mcpproto.WithString("timezone", mcpproto.Description("IANA zone or UTC offset of the user")),
	)
}

// Start serves until ctx is cancelled or stdin closes.
func (s *Server) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Int64("user_id", s.userID).Msg("starting mcp stdio server")

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(stdlog.New(logger, "", 0))

	if err := stdio.Listen(ctx, s.in, s.out); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return nil
}

func (s *Server) handleAsk(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	message, err := req.RequireString("message")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}

	resp, err := s.chat.Handle(ctx, s.userID, core.ChatRequest{
		Message:  message,
		Timezone: req.GetString("timezone", s.timezone),
	})
	return s.result(ctx, resp, err)
}

func (s *Server) handleSearch(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	rawType, err := req.RequireString("document_type")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	docType, err := core.ParseDocumentType(rawType)
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}

	resp, err := s.chat.Search(ctx, s.userID, docType, query, req.GetString("timezone", s.timezone))
	return s.result(ctx, resp, err)
}

// result reports pipeline failures as tool errors so the calling model
// sees them; protocol errors are reserved for transport problems.
func (s *Server) result(ctx context.Context, resp core.ChatResponse, err error) (*mcpproto.CallToolResult, error) {
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("mcp tool call failed")
		return mcpproto.NewToolResultError(core.UserMessage(err)), nil
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return mcpproto.NewToolResultText(string(data)), nil
}
