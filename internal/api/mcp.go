package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/index"
	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/registry"
)

// MCPSearcher abstracts per-topic passage search for the MCP layer.
type MCPSearcher interface {
	Get(topic string) *index.Index
	Ensure(ctx context.Context)
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Agent    QuestionAnswerer
	Searcher MCPSearcher
	TopK     int
}

// NewMCPServer creates an MCP server exposing the question pipeline and
// raw topic search as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"diabe-ai-buddy",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("DiabeAI Buddy, a diabetes care assistant backed by curated medical sources."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Answer a diabetes care question using retrieved context from curated sources."),
			mcp.WithString("question", mcp.Description("The question to answer"), mcp.Required()),
			mcp.WithString("topic", mcp.Description("Optional topic hint: glucose, medication, meal, wellness, or general")),
		),
		mcpAsk(deps),
	)

	s.AddTool(
		mcp.NewTool("search_topic",
			mcp.WithDescription("Semantically search one topic's knowledge base and return matching passages."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
			mcp.WithString("topic", mcp.Description("Topic to search: glucose, medication, meal, wellness, or general"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of passages (default 3)")),
		),
		mcpSearchTopic(deps),
	)

	return s
}

func mcpAsk(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}

		topic := req.GetString("topic", "")

		res, err := deps.Agent.AnswerQuestion(ctx, question, topic, nil)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to answer: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString(res.Answer)
		if len(res.Followups) > 0 {
			sb.WriteString("\n\nFollow-up questions:\n")
			for _, f := range res.Followups {
				sb.WriteString("- ")
				sb.WriteString(f)
				sb.WriteString("\n")
			}
		}

		return mcpText(sb.String()), nil
	}
}

func mcpSearchTopic(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}
		topic, err := req.RequireString("topic")
		if err != nil {
			return mcpError("topic is required"), nil
		}
		if !registry.IsValidTopic(topic) {
			return mcpError(fmt.Sprintf("unknown topic %q; valid topics: %s", topic, strings.Join(registry.Topics, ", "))), nil
		}

		limit := req.GetInt("limit", deps.TopK)
		if limit <= 0 {
			limit = deps.TopK
		}
		if limit > 20 {
			limit = 20
		}

		deps.Searcher.Ensure(ctx)
		passages, err := deps.Searcher.Get(topic).Search(ctx, query, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}

		if len(passages) == 0 {
			return mcpText("[]"), nil
		}

		type passageResult struct {
			Text   string  `json:"text"`
			Source string  `json:"source"`
			Score  float32 `json:"score"`
		}

		results := make([]passageResult, len(passages))
		for i, p := range passages {
			results[i] = passageResult{
				Text:   p.Text,
				Source: p.SourceLocator,
				Score:  p.Score,
			}
		}

		b, err := json.Marshal(results)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcpText(string(b)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
