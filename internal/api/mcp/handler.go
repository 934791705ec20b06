package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Zereker/skyroute/internal/domain"
	"github.com/Zereker/skyroute/internal/service"
)

// Handler handles MCP tool calls
type Handler struct {
	service *service.Service
	tools   map[string]toolFunc
}

type toolFunc func(ctx context.Context, args json.RawMessage) ToolCallResponse

// NewHandler creates a new MCP handler
func NewHandler(svc *service.Service) *Handler {
	h := &Handler{service: svc}
	h.tools = map[string]toolFunc{
		"location_register":   h.handleLocationRegister,
		"location_get":        h.handleLocationGet,
		"location_list":       h.handleLocationList,
		"hub_register":        h.handleHubRegister,
		"hub_get":             h.handleHubGet,
		"hub_list":            h.handleHubList,
		"connection_register": h.handleConnectionRegister,
		"connection_get":      h.handleConnectionGet,
		"route_search":        h.handleRouteSearch,
		"network_reset":       h.handleNetworkReset,
	}
	return h
}

// ToolCallRequest represents an MCP tool call request
type ToolCallRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolCallResponse represents an MCP tool call response
type ToolCallResponse struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock represents a content block in the response
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// HandleToolCall handles an MCP tool call
func (h *Handler) HandleToolCall(ctx context.Context, req ToolCallRequest) ToolCallResponse {
	tool, ok := h.tools[req.Name]
	if !ok {
		return errorResponse(fmt.Sprintf("unknown tool: %s", req.Name))
	}
	return tool(ctx, req.Arguments)
}

func (h *Handler) handleLocationRegister(ctx context.Context, args json.RawMessage) ToolCallResponse {
	var in domain.LocationInput
	if err := decodeArgs(args, &in); err != nil {
		return invalidArguments(err)
	}

	id, err := h.service.RegisterLocation(ctx, in)
	if err != nil {
		return failure("register location", err)
	}
	return successResponse(fmt.Sprintf("Registered location %s", id))
}

func (h *Handler) handleLocationGet(ctx context.Context, args json.RawMessage) ToolCallResponse {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeArgs(args, &req); err != nil {
		return invalidArguments(err)
	}

	loc, err := h.service.GetLocation(ctx, req.Name)
	if err != nil {
		return failure("get location", err)
	}
	return jsonResponse(loc)
}

func (h *Handler) handleLocationList(ctx context.Context, args json.RawMessage) ToolCallResponse {
	var req struct {
		Country string `json:"country"`
	}
	if err := decodeArgs(args, &req); err != nil {
		return invalidArguments(err)
	}

	locs, err := h.service.ListLocations(ctx, req.Country)
	if err != nil {
		return failure("list locations", err)
	}
	return jsonResponse(locs)
}

func (h *Handler) handleHubRegister(ctx context.Context, args json.RawMessage) ToolCallResponse {
	var in domain.HubInput
	if err := decodeArgs(args, &in); err != nil {
		return invalidArguments(err)
	}

	id, err := h.service.RegisterHub(ctx, in)
	if err != nil {
		return failure("register hub", err)
	}
	return successResponse(fmt.Sprintf("Registered hub %s at %s", id, in.Location))
}

func (h *Handler) handleHubGet(ctx context.Context, args json.RawMessage) ToolCallResponse {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeArgs(args, &req); err != nil {
		return invalidArguments(err)
	}

	hub, err := h.service.GetHub(ctx, req.Code)
	if err != nil {
		return failure("get hub", err)
	}
	return jsonResponse(hub)
}

func (h *Handler) handleHubList(ctx context.Context, args json.RawMessage) ToolCallResponse {
	var req struct {
		Location string `json:"location"`
	}
	if err := decodeArgs(args, &req); err != nil {
		return invalidArguments(err)
	}

	hubs, err := h.service.ListHubs(ctx, req.Location)
	if err != nil {
		return failure("list hubs", err)
	}
	return jsonResponse(hubs)
}

func (h *Handler) handleConnectionRegister(ctx context.Context, args json.RawMessage) ToolCallResponse {
	var in domain.ConnectionInput
	if err := decodeArgs(args, &in); err != nil {
		return invalidArguments(err)
	}

	id, err := h.service.RegisterConnection(ctx, in)
	if err != nil {
		return failure("register connection", err)
	}
	return successResponse(fmt.Sprintf("Registered connection %s (%s -> %s) with id %s", in.Identifier, in.FromHub, in.ToHub, id))
}

func (h *Handler) handleConnectionGet(ctx context.Context, args json.RawMessage) ToolCallResponse {
	var req struct {
		Identifier string `json:"identifier"`
	}
	if err := decodeArgs(args, &req); err != nil {
		return invalidArguments(err)
	}

	conn, err := h.service.GetConnection(ctx, req.Identifier)
	if err != nil {
		return failure("get connection", err)
	}
	return jsonResponse(conn)
}

func (h *Handler) handleRouteSearch(ctx context.Context, args json.RawMessage) ToolCallResponse {
	var req domain.SearchRequest
	if err := decodeArgs(args, &req); err != nil {
		return invalidArguments(err)
	}

	resp, err := h.service.SearchRoutes(ctx, req)
	if err != nil {
		return failure("search routes", err)
	}
	return successResponse(formatRoutes(resp))
}

func (h *Handler) handleNetworkReset(ctx context.Context, _ json.RawMessage) ToolCallResponse {
	if err := h.service.Reset(ctx); err != nil {
		return failure("reset", err)
	}
	return successResponse("Network reset")
}

// formatRoutes renders a search result as a numbered list.
func formatRoutes(resp *domain.SearchResponse) string {
	if len(resp.Routes) == 0 {
		return fmt.Sprintf("No routes from %s to %s within %d hops.", resp.From, resp.To, resp.MaxHops)
	}

	parts := []string{fmt.Sprintf("## Routes from %s to %s (max %d hops)", resp.From, resp.To, resp.MaxHops)}
	for i, r := range resp.Routes {
		parts = append(parts, fmt.Sprintf("%d. %s -> %s via %s: cost %g, %d min, %d hops",
			i+1, r.FromHub, r.ToHub, strings.Join(r.Connections, ", "), r.TotalCost, r.TotalDurationMinutes, r.Hops))
	}
	return strings.Join(parts, "\n")
}

// Helper functions

// decodeArgs accepts missing arguments as an empty object.
func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	return json.Unmarshal(args, v)
}

func invalidArguments(err error) ToolCallResponse {
	return errorResponse(fmt.Sprintf("%s: invalid arguments: %v", domain.KindInvalidInput, err))
}

func failure(op string, err error) ToolCallResponse {
	return errorResponse(fmt.Sprintf("%s: %s failed: %v", domain.KindOf(err), op, err))
}

func jsonResponse(v any) ToolCallResponse {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResponse(fmt.Sprintf("encode result: %v", err))
	}
	return successResponse(string(data))
}

func successResponse(text string) ToolCallResponse {
	return ToolCallResponse{
		Content: []ContentBlock{
			{Type: "text", Text: text},
		},
	}
}

func errorResponse(text string) ToolCallResponse {
	return ToolCallResponse{
		Content: []ContentBlock{
			{Type: "text", Text: text},
		},
		IsError: true,
	}
}
