package mcp

// Tool represents an MCP tool definition
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// InputSchema defines the JSON schema for tool input
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property defines a property in the schema
type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Default     any                 `json:"default,omitempty"`
	Minimum     *int                `json:"minimum,omitempty"`
}

func minimum(v int) *int { return &v }

// NetworkTools defines all available MCP tools for the route network
var NetworkTools = []Tool{
	{
		Name:        "location_register",
		Description: "Register a location (a city) that can host hubs. Names are unique.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"name":    {Type: "string", Description: "Unique location name"},
				"country": {Type: "string", Description: "Country the location belongs to"},
			},
			Required: []string{"name", "country"},
		},
	},
	{
		Name:        "location_get",
		Description: "Look up a location by name.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"name": {Type: "string", Description: "Location name"},
			},
			Required: []string{"name"},
		},
	},
	{
		Name:        "location_list",
		Description: "List locations, optionally only those of one country.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"country": {Type: "string", Description: "Country filter; empty lists all"},
			},
		},
	},
	{
		Name:        "hub_register",
		Description: "Register a hub (an airport) hosted by an existing location. Codes are unique.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"location": {Type: "string", Description: "Name of the hosting location"},
				"code":     {Type: "string", Description: "Unique hub code"},
				"name":     {Type: "string", Description: "Display name"},
				"capacity": {Type: "integer", Description: "Capacity metric such as terminal count", Minimum: minimum(0)},
				"address":  {Type: "string", Description: "Street address"},
			},
			Required: []string{"location", "code", "name"},
		},
	},
	{
		Name:        "hub_get",
		Description: "Look up a hub by code.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"code": {Type: "string", Description: "Hub code"},
			},
			Required: []string{"code"},
		},
	},
	{
		Name:        "hub_list",
		Description: "List the hubs hosted by a location.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"location": {Type: "string", Description: "Location name"},
			},
			Required: []string{"location"},
		},
	},
	{
		Name:        "connection_register",
		Description: "Register a directed connection (a flight) between two existing hubs.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"from_hub":         {Type: "string", Description: "Departure hub code"},
				"to_hub":           {Type: "string", Description: "Arrival hub code"},
				"identifier":       {Type: "string", Description: "Route number, unique when set"},
				"cost":             {Type: "number", Description: "Price of the segment"},
				"duration_minutes": {Type: "integer", Description: "Flight time in minutes", Minimum: minimum(0)},
				"operator":         {Type: "string", Description: "Operating carrier"},
			},
			Required: []string{"from_hub", "to_hub"},
		},
	},
	{
		Name:        "connection_get",
		Description: "Look up a connection by identifier.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"identifier": {Type: "string", Description: "Route number"},
			},
			Required: []string{"identifier"},
		},
	},
	{
		Name:        "route_search",
		Description: "Find routes between two locations, cheapest first.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"from":     {Type: "string", Description: "Origin location name"},
				"to":       {Type: "string", Description: "Destination location name"},
				"max_hops": {Type: "integer", Description: "Maximum connections per route; 0 uses the default", Minimum: minimum(0)},
			},
			Required: []string{"from", "to"},
		},
	},
	{
		Name:        "network_reset",
		Description: "Remove every location, hub and connection.",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{},
		},
	},
}
