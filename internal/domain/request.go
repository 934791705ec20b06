package domain

import (
	"strings"
)

// ============================================================================
// Registration inputs
// ============================================================================

// LocationInput registers a Location.
type LocationInput struct {
	Name    string `json:"name" mapstructure:"name"`
	Country string `json:"country" mapstructure:"country"`
}

// Validate trims the input and checks required fields.
func (in *LocationInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Country = strings.TrimSpace(in.Country)

	if in.Name == "" {
		return InvalidInput("location name is required")
	}
	if in.Country == "" {
		return InvalidInput("location country is required")
	}
	return nil
}

// HubInput registers a Hub under an existing Location.
type HubInput struct {
	Location string `json:"location" mapstructure:"location"`
	Code     string `json:"code" mapstructure:"code"`
	Name     string `json:"name" mapstructure:"name"`
	Capacity int    `json:"capacity" mapstructure:"capacity"`
	Address  string `json:"address" mapstructure:"address"`
}

// Validate trims the input and checks required fields.
func (in *HubInput) Validate() error {
	in.Location = strings.TrimSpace(in.Location)
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)

	switch {
	case in.Location == "":
		return InvalidInput("hub location is required")
	case in.Code == "":
		return InvalidInput("hub code is required")
	case in.Name == "":
		return InvalidInput("hub name is required")
	case in.Capacity < 0:
		return InvalidInput("hub capacity must not be negative, got %d", in.Capacity)
	}
	return nil
}

// Hub returns the entity the input describes.
func (in *HubInput) Hub() Hub {
	return Hub{
		Code:     in.Code,
		Name:     in.Name,
		Location: in.Location,
		Capacity: in.Capacity,
		Address:  in.Address,
	}
}

// ConnectionInput registers a directed Connection between two existing hubs.
// The identifier may be blank; a non-blank identifier is unique store-wide.
type ConnectionInput struct {
	FromHub         string   `json:"from_hub" mapstructure:"from_hub"`
	ToHub           string   `json:"to_hub" mapstructure:"to_hub"`
	Identifier      string   `json:"identifier" mapstructure:"identifier"`
	Cost            *float64 `json:"cost" mapstructure:"cost"`
	DurationMinutes *int     `json:"duration_minutes" mapstructure:"duration_minutes"`
	Operator        string   `json:"operator" mapstructure:"operator"`
}

// Validate trims the input and checks required fields and numeric ranges.
func (in *ConnectionInput) Validate() error {
	in.FromHub = strings.TrimSpace(in.FromHub)
	in.ToHub = strings.TrimSpace(in.ToHub)
	in.Identifier = strings.TrimSpace(in.Identifier)
	in.Operator = strings.TrimSpace(in.Operator)

	switch {
	case in.FromHub == "":
		return InvalidInput("connection from_hub is required")
	case in.ToHub == "":
		return InvalidInput("connection to_hub is required")
	case in.Cost != nil && *in.Cost < 0:
		return InvalidInput("connection cost must not be negative, got %v", *in.Cost)
	case in.DurationMinutes != nil && *in.DurationMinutes < 0:
		return InvalidInput("connection duration_minutes must not be negative, got %d", *in.DurationMinutes)
	}
	return nil
}

// Connection returns the entity the input describes under the given id.
func (in *ConnectionInput) Connection(id string) Connection {
	c := Connection{
		ID:              id,
		FromHub:         in.FromHub,
		ToHub:           in.ToHub,
		Identifier:      in.Identifier,
		Cost:            in.Cost,
		DurationMinutes: in.DurationMinutes,
		Operator:        in.Operator,
	}
	return c.Clone()
}

// ============================================================================
// Search input
// ============================================================================

// SearchRequest asks for ranked routes between two locations.
type SearchRequest struct {
	From    string `json:"from" mapstructure:"from"`
	To      string `json:"to" mapstructure:"to"`
	MaxHops int    `json:"max_hops" mapstructure:"max_hops"` // 0 selects the configured default
}

// Validate trims the input and checks it against the hop limit.
func (r *SearchRequest) Validate(limit int) error {
	r.From = strings.TrimSpace(r.From)
	r.To = strings.TrimSpace(r.To)

	switch {
	case r.From == "":
		return InvalidInput("search from location is required")
	case r.To == "":
		return InvalidInput("search to location is required")
	case r.MaxHops < 0:
		return InvalidInput("max_hops must not be negative, got %d", r.MaxHops)
	case limit > 0 && r.MaxHops > limit:
		return InvalidInput("max_hops must be at most %d, got %d", limit, r.MaxHops)
	}
	return nil
}

// SearchResponse is the ranked result of a search.
type SearchResponse struct {
	From    string        `json:"from"`
	To      string        `json:"to"`
	MaxHops int           `json:"max_hops"`
	Routes  []RouteResult `json:"routes"`
	Cached  bool          `json:"cached"`
}
