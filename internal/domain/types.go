package domain

// ============================================================================
// Graph entities
// ============================================================================

// Location is a named geographic place that hosts hubs.
type Location struct {
	Name    string `json:"name" mapstructure:"name"`
	Country string `json:"country" mapstructure:"country"`
}

// Hub is a transit endpoint (an airport) hosted by exactly one Location.
type Hub struct {
	Code     string `json:"code" mapstructure:"code"`
	Name     string `json:"name" mapstructure:"name"`
	Location string `json:"location" mapstructure:"location"`
	Capacity int    `json:"capacity" mapstructure:"capacity"` // terminal count
	Address  string `json:"address,omitempty" mapstructure:"address"`
}

// Connection is a directed, priced, timed edge between two hubs (a flight).
//
// Cost and DurationMinutes are optional. A nil value means the attribute was
// never recorded; route aggregation reads it as zero.
type Connection struct {
	ID              string   `json:"id" mapstructure:"id"`
	FromHub         string   `json:"from_hub" mapstructure:"from_hub"`
	ToHub           string   `json:"to_hub" mapstructure:"to_hub"`
	Identifier      string   `json:"identifier" mapstructure:"identifier"`
	Cost            *float64 `json:"cost,omitempty" mapstructure:"cost"`
	DurationMinutes *int     `json:"duration_minutes,omitempty" mapstructure:"duration_minutes"`
	Operator        string   `json:"operator,omitempty" mapstructure:"operator"`
}

// Clone returns a copy that shares no memory with c.
func (c Connection) Clone() Connection {
	if c.Cost != nil {
		cost := *c.Cost
		c.Cost = &cost
	}
	if c.DurationMinutes != nil {
		d := *c.DurationMinutes
		c.DurationMinutes = &d
	}
	return c
}

// CostOrZero returns the cost, or 0 when it was never recorded.
func (c Connection) CostOrZero() float64 {
	if c.Cost == nil {
		return 0
	}
	return *c.Cost
}

// DurationOrZero returns the duration in minutes, or 0 when it was never recorded.
func (c Connection) DurationOrZero() int {
	if c.DurationMinutes == nil {
		return 0
	}
	return *c.DurationMinutes
}

// ============================================================================
// Route search
// ============================================================================

// UnidentifiedSegment is reported as the only segment of a route whose
// connections all lack an identifier.
const UnidentifiedSegment = "(unidentified)"

// RouteResult summarises one candidate path.
type RouteResult struct {
	FromHub              string   `json:"from_hub"`
	ToHub                string   `json:"to_hub"`
	Connections          []string `json:"connections"`
	Hops                 int      `json:"hops"`
	TotalCost            float64  `json:"total_cost"`
	TotalDurationMinutes int      `json:"total_duration_minutes"`
}

// Snapshot is a read-consistent view of the part of the graph a route search
// can reach. It is owned by the caller and never shared with the store.
type Snapshot struct {
	// Origins are the hubs hosted by the source location.
	Origins []Hub
	// Targets holds the codes of hubs hosted by the destination location.
	Targets map[string]struct{}
	// Departures maps a hub code to its outgoing connections.
	Departures map[string][]Connection
}

// NewSnapshot returns an empty snapshot ready to be filled.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Targets:    make(map[string]struct{}),
		Departures: make(map[string][]Connection),
	}
}

// IsTarget reports whether code is hosted by the destination location.
func (s *Snapshot) IsTarget(code string) bool {
	_, ok := s.Targets[code]
	return ok
}

// ============================================================================
// Change events
// ============================================================================

const (
	EventLocationRegistered   = "location.registered"
	EventHubRegistered        = "hub.registered"
	EventConnectionRegistered = "connection.registered"
	EventNetworkReset         = "network.reset"
)
