package domain

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }

func TestConnectionDefaults(t *testing.T) {
	t.Run("missing numerics read as zero", func(t *testing.T) {
		c := Connection{ID: "c1", FromHub: "a1", ToHub: "b1"}
		assert.Equal(t, 0.0, c.CostOrZero())
		assert.Equal(t, 0, c.DurationOrZero())
	})

	t.Run("present numerics are returned", func(t *testing.T) {
		c := Connection{Cost: ptrFloat(99.5), DurationMinutes: ptrInt(45)}
		assert.Equal(t, 99.5, c.CostOrZero())
		assert.Equal(t, 45, c.DurationOrZero())
	})
}

func TestSnapshot(t *testing.T) {
	s := NewSnapshot()
	s.Targets["c1"] = struct{}{}

	assert.True(t, s.IsTarget("c1"))
	assert.False(t, s.IsTarget("a1"))
	assert.Empty(t, s.Departures)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", fmt.Errorf("boom"), KindUnknown},
		{"invalid", InvalidInput("name is required"), KindInvalidInput},
		{"not found", NotFound("location %q", "Paris"), KindNotFound},
		{"exists", AlreadyExists("hub %q", "CDG"), KindAlreadyExists},
		{"unavailable", Unavailable(fmt.Errorf("dial tcp"), "neo4j"), KindUnavailable},
		{"wrapped twice", errors.WithMessage(NotFound("hub"), "lookup"), KindNotFound},
		{"fmt wrapped", fmt.Errorf("outer: %w", AlreadyExists("x")), KindAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestUnavailableKeepsKnownKinds(t *testing.T) {
	err := Unavailable(NotFound("location %q", "Oslo"), "postgres")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrUnavailable))

	assert.NoError(t, Unavailable(nil, "noop"))
}

func TestLocationInputValidate(t *testing.T) {
	t.Run("trims and accepts", func(t *testing.T) {
		in := LocationInput{Name: "  Paris ", Country: " France"}
		require.NoError(t, in.Validate())
		assert.Equal(t, "Paris", in.Name)
		assert.Equal(t, "France", in.Country)
	})

	t.Run("rejects empty fields", func(t *testing.T) {
		for _, in := range []LocationInput{
			{Name: "", Country: "France"},
			{Name: "Paris", Country: "   "},
		} {
			err := in.Validate()
			assert.Equal(t, KindInvalidInput, KindOf(err), "%+v", in)
		}
	})
}

func TestHubInputValidate(t *testing.T) {
	valid := HubInput{Location: "Paris", Code: "CDG", Name: "Charles de Gaulle", Capacity: 3}
	in := valid
	require.NoError(t, in.Validate())
	assert.Equal(t, Hub{Code: "CDG", Name: "Charles de Gaulle", Location: "Paris", Capacity: 3}, in.Hub())

	cases := map[string]func(*HubInput){
		"no location":       func(h *HubInput) { h.Location = "" },
		"no code":           func(h *HubInput) { h.Code = " " },
		"no name":           func(h *HubInput) { h.Name = "" },
		"negative capacity": func(h *HubInput) { h.Capacity = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			h := valid
			mutate(&h)
			assert.Equal(t, KindInvalidInput, KindOf(h.Validate()))
		})
	}
}

func TestConnectionInputValidate(t *testing.T) {
	valid := ConnectionInput{FromHub: "CDG", ToHub: "LHR", Identifier: "AF1080", Cost: ptrFloat(120), DurationMinutes: ptrInt(75)}

	t.Run("optional numerics", func(t *testing.T) {
		in := valid
		in.Cost = nil
		in.DurationMinutes = nil
		require.NoError(t, in.Validate())

		c := in.Connection("id-1")
		assert.Nil(t, c.Cost)
		assert.Nil(t, c.DurationMinutes)
		assert.Equal(t, "id-1", c.ID)
	})

	t.Run("connection copies numerics", func(t *testing.T) {
		in := valid
		in.Cost = ptrFloat(120)
		require.NoError(t, in.Validate())
		c := in.Connection("id-2")
		*in.Cost = 1
		assert.Equal(t, 120.0, c.CostOrZero())
		assert.Equal(t, 75, c.DurationOrZero())
	})

	t.Run("blank identifier allowed", func(t *testing.T) {
		in := valid
		in.Identifier = "  "
		require.NoError(t, in.Validate())
		assert.Empty(t, in.Identifier)
	})

	cases := map[string]func(*ConnectionInput){
		"no from":           func(c *ConnectionInput) { c.FromHub = "" },
		"no to":             func(c *ConnectionInput) { c.ToHub = "" },
		"negative cost":     func(c *ConnectionInput) { c.Cost = ptrFloat(-0.01) },
		"negative duration": func(c *ConnectionInput) { c.DurationMinutes = ptrInt(-5) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Equal(t, KindInvalidInput, KindOf(c.Validate()))
		})
	}
}

func TestSearchRequestValidate(t *testing.T) {
	r := SearchRequest{From: " A ", To: "C"}
	require.NoError(t, r.Validate(4))
	assert.Equal(t, "A", r.From)

	assert.Equal(t, KindInvalidInput, KindOf((&SearchRequest{To: "C"}).Validate(4)))
	assert.Equal(t, KindInvalidInput, KindOf((&SearchRequest{From: "A"}).Validate(4)))
	assert.Equal(t, KindInvalidInput, KindOf((&SearchRequest{From: "A", To: "C", MaxHops: -1}).Validate(4)))
	assert.Equal(t, KindInvalidInput, KindOf((&SearchRequest{From: "A", To: "C", MaxHops: 5}).Validate(4)))
	assert.NoError(t, (&SearchRequest{From: "A", To: "C", MaxHops: 9}).Validate(0))
}
