package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeo4jConfig(t *testing.T) {
	require.NoError(t, (&Neo4jConfig{}).Validate())
	require.NoError(t, (&Neo4jConfig{Enabled: true, URI: "neo4j://localhost:7687", Database: "neo4j"}).Validate())

	assert.Error(t, (&Neo4jConfig{Enabled: true, Database: "neo4j"}).Validate())
	assert.Error(t, (&Neo4jConfig{Enabled: true, URI: "neo4j://localhost:7687"}).Validate())
}

func TestInitDisabled(t *testing.T) {
	require.NoError(t, Init(Neo4jConfig{}))
	assert.Nil(t, NewDriver())
}
