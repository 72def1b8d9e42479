package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStore_WithNilDB(t *testing.T) {
	store := NewStore(&DB{})
	assert.NotNil(t, store)
}

func TestNullableJSON(t *testing.T) {
	assert.Nil(t, nullableJSON(nil))
	assert.Nil(t, nullableJSON([]byte{}))
	assert.Equal(t, []byte(`{"a":1}`), nullableJSON([]byte(`{"a":1}`)))
}

func TestSimpleName(t *testing.T) {
	assert.Equal(t, "findUser", simpleName("UserService.findUser"))
	assert.Equal(t, "main", simpleName("main"))
	assert.Equal(t, "", simpleName(""))
}

// Database-dependent Store methods (CreateAnalysis, SaveGraph, SaveTiers,
// GetGraph, GetTiers, ...) need a live Postgres; they are exercised through
// the migration-backed integration environment rather than unit tests.
