package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGormDBFromDSNRequiresDSN(t *testing.T) {
	db, err := NewGormDBFromDSN("", false)
	assert.Nil(t, db)
	assert.ErrorIs(t, err, ErrMissingDSN)
}
