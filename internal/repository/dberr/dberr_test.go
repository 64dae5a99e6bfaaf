package dberr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"github.com/Additional-Code/nursery/internal/store"
)

func TestMap(t *testing.T) {
	assert.NoError(t, Map(nil))
	assert.ErrorIs(t, Map(sql.ErrNoRows), store.ErrNotFound)
	assert.ErrorIs(t, Map(fmt.Errorf("scan: %w", sql.ErrNoRows)), store.ErrNotFound)

	dup := Map(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'ORD-1' for key 'orders_order_no_key'"})
	assert.ErrorIs(t, dup, store.ErrDuplicate)
	assert.Contains(t, dup.Error(), "ORD-1")

	deadlock := &mysql.MySQLError{Number: 1213}
	assert.Same(t, deadlock, Map(deadlock))

	other := errors.New("boom")
	assert.Equal(t, other, Map(other))
}
