package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpFlattensChain(t *testing.T) {
	root := fmt.Errorf("connection reset")
	err := Wrap(CodeDependency, root, "load purchase order")

	d := Dump(err)
	assert.Equal(t, CodeDependency, d.Code)
	assert.Equal(t, "DEPENDENCY_ERROR: load purchase order", d.TopMessage)
	require.Len(t, d.Chain, 2)
	assert.Contains(t, d.Chain[1], "connection reset")
	assert.Empty(t, d.PGCode)
}

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "idx_sales_orders_purchase_order",
		TableName:      "sales_orders",
		Message:        "duplicate key value violates unique constraint",
	}
	d := Dump(Wrap(CodeDependency, pgErr, "create sales order"))

	assert.Equal(t, "23505", d.PGCode)
	assert.Equal(t, "idx_sales_orders_purchase_order", d.PGConstraint)
	assert.Equal(t, "sales_orders", d.PGTable)
	assert.Equal(t, "duplicate key value violates unique constraint", d.PGMessage)
}

func TestDumpNilError(t *testing.T) {
	assert.Equal(t, ErrorDump{}, Dump(nil))
}
