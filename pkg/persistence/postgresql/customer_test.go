package postgresql

import (
	"testing"

	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestBuildCustomerWhere_Empty(t *testing.T) {
	where, args := buildCustomerWhere(persistence.ListCustomersOptions{})

	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildCustomerWhere_BuiltinColumn(t *testing.T) {
	where, args := buildCustomerWhere(persistence.ListCustomersOptions{
		Filters: map[string]any{"stage_id": "stage-new"},
	})

	assert.Equal(t, "WHERE stage_id = $1", where)
	assert.Equal(t, []any{"stage-new"}, args)
}

func TestBuildCustomerWhere_BalanceCasts(t *testing.T) {
	where, args := buildCustomerWhere(persistence.ListCustomersOptions{
		Filters: map[string]any{"balance": 300},
	})

	assert.Equal(t, "WHERE balance = $1::double precision", where)
	assert.Equal(t, []any{"300"}, args)
}

func TestBuildCustomerWhere_CustomFieldGoesThroughJSONB(t *testing.T) {
	where, args := buildCustomerWhere(persistence.ListCustomersOptions{
		Filters: map[string]any{"plan": "pro"},
	})

	assert.Equal(t, "WHERE custom_fields->>$1 = $2", where)
	assert.Equal(t, []any{"plan", "pro"}, args)
}

func TestBuildCustomerWhere_Search(t *testing.T) {
	where, args := buildCustomerWhere(persistence.ListCustomersOptions{Search: "chen"})

	assert.Equal(t, "WHERE (name ILIKE $1 OR phone ILIKE $1 OR email ILIKE $1)", where)
	assert.Equal(t, []any{"%chen%"}, args)
}
