package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/field-service-api/internal/models"
)

func TestCustomerCRUD(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(http.MethodPost, "/api/customers", env.admin, map[string]interface{}{
		"name":  "Globex Corporation",
		"phone": "555-0100",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var customer models.Customer
	decode(t, w, &customer)
	require.NotNil(t, customer.Phone)

	w = env.do(http.MethodPut, "/api/customers/"+customer.ID, env.admin, `{"phone": null, "address": "1 Main St"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &customer)
	assert.Nil(t, customer.Phone)
	require.NotNil(t, customer.Address)
	assert.Equal(t, "Globex Corporation", customer.Name)

	var customers []models.Customer
	w = env.do(http.MethodGet, "/api/customers?search=globex", env.worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &customers)
	require.Len(t, customers, 1)

	w = env.do(http.MethodPost, "/api/customers", env.worker, map[string]interface{}{"name": "Nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodDelete, "/api/customers/"+customer.ID, env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, "/api/customers/"+customer.ID, env.admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
