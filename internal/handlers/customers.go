package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/field-service-api/internal/dto"
	apierrors "github.com/yukikurage/field-service-api/internal/errors"
	"github.com/yukikurage/field-service-api/internal/services"
)

// CustomerHandler serves the customer routes.
type CustomerHandler struct {
	customerService *services.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customerService *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// ListCustomers supports ?search= on name and email
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	customers, err := h.customerService.List(actor.TenantID, c.Query("search"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, customers)
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	customer, err := h.customerService.Get(actor.TenantID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, customer)
}

func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customerService.Create(actor.TenantID, services.CustomerInput{
		Name:    &req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, customer)
}

// UpdateCustomer writes only the keys present; null clears optional fields
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	input, err := dto.ParseCustomerPatch(body)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	customer, err := h.customerService.Update(actor.TenantID, c.Param("id"), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, customer)
}

func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	if err := h.customerService.Delete(actor.TenantID, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	respondMessage(c, "Customer deleted successfully")
}
