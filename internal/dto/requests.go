package dto

import (
	"github.com/yukikurage/field-service-api/internal/models"
)

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest lets clients without the session cookie send the refresh
// token in the body.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LoginResponse is returned by login and refresh
type LoginResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"accessToken"`
}

// CreateUserRequest is the body of POST /users
type CreateUserRequest struct {
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=6"`
	Name     string      `json:"name" binding:"required"`
	Role     models.Role `json:"role" binding:"required,oneof=admin worker customer"`
}

// UpdateUserRequest is the body of PUT /users/:id
type UpdateUserRequest struct {
	Email    *string      `json:"email" binding:"omitempty,email"`
	Password *string      `json:"password" binding:"omitempty,min=6"`
	Name     *string      `json:"name"`
	Role     *models.Role `json:"role" binding:"omitempty,oneof=admin worker customer"`
}

// CustomerRequest is the body of POST /customers
type CustomerRequest struct {
	Name    string  `json:"name" binding:"required"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// StatusRequest is the body of POST and PUT /job-statuses
type StatusRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// ReorderStatusesRequest is the body of POST /job-statuses/reorder
type ReorderStatusesRequest struct {
	StatusIDs []string `json:"statusIds" binding:"required"`
}

// CreateTaskRequest is the body of POST /tasks/job/:jobId
type CreateTaskRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
}

// CompleteTaskRequest is the body of POST /tasks/:id/complete. Complete
// defaults to true when omitted.
type CompleteTaskRequest struct {
	Complete *bool `json:"complete"`
}

// CreateSignatureRequest is the body of POST /signatures/job/:jobId
type CreateSignatureRequest struct {
	SignerType    string `json:"signerType" binding:"required,oneof=worker customer"`
	SignerName    string `json:"signerName" binding:"required"`
	SignatureData string `json:"signatureData" binding:"required"`
}
