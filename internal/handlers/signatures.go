package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/field-service-api/internal/dto"
	"github.com/yukikurage/field-service-api/internal/realtime"
	"github.com/yukikurage/field-service-api/internal/services"
)

// SignatureHandler serves job sign-offs.
type SignatureHandler struct {
	signatureService *services.SignatureService
	broadcaster      *realtime.Broadcaster
}

// NewSignatureHandler creates a new SignatureHandler.
func NewSignatureHandler(signatureService *services.SignatureService, broadcaster *realtime.Broadcaster) *SignatureHandler {
	return &SignatureHandler{
		signatureService: signatureService,
		broadcaster:      broadcaster,
	}
}

func (h *SignatureHandler) ListSignatures(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	signatures, err := h.signatureService.List(actor, c.Param("jobId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, signatures)
}

func (h *SignatureHandler) CreateSignature(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CreateSignatureRequest
	if !bindJSON(c, &req) {
		return
	}

	signature, err := h.signatureService.Create(actor, services.CreateSignatureInput{
		JobID:         c.Param("jobId"),
		SignerType:    req.SignerType,
		SignerName:    req.SignerName,
		SignatureData: req.SignatureData,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.broadcaster.SignatureCreated(signature)
	respond(c, http.StatusCreated, signature)
}

func (h *SignatureHandler) DeleteSignature(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	signature, err := h.signatureService.Delete(actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.broadcaster.SignatureDeleted(signature)
	respondMessage(c, "Signature deleted successfully")
}
