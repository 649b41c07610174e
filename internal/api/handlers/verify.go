package handlers

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/presence/internal/verify"
	"github.com/your-org/presence/pkg/dto"
)

// Verifier runs the verification pipeline for one decoded request.
type Verifier interface {
	Verify(ctx context.Context, req verify.Request) (verify.Result, error)
}

type VerifyHandler struct {
	svc Verifier
}

func NewVerifyHandler(svc Verifier) *VerifyHandler {
	return &VerifyHandler{svc: svc}
}

// Create handles POST /v1/verifications. Malformed input is rejected before
// any collaborator is invoked.
func (h *VerifyHandler) Create(c *gin.Context) {
	var req dto.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: verify.CodeInvalidRequest})
		return
	}

	if req.Name == "" || req.Email == "" || req.Date == "" || req.FaceImage == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: verify.CodeInvalidRequest})
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.FaceImage)
	if err != nil || len(image) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: verify.CodeInvalidImage})
		return
	}

	res, err := h.svc.Verify(c.Request.Context(), verify.Request{
		Name:  req.Name,
		Email: req.Email,
		Date:  req.Date,
		Image: image,
	})
	if err != nil {
		code := verify.ErrorCode(err)
		slog.Error("verification failed", "code", code, "email", req.Email, "error", err)
		c.JSON(statusFor(code), dto.ErrorResponse{Error: code})
		return
	}

	c.JSON(http.StatusOK, dto.VerifyResponse{
		Participation: res.Participation,
		NameMatch:     res.NameMatch,
		FaceMatch:     res.FaceMatch,
	})
}

func statusFor(code string) int {
	switch code {
	case verify.CodeInvalidRequest, verify.CodeInvalidImage:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
