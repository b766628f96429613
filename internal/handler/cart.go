package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quill/go-bookstore-api/internal/dto"
	"github.com/quill/go-bookstore-api/internal/middleware"
	"github.com/quill/go-bookstore-api/internal/service"
)

type CartHandler struct {
	svc *service.CartService
}

func NewCartHandler(svc *service.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.svc.ViewCart(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	lines := make([]dto.CartLineResponse, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lines = append(lines, dto.CartLineResponse{
			ID:       line.ID,
			BookID:   line.BookID,
			Title:    line.BookTitle,
			Price:    line.BookPrice,
			Quantity: line.Quantity,
		})
	}
	c.JSON(http.StatusOK, dto.CartResponse{ID: cart.ID, Lines: lines})
}

func (h *CartHandler) AddLine(c *gin.Context) {
	var req dto.AddCartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	line, err := h.svc.AddLine(c.Request.Context(), middleware.GetUserID(c), req.BookID, req.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, dto.CartLineResponse{
		ID:       line.ID,
		BookID:   line.BookID,
		Title:    line.BookTitle,
		Price:    line.BookPrice,
		Quantity: line.Quantity,
	})
}

func (h *CartHandler) DeleteLine(c *gin.Context) {
	lineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.svc.RemoveLine(c.Request.Context(), middleware.GetUserID(c), lineID); err != nil {
		if errors.Is(err, service.ErrCartLineNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart line not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}
