package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every endpoint answers with this envelope: success, data, optional message.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalRecords int64 `json:"totalRecords"`
}

type PagedResponse struct {
	Success    bool       `json:"success"`
	Data       any        `json:"data"`
	Pagination Pagination `json:"pagination"`
	Message    string     `json:"message,omitempty"`
}

func NewPagination(page, limit int, totalRecords int64) Pagination {
	if limit <= 0 {
		limit = SearchLimitDefault
	}
	totalPages := int((totalRecords + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalRecords: totalRecords,
	}
}

const SearchLimitDefault = 10

func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func RespondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func RespondMessage(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Message: message})
}

func RespondPage(c *gin.Context, data any, p Pagination) {
	c.JSON(http.StatusOK, PagedResponse{Success: true, Data: data, Pagination: p})
}

// RespondError maps the error taxonomy onto HTTP statuses and always carries
// a non-empty message (generic "Operation failed" when none is present).
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var ve *ValidationError
	var nfe *NotFoundError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.As(err, &nfe), errors.Is(err, ErrorRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrMissingBankAccount):
		status = http.StatusBadRequest
	}

	c.JSON(status, Response{Success: false, Message: ErrorMessage(err)})
}
