package handlers

import (
	"github.com/calculuslmvt/backend101-yt/internal/apperror"
	"github.com/calculuslmvt/backend101-yt/internal/dto"

	"github.com/gin-gonic/gin"
)

// respondOK writes the success envelope.
func respondOK(c *gin.Context, statusCode int, data interface{}, message string) {
	c.JSON(statusCode, dto.NewAPIResponse(statusCode, data, message))
}

// respondErr maps any error onto the error envelope via apperror.From.
func respondErr(c *gin.Context, err error) {
	apiErr := apperror.From(err)
	errs := apiErr.Errors
	if errs == nil {
		errs = []string{}
	}
	c.JSON(apiErr.StatusCode, dto.APIErrorResponse{
		StatusCode: apiErr.StatusCode,
		Message:    apiErr.Message,
		Errors:     errs,
	})
}

// respondBindErr wraps gin binding failures as 400 validation errors.
func respondBindErr(c *gin.Context, err error) {
	respondErr(c, apperror.NewBadRequest("All fields are required", err.Error()))
}
