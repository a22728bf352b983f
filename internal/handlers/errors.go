// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response is the JSON envelope for all API responses.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondOK(c echo.Context, message string, data any) error {
	return c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, Response{Success: false, Message: message})
}

// genericFailureMessage is used for unexpected failures so internal detail
// never reaches the caller.
const genericFailureMessage = "Something went wrong. Please try again later."

func respondInternalError(c echo.Context) error {
	return respondError(c, http.StatusInternalServerError, genericFailureMessage)
}
