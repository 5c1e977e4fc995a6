package api

import (
	"errors"
	"net/url"

	"studydigest/logger"

	"github.com/gofiber/fiber/v2"
)

const MsgTooLarge = "Fichier trop volumineux (20 Mo maximum)."

// NewErrorHandler answers API errors as JSON. An oversized upload is sent
// back to the index page with a warning instead.
func NewErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		var apiErr Error
		if errors.As(err, &apiErr) {
			return c.Status(apiErr.Code).JSON(apiErr)
		}

		code := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}
		if code == fiber.StatusRequestEntityTooLarge {
			return c.Redirect("/?"+url.Values{"warn": {MsgTooLarge}}.Encode(), fiber.StatusSeeOther)
		}

		apiErr = NewError(code, err.Error())
		log.Error("API", "Request failed", map[string]interface{}{
			"code":   apiErr.Code,
			"error":  apiErr.Message,
			"path":   c.Path(),
			"method": c.Method(),
		})
		return c.Status(apiErr.Code).JSON(apiErr)
	}
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// Error implements the Error interface
func (e Error) Error() string {
	return e.Message
}

func NewError(code int, err string) Error {
	return Error{
		Code:    code,
		Message: err,
	}
}

func ErrBadRequest() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid form request",
	}
}

func ErrNoPivot() Error {
	return Error{
		Code:    fiber.StatusNotFound,
		Message: "no extracted text for this session",
	}
}
