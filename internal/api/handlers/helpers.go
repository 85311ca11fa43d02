package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/postcraft/postcraft-api/pkg/apperror"
	"github.com/rs/zerolog/log"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// GetUserID returns the caller set by the auth middleware.
func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := c.Locals("user_id").(int64)
	return userID
}

// ParamID parses a positive integer route parameter.
func ParamID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewValidationField(name, fmt.Sprintf("%s must be a positive integer", name))
	}
	return id, nil
}

// parseBody decodes a JSON body rejecting unknown fields, normalizes it when
// the type supports that, then runs the struct's validate tags.
func parseBody(c *fiber.Ctx, out any) error {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ErrValidation.WithMessage("Request body is required")
		}
		return apperror.ErrValidation.WithMessage(fmt.Sprintf("Invalid request body: %s", err.Error()))
	}
	if dec.More() {
		return apperror.ErrValidation.WithMessage("Invalid request body: trailing data")
	}
	if n, ok := out.(normalizer); ok {
		n.Normalize()
	}
	return validateStruct(out)
}

type normalizer interface {
	Normalize()
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.ErrValidation.WithMessage(err.Error())
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describe(fe)
	}
	return apperror.NewValidation(fields)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// success writes {"success": true, "message"?, "data"?}.
func success(c *fiber.Ctx, status int, message string, data any) error {
	body := fiber.Map{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

// ErrorHandler renders every error returned by a handler or middleware as
// {"success": false, "error": {"code", "message"}}. Unknown errors are
// logged and reported as internal.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		appErr := &apperror.Error{Code: fiberCode(fe.Code), Message: fe.Message, Status: fe.Code}
		return writeError(c, appErr)
	}

	appErr := apperror.As(err)
	if appErr.Status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request rejected")
	}
	return writeError(c, appErr)
}

func writeError(c *fiber.Ctx, appErr *apperror.Error) error {
	body := fiber.Map{"code": appErr.Code, "message": appErr.Message}
	if appErr.Details != nil {
		body["details"] = appErr.Details
	}
	return c.Status(appErr.Status).JSON(fiber.Map{
		"success": false,
		"error":   body,
	})
}

func fiberCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return apperror.ErrNotFound.Code
	case fiber.StatusRequestEntityTooLarge:
		return apperror.ErrPayloadTooLarge.Code
	case fiber.StatusTooManyRequests:
		return apperror.ErrRateLimited.Code
	case fiber.StatusUnauthorized:
		return apperror.ErrUnauthorized.Code
	}
	if status >= fiber.StatusInternalServerError {
		return apperror.ErrInternal.Code
	}
	return apperror.ErrValidation.Code
}
