package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Domain error taxonomy. Handlers map these to HTTP statuses with
// respondError; anything unclassified is a 500 and gets logged by the caller.

// ConflictError means a precondition on shared state was violated by a
// concurrent actor (e.g., starting a round while one is active). The caller
// must re-fetch state; we never retry writes automatically.
type ConflictError struct{ Msg string }

func (e *ConflictError) Error() string { return e.Msg }

// InvalidStateError means the operation hit a game in the wrong lifecycle
// state (e.g., revealing a clue after submissions closed).
type InvalidStateError struct{ Msg string }

func (e *InvalidStateError) Error() string { return e.Msg }

// NotFoundError means a referenced game/product/promotion does not exist.
type NotFoundError struct{ Msg string }

func (e *NotFoundError) Error() string { return e.Msg }

// ValidationError means the request itself is malformed or incomplete.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// respondError translates a domain error into the JSON error envelope the
// front end expects. Unknown errors become a generic 500 — the caller is
// responsible for logging the details before returning.
func respondError(c *fiber.Ctx, err error) error {
	var conflict *ConflictError
	var invalid *InvalidStateError
	var notFound *NotFoundError
	var validation *ValidationError

	switch {
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": conflict.Msg})
	case errors.As(err, &invalid):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": invalid.Msg})
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFound.Msg})
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validation.Msg})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
