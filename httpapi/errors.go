package httpapi

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// ErrSelfRemoval is returned when an admin targets their own account
var ErrSelfRemoval = goerrors.New("You cannot remove your own account", goerrors.CategoryBadInput).
	WithTextCode("SELF_REMOVAL").
	WithCode(goerrors.CodeBadRequest)

func validationError(err error) error {
	meta := map[string]any{}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			meta[field] = ferr.Error()
		}
	} else {
		meta["payload"] = err.Error()
	}

	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid request payload").
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(meta)
}

// StatusFor maps a rich error to an HTTP status, preferring its code
func StatusFor(richErr *goerrors.Error) int {
	if richErr.Code > 0 {
		return richErr.Code
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return router.StatusBadRequest
	case goerrors.CategoryAuth:
		return router.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return router.StatusForbidden
	case goerrors.CategoryNotFound:
		return router.StatusNotFound
	case goerrors.CategoryConflict:
		return router.StatusConflict
	case goerrors.CategoryRateLimit:
		return router.StatusTooManyRequests
	default:
		return router.StatusInternalServerError
	}
}

func (a *Controller) defaultErrHandler(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.JSON(fiberErr.Code, messageResponse(false, fiberErr.Message))
		}
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := StatusFor(richErr)

	requestID, _ := ctx.Locals(RequestIDKey).(string)
	if status >= router.StatusInternalServerError {
		a.Logger.Error("api error handler: %s category=%v request_id=%s details=%s", richErr.Message, richErr.Category, requestID, print.MaybePrettyJSON(richErr.Metadata))
	} else {
		a.Logger.Info("api error handler: %s category=%v request_id=%s details=%s", richErr.Message, richErr.Category, requestID, print.MaybePrettyJSON(richErr.Metadata))
	}

	body := messageResponse(false, richErr.Message)
	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}
	if status < router.StatusInternalServerError && len(richErr.Metadata) > 0 {
		body["errors"] = richErr.Metadata
	}
	if requestID != "" {
		body["request_id"] = requestID
	}

	return ctx.JSON(status, body)
}

// FiberErrorHandler is the app level handler for errors that escape
// the router, unmatched routes and panics included.
func FiberErrorHandler(c *Controller) fiber.ErrorHandler {
	return func(fc *fiber.Ctx, err error) error {
		return c.ErrorHandler(router.NewFiberContext(fc, c.Logger), err)
	}
}
