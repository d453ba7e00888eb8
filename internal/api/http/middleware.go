package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/observability"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// RegisterMiddlewares attaches the global chain. The request logger is
// outermost so it sees the status written by the error middleware.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				metrics.RecordError(routePath(c), c.Method(), domainErr.Code)
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
					logger.Error("request failed",
						zap.String("request_id", observability.RequestID(c)),
						zap.String("code", domainErr.Code),
						zap.Error(domainErr),
					)
				}
				if domainErr.Code == apperrors.CodeRateLimited {
					c.Set(fiber.HeaderRetryAfter, "1")
				}
				err = c.Status(domainErr.HTTPStatus).JSON(response)
			}
		}()
		return c.Next()
	}
}

// toDomainError also covers the framework's own errors such as unknown routes
// and oversized bodies.
func toDomainError(err error) *apperrors.DomainError {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return &apperrors.DomainError{Code: codeForStatus(fe.Code), Message: fe.Message, HTTPStatus: fe.Code}
	}
	return apperrors.ToDomainError(err)
}

func codeForStatus(status int) string {
	switch {
	case status == fiber.StatusUnauthorized:
		return apperrors.CodeAuthenticationRequired
	case status == fiber.StatusForbidden:
		return apperrors.CodeAuthorizationDenied
	case status == fiber.StatusNotFound, status == fiber.StatusMethodNotAllowed:
		return apperrors.CodeNotFound
	case status == fiber.StatusConflict:
		return apperrors.CodeConflict
	case status == fiber.StatusTooManyRequests:
		return apperrors.CodeRateLimited
	case status == fiber.StatusServiceUnavailable:
		return apperrors.CodeTransientStore
	case status >= fiber.StatusInternalServerError:
		return apperrors.CodeInternal
	default:
		return apperrors.CodeValidationFailed
	}
}

func routePath(c *fiber.Ctx) string {
	if path := c.Route().Path; path != "" && path != "/" {
		return path
	}
	return c.Path()
}
