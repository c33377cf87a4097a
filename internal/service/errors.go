package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/middleware"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest checks msg against its struct tags and returns a
// validation error naming the first offending field.
func validateRequest(msg any) error {
	err := validate.Struct(msg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Param() != "" {
			return apperr.Invalid(fe.Field(), "failed %s=%s", fe.Tag(), fe.Param())
		}
		return apperr.Invalid(fe.Field(), "failed %s", fe.Tag())
	}
	return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
}

// callerID returns the authenticated user of the request.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", apperr.ErrUnauthenticated
	}
	return userID, nil
}

// codeOf maps an error kind to the Connect status code clients see.
func codeOf(err error) connect.Code {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return connect.CodeInvalidArgument
	case apperr.KindAuthorization:
		if errors.Is(err, apperr.ErrUnauthenticated) {
			return connect.CodeUnauthenticated
		}
		return connect.CodePermissionDenied
	case apperr.KindConflict:
		switch {
		case errors.Is(err, apperr.ErrSettlementExists),
			errors.Is(err, apperr.ErrAlreadyConfirmed),
			errors.Is(err, apperr.ErrSessionAlreadyOpen):
			return connect.CodeAlreadyExists
		default:
			return connect.CodeFailedPrecondition
		}
	case apperr.KindNotFound:
		return connect.CodeNotFound
	default:
		return connect.CodeInternal
	}
}

// toConnectError converts a core error into a Connect error. Persistence
// details are logged and replaced with a generic message.
func toConnectError(op string, err error) error {
	code := codeOf(err)
	if code == connect.CodeInternal {
		slog.Error(op+" failed", "error", err, "retry_safe", apperr.RetrySafe(err))
		return connect.NewError(code, errors.New("internal error"))
	}
	slog.Warn(op+" rejected", "code", code.String(), "error", err)
	return connect.NewError(code, err)
}
