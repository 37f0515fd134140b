package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-wrapped-backend/internal/apperr"
	"github.com/tbourn/go-wrapped-backend/internal/services"
)

// MsgValidationFailed is the top-level message of a rejected request body or
// query string. The individual failures are listed as sub-errors.
const MsgValidationFailed = "Validation failed"

// MsgBodyTooLarge rejects a request body over the configured limit.
const MsgBodyTooLarge = "Request body too large"

var registerNames sync.Once

// useJSONNames makes validation errors report the json (or form) name of a
// field instead of its Go name, so sub-error paths match the wire format.
func useJSONNames() {
	registerNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
	})
}

// bindJSON decodes the request body into dst and validates it.
func bindJSON(c *gin.Context, dst any) error {
	useJSONNames()
	if err := c.ShouldBindJSON(dst); err != nil {
		return bindError(err)
	}
	return nil
}

// bindQuery decodes the query string into dst and validates it.
func bindQuery(c *gin.Context, dst any) error {
	useJSONNames()
	if err := c.ShouldBindQuery(dst); err != nil {
		return bindError(err)
	}
	return nil
}

// bindError turns a decoding or validation failure into a 400 whose
// sub-errors name each offending field. A body over the size limit is a 413.
func bindError(err error) *apperr.Error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		e := apperr.New(MsgBodyTooLarge, http.StatusRequestEntityTooLarge, false, err)
		e.Kind = services.KindPayloadTooLarge
		return e
	}
	out := apperr.BadRequest(MsgValidationFailed).CausedBy(err)

	var (
		verrs   validator.ValidationErrors
		typeErr *json.UnmarshalTypeError
		synErr  *json.SyntaxError
	)
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			out.AddSubError(apperr.SubError{
				Path:    fieldPath(fe),
				Code:    fe.Tag(),
				Message: ruleMessage(fe),
			})
		}
	case errors.As(err, &typeErr):
		out.AddSubError(apperr.SubError{
			Path:    typeErr.Field,
			Code:    "invalid_type",
			Message: "expected " + typeErr.Type.String() + ", got " + typeErr.Value,
		})
	case errors.As(err, &synErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		out.AddSubError(apperr.SubError{Code: "invalid_json", Message: "request body must be a JSON object"})
	default:
		out.AddSubError(apperr.SubError{Code: "invalid_value", Message: err.Error()})
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace:
// "createWrappedRequest.topEmotions[0].id" becomes "topEmotions[0].id".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	default:
		return "failed the " + fe.Tag() + " rule"
	}
}
