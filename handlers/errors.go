package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"recipeshare_backend/apierr"
	"recipeshare_backend/response"
	"recipeshare_backend/storage"
	"recipeshare_backend/store"
)

const maxJSONBody = 1 << 20

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fail writes err, translating store and storage sentinels into API errors.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apierr.Error
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &apiErr):
	case errors.Is(err, store.ErrNotFound):
		err = apierr.NotFound("%s", err.Error())
	case errors.Is(err, store.ErrDuplicate):
		err = apierr.Conflict("%s", err.Error())
	case errors.Is(err, storage.ErrFileTooLarge), errors.As(err, &tooBig):
		err = apierr.TooLarge("%s", err.Error())
	case errors.Is(err, storage.ErrTooManyFiles),
		errors.Is(err, storage.ErrNoFiles),
		errors.Is(err, storage.ErrUnsupportedType):
		err = apierr.BadRequest("%s", err.Error())
	default:
		err = apierr.Internal(err)
	}
	if status, _ := apierr.Status(err); status >= http.StatusInternalServerError {
		a.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	response.Error(w, err)
}

// decodeJSON reads a JSON body into v and validates it.
func (a *API) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apierr.TooLarge("request body exceeds %d bytes", maxJSONBody)
		}
		if errors.Is(err, io.EOF) {
			return apierr.BadRequest("request body is empty")
		}
		return apierr.BadRequest("invalid request payload: %v", err)
	}
	return a.check(v)
}

func (a *API) check(v any) error {
	err := a.validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return apierr.BadRequest("invalid request: %v", err)
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, describe(fe))
	}
	return apierr.BadRequest("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "max":
		return fmt.Sprintf("%s must have %s %s", field, fe.Tag(), fe.Param())
	case "email", "url":
		return fmt.Sprintf("%s must be a valid %s", field, fe.Tag())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
