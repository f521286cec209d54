package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	dErrors "libris/pkg/domain-errors"
)

var validate = validator.New()

// DecodeAndValidate decodes the JSON body into v and applies its validate
// tags. Validation failures come back as coded domain errors ready for
// WriteError.
func DecodeAndValidate(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	if err := validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return dErrors.Newf(dErrors.CodeValidation, "%s failed validation on %s", fieldName(fe), fe.Tag())
		}
		return dErrors.New(dErrors.CodeValidation, "invalid request")
	}
	return nil
}

func fieldName(fe validator.FieldError) string {
	return strings.ToLower(fe.Field())
}

// URLParamID parses a positive integer path parameter.
func URLParamID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, dErrors.Newf(dErrors.CodeNotFound, "invalid %s", name)
	}
	return id, nil
}
