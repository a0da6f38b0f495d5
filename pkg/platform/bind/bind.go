// Package bind provides JSON decode and validation helpers for handlers.
// Validation failures surface as coded domain errors carrying a field-level
// error list, so transports can render per-field feedback.
package bind

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	dErrors "gatekeeper/pkg/domain-errors"
)

const defaultMaxBytes = 1 << 20

var (
	once       sync.Once
	validate   *validator.Validate
	translator ut.Translator
)

func setup() {
	once.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		translator, _ = uni.GetTranslator("en")

		validate = validator.New(validator.WithRequiredStructEnabled())

		// Prefer json tag names in messages.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = entranslations.RegisterDefaultTranslations(validate, translator)
	})
}

// JSON decodes the request body into T and validates struct tags. Unknown
// fields are rejected. Returns CodeInvalidInput for malformed JSON and
// CodeValidation with field details for tag failures.
func JSON[T any](r *http.Request) (T, error) {
	var out T
	setup()

	body := http.MaxBytesReader(nil, r.Body, defaultMaxBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return out, dErrors.New(dErrors.CodeInvalidInput, "request body is required")
		}
		return out, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed request body")
	}
	if err := Struct(out); err != nil {
		return out, err
	}
	return out, nil
}

// Struct validates any tagged struct and maps failures to a field error
// list. Useful for request descriptors built outside HTTP handlers.
func Struct(v any) error {
	setup()

	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "validation")
	}
	fields := make([]dErrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, dErrors.FieldError{
			Field:   fe.Field(),
			Message: fe.Translate(translator),
		})
	}
	return dErrors.NewValidation(fields)
}
