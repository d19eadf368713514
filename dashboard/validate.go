package dashboard

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/lambda-feedback/studyboard/dashboard/schema"
)

// validationError is returned when a request body does not match its schema.
type validationError struct {
	Type   schema.SchemaType
	Result *gojsonschema.Result
}

func newValidationError(t schema.SchemaType, result *gojsonschema.Result) *validationError {
	return &validationError{
		Type:   t,
		Result: result,
	}
}

func (e *validationError) Error() string {
	msgs := make([]string, 0, len(e.Result.Errors()))
	for _, desc := range e.Result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Sprintf("invalid %s request: %s", e.Type, strings.Join(msgs, "; "))
}

// validate validates the request body against the schema of type t.
func (a *API) validate(t schema.SchemaType, body []byte) error {
	log := a.log.With(zap.Stringer("schema", t))

	res, err := a.schema.Validate(t, body)
	if err == schema.ErrSchemaNotFound {
		log.Error("validation schema not found")
		return ErrSchemaNotFound
	}
	if err != nil {
		log.Debug("failed to validate body", zap.Error(err))
		return ErrInvalidBody
	}

	if res.Valid() {
		return nil
	}

	log.Debug("invalid body", zap.Any("errors", res.Errors()))

	return newValidationError(t, res)
}
