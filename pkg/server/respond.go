package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/nunet/pkg/codegen"
	"github.com/matzehuels/nunet/pkg/errors"
	"github.com/matzehuels/nunet/pkg/session"
	"github.com/matzehuels/nunet/pkg/storage"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return codegen.IsIdentifier(fl.Field().String())
	})
}

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	switch {
	case stderrors.Is(err, session.ErrNotFound), stderrors.Is(err, storage.ErrNotFound):
		code = errors.ErrCodeNotFound
	case stderrors.Is(err, storage.ErrAmbiguous):
		code = errors.ErrCodeNameCollision
	case code == "":
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), errorResponse{Code: code, Message: errors.UserMessage(err)})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidField,
		errors.ErrCodeRangeInversion, errors.ErrCodeTopology:
		return http.StatusBadRequest
	case errors.ErrCodePositionOccupied, errors.ErrCodeNameCollision:
		return http.StatusConflict
	case errors.ErrCodePositionEmpty, errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeDesignInvalid:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v and validates its struct tags. An empty
// body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
	}
	if err := validate.Struct(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request")
	}
	return nil
}
