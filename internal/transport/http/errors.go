package httptransport

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/apperr"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/model"
)

// kindToStatus maps error classification kinds
// to HTTP status codes.
var kindToStatus = map[string]int{
	"bad_request":          http.StatusBadRequest,
	"unknown_item":         http.StatusNotFound,
	"not_found":            http.StatusNotFound,
	"no_confirmation":      http.StatusNotFound,
	"item_unavailable":     http.StatusConflict,
	"empty_cart":           http.StatusConflict,
	"submission_in_flight": http.StatusConflict,
	"invalid_quantity":     http.StatusUnprocessableEntity,
	"non_computable_price": http.StatusUnprocessableEntity,
	"invalid_status":       http.StatusUnprocessableEntity,
	"invalid_card":         http.StatusUnprocessableEntity,
	"payment_declined":     http.StatusPaymentRequired,
	"timeout":              http.StatusGatewayTimeout,
	"canceled":             http.StatusRequestTimeout,
}

// submitToStatus maps a submission outcome to the response status.
var submitToStatus = map[model.SubmitStatus]int{
	model.SubmitOK:       http.StatusCreated,
	model.SubmitInvalid:  http.StatusUnprocessableEntity,
	model.SubmitRejected: http.StatusUnprocessableEntity,
	model.SubmitDeclined: http.StatusPaymentRequired,
}

// errBadRequest classifies malformed or invalid request bodies.
var errBadRequest = apperr.New("bad_request", "bad request")

type badRequestError struct{ msg string }

func (e badRequestError) Error() string { return e.msg }
func (e badRequestError) Kind() string  { return errBadRequest.Kind() }

func badRequest(msg string) error { return badRequestError{msg: msg} }

// errorKind returns the kind of an error.
func errorKind(err error) string {
	return apperr.Kind(err)
}

func httpStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if s, ok := kindToStatus[errorKind(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// errorPayload builds the response body for err. Unclassified errors keep
// their message out of the response.
func errorPayload(err error) model.ErrorPayload {
	kind := errorKind(err)
	if kind == "internal" {
		return model.ErrorPayload{Kind: kind, Message: "internal error"}
	}
	return model.ErrorPayload{Kind: kind, Message: err.Error()}
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+" failed "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}
