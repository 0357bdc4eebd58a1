// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeStoreSnapshotNotFound   Code = "store.snapshot.get.not_found"
	CodeStoreSnapshotInvalid    Code = "store.snapshot.insert.invalid_input"
	CodeStoreDatabaseFailure    Code = "store.database.failure"
	CodeStoreBackendUnsupported Code = "store.backend.unsupported"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigParseInvalidFormat   Code = "config.parse.invalid_format"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeSecretInvalidInput    Code = "secret.input.invalid"
	CodeSecretNotFound        Code = "secret.get.not_found"
	CodeSecretStoreFailure    Code = "secret.store.failure"
	CodeSecretDeleteFailure   Code = "secret.delete.failure"
	CodeSecretListFailure     Code = "secret.list.failure"
	CodeSecretResolveFailure  Code = "secret.resolve.failure"

	CodeTransitRequestInvalid  Code = "transit.request.invalid"
	CodeTransitResponseInvalid Code = "transit.response.invalid"
	CodeTransitUpstreamFailure Code = "transit.upstream.failure"
	CodeTransitRateLimited     Code = "transit.upstream.rate_limited"
	CodeTransitTimeout         Code = "transit.request.timeout"

	CodeStatusUnavailable Code = "status.snapshot.unavailable"

	CodeProviderRequestInvalid  Code = "provider.request.invalid"
	CodeProviderResponseInvalid Code = "provider.response.invalid"
	CodeProviderUpstreamFailure Code = "provider.upstream.failure"
	CodeProviderNotFound        Code = "provider.registry.not_found"
	CodeProviderAllUnavailable  Code = "provider.routing.all_unavailable"
	CodeProviderNoDefault       Code = "provider.routing.no_default"
	CodeProviderKeyInvalid      Code = "provider.key.invalid"
	CodeProviderKeyCheckFailed  Code = "provider.key.check.failure"

	CodeGeocodeRequestInvalid  Code = "geocode.request.invalid"
	CodeGeocodeUpstreamFailure Code = "geocode.upstream.failure"

	CodePlannerInputInvalid     Code = "planner.input.invalid"
	CodePlannerLocationNotFound Code = "planner.location.not_found"
	CodePlannerUpstreamFailure  Code = "planner.upstream.failure"

	CodeCLIRequestFailure Code = "cli.request.failure"
	CodeCLISetupFailure   Code = "cli.setup.failure"
	CodeCLIInputInvalid   Code = "cli.input.invalid"

	CodeInternalFailure Code = "internal.failure"
)

// Field is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func FieldValue(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Field is kept as the primary helper for terse callsites.
func Field(key string, value any) Attr {
	return FieldValue(key, value)
}

func FieldCredential(value string) Attr {
	return Field("credential", value)
}

func FieldPath(value string) Attr {
	return Field("path", value)
}

func FieldStatus(value int) Attr {
	return Field("status", value)
}

func FieldMode(value string) Attr {
	return Field("mode", value)
}

func FieldProvider(value string) Attr {
	return Field("provider", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

func IsRateLimited(err error) bool {
	return reason(CodeOf(err)) == "rate_limited"
}

func IsTimeout(err error) bool {
	return reason(CodeOf(err)) == "timeout"
}

func IsUpstreamFailure(err error) bool {
	code := CodeOf(err)
	return strings.Contains(string(code), "upstream") && reason(code) == "failure"
}

// HTTPStatus maps an error code to the status a caller would surface to an
// end user.
func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsInvalidInput(err):
		return http.StatusBadRequest
	case IsRateLimited(err):
		return http.StatusTooManyRequests
	case IsTimeout(err):
		return http.StatusGatewayTimeout
	case IsUpstreamFailure(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Join(errs ...error) error {
	return oops.Code(CodeInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
