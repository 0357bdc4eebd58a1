// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package errors_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	rwerr "github.com/railwise/railwise/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// New / Errorf
// ---------------------------------------------------------------------------

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := rwerr.New(
		rwerr.CodeTransitUpstreamFailure,
		"line status failed",
		rwerr.FieldPath("/Line/Mode/tube/Status"),
		rwerr.FieldStatus(503),
	)

	require.Error(t, err)
	assert.Equal(t, rwerr.CodeTransitUpstreamFailure, rwerr.CodeOf(err))
	assert.True(t, rwerr.HasCode(err, rwerr.CodeTransitUpstreamFailure))

	fields := rwerr.FieldsOf(err)
	assert.Equal(t, "/Line/Mode/tube/Status", fields["path"])
	assert.Equal(t, 503, fields["status"])
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("disk full")
	err := rwerr.Errorf(rwerr.CodeStoreDatabaseFailure, "insert snapshot: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "insert snapshot")
	assert.Equal(t, rwerr.CodeStoreDatabaseFailure, rwerr.CodeOf(err))
}

// ---------------------------------------------------------------------------
// Wrap / With
// ---------------------------------------------------------------------------

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, rwerr.Wrap(nil, rwerr.CodeInternalFailure, "ignored"))
	assert.NoError(t, rwerr.Wrapf(nil, rwerr.CodeInternalFailure, "ignored %d", 1))
	assert.NoError(t, rwerr.With(nil, rwerr.Field("k", "v")))
}

func TestWrapWithFields(t *testing.T) {
	inner := stderrors.New("connection reset")
	err := rwerr.Wrap(inner, rwerr.CodeGeocodeUpstreamFailure, "geocoding failed", rwerr.Field("query", "kings cross"))

	assert.ErrorIs(t, err, inner)
	assert.Equal(t, rwerr.CodeGeocodeUpstreamFailure, rwerr.CodeOf(err))
	assert.Equal(t, "kings cross", rwerr.FieldsOf(err)["query"])
}

func TestWithOnPlainErrorDefaultsToInternalCode(t *testing.T) {
	err := rwerr.With(stderrors.New("plain"), rwerr.FieldMode("tube"))
	assert.Equal(t, rwerr.CodeInternalFailure, rwerr.CodeOf(err))
	assert.Equal(t, "tube", rwerr.FieldsOf(err)["mode"])
}

func TestCodeOfReturnsInnermostCodedError(t *testing.T) {
	inner := rwerr.New(rwerr.CodeStoreSnapshotNotFound, "empty")
	outer := rwerr.Wrap(inner, rwerr.CodeStatusUnavailable, "reading status")
	assert.Equal(t, rwerr.CodeStoreSnapshotNotFound, rwerr.CodeOf(outer))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, rwerr.Code(""), rwerr.CodeOf(stderrors.New("plain")))
	assert.Equal(t, rwerr.Code(""), rwerr.CodeOf(nil))
	assert.Nil(t, rwerr.FieldsOf(nil))
}

func TestFieldsWithEmptyKeyAreIgnored(t *testing.T) {
	err := rwerr.New(rwerr.CodeInternalFailure, "boom", rwerr.Field("", "dropped"), rwerr.Field("kept", 1))
	fields := rwerr.FieldsOf(err)
	assert.NotContains(t, fields, "")
	assert.Equal(t, 1, fields["kept"])
}

// ---------------------------------------------------------------------------
// Classification helpers
// ---------------------------------------------------------------------------

func TestClassificationAndStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		code   rwerr.Code
		status int
		check  func(error) bool
	}{
		{name: "snapshot not found", code: rwerr.CodeStoreSnapshotNotFound, status: http.StatusNotFound, check: rwerr.IsNotFound},
		{name: "provider not found", code: rwerr.CodeProviderNotFound, status: http.StatusNotFound, check: rwerr.IsNotFound},
		{name: "location not found", code: rwerr.CodePlannerLocationNotFound, status: http.StatusNotFound, check: rwerr.IsNotFound},
		{name: "invalid value", code: rwerr.CodeConfigValidateInvalidValue, status: http.StatusBadRequest, check: rwerr.IsInvalidInput},
		{name: "invalid format", code: rwerr.CodeConfigParseInvalidFormat, status: http.StatusBadRequest, check: rwerr.IsInvalidInput},
		{name: "transit request invalid", code: rwerr.CodeTransitRequestInvalid, status: http.StatusBadRequest, check: rwerr.IsInvalidInput},
		{name: "rate limited", code: rwerr.CodeTransitRateLimited, status: http.StatusTooManyRequests, check: rwerr.IsRateLimited},
		{name: "timeout", code: rwerr.CodeTransitTimeout, status: http.StatusGatewayTimeout, check: rwerr.IsTimeout},
		{name: "transit upstream", code: rwerr.CodeTransitUpstreamFailure, status: http.StatusBadGateway, check: rwerr.IsUpstreamFailure},
		{name: "provider upstream", code: rwerr.CodeProviderUpstreamFailure, status: http.StatusBadGateway, check: rwerr.IsUpstreamFailure},
		{name: "internal", code: rwerr.CodeInternalFailure, status: http.StatusInternalServerError, check: func(err error) bool { return !rwerr.IsNotFound(err) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rwerr.New(tt.code, "boom")
			assert.Equal(t, tt.status, rwerr.HTTPStatus(err))
			assert.True(t, tt.check(err))
		})
	}
}

func TestClassificationNegativeCases(t *testing.T) {
	err := rwerr.New(rwerr.CodeStoreDatabaseFailure, "db error")
	assert.False(t, rwerr.IsNotFound(err))
	assert.False(t, rwerr.IsInvalidInput(err))
	assert.False(t, rwerr.IsRateLimited(err))
	assert.False(t, rwerr.IsTimeout(err))
	assert.False(t, rwerr.IsUpstreamFailure(err))

	assert.False(t, rwerr.IsNotFound(nil))
	assert.False(t, rwerr.IsRateLimited(stderrors.New("rate limit")))
	assert.Equal(t, http.StatusInternalServerError, rwerr.HTTPStatus(nil))
}

func TestJoinCombinesErrors(t *testing.T) {
	a := stderrors.New("first")
	b := stderrors.New("second")
	err := rwerr.Join(a, b)

	assert.ErrorIs(t, err, a)
	assert.ErrorIs(t, err, b)
	assert.Equal(t, rwerr.CodeInternalFailure, rwerr.CodeOf(err))
}
