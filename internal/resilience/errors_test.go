package resilience

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func response(code int, body string) *http.Response {
	return &http.Response{StatusCode: code, Body: io.NopCloser(strings.NewReader(body))}
}

func TestCheckResponse(t *testing.T) {
	assert.NoError(t, CheckResponse("assessor", response(200, "ok")))
	assert.NoError(t, CheckResponse("assessor", response(204, "")))

	err := CheckResponse("assessor", response(503, "  down for maintenance \n"))
	require.Error(t, err)
	assert.Equal(t, "assessor: unexpected status 503: down for maintenance", err.Error())
	assert.Equal(t, 503, StatusCode(err))
	assert.True(t, IsTransient(err))

	err = CheckResponse("market", response(400, ""))
	assert.Equal(t, "market: unexpected status 400", err.Error())
	assert.False(t, IsTransient(err))
}

func TestCheckResponse_TruncatesBody(t *testing.T) {
	err := CheckResponse("listings", response(500, strings.Repeat("x", 2000)))
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Len(t, se.Body, maxErrorBody)
}

func TestStatusCode_Wrapped(t *testing.T) {
	err := eris.Wrap(&StatusError{Service: "x", StatusCode: 429}, "fetch")
	assert.Equal(t, 429, StatusCode(err))
	assert.True(t, IsTransient(err))
	assert.Equal(t, 0, StatusCode(errors.New("plain")))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad json"), false},
		{"conn reset", syscall.ECONNRESET, true},
		{"conn refused wrapped", eris.Wrap(syscall.ECONNREFUSED, "dial"), true},
		{"io timeout text", errors.New("read tcp: i/o timeout"), true},
		{"no such host", errors.New("dial tcp: lookup api: no such host"), true},
		{"404", &StatusError{StatusCode: 404}, false},
		{"502", &StatusError{StatusCode: 502}, true},
		{"breaker open", ErrOpen, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestTransientStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, TransientStatus(code), code)
	}
	for _, code := range []int{200, 400, 401, 403, 404, 501} {
		assert.False(t, TransientStatus(code), code)
	}
}
