package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackHandler_DeliversCode(t *testing.T) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	h := callbackHandler("nonce", codeCh, errCh)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/oauth2callback?state=nonce&code=4/abc", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, codeCh, 1)
	assert.Equal(t, "4/abc", <-codeCh)
	assert.Empty(t, errCh)
}

func TestCallbackHandler_RejectsWrongState(t *testing.T) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	h := callbackHandler("nonce", codeCh, errCh)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/oauth2callback?state=forged&code=4/abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, codeCh)
	require.Len(t, errCh, 1)
	assert.ErrorContains(t, <-errCh, "unexpected state")
}

func TestCallbackHandler_RejectsMissingCode(t *testing.T) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	h := callbackHandler("nonce", codeCh, errCh)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/oauth2callback?state=nonce", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, codeCh)
	require.Len(t, errCh, 1)
	assert.ErrorContains(t, <-errCh, "no code")
}

func TestCallbackHandler_RepeatedCallbackNeverBlocks(t *testing.T) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	h := callbackHandler("nonce", codeCh, errCh)

	// A user can hit the redirect URL again while the exchange is still
	// running; every hit must return.
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/oauth2callback?state=nonce&code=4/abc", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/oauth2callback?state=forged", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Only the first outcome is kept.
	assert.Equal(t, "4/abc", <-codeCh)
	assert.Empty(t, codeCh)
}
