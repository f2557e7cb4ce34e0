package webclient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_SuccessVariant(t *testing.T) {
	res := NewSuccess(Result{URL: "https://example.com", Backend: "nethttp"}, "<html><head><title>Hi</title></head></html>")

	assert.True(t, res.OK())
	s, ok := res.Success()
	require.True(t, ok)
	assert.Contains(t, s.Markup, "<title>Hi</title>")
	_, isFailure := res.Failure()
	assert.False(t, isFailure)
	assert.NoError(t, res.Err())

	doc, err := res.Document()
	require.NoError(t, err)
	assert.Equal(t, "Hi", doc.Find("title").Text())
}

func TestResult_FailureVariant(t *testing.T) {
	res := NewFailure(Result{URL: "https://example.com"}, HttpStatus, "GET https://example.com: 404 Not Found", 404)

	assert.False(t, res.OK())
	assert.Empty(t, res.Markup())
	f, ok := res.Failure()
	require.True(t, ok)
	assert.Equal(t, HttpStatus, f.Kind)
	assert.Equal(t, 404, f.StatusCode)

	err := res.Err()
	require.Error(t, err)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, HttpStatus, fe.Kind)
	assert.Equal(t, "HttpStatus (404): GET https://example.com: 404 Not Found", err.Error())

	_, err = res.Document()
	assert.Error(t, err)
}

func TestResult_ConstructorsDoNotShareState(t *testing.T) {
	meta := Result{URL: "https://example.com"}
	ok := NewSuccess(meta, "a")
	bad := NewFailure(meta, NetworkError, "refused", 0)

	assert.True(t, ok.OK())
	assert.False(t, bad.OK())
	assert.Equal(t, "a", ok.Markup())
}

func TestResult_NilIsFailureLike(t *testing.T) {
	var res *Result
	assert.False(t, res.OK())
	_, ok := res.Success()
	assert.False(t, ok)

	doc, err := res.Document()
	require.Error(t, err)
	assert.Nil(t, doc)
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "InvalidInput", InvalidInput.String())
	assert.Equal(t, "NetworkError", NetworkError.String())
	assert.Equal(t, "HttpStatus", HttpStatus.String())
	assert.Equal(t, "RenderTimeout", RenderTimeout.String())
	assert.Equal(t, "DriverError", DriverError.String())
	assert.Equal(t, "ErrorKind(99)", ErrorKind(99).String())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKind(0), KindOf(errors.New("plain")))
	assert.Equal(t, ErrorKind(0), KindOf(nil))
	wrapped := errors.Join(errors.New("ctx"), &FetchError{Kind: DriverError, Msg: "x"})
	assert.Equal(t, DriverError, KindOf(wrapped))
}
