package decode

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func response(status int, body string) (*http.Response, *trackingBody) {
	tb := &trackingBody{Reader: strings.NewReader(body)}
	return &http.Response{StatusCode: status, Body: tb}, tb
}

func TestDecode_Value(t *testing.T) {
	resp, tb := response(200, `{"Id":"abc","Warnings":[]}`)
	v, err := Decode(resp, KindValue)
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok, "value result should be a map, got %T", v)
	assert.Equal(t, "abc", m["Id"])
	assert.True(t, tb.closed, "value decode must close the body")
}

func TestDecode_DefaultKindIsValue(t *testing.T) {
	resp, _ := response(200, `[1,2,3]`)
	v, err := Decode(resp, "")
	require.NoError(t, err)
	assert.IsType(t, []any{}, v)
}

func TestDecode_Value_NotJSON(t *testing.T) {
	resp, _ := response(200, "definitely not json {{")
	_, err := Decode(resp, KindValue)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestDecode_Value_EmptyBody(t *testing.T) {
	resp, _ := response(200, "")
	_, err := Decode(resp, KindValue)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestDecode_String(t *testing.T) {
	resp, _ := response(200, "OK")
	v, err := Decode(resp, KindString)
	require.NoError(t, err)
	assert.Equal(t, "OK", v)
}

func TestDecode_String_EmptyBody(t *testing.T) {
	resp, _ := response(200, "")
	v, err := Decode(resp, KindString)
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestDecode_Stream_NotBuffered(t *testing.T) {
	resp, tb := response(200, "streaming bytes")
	v, err := Decode(resp, KindStream)
	require.NoError(t, err)
	rc, ok := v.(io.ReadCloser)
	require.True(t, ok, "stream result should be an io.ReadCloser")
	assert.False(t, tb.closed, "stream decode must leave the body open")

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "streaming bytes", string(data))
}

func TestDecode_NonOKStatus(t *testing.T) {
	for _, kind := range []Kind{KindValue, KindString, KindStream} {
		t.Run(string(kind), func(t *testing.T) {
			resp, tb := response(404, `{"message":"no such container"}`)
			_, err := Decode(resp, kind)
			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, 404, se.Code)
			assert.Contains(t, se.Body, "no such container")
			assert.True(t, tb.closed)
		})
	}
}

func TestDecode_UnknownKind(t *testing.T) {
	resp, tb := response(200, "x")
	_, err := Decode(resp, Kind("hologram"))
	require.Error(t, err)
	assert.True(t, tb.closed)
}
