package request

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockhand/dockhand/pkg/catalog"
)

var listOp = &catalog.Operation{
	Name:         "ContainerList",
	Category:     "containers",
	Method:       http.MethodGet,
	PathTemplate: "/containers/json",
	Params: []catalog.Param{
		{Name: "all", Kind: catalog.ParamQuery},
		{Name: "limit", Kind: catalog.ParamQuery},
		{Name: "filters", Kind: catalog.ParamQuery},
	},
}

var inspectOp = &catalog.Operation{
	Name:         "ContainerInspect",
	Category:     "containers",
	Method:       http.MethodGet,
	PathTemplate: "/containers/{id}/json",
	Params: []catalog.Param{
		{Name: "id", Kind: catalog.ParamPath, Required: true},
		{Name: "size", Kind: catalog.ParamQuery},
	},
}

var createOp = &catalog.Operation{
	Name:         "ContainerCreate",
	Category:     "containers",
	Method:       http.MethodPost,
	PathTemplate: "/containers/create",
	Params: []catalog.Param{
		{Name: "name", Kind: catalog.ParamQuery},
		{Name: "body", Kind: catalog.ParamBody, Required: true},
	},
}

// An operation accepting either body form, to exercise the conflict
// check.
var uploadOp = &catalog.Operation{
	Name:         "ConfigUpload",
	Category:     "containers",
	Method:       http.MethodPut,
	PathTemplate: "/configs",
	Params: []catalog.Param{
		{Name: "body", Kind: catalog.ParamBody},
		{Name: "inputStream", Kind: catalog.ParamStream},
	},
}

func TestBuild_QueryParams(t *testing.T) {
	req, err := Build(context.Background(), "http://localhost", listOp, map[string]any{
		"all":   true,
		"limit": 3,
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/containers/json", req.URL.Path)
	assert.Equal(t, "true", req.URL.Query().Get("all"))
	assert.Equal(t, "3", req.URL.Query().Get("limit"))
	assert.Nil(t, req.Body)
}

func TestBuild_FiltersEncodedAsJSON(t *testing.T) {
	req, err := Build(context.Background(), "http://localhost", listOp, map[string]any{
		"filters": map[string][]string{"status": {"running"}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":["running"]}`, req.URL.Query().Get("filters"))
}

func TestBuild_PathSubstitution(t *testing.T) {
	req, err := Build(context.Background(), "http://localhost", inspectOp, map[string]any{
		"id": "abc123",
	})
	require.NoError(t, err)
	assert.Equal(t, "/containers/abc123/json", req.URL.Path)
}

func TestBuild_PathValueEscaped(t *testing.T) {
	req, err := Build(context.Background(), "http://localhost", inspectOp, map[string]any{
		"id": "a/b c",
	})
	require.NoError(t, err)
	assert.Contains(t, req.URL.EscapedPath(), "a%2Fb%20c")
}

func TestBuild_JSONBody(t *testing.T) {
	req, err := Build(context.Background(), "http://localhost", createOp, map[string]any{
		"name": "web",
		"body": map[string]any{"Image": "busybox:latest"},
	})
	require.NoError(t, err)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	data, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Image":"busybox:latest"}`, string(data))
}

func TestBuild_StreamBody(t *testing.T) {
	req, err := Build(context.Background(), "http://localhost", uploadOp, map[string]any{
		"inputStream": strings.NewReader("raw tar bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", req.Header.Get("Content-Type"))
	data, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "raw tar bytes", string(data))
}

func TestBuild_StreamMustBeReader(t *testing.T) {
	_, err := Build(context.Background(), "http://localhost", uploadOp, map[string]any{
		"inputStream": "not a reader",
	})
	require.Error(t, err)
}

func TestBuild_MissingRequired(t *testing.T) {
	_, err := Build(context.Background(), "http://localhost", createOp, map[string]any{
		"name": "web",
	})
	var mpe *MissingParameterError
	require.ErrorAs(t, err, &mpe)
	assert.Equal(t, "body", mpe.Parameter)
	assert.Equal(t, "ContainerCreate", mpe.Operation)
}

func TestBuild_UnknownParameter(t *testing.T) {
	_, err := Build(context.Background(), "http://localhost", listOp, map[string]any{
		"alll": true,
	})
	var upe *UnknownParameterError
	require.ErrorAs(t, err, &upe)
	assert.Equal(t, "alll", upe.Parameter)
}

func TestBuild_ConflictingBody(t *testing.T) {
	_, err := Build(context.Background(), "http://localhost", uploadOp, map[string]any{
		"body":        map[string]any{"a": 1},
		"inputStream": strings.NewReader("x"),
	})
	var cbe *ConflictingBodyError
	require.ErrorAs(t, err, &cbe)
}
