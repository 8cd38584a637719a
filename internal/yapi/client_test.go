package yapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeData(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	_ = json.NewEncoder(w).Encode(map[string]any{"errcode": 0, "errmsg": "成功！", "data": data})
}

func noSleep(t *testing.T) {
	t.Helper()
	orig := sleepFn
	sleepFn = func(time.Duration) {}
	t.Cleanup(func() { sleepFn = orig })
}

func TestProjectSendsTokenAndCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/project/get", r.URL.Path)
		assert.Equal(t, "11", r.URL.Query().Get("id"))
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		assert.Equal(t, "_yapi_token=abc", r.Header.Get("Cookie"))
		writeData(t, w, map[string]any{"_id": 11, "name": "shop", "basepath": "/api"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "_yapi_token=abc", 0, nil)
	p, err := c.Project(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, 11, p.ID)
	assert.Equal(t, "shop", p.Name)
	assert.Equal(t, "/api", p.BasePath)
}

func TestInterfaceMapsYApiFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeData(t, w, map[string]any{
			"_id":        5,
			"catid":      2,
			"project_id": 11,
			"path":       "/user/get",
			"method":     "get",
			"title":      "Get user",
			"req_query": []map[string]any{
				{"name": "id", "required": "1", "desc": "user id"},
				{"name": "verbose", "required": "0"},
			},
			"req_body_type":           "form",
			"req_body_form":           []map[string]any{{"name": "avatar", "type": "file", "required": "1"}},
			"res_body_is_json_schema": true,
			"res_body":                `{"type":"object"}`,
		})
	}))
	defer srv.Close()

	doc, err := NewClient(srv.URL, "", "", 0, nil).Interface(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "GET", doc.Method)
	assert.Equal(t, 2, doc.CategoryID)
	assert.False(t, doc.RequestIsSchema)
	require.Len(t, doc.RequestQueryParams, 3)
	assert.Equal(t, "id", doc.RequestQueryParams[0].Name)
	assert.True(t, doc.RequestQueryParams[0].Required)
	assert.Equal(t, "string", doc.RequestQueryParams[0].Type)
	assert.Equal(t, "user id", doc.RequestQueryParams[0].Description)
	assert.False(t, doc.RequestQueryParams[1].Required)
	assert.Equal(t, "file", doc.RequestQueryParams[2].Type)
	assert.True(t, doc.ResponseIsSchema)
	assert.Equal(t, `{"type":"object"}`, doc.ResponseSchemaText)
}

func TestInterfaceJSONSchemaBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeData(t, w, map[string]any{
			"_id":                     6,
			"req_body_type":           "json",
			"req_body_is_json_schema": true,
			"req_body_other":          `{"type":"object","properties":{}}`,
		})
	}))
	defer srv.Close()

	doc, err := NewClient(srv.URL, "", "", 0, nil).Interface(context.Background(), 6)
	require.NoError(t, err)
	assert.True(t, doc.RequestIsSchema)
	assert.Equal(t, `{"type":"object","properties":{}}`, doc.RequestSchemaText)
}

func TestAPIErrorOnNonZeroErrcode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errcode":40011,"errmsg":"请登录...","data":null}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", "", 0, nil).Project(context.Background(), 1)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 40011, apiErr.Code)
}

func TestRetriesOn5xx(t *testing.T) {
	noSleep(t)
	var hit int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hit, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeData(t, w, map[string]any{"_id": 1, "basepath": ""})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", "", 0, nil).Project(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hit))
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	noSleep(t)
	var hit int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hit, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", 0, nil)
	c.MaxRetries = 2
	_, err := c.Project(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hit))
}

func TestNoRetryOn4xx(t *testing.T) {
	var hit int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hit, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", "", 0, nil).Interface(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hit))
}

func TestAllCategoryInterfacesPages(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/interface/list_cat", r.URL.Path)
		assert.Equal(t, "9", r.URL.Query().Get("catid"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		pages = append(pages, r.URL.Query().Get("page"))
		list := []map[string]any{{"_id": page*100 + 1, "catid": 9, "path": "/a"}, {"_id": page*100 + 2, "catid": 9, "path": "/b"}}
		writeData(t, w, map[string]any{"count": 4, "total": 2, "list": list})
	}))
	defer srv.Close()

	all, err := NewClient(srv.URL, "", "", 0, nil).AllCategoryInterfaces(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, pages)
	require.Len(t, all, 4)
	assert.Equal(t, 101, all[0].ID)
	assert.Equal(t, 202, all[3].ID)
	assert.Equal(t, 9, all[0].CategoryID)
}

func TestCategoryInterfacesDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		writeData(t, w, map[string]any{"count": 0, "total": 0, "list": []any{}})
	}))
	defer srv.Close()

	p, err := NewClient(srv.URL, "", "", 0, nil).CategoryInterfaces(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, p.List)
}

func TestFlagDecoding(t *testing.T) {
	var v struct {
		A flag `json:"a"`
		B flag `json:"b"`
		C flag `json:"c"`
		D flag `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1","b":"0","c":1,"d":true}`), &v))
	assert.True(t, bool(v.A))
	assert.False(t, bool(v.B))
	assert.True(t, bool(v.C))
	assert.True(t, bool(v.D))
}

func TestTransportErrorRedactsToken(t *testing.T) {
	noSleep(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	c := NewClient(base, "s3cret", "_yapi_token=abc", 0, zap.New(core))
	c.MaxRetries = 0
	_, err := c.Interface(context.Background(), 7)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "s3cret")
	assert.Contains(t, err.Error(), "REDACTED")

	require.NotZero(t, logs.Len())
	for _, entry := range logs.All() {
		for k, v := range entry.ContextMap() {
			rendered, _ := json.Marshal(v)
			assert.False(t, strings.Contains(string(rendered), "s3cret"), "token leaked in %s", k)
			assert.False(t, strings.Contains(string(rendered), "_yapi_token=abc"), "cookie leaked in %s", k)
		}
	}
}
