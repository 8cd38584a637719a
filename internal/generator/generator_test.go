package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yourorg/yapits/pkg/types"
)

func staticProjects(infos ...types.ProjectInfo) ProjectResolver {
	byID := map[int]types.ProjectInfo{}
	for _, p := range infos {
		byID[p.ID] = p
	}
	return ProjectResolverFunc(func(_ context.Context, id int) (*types.ProjectInfo, error) {
		p, ok := byID[id]
		if !ok {
			return nil, nil
		}
		return &p, nil
	})
}

func userGetDoc() types.ApiDocument {
	return types.ApiDocument{
		ID:                 42,
		CategoryID:         7,
		ProjectID:          1,
		Path:               "/user/get",
		Method:             "GET",
		Title:              "Get user",
		RequestQueryParams: []types.QueryParam{{Name: "id", Type: "integer", Required: true}},
		ResponseIsSchema:   true,
		ResponseSchemaText: `{"properties":{"data":{"type":"object","properties":{"name":{"type":"string"}}}}}`,
	}
}

func newTestGenerator(t *testing.T, logger *zap.Logger) *Generator {
	t.Helper()
	g, err := New(staticProjects(types.ProjectInfo{ID: 1, BasePath: "/api"}), DefaultOptions(), logger)
	require.NoError(t, err)
	return g
}

func TestSynthesizeUserGet(t *testing.T) {
	g := newTestGenerator(t, nil)
	art, err := g.Synthesize(context.Background(), userGetDoc())
	require.NoError(t, err)

	assert.Equal(t, "/api/user/get", art.URL)
	assert.Equal(t, "GET", art.Method)
	assert.Equal(t, 42, art.ID)
	assert.Equal(t, 7, art.CategoryID)
	assert.Equal(t, "Get user", art.Title)
	assert.Equal(t, "export interface UserGetDTO {\n  id: number;\n}\n", art.RequestDeclaration)
	assert.Equal(t, "export interface UserGetVO {\n  name?: string;\n}\n", art.ResponseDeclaration)
	assert.Equal(t, "// GET /api/user/get Get user\n"+art.RequestDeclaration+"\n"+art.ResponseDeclaration, art.Text())
}

func TestSynthesizeKeepsMethodVerbatim(t *testing.T) {
	doc := userGetDoc()
	doc.Method = "post"
	art, err := newTestGenerator(t, nil).Synthesize(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "post", art.Method)
	assert.True(t, strings.HasPrefix(art.Text(), "// post /api/user/get"))
}

func TestSynthesizeIsIdempotent(t *testing.T) {
	g := newTestGenerator(t, nil)
	first, err := g.Synthesize(context.Background(), userGetDoc())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*types.GeneratedArtifact, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = g.Synthesize(context.Background(), userGetDoc())
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, first, r)
	}
}

func TestSynthesizeProjectLookupFailure(t *testing.T) {
	boom := errors.New("connection refused")
	g, err := New(ProjectResolverFunc(func(context.Context, int) (*types.ProjectInfo, error) {
		return nil, boom
	}), DefaultOptions(), nil)
	require.NoError(t, err)

	art, err := g.Synthesize(context.Background(), userGetDoc())
	assert.Nil(t, art)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProjectLookup)
	assert.ErrorIs(t, err, boom)
	var se *SynthesisError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageProject, se.Stage)
	assert.Equal(t, 42, se.DocumentID)
}

func TestSynthesizeMissingProject(t *testing.T) {
	g := newTestGenerator(t, nil)
	doc := userGetDoc()
	doc.ProjectID = 99
	_, err := g.Synthesize(context.Background(), doc)
	assert.ErrorIs(t, err, ErrProjectLookup)
}

func TestSynthesizeMalformedSchemaLogsWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	g := newTestGenerator(t, zap.New(core))

	doc := userGetDoc()
	doc.RequestIsSchema = true
	doc.RequestSchemaText = `{"type":"object","properties":{"id":`
	doc.ResponseSchemaText = `{"properties":{"data":{"description":"?"}}}`
	art, err := g.Synthesize(context.Background(), doc)
	require.NoError(t, err)
	assert.Contains(t, art.RequestDeclaration, "// "+PlaceholderRequestMalformed)
	assert.Contains(t, art.ResponseDeclaration, "// "+PlaceholderUnknownShape)

	entries := logs.FilterMessage("recovered while synthesizing").All()
	require.Len(t, entries, 2)
	assert.Equal(t, string(WarnSchemaParse), entries[0].ContextMap()["kind"])
	assert.Equal(t, string(WarnUnknownShape), entries[1].ContextMap()["kind"])
	assert.Equal(t, int64(42), entries[0].ContextMap()["interface_id"])
}

func TestSynthesizeCustomSuffixes(t *testing.T) {
	opts := DefaultOptions()
	opts.RequestSuffix = "Req"
	opts.ResponseSuffix = "Res"
	g, err := New(staticProjects(types.ProjectInfo{ID: 1, BasePath: "/"}), opts, nil)
	require.NoError(t, err)

	art, err := g.Synthesize(context.Background(), userGetDoc())
	require.NoError(t, err)
	assert.Equal(t, "/user/get", art.URL)
	assert.Contains(t, art.RequestDeclaration, "interface UserGetReq {")
	assert.Contains(t, art.ResponseDeclaration, "interface UserGetRes {")
}

func TestNewRequiresResolver(t *testing.T) {
	_, err := New(nil, DefaultOptions(), nil)
	assert.Error(t, err)
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "/api/user", JoinURL("/api", "/user"))
	assert.Equal(t, "/api/user", JoinURL("/api/", "/user"))
	assert.Equal(t, "/user", JoinURL("", "/user"))
}
