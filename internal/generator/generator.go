package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/yourorg/yapits/internal/schema"
	"github.com/yourorg/yapits/pkg/types"
)

// Synthesis stages, reported in SynthesisError and warnings.
const (
	StageProject  = "project"
	StageRequest  = "request"
	StageResponse = "response"
)

// ErrProjectLookup marks failures to obtain the owning project's info.
var ErrProjectLookup = errors.New("project lookup failed")

// SynthesisError is the single error reported for a failed synthesis.
type SynthesisError struct {
	DocumentID int
	Stage      string
	Err        error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesize interface %d: %s: %v", e.DocumentID, e.Stage, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// WarningKind names a condition that was recovered from locally.
type WarningKind string

const (
	WarnSchemaParse   WarningKind = "schema_parse"
	WarnUnresolvedRef WarningKind = "unresolved_reference"
	WarnUnknownShape  WarningKind = "unknown_shape"
)

// Warning is a recovered, non-fatal condition found while building.
type Warning struct {
	Kind   WarningKind
	Stage  string
	Detail string
}

// ProjectResolver supplies project info by id. Implementations own any
// caching.
type ProjectResolver interface {
	Project(ctx context.Context, id int) (*types.ProjectInfo, error)
}

// ProjectResolverFunc adapts a function to ProjectResolver.
type ProjectResolverFunc func(ctx context.Context, id int) (*types.ProjectInfo, error)

func (f ProjectResolverFunc) Project(ctx context.Context, id int) (*types.ProjectInfo, error) {
	return f(ctx, id)
}

// Options tunes naming and rendering.
type Options struct {
	RequestSuffix  string
	ResponseSuffix string
	Render         RenderOptions
}

// DefaultOptions names request types *DTO and response types *VO.
func DefaultOptions() Options {
	return Options{RequestSuffix: "DTO", ResponseSuffix: "VO", Render: DefaultRenderOptions()}
}

// Generator turns ApiDocuments into GeneratedArtifacts. It holds no
// per-call state and is safe for concurrent use.
type Generator struct {
	projects ProjectResolver
	opts     Options
	logger   *zap.Logger
}

// New constructs a Generator. A nil logger disables logging.
func New(projects ProjectResolver, opts Options, logger *zap.Logger) (*Generator, error) {
	if projects == nil {
		return nil, errors.New("project resolver is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Render.Indent == "" {
		opts.Render.Indent = DefaultRenderOptions().Indent
	}
	return &Generator{projects: projects, opts: opts, logger: logger}, nil
}

// Synthesize builds the request and response declarations for doc. Any
// failure is returned as a *SynthesisError; no partial artifact is returned.
func (g *Generator) Synthesize(ctx context.Context, doc types.ApiDocument) (*types.GeneratedArtifact, error) {
	project, err := g.projects.Project(ctx, doc.ProjectID)
	if err == nil && project == nil {
		err = errors.Newf("project %d not found", doc.ProjectID)
	}
	if err != nil {
		return nil, &SynthesisError{DocumentID: doc.ID, Stage: StageProject, Err: errors.Mark(err, ErrProjectLookup)}
	}

	base := BaseName(doc.Path)
	req, reqWarnings, err := buildRequest(base+g.opts.RequestSuffix, doc)
	if err != nil {
		return nil, &SynthesisError{DocumentID: doc.ID, Stage: StageRequest, Err: err}
	}
	resp, respWarnings, err := buildResponse(base+g.opts.ResponseSuffix, doc)
	if err != nil {
		return nil, &SynthesisError{DocumentID: doc.ID, Stage: StageResponse, Err: err}
	}
	g.logWarnings(doc.ID, append(reqWarnings, respWarnings...))

	return &types.GeneratedArtifact{
		URL:                 JoinURL(project.BasePath, doc.Path),
		Method:              doc.Method,
		ID:                  doc.ID,
		CategoryID:          doc.CategoryID,
		ProjectID:           doc.ProjectID,
		Title:               doc.Title,
		RequestDeclaration:  Assemble(req, req.Children, g.opts.Render),
		ResponseDeclaration: Assemble(resp, resp.Children, g.opts.Render),
	}, nil
}

func (g *Generator) logWarnings(docID int, warnings []Warning) {
	for _, w := range warnings {
		g.logger.Warn("recovered while synthesizing",
			zap.Int("interface_id", docID),
			zap.String("kind", string(w.Kind)),
			zap.String("stage", w.Stage),
			zap.String("detail", w.Detail))
	}
}

// JoinURL concatenates a project base path and an endpoint path without
// doubling the slash between them.
func JoinURL(basePath, path string) string {
	if strings.HasSuffix(basePath, "/") && strings.HasPrefix(path, "/") {
		return basePath + path[1:]
	}
	return basePath + path
}

// refWarnings reports the references Resolve would return verbatim for n.
func refWarnings(stage string, n *schema.Node) []Warning {
	var out []Warning
	for depth := 0; n != nil && depth <= maxResolveDepth; depth++ {
		if n.Ref != "" {
			out = append(out, Warning{Kind: WarnUnresolvedRef, Stage: stage, Detail: n.Ref})
			return out
		}
		if n.Type != "array" {
			return out
		}
		n = n.Items
	}
	return out
}
