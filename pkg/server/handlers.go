package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/matzehuels/strata/pkg/arrange/hierarchy"
	errs "github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/io"
	"github.com/matzehuels/strata/pkg/pipeline"
)

// Response headers describing an arrangement.
const (
	HeaderCache    = "X-Strata-Cache"
	HeaderLevels   = "X-Strata-Levels"
	HeaderReached  = "X-Strata-Reached"
	HeaderDeadline = "X-Strata-Deadline-Exceeded"
)

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatPNG:  "image/png",
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleArrange handles POST /v1/arrange.
//
//	200 OK: arranged graph document
//	400 Bad Request: malformed graph or options
//	413 Request Entity Too Large: body over the limit
//	504 Gateway Timeout: request timeout hit
func (s *Server) handleArrange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	opts, err := s.arrangeOptions(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := pipeline.ReadDocument(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	stats, hit, err := s.runner.ArrangeWithCacheInfo(ctx, doc, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := io.WriteJSON(doc, &buf); err != nil {
		s.writeError(w, r, errs.Wrap(errs.ErrCodeInternal, err, "encode graph"))
		return
	}
	setArrangeHeaders(w, stats, hit)
	w.Header().Set("Content-Type", contentTypes[pipeline.FormatJSON])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleRender handles POST /v1/render.
//
//	200 OK: rendered artifact in the requested format
//	400 Bad Request: malformed graph, options or format
//	413 Request Entity Too Large: body over the limit
//	504 Gateway Timeout: request timeout hit
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	opts, err := s.arrangeOptions(q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}
	if opts.Labels, err = boolParam(q, "labels", false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 {
			s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "invalid scale %q", v))
			return
		}
		opts.Scale = scale
	}
	arrange, err := boolParam(q, "arrange", true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	doc, err := pipeline.ReadDocument(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if arrange {
		stats, hit, err := s.runner.ArrangeWithCacheInfo(ctx, doc, opts)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		setArrangeHeaders(w, stats, hit)
	} else {
		doc.Roots, _, doc.MissingRoots = pipeline.ResolveRoots(doc, opts)
	}

	artifacts, err := s.runner.Render(ctx, doc, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

// arrangeOptions merges query parameters over the server defaults.
func (s *Server) arrangeOptions(q url.Values) (pipeline.Options, error) {
	opts := s.opts.Arrange
	opts.Logger = nil
	opts.Formats = nil

	if v := q.Get("roots"); v != "" {
		opts.Roots = nil
		for _, root := range strings.Split(v, ",") {
			if root = strings.TrimSpace(root); root != "" {
				opts.Roots = append(opts.Roots, root)
			}
		}
	}
	var err error
	if opts.MaintainMean, err = boolParam(q, "maintain_mean", opts.MaintainMean); err != nil {
		return opts, err
	}
	if opts.BatchWeights, err = boolParam(q, "batch_weights", opts.BatchWeights); err != nil {
		return opts, err
	}
	if opts.Refresh, err = boolParam(q, "refresh", false); err != nil {
		return opts, err
	}
	return opts, opts.ValidateForArrange()
}

func boolParam(q url.Values, name string, def bool) (bool, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, errs.New(errs.ErrCodeInvalidInput, "invalid %s %q", name, v)
	}
	return b, nil
}

func setArrangeHeaders(w http.ResponseWriter, stats hierarchy.Stats, hit bool) {
	cache := "miss"
	if hit {
		cache = "hit"
	}
	h := w.Header()
	h.Set(HeaderCache, cache)
	h.Set(HeaderLevels, strconv.Itoa(stats.MaxLevel+1))
	h.Set(HeaderReached, strconv.Itoa(stats.Reached))
	h.Set(HeaderDeadline, strconv.FormatBool(stats.DeadlineExceeded))
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(err)
	code := errs.GetCode(err)
	msg := errs.UserMessage(err)

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
		code = errs.ErrCodeInvalidInput
		msg = "request body too large"
	}
	if code == "" {
		code = errs.ErrCodeInternal
	}

	logger := loggerFrom(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "code", code, "err", err)
	} else {
		logger.Debug("request rejected", "code", code, "err", err)
	}
	writeJSON(w, status, ErrorResponse{
		Error:     msg,
		Code:      string(code),
		RequestID: requestIDFrom(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
