package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aicodeswitch/aicodeswitch/internal/classify"
	"github.com/aicodeswitch/aicodeswitch/internal/config"
	"github.com/aicodeswitch/aicodeswitch/internal/proxyerr"
	"github.com/aicodeswitch/aicodeswitch/internal/reqlog"
	"github.com/aicodeswitch/aicodeswitch/internal/resolve"
)

// responseContext carries everything the streaming/buffered response
// handlers need to finish the log record, once the upstream dispatch has
// already happened.
type responseContext struct {
	recorder *reqlog.Recorder
	start    time.Time

	method string
	path   string

	targetType config.TargetType
	route      config.Route
	rule       config.Rule
	service    config.APIService

	vendorID   string
	vendorName string

	requestHeaders        map[string]string
	requestBody           string
	requestModel          string
	targetModel           string
	estimatedPromptTokens int
}

// ServeHTTP implements the full per-request pipeline: auth, classify,
// resolve, translate, dispatch, and response handling.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	snap := e.configMgr.Current()

	loggingEnabled := snap != nil && snap.AppConfig.EnableLogging
	recorder := reqlog.NewRecorder(e.sink, loggingEnabled)
	recorder.StartAccessLog(ctx, r.Method, r.URL.Path, r.RemoteAddr, r.UserAgent())

	targetType, ok := targetTypeForPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		recorder.Finalize(ctx,
			reqlog.RequestLog{Timestamp: start, Method: r.Method, Path: r.URL.Path, StatusCode: http.StatusNotFound, ResponseTimeMS: time.Since(start).Milliseconds()},
			reqlog.AccessLogPatch{StatusCode: http.StatusNotFound, ResponseTimeMS: time.Since(start).Milliseconds()},
			nil)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		e.fail(w, r, recorder, start, nil, fmt.Errorf("proxy: read request body: %w", err))
		return
	}

	if snap != nil && snap.AppConfig.APIKey != "" && !checkAuth(r, snap.AppConfig.APIKey) {
		e.fail(w, r, recorder, start, body, proxyerr.ErrInvalidAPIKey)
		return
	}

	var bodyMap map[string]any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &bodyMap); err != nil {
			e.fail(w, r, recorder, start, body, fmt.Errorf("proxy: parse request body: %w", proxyerr.ErrTransformFailure))
			return
		}
	}
	if bodyMap == nil {
		bodyMap = map[string]any{}
	}

	contentType := classify.Classify(classify.Input{
		Headers: headerMap(r.Header),
		Query:   queryMap(r.URL.Query()),
		Body:    bodyMap,
	})

	res, err := resolve.Resolve(snap, targetType, contentType)
	if err != nil {
		e.fail(w, r, recorder, start, body, err)
		return
	}

	translated, err := translateRequest(targetType, res.Service.SourceType, bodyMap)
	if err != nil {
		e.fail(w, r, recorder, start, body, err)
		return
	}
	translated = applyModelOverride(translated, res.Rule.TargetModel)

	requestModel, _ := bodyMap["model"].(string)
	targetModel := res.Rule.TargetModel
	if targetModel == "" {
		targetModel = requestModel
	}
	streaming := isStreamingRequest(bodyMap, r.Header)

	upstreamBody, err := json.Marshal(translated)
	if err != nil {
		e.fail(w, r, recorder, start, body, fmt.Errorf("proxy: marshal translated request: %w", proxyerr.ErrTransformFailure))
		return
	}

	timeout := time.Duration(res.Service.Timeout()) * time.Millisecond
	upstreamCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	upstreamReq, err := http.NewRequestWithContext(upstreamCtx, r.Method, res.Service.APIURL, bytes.NewReader(upstreamBody))
	if err != nil {
		e.fail(w, r, recorder, start, body, fmt.Errorf("proxy: build upstream request: %w", proxyerr.ErrUpstreamTransport))
		return
	}
	upstreamReq.Header = buildUpstreamHeaders(r.Header, res.Service, streaming)

	resp, err := e.client.Do(upstreamReq)
	if err != nil {
		e.fail(w, r, recorder, start, body, fmt.Errorf("proxy: dispatch to %s: %w", res.Service.Name, proxyerr.ErrUpstreamTransport))
		return
	}
	defer resp.Body.Close()

	rc := &responseContext{
		recorder:              recorder,
		start:                 start,
		method:                r.Method,
		path:                  r.URL.Path,
		targetType:            targetType,
		route:                 res.Route,
		rule:                  res.Rule,
		service:               res.Service,
		requestHeaders:        headerMap(r.Header),
		requestBody:           string(body),
		requestModel:          requestModel,
		targetModel:           targetModel,
		estimatedPromptTokens: classify.EstimatePromptTokens(bodyMap),
	}
	if snap != nil {
		if vendor, ok := snap.VendorsByID[res.Service.VendorID]; ok {
			rc.vendorID = vendor.ID
			rc.vendorName = vendor.Name
		}
	}

	if streaming && strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		e.handleStreaming(w, resp, rc)
		return
	}
	e.handleBuffered(w, resp, rc)
}

// fail writes a JSON error response, logs it, and finalizes the request's
// log records. It is safe to call even when no upstream dispatch happened.
func (e *Engine) fail(w http.ResponseWriter, r *http.Request, recorder *reqlog.Recorder, start time.Time, body []byte, err error) {
	status := proxyerr.StatusFor(err)
	e.logger.Error("proxy request failed", "path", r.URL.Path, "status", status, "error", err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})

	elapsed := time.Since(start).Milliseconds()
	recorder.Finalize(r.Context(),
		reqlog.RequestLog{
			Timestamp:      start,
			Method:         r.Method,
			Path:           r.URL.Path,
			RequestHeaders: headerMap(r.Header),
			RequestBody:    string(body),
			StatusCode:     status,
			ResponseTimeMS: elapsed,
			Error:          err.Error(),
		},
		reqlog.AccessLogPatch{StatusCode: status, ResponseTimeMS: elapsed, Error: err.Error()},
		&reqlog.ErrorLog{
			Timestamp: time.Now(),
			Method:    r.Method,
			Path:      r.URL.Path,
			Headers:   headerMap(r.Header),
			Body:      string(body),
			Error:     err.Error(),
		},
	)
}
