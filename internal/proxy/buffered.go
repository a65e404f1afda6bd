package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aicodeswitch/aicodeswitch/internal/config"
	"github.com/aicodeswitch/aicodeswitch/internal/proxyerr"
	"github.com/aicodeswitch/aicodeswitch/internal/reqlog"
)

var hopByHopResponseHeaders = map[string]bool{
	"content-length":    true,
	"content-encoding":  true,
	"transfer-encoding": true,
	"connection":        true,
}

func copyResponseHeaders(dst http.Header, src http.Header) {
	for k, values := range src {
		if hopByHopResponseHeaders[strings.ToLower(k)] {
			continue
		}
		for _, v := range values {
			dst.Add(k, v)
		}
	}
}

// handleBuffered forwards a non-streaming upstream response. 2xx bodies go
// through translateResponse; everything else is forwarded verbatim so the
// client sees the upstream error unmodified.
func (e *Engine) handleBuffered(w http.ResponseWriter, resp *http.Response, rc *responseContext) {
	reader, err := decompressReader(resp)
	if err != nil {
		e.failAfterDispatch(w, rc, fmt.Errorf("proxy: decompress response: %w", err))
		return
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	raw, err := io.ReadAll(reader)
	if err != nil {
		e.failAfterDispatch(w, rc, fmt.Errorf("proxy: read response body: %w", err))
		return
	}

	copyResponseHeaders(w.Header(), resp.Header)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write(raw)
		e.finishBuffered(rc, resp.StatusCode, resp.Header, raw, config.TokenUsage{}, "")
		return
	}

	var respMap map[string]any
	if err := json.Unmarshal(raw, &respMap); err != nil {
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write(raw)
		e.finishBuffered(rc, resp.StatusCode, resp.Header, raw, config.TokenUsage{}, "")
		return
	}

	translated, err := translateResponse(rc.targetType, rc.service.SourceType, respMap)
	if err != nil {
		e.failAfterDispatch(w, rc, err)
		return
	}

	out, err := json.Marshal(translated)
	if err != nil {
		e.failAfterDispatch(w, rc, fmt.Errorf("proxy: marshal translated response: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(out)

	var usage config.TokenUsage
	if u, ok := translated["usage"].(map[string]any); ok {
		usage = usageFromMap(u)
	}
	model, _ := translated["model"].(string)
	if model == "" {
		model = rc.targetModel
	}

	e.finishBuffered(rc, resp.StatusCode, resp.Header, out, usage, model)
}

func (e *Engine) finishBuffered(rc *responseContext, status int, respHeaders http.Header, responseBody []byte, usage config.TokenUsage, model string) {
	elapsed := time.Since(rc.start).Milliseconds()

	req := reqlog.RequestLog{
		Timestamp:             rc.start,
		Method:                rc.method,
		Path:                  rc.path,
		RequestHeaders:        rc.requestHeaders,
		RequestBody:           rc.requestBody,
		StatusCode:            status,
		ResponseTimeMS:        elapsed,
		TargetProvider:        string(rc.service.SourceType),
		TargetType:            rc.targetType,
		TargetServiceID:       rc.service.ID,
		TargetServiceName:     rc.service.Name,
		TargetModel:           model,
		VendorID:              rc.vendorID,
		VendorName:            rc.vendorName,
		RequestModel:          rc.requestModel,
		ResponseHeaders:       headerMap(respHeaders),
		ResponseBody:          string(responseBody),
		Usage:                 usage,
		EstimatedPromptTokens: rc.estimatedPromptTokens,
	}

	rc.recorder.Finalize(context.Background(), req, reqlog.AccessLogPatch{StatusCode: status, ResponseTimeMS: elapsed}, nil)
}

func (e *Engine) failAfterDispatch(w http.ResponseWriter, rc *responseContext, err error) {
	status := proxyerr.StatusFor(err)
	e.logger.Error("proxy response handling failed", "path", rc.path, "status", status, "error", err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})

	elapsed := time.Since(rc.start).Milliseconds()
	rc.recorder.Finalize(context.Background(),
		reqlog.RequestLog{
			Timestamp:      rc.start,
			Method:         rc.method,
			Path:           rc.path,
			RequestHeaders: rc.requestHeaders,
			RequestBody:    rc.requestBody,
			StatusCode:     status,
			ResponseTimeMS: elapsed,
			TargetType:     rc.targetType,
			Error:          err.Error(),
		},
		reqlog.AccessLogPatch{StatusCode: status, ResponseTimeMS: elapsed, Error: err.Error()},
		&reqlog.ErrorLog{
			Timestamp: time.Now(),
			Method:    rc.method,
			Path:      rc.path,
			Headers:   rc.requestHeaders,
			Body:      rc.requestBody,
			Error:     err.Error(),
		},
	)
}
