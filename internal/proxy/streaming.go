package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aicodeswitch/aicodeswitch/internal/config"
	"github.com/aicodeswitch/aicodeswitch/internal/dialect"
	"github.com/aicodeswitch/aicodeswitch/internal/reqlog"
	"github.com/aicodeswitch/aicodeswitch/internal/sse"
	"github.com/aicodeswitch/aicodeswitch/internal/stream"
)

// handleStreaming relays an upstream SSE response to the client, driving it
// through the selected stream.Transformer (nil means pass-through) one
// event at a time and flushing after every event.
func (e *Engine) handleStreaming(w http.ResponseWriter, resp *http.Response, rc *responseContext) {
	reader, err := decompressReader(resp)
	if err != nil {
		e.failAfterDispatch(w, rc, fmt.Errorf("proxy: decompress response: %w", err))
		return
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	copyResponseHeaders(w.Header(), resp.Header)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(resp.StatusCode)

	flusher, _ := w.(http.Flusher)

	collector := stream.NewCollector()
	sseReader := sse.NewReader(reader)
	sseWriter := sse.NewWriter(w)

	transformer := selectStreamTransformer(rc.targetType, rc.service.SourceType)
	passthroughError := resp.StatusCode < 200 || resp.StatusCode >= 300

	for {
		ev, err := sseReader.Next()
		if err != nil {
			break
		}

		var raw bytes.Buffer
		_ = sse.NewWriter(&raw).WriteEvent(ev)
		collector.Observe(raw.Bytes())

		switch {
		case passthroughError, transformer == nil:
			_ = sseWriter.WriteEvent(ev)
		default:
			// The [DONE] sentinel is fed to the transformer too: its
			// OnEvent finalizes and emits the dialect's own terminal
			// events instead of the raw sentinel.
			for _, out := range transformer.OnEvent(ev) {
				_ = sseWriter.WriteEvent(out)
			}
		}

		if flusher != nil {
			flusher.Flush()
		}

		if ev.Done {
			break
		}
	}

	if transformer != nil {
		for _, out := range transformer.Finalize() {
			_ = sseWriter.WriteEvent(out)
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	usage := e.extractStreamUsage(rc.service.SourceType, collector.Chunks())
	e.finishStreaming(rc, resp.StatusCode, resp.Header, collector.Chunks(), usage)
}

// extractStreamUsage re-parses the raw upstream chunks for a trailing usage
// object and normalizes it into Messages-dialect field names, regardless of
// which stream transformer (if any) ran — the transformer's own Finalize
// output already reached the client, but its internal usage state isn't
// exposed through the Transformer interface, so logging re-derives it from
// the collected bytes instead.
func (e *Engine) extractStreamUsage(source config.SourceType, chunks [][]byte) config.TokenUsage {
	raw := stream.ExtractUsageFromChunks(chunks)
	if raw == nil {
		return config.TokenUsage{}
	}

	switch {
	case isClaudeFamily(source):
		return usageFromMap(raw)
	case isChatFamily(source):
		return usageFromMap(dialect.ChatUsageToMessages(raw))
	case source == config.SourceResponses:
		return usageFromMap(dialect.ResponsesUsageToMessages(raw))
	default:
		return config.TokenUsage{}
	}
}

func (e *Engine) finishStreaming(rc *responseContext, status int, respHeaders http.Header, chunks [][]byte, usage config.TokenUsage) {
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
		TargetModel:           rc.targetModel,
		VendorID:              rc.vendorID,
		VendorName:            rc.vendorName,
		RequestModel:          rc.requestModel,
		ResponseHeaders:       headerMap(respHeaders),
		StreamChunks:          chunks,
		Usage:                 usage,
		EstimatedPromptTokens: rc.estimatedPromptTokens,
	}

	rc.recorder.Finalize(context.Background(), req, reqlog.AccessLogPatch{StatusCode: status, ResponseTimeMS: elapsed}, nil)
}
