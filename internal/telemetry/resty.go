package telemetry

import (
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

// sensitive headers never end up as span attributes
var redactedHeaders = map[string]bool{
	"Cookie":     true,
	"Csrf-Token": true,
	"Set-Cookie": true,
}

// InstrumentResty wraps every request made by client in a span
func InstrumentResty(client *resty.Client, tracerName string) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(onBeforeRequest(tracer))
	client.OnAfterResponse(onAfterResponse)
	client.OnError(onError)
}

func onBeforeRequest(tracer trace.Tracer) resty.RequestMiddleware {
	return func(cli *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), req.Method)
		req.SetContext(ctx)
		return nil
	}
}

func headerAttributes(prefix string, headers map[string][]string) []attribute.KeyValue {
	var out []attribute.KeyValue
	for header, values := range headers {
		if redactedHeaders[header] {
			out = append(out, attribute.String(fmt.Sprintf("%s/header: %s", prefix, header), "[redacted]"))
			continue
		}
		if len(values) == 1 {
			out = append(out, attribute.String(fmt.Sprintf("%s/header: %s", prefix, header), values[0]))
			continue
		}
		for i, v := range values {
			out = append(out, attribute.String(fmt.Sprintf("%s/header: %s (%d)", prefix, header, i), v))
		}
	}
	return out
}

func onAfterResponse(_ *resty.Client, res *resty.Response) error {
	span := trace.SpanFromContext(res.Request.Context())
	defer span.End()

	span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)

	// setting request attributes here since res.Request.RawRequest is nil in onBeforeRequest
	span.SetName(fmt.Sprintf("http %s", res.Request.Method))
	span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
	span.SetAttributes(headerAttributes("request", res.Request.Header)...)
	span.SetAttributes(headerAttributes("response", res.Header())...)

	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
	}
	return nil
}

func onError(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetName(fmt.Sprintf("http %s", req.Method))
	span.SetAttributes(headerAttributes("request", req.Header)...)

	if req.RawRequest == nil {
		return
	}
	span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
}
