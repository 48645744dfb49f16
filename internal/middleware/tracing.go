package middleware

import (
	"strings"

	"askaway/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader echoes the request's trace id so a bug report can be matched
// to its span.
const TraceIDHeader = "X-Trace-ID"

// Route parameters that name a question or an answer, keyed by parameter name.
var contentParams = map[string]string{
	"question_id": "askaway.question_id",
	"answer_id":   "askaway.answer_id",
}

// TracingMiddleware opens a server span per request on the global tracer.
func TracingMiddleware() fiber.Handler {
	return Trace(observability.Tracer)
}

// Trace opens a server span per request. Spans are named by the matched
// route pattern, so /api/questions/:id is one span name however many
// questions exist, and carry the question or answer the request targets.
func Trace(tracer trace.Tracer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), requestCarrier{c})
		ctx, span := tracer.Start(ctx, c.Method(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(c.Method()),
				semconv.URLPath(c.Path()),
				semconv.ClientAddress(c.IP()),
				semconv.UserAgentOriginal(c.Get(fiber.HeaderUserAgent)),
			),
		)
		defer span.End()

		sc := span.SpanContext()
		c.Locals("traceID", sc.TraceID().String())
		c.Locals("spanID", sc.SpanID().String())
		c.Set(TraceIDHeader, sc.TraceID().String())
		c.SetUserContext(ctx)

		err := c.Next()

		route := c.Route().Path
		span.SetName(c.Method() + " " + route)
		span.SetAttributes(semconv.HTTPRoute(route))
		span.SetAttributes(contentAttributes(c, route)...)

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		span.SetAttributes(semconv.HTTPResponseStatusCode(status))
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			span.SetAttributes(attribute.String("request.id", rid))
		}
		if userID, ok := CurrentUserID(c); ok {
			span.SetAttributes(attribute.String("askaway.user_id", userID))
		}

		// 4xx is the caller's problem; only server faults mark the span failed.
		if err != nil {
			span.RecordError(err)
		}
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, fiber.ErrInternalServerError.Message)
		}
		return err
	}
}

func contentAttributes(c *fiber.Ctx, route string) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for _, name := range c.Route().Params {
		key, ok := contentParams[name]
		if name == "id" && strings.HasPrefix(route, "/api/questions/") {
			key, ok = contentParams["question_id"], true
		}
		if ok && c.Params(name) != "" {
			attrs = append(attrs, attribute.String(key, c.Params(name)))
		}
	}
	return attrs
}

// requestCarrier reads W3C trace headers straight from the fasthttp request.
type requestCarrier struct{ c *fiber.Ctx }

func (r requestCarrier) Get(key string) string { return r.c.Get(key) }

func (r requestCarrier) Set(key, value string) { r.c.Request().Header.Set(key, value) }

func (r requestCarrier) Keys() []string {
	var keys []string
	r.c.Request().Header.VisitAll(func(k, _ []byte) {
		keys = append(keys, string(k))
	})
	return keys
}
