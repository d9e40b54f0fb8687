package httppresentation

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

const tracerName = "merchant-dashboard.http"

// ObservabilityMiddleware injects the request-scoped logger (request id plus trace ids)
// and echoes X-Request-ID, generating one when the caller sent none.
func ObservabilityMiddleware(
	base observability.Logger,
	requestID func(*http.Request) string,
) func(http.Handler) http.Handler {
	if base == nil {
		base = observability.NopLogger()
	}
	prop := otel.GetTextMapPropagator()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sc := trace.SpanContextFromContext(ctx)
			if !sc.IsValid() {
				ctx = prop.Extract(ctx, propagation.HeaderCarrier(r.Header))
				sc = trace.SpanContextFromContext(ctx)
			}

			rid := ""
			if requestID != nil {
				rid = requestID(r)
			}
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set(headerRequestID, rid)

			fields := []observability.Field{observability.F("request_id", rid)}
			if sc.IsValid() {
				fields = append(fields,
					observability.F("trace_id", sc.TraceID().String()),
					observability.F("span_id", sc.SpanID().String()),
				)
			}
			ctx = logctx.With(ctx, base.With(fields...))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// withTrace starts the server span, continuing a W3C parent when the caller sent one.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer(tracerName)
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		spanName := route
		if spanName == "unknown" {
			spanName = r.Method + " " + r.URL.Path
		}

		ctx, span := tracer.Start(parentCtx, spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", routeTemplate(route, r)),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", lrw.status))
		if lrw.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(lrw.status))
		}
	})
}

// routeTemplate drops the method from a "GET /path" pattern.
func routeTemplate(route string, r *http.Request) string {
	template := route
	if idx := strings.Index(template, " "); idx >= 0 {
		template = template[idx+1:]
	}
	if template == "unknown" || template == "" {
		template = r.URL.Path
	}
	return template
}

// withAccessLog writes one http_access line once the handler is done, using the
// request logger ObservabilityMiddleware put in the context.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withHTTPMetrics records request count and latency per method, route template and status.
func (h *Handler) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		labels := []observability.Label{
			observability.L("method", r.Method),
			observability.L("route", routeFromContext(r.Context())),
			observability.L("status", strconv.Itoa(lrw.status)),
		}
		h.reqCounter.Add(1, labels...)
		h.durHistogram.Observe(time.Since(start).Seconds(), labels...)
	})
}

// withRecovery turns a handler panic into a 500 and an error log with the stack.
func (h *Handler) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logctx.FromOr(r.Context(), h.log).Error("http_panic",
					observability.F("route", routeFromContext(r.Context())),
					observability.F("panic", fmt.Sprint(rec)),
					observability.F("stack", string(debug.Stack())),
				)
				writeMessage(w, http.StatusInternalServerError, "Erro interno", "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// BasicAuth guards the dashboard API with one user whose password is stored as a bcrypt hash.
type BasicAuth struct {
	User         string
	PasswordHash string
	Realm        string
}

func (a *BasicAuth) allow(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(user), []byte(a.User)) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(pass)) == nil
}

func (h *Handler) withAuth(next http.Handler) http.Handler {
	if h.auth == nil {
		return next
	}
	realm := h.auth.Realm
	if realm == "" {
		realm = "dashboard"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.auth.allow(r) {
			logctx.FromOr(r.Context(), h.log).Warn("http_auth_rejected",
				observability.F("route", routeFromContext(r.Context())),
			)
			w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`", charset="UTF-8"`)
			writeMessage(w, http.StatusUnauthorized, "Não autorizado", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}
