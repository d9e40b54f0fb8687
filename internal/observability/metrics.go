package observability

type MetricKey string

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MCacheLookups            MetricKey = "cache_lookups_total"
)

type MetricKind int

const (
	KindCounter MetricKind = iota
	KindHistogram
)

// Definition describes one instrument. Callers must pass exactly Labels, in any order.
type Definition struct {
	Key    MetricKey
	Kind   MetricKind
	Help   string
	Labels []string
}

// Definitions is every instrument the dashboard emits. Route labels carry the
// registered pattern, never the raw path.
var Definitions = []Definition{
	{MUsecaseRequests, KindCounter, "Total number of use case invocations.", []string{"use_case", "outcome"}},
	{MUsecaseDuration, KindHistogram, "Duration of use case execution in seconds.", []string{"use_case"}},
	{MHTTPRequests, KindCounter, "Total number of HTTP requests served.", []string{"method", "route", "status"}},
	{MHTTPRequestDuration, KindHistogram, "Duration of HTTP requests in seconds.", []string{"method", "route", "status"}},
	{MExternalRequests, KindCounter, "Total number of calls to external peers.", []string{"peer", "endpoint", "outcome"}},
	{MExternalRequestDuration, KindHistogram, "Duration of calls to external peers in seconds.", []string{"peer", "endpoint"}},
	{MCacheLookups, KindCounter, "Provider read cache lookups.", []string{"backend", "result"}},
}
