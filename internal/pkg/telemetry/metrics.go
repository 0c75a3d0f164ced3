package telemetry

// Instrumentation scope and span names.
const (
	TracerName = "github.com/samirrijal/gisportal"

	SpanProjectCollection = "projection.collection"
	SpanAuthRefresh       = "auth.refresh"
	SpanUsageRecord       = "usage.record"
	SpanUsageList         = "usage.list"
	SpanRollupSchedule    = "usage.rollup.schedule"
)
