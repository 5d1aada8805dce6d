package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Standard Tracing Fields (Context level)
// These fields are propagated through the call chain
// ============================================

const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldRunID is the monitoring run ID
	FieldRunID = "run_id"

	// FieldSourceID is the monitored source ID
	FieldSourceID = "source_id"

	// FieldPostRef is the wall post reference (owner_post)
	FieldPostRef = "post_ref"

	// FieldCaseID is the plagiarism case ID
	FieldCaseID = "case_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldRecipientID is the notification recipient ID
	FieldRecipientID = "recipient_id"
)

// ============================================
// Standard Metric Fields (Entry level)
// These fields are used for aggregation and alerting
// ============================================

const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
