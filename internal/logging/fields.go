package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldJobID identifies the conversion job.
	FieldJobID = "job_id"
	// FieldFileIndex is the zero-based index of the input being converted.
	FieldFileIndex = "file_index"
	// FieldStage is the pipeline stage name (stat, dcshift, noise, effects, merge).
	FieldStage = "stage"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
	// FieldDecisionType names the decision being logged.
	FieldDecisionType = "decision_type"
	FieldProgressPercent = "progress_percent"
)
