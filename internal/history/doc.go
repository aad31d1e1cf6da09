// Package history keeps a SQLite record of conversion jobs, the inputs they
// processed, and the files they delivered.
//
// The Store implements conversion.Recorder so the converter writes rows as
// milestones happen; `alice history` and `alice status` read them back. Jobs
// left in the running state by a crash are marked interrupted when the store
// is opened. Schema changes bump schemaVersion; users delete the database to
// adopt a new schema.
package history
