// Package audit keeps an optional per-request audit trail.
//
// Each gateway response produces one Record: request ID, origin, a hash of
// the client identifier, status, outcome, prompt and reply lengths, model and
// upstream latency. The prompt text, the reply and the client address are
// never persisted.
//
// # Architecture
//
//   - Recorder: buffered queue drained by a single worker, so the request
//     path never waits on storage
//   - storage: SQLite (github.com/mattn/go-sqlite3) and in-memory backends
//   - retention: age and count based pruning on a cron schedule
//   - export: JSON and CSV writers for the audit CLI
//
// # Usage
//
//	store, err := storage.New(cfg.Audit)
//	recorder := audit.NewRecorder(store, audit.RecorderConfig{
//	    AsyncBuffer:  cfg.Audit.AsyncBuffer,
//	    WriteTimeout: cfg.Audit.WriteTimeout,
//	})
//	defer recorder.Close()
//
//	recorder.Record(ctx, &audit.Record{RequestID: id, StatusCode: 200, Outcome: "ok"})
package audit
