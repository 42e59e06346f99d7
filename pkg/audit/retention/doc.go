// Package retention prunes old audit records.
//
// Pruning runs in two phases: records older than RetentionDays are deleted,
// then the oldest records are deleted until at most MaxRecords remain. The
// Scheduler triggers Prune on a cron expression via github.com/robfig/cron/v3.
package retention
