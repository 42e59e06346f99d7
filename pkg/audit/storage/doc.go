// Package storage provides audit record backends.
//
//   - SQLiteStorage: persistent, WAL mode, github.com/mattn/go-sqlite3
//   - MemoryStorage: process-local, for development and tests
//
// Both order records by receive time and treat Query time bounds as
// inclusive, which the retention pruner relies on.
package storage
