// Package storage provides grid.Storage and grid.Persister implementations.
//
// Memory keeps grids in process and is meant for tests, fixtures and the
// CLI. Postgres persists them through database/sql with the lib/pq driver;
// Schema holds the tables it expects.
//
// Every failure is reported as *grid.StorageError so callers can match
// grid.ErrStorage regardless of the backend.
package storage
