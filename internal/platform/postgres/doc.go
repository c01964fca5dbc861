// Package postgres implements the store interfaces against PostgreSQL via
// database/sql and the pgx stdlib driver. All implementations work over
// store.DBTX so they run equally inside and outside transactions, and all
// database errors pass through MapError to surface the store package's
// sentinel errors.
package postgres
