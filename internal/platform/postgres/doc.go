// Package postgres implements the store interfaces on PostgreSQL through
// database/sql with the pgx stdlib driver. Schema is managed by embedded
// goose migrations; see Migrate.
package postgres
