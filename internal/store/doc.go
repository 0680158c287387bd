// Package store defines the persistence interfaces the worker consumes,
// keeping business logic decoupled from any specific database. Concrete
// implementations live in internal/platform/postgres.
package store
