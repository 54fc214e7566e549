// Package postgres provides PostgreSQL implementations of the persistence
// interfaces defined in internal/store and internal/task, together with the
// embedded goose migrations that create their schema.
//
// Stores accept a store.DBTX so the same type serves plain connections and
// transactions; WithTx rebinds a store to a *sql.Tx. Driver errors are mapped
// to store sentinel errors with MapError.
package postgres
