//go:build integration

// Package testdb provides helpers for integration tests that need a real
// PostgreSQL database.
//
// Each test runs inside its own transaction, which is rolled back when the
// test completes, so tests can run in parallel against one schema:
//
//	func TestSomething(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        s := postgres.NewPostgresAttemptStore(tx, nil)
//	        ...
//	    })
//	}
//
// Tests are skipped unless DATABASE_URL or MASTERY_TEST_DB_URL is set.
package testdb
