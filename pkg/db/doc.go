// Package db manages the PostgreSQL pool behind the template store, the send
// log and the job queue.
//
// Connect retries until the database answers a ping, Migrate runs goose
// migrations from any fs.FS (the store embeds its own), WithTx wraps a
// function in a transaction, and Check/CloseHook plug into the worker's
// readiness endpoint and cleanup chain.
package db
