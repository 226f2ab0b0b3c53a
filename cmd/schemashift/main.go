// Package main provides the schemashift CLI.
//
// The CLI supports:
//   - makemigration: Write the next migration from changes to the model
//   - sql: Render migrations as SQL without applying them
//   - migrate: Apply pending migrations
//   - downgrade: Revert applied migrations
//   - status: List migrations and whether each is applied
//   - inspect: Print the live database schema, or bootstrap a model from it
//
// Usage:
//
//	schemashift [flags] <command>
//
// Commands that touch the database (migrate, downgrade, status, inspect)
// need --db or database.url in schemashift.yaml. makemigration and sql work
// from files alone.
package main

func main() {
	Execute()
}
