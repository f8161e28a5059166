// Command migrate manages the Postgres schema: apply, roll back, inspect and
// force the migration version.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
