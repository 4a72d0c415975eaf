// FireKey Tally sends files through a language-model API and accounts for
// every call.
//
// It provides:
//   - Tracked calls with a fixed retry policy (3 attempts, 3 seconds apart)
//   - Token estimation and per-model cost accounting
//   - A per-file response cache with a force-reprocess switch
//   - An append-only CSV usage log with one summary row per run
//   - An optional SQLite ledger of runs
//
// Usage:
//
//	# Process files (directories expand to the files inside them)
//	firekey run notes/a.txt notes/b.txt
//
//	# Ignore cached responses
//	firekey run --force-reprocess notes/
//
//	# Try the pipeline without an API key
//	firekey demo
//
//	# Inspect the cache and the ledger
//	firekey cache list
//	firekey report
package main

func main() {
	Execute()
}
