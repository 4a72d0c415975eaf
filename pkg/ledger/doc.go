// Package ledger persists usage records.
//
// CSVLogger appends one row per record and exactly one trailing summary row
// beginning with "#":
//
//	file_name,model,estimated_prompt_tokens,actual_prompt_tokens,completion_tokens,total_tokens,cost,timestamp
//	a.txt,gpt-4o-mini,98,100,50,150,0.000045,2026-01-02T03:04:05Z
//	# Files: 1 | Total tokens: 150 | Estimated cost: $0.000045 | gpt-4o-mini: 1 files, 150 tokens, $0.000045
//
// Values the provider did not report are left empty. ErrorLog is the
// companion plain-text failure log. The storage subpackage keeps the same
// records in SQLite, grouped by run.
package ledger
