// Package client wraps a providers.Caller with retry, accounting and
// failure logging.
//
// Every Call follows the same path:
//
//  1. the prompt is estimated through the usage tracker
//  2. the caller is invoked; transient failures are retried for a total of
//     MaxAttempts attempts with a fixed RetryDelay pause between them
//  3. on success the completion and usage are extracted, the call is priced
//     and exactly one usage record is created
//  4. on failure a *ProcessingFailed is returned and written to the error log
//
// The retry policy is deliberately fixed. Tests substitute the Sleeper so no
// test waits three seconds.
package client
