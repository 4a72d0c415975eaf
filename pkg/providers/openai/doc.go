// Package openai provides a providers.Caller backed by the official OpenAI Go SDK.
//
//	caller := openai.NewCaller(cfg.Provider, logger)
//	raw, err := caller.Call(ctx, prompt, "gpt-4o-mini", providers.Options{})
//
// The SDK's own retries are disabled. API errors are mapped with
// providers.ErrorForStatus so 429 and 5xx responses are retried by the
// tracked client while 4xx responses fail fast.
package openai
