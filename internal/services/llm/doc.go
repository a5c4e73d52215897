// Package llm provides an OpenRouter chat client for extracting hidden
// rental fees from advertisement descriptions.
//
// The client sends the free-text description to a configured model with a
// structured prompt requesting JSON output. The response carries the fee
// breakdown, a confidence score (0-1), and optional notes.
//
// # Configuration
//
// Requires api_key and model, optionally base_url, referer, title, timeout.
// When the api_key is empty the fee stage is skipped entirely.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 5 attempts by default),
// honoring Retry-After. Context cancellation aborts retries immediately.
package llm
