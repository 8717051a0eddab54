// Package webhooks receives WhatsApp Cloud API callbacks.
//
// Verification echoes the hub challenge when the token matches. Ingestion
// persists completed inspection flows and always acknowledges the delivery,
// so the provider never retries. Each event is classified into an outcome
// (persisted, ignored_text, ignored_shape, no_value, dropped) that is counted
// and returned in the result metadata.
package webhooks
