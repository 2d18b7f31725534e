// Package resilience retries operations against flaky dependencies with
// exponential backoff.
//
// The model sidecars are the main user: a freshly started sidecar may need
// a while before its health endpoint answers, so loaders wait for it:
//
//	err := resilience.WaitReady(ctx, resilience.ReadinessConfig(), "whisper", client.Healthy)
package resilience
