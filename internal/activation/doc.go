// Package activation pushes stored API keys into their integrations. A missing or
// rejected key only disables the dependent feature: activation logs the outcome of
// every slot and never returns an error to its caller.
package activation
