// Package integrations holds the SDK handles the credential activation pushes keys
// into. Each handle reports ErrUnavailable until it has been configured, so the
// dependent feature degrades instead of failing.
package integrations
