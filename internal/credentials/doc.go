// Package credentials holds the API keys used by the speech-to-text, text-to-speech
// and chat integrations. Keys are seeded from the environment at startup and can be
// overridden at runtime; every override triggers re-activation of the integrations.
package credentials
