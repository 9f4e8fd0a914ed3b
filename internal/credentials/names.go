package credentials

// Credential names. They double as the environment variables the store is seeded from.
const (
	MurfAPIKey       = "MURF_API_KEY"
	AssemblyAIAPIKey = "ASSEMBLYAI_API_KEY"
	GeminiAPIKey     = "GEMINI_API_KEY"
)

// Names returns the fixed credential slots in activation order.
func Names() []string {
	return []string{AssemblyAIAPIKey, GeminiAPIKey, MurfAPIKey}
}

// IsKnown reports whether name is one of the fixed credential slots.
func IsKnown(name string) bool {
	for _, known := range Names() {
		if known == name {
			return true
		}
	}
	return false
}
