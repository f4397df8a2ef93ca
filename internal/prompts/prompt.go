package prompts

// PromptVersion represents a version identifier for prompts.
type PromptVersion string

const (
	// PromptV1 is the built-in version shipped with the binary.
	PromptV1 PromptVersion = "1.0.0"
	// PromptLocal marks a template loaded from the override directory. It
	// always wins over built-in versions.
	PromptLocal PromptVersion = "local"
)

// Prompt IDs used by the coach.
const (
	CoachSystemPromptID = "coach.system"
)

// Prompt represents a versioned prompt template with metadata.
type Prompt struct {
	ID          string        // Unique identifier (e.g., "coach.system")
	Version     PromptVersion // Version of this prompt
	Content     string        // text/template source
	Description string        // Human-readable description
	Deprecated  bool          // True if this version is deprecated
	Source      string        // File path for templates loaded from disk
}
