package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/extract.txt
	extractRaw string

	//go:embed template/merge.txt
	mergeRaw string

	//go:embed template/clarify.txt
	clarifyRaw string

	//go:embed template/summarize.txt
	summarizeRaw string

	//go:embed template/chat.txt
	chatRaw string
)

// Set holds loaded prompt templates. Each template is a fmt verb string
// filled in by the orchestrator at call time.
type Set struct {
	Extract   string
	Merge     string
	Clarify   string
	Summarize string
	Chat      string
}

// LoadSet returns a Set with trimmed template strings.
// Safe to call concurrently; the embed is compile-time and trimming is cheap.
func LoadSet() Set {
	return Set{
		Extract:   strings.TrimSpace(extractRaw),
		Merge:     strings.TrimSpace(mergeRaw),
		Clarify:   strings.TrimSpace(clarifyRaw),
		Summarize: strings.TrimSpace(summarizeRaw),
		Chat:      strings.TrimSpace(chatRaw),
	}
}
