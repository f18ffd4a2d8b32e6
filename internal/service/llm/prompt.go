package llm

import (
	"fmt"
	"strings"
)

// BuildPrompts returns the system instruction carrying the format rules and
// the user instruction carrying the topic and slide count.
func BuildPrompts(req *Request) (system, user string) {
	style := req.Style.Label()

	var words string
	if req.Detail == DetailDetailed {
		words = "- Each slide should contain more than 200 words.\n"
	} else {
		words = "- Each slide should contain less than 100 words.\n"
	}

	var b strings.Builder
	b.WriteString("You are a presentation expert. Please create a presentation content as follows:\n")
	b.WriteString("- Slide 1 should be a title-only slide (no bullets).\n")
	fmt.Fprintf(&b, "- Slide 2 onward should contain content in %s format.\n", style)
	fmt.Fprintf(&b, "- The content should be %s and tailored for clear presentations.\n", req.Detail.Label())
	b.WriteString(words)
	b.WriteString("Format clearly like:\n")
	b.WriteString("1. Title of Slide 1\n")
	b.WriteString("2. Title of Slide 2\n")
	fmt.Fprintf(&b, "content of slide 2 in %s format\n", style)
	b.WriteString("and so on. Do not include any markdown formatting (e.g., **bold** or *italic*), only plain text.")
	system = b.String()

	user = fmt.Sprintf("Topic: %s\nPlease generate a presentation content with exactly %d slides and %s as described above.",
		strings.TrimSpace(req.Topic), req.SlideCount, style)
	return system, user
}

// combinedPrompt is used by backends that take a single text input.
func combinedPrompt(req *Request) string {
	system, user := BuildPrompts(req)
	return system + "\n" + user
}
