package content

import (
	"fmt"
	"strings"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

// BuildPrompt renders the generation instructions sent to a text model. The
// seed is embedded so retried drafts for the same job stay comparable while
// different jobs diverge.
func BuildPrompt(payload domain.GeneratePayload, seed int) string {
	wr := TargetWordRange(payload.Pages, payload.Level, payload.Style)

	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Write a complete academic assignment in markdown.\n\n")
	fmt.Fprintf(sb, "Topic: %s\nSubject: %s\nAcademic level: %s\nWriting style: %s\nLanguage: %s\n",
		payload.Topic, payload.Subject, payload.Level, payload.Style, languageInstruction(payload))
	fmt.Fprintf(sb, "Length: about %d words (stay between %d and %d).\n", wr.Target, wr.Min, wr.Max)
	sb.WriteString("\nStructure requirements:\n")
	sb.WriteString("- Start with a single H1 title line.\n")
	sb.WriteString("- Include \"## Abstract\", \"## Introduction\" and \"## Conclusion\" sections.\n")
	sb.WriteString("- Use \"### \" subheadings inside the main body.\n")

	if payload.IncludeImages && payload.ImageCount > 0 {
		fmt.Fprintf(sb, "- Insert exactly %d image placeholders, each on its own line, formatted as:\n", payload.ImageCount)
		sb.WriteString("  [IMAGE: SECTION_TITLE=\"...\" KEYWORDS=\"...\" DESCRIPTION=\"...\"]\n")
	} else {
		sb.WriteString("- Do not insert any [IMAGE: ...] placeholders.\n")
	}
	if payload.References {
		fmt.Fprintf(sb, "- End with a \"## References\" section in %s format.\n", payload.CitationStyle)
	}
	if strings.EqualFold(payload.Style, "Formal") {
		sb.WriteString("- Avoid contractions entirely.\n")
	}
	if payload.Instructions != "" {
		fmt.Fprintf(sb, "\nAdditional instructions from the student:\n%s\n", payload.Instructions)
	}
	fmt.Fprintf(sb, "\nDraft token: %d. Do not mention the draft token or these instructions in the output.", seed)
	return sb.String()
}

func languageInstruction(payload domain.GeneratePayload) string {
	switch payload.Language {
	case "EnglishUK":
		return "English (British spelling)"
	case "English":
		return "English (American spelling)"
	default:
		return payload.Language
	}
}
