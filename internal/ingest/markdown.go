package ingest

import (
	"fmt"
	"strings"

	"github.com/existflow/ironvault/internal/model"
)

// commitContent prefixes the commit body with its metadata block
func commitContent(c Commit, received string) string {
	tool, id := c.Who.Tool, c.Who.ID
	if tool == "" {
		tool = "Unknown Tool"
	}
	if id == "" {
		id = "unknown"
	}
	kind := c.What.Type
	if kind == "" {
		kind = "Unknown"
	}
	meta := []string{
		fmt.Sprintf("> **Source:** %s (`%s`)", tool, id),
		fmt.Sprintf("> **Type:** %s", kind),
		fmt.Sprintf("> **Received:** %s", received),
		"",
		"---",
		"",
	}
	return strings.Join(meta, "\n") + c.Content
}

// deckContent renders the companion note of a deck
func deckContent(who model.DeckSource, slides []model.Slide, received string) string {
	lines := []string{
		fmt.Sprintf("> **Source:** %s (`%s`)", who.Tool, who.ID),
		fmt.Sprintf("> **Received:** %s", received),
		fmt.Sprintf("> **Slides:** %d", len(slides)),
		"",
		"---",
		"",
	}
	for i, s := range slides {
		lines = append(lines, renderSlide(i, s))
	}
	return strings.Join(lines, "\n")
}

// renderSlide renders one slide with the template of its type; unknown
// types get the heading and body verbatim
func renderSlide(i int, s model.Slide) string {
	label := fmt.Sprintf("**Slide %d** — %s", i+1, strings.ToUpper(s.Type))
	switch s.Type {
	case model.SlideCover:
		return fmt.Sprintf("%s\n# %s\n*%s*", label, s.Title, s.Subtitle)
	case model.SlideStatement:
		return fmt.Sprintf("%s\n## %s\n%s", label, s.Heading, s.Body)
	case model.SlideBullets:
		items := make([]string, len(s.Items))
		for j, it := range s.Items {
			items[j] = "- " + it
		}
		return fmt.Sprintf("%s\n## %s\n%s", label, s.Heading, strings.Join(items, "\n"))
	case model.SlideWarning:
		heading := s.Heading
		if heading == "" {
			heading = "Warning"
		}
		return fmt.Sprintf("%s\n> ⚠️ **%s**\n> %s", label, heading, s.Body)
	case model.SlideRoadmap:
		phases := make([]string, len(s.Phases))
		for j, p := range s.Phases {
			phases[j] = fmt.Sprintf("%d. **%s** — %s", j+1, p.Name, p.Description)
		}
		return fmt.Sprintf("%s\n## %s\n%s", label, s.Heading, strings.Join(phases, "\n"))
	case model.SlideQuote:
		by := s.Attribution
		if by == "" {
			by = s.Heading
		}
		return fmt.Sprintf("%s\n> *\"%s\"*\n> — %s", label, s.Body, by)
	default:
		return fmt.Sprintf("%s\n%s\n%s", label, s.Heading, s.Body)
	}
}
