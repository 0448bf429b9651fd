package study

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/vytor/studyflash/internal/llm"
	"github.com/vytor/studyflash/internal/logger"
	"golang.org/x/sync/errgroup"
)

const (
	notesTemperature = 0.7
	titleContextSize = 500
)

var bulletPrefix = regexp.MustCompile(`^[\d.\-•\s]+`)

type Definition struct {
	Term string
	Text string
}

// Notes is a generated study sheet. Markdown is the rendered sheet.
type Notes struct {
	Title       string
	KeyPoints   []string
	Definitions []Definition
	Formulas    []string
	Summary     string
	Markdown    string
}

type NoteGenerator struct {
	client llm.Client
}

func NewNoteGenerator(client llm.Client) *NoteGenerator {
	return &NoteGenerator{client: client}
}

// Generate runs the extraction prompts concurrently and assembles the sheet.
// Any failed prompt fails the whole sheet.
func (g *NoteGenerator) Generate(ctx context.Context, lecture string) (*Notes, error) {
	log := logger.FromContext(ctx).WithPrefix("study")
	lecture = truncate(strings.TrimSpace(lecture), maxContextChars)

	var (
		keyPointsText, definitionsText, formulasText string
		title, summary                               string
	)
	steps := []struct {
		name   string
		prompt string
		out    *string
	}{
		{"key points", keyPointsPrompt(lecture), &keyPointsText},
		{"definitions", definitionsPrompt(lecture), &definitionsText},
		{"formulas", formulasPrompt(lecture), &formulasText},
		{"title", titlePrompt(lecture), &title},
		{"summary", summaryPrompt(lecture), &summary},
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, step := range steps {
		eg.Go(func() error {
			text, err := llm.Text(egCtx, g.client, step.prompt, notesTemperature)
			if err != nil {
				return fmt.Errorf("extract %s: %w", step.name, err)
			}
			*step.out = text
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		log.WithError(err).Error("note generation failed")
		return nil, err
	}

	notes := &Notes{
		Title:       strings.TrimSpace(strings.ReplaceAll(title, `"`, "")),
		KeyPoints:   parseKeyPoints(keyPointsText),
		Definitions: parseDefinitions(definitionsText),
		Formulas:    parseFormulas(formulasText),
		Summary:     summary,
	}
	if notes.Title == "" {
		notes.Title = "Study Notes"
	}
	notes.Markdown = renderNotes(notes)

	log.Info("generated notes %q: points=%d definitions=%d formulas=%d",
		notes.Title, len(notes.KeyPoints), len(notes.Definitions), len(notes.Formulas))
	return notes, nil
}

func keyPointsPrompt(lecture string) string {
	return "Analyze the following lecture content and extract the most important key points.\n" +
		"Focus on main concepts, important ideas, and takeaways that students should remember.\n\n" +
		"Lecture Content:\n" + lecture + "\n\n" +
		"Extract 5-10 key points in a clear, concise format. Each point should be one sentence.\n" +
		"Return the key points as a numbered list, one point per line."
}

func definitionsPrompt(lecture string) string {
	return "Analyze the following lecture content and extract important terms and their definitions.\n" +
		"Focus on technical terms, concepts, and vocabulary that students need to understand.\n\n" +
		"Lecture Content:\n" + lecture + "\n\n" +
		"Return a list of important terms with their definitions in this format:\n" +
		"Term: Definition\n\n" +
		"Only include the most important terms (5-15 terms maximum)."
}

func formulasPrompt(lecture string) string {
	return "Analyze the following lecture content and extract any mathematical formulas, equations, or expressions.\n" +
		"Format them in LaTeX notation.\n\n" +
		"Lecture Content:\n" + lecture + "\n\n" +
		`Return one formula per line. If no formulas are found, return "No formulas found".`
}

func titlePrompt(lecture string) string {
	return "Based on this lecture content, generate a concise title for a study sheet:\n" +
		truncate(lecture, titleContextSize) + "...\n\n" +
		"Return just the title, nothing else."
}

func summaryPrompt(lecture string) string {
	return "Create a brief 2-3 sentence summary of this lecture content:\n" + lecture + "\n\n" +
		"Focus on the main topic and most important concepts covered."
}

// parseKeyPoints keeps numbered or bulleted lines with the marker removed.
func parseKeyPoints(text string) []string {
	var points []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		first := line[0]
		if (first < '0' || first > '9') && !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "•") {
			continue
		}
		if p := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, "")); p != "" {
			points = append(points, p)
		}
	}
	return points
}

// parseDefinitions reads "Term: Definition" lines, keeping the first
// definition of each term in order.
func parseDefinitions(text string) []Definition {
	var defs []Definition
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		term, def, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		term = strings.TrimSpace(strings.ReplaceAll(term, "**", ""))
		term = strings.TrimSpace(bulletPrefix.ReplaceAllString(term, ""))
		def = strings.TrimSpace(def)
		if term == "" || def == "" || seen[term] {
			continue
		}
		seen[term] = true
		defs = append(defs, Definition{Term: term, Text: def})
	}
	return defs
}

func parseFormulas(text string) []string {
	if strings.Contains(strings.ToLower(text), "no formulas found") {
		return nil
	}
	var formulas []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "Note:") || strings.HasPrefix(line, "```") {
			continue
		}
		if f := strings.TrimSpace(strings.ReplaceAll(line, "$", "")); f != "" {
			formulas = append(formulas, f)
		}
	}
	return formulas
}

func renderNotes(n *Notes) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", n.Title)

	if len(n.KeyPoints) > 0 {
		b.WriteString("## Key Points\n\n")
		for i, p := range n.KeyPoints {
			fmt.Fprintf(&b, "%d. %s\n", i+1, p)
		}
		b.WriteString("\n")
	}
	if len(n.Definitions) > 0 {
		b.WriteString("## Definitions\n\n")
		for _, d := range n.Definitions {
			fmt.Fprintf(&b, "**%s**: %s\n\n", d.Term, d.Text)
		}
	}
	if len(n.Formulas) > 0 {
		b.WriteString("## Formulas\n\n")
		for _, f := range n.Formulas {
			fmt.Fprintf(&b, "$$\n%s\n$$\n\n", f)
		}
	}
	b.WriteString("## Summary\n\n")
	b.WriteString(strings.TrimSpace(n.Summary))
	b.WriteString("\n")
	return b.String()
}
