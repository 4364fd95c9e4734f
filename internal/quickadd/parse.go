// Package quickadd implements the single-line mini-language for creating
// a fully annotated task, plus the relative date expressions it accepts.
//
// Syntax:
//   - a leading * marks the task important, a leading ! marks it urgent;
//     *! and !* combine both
//   - #tag adds a tag (multiple allowed)
//   - proj:Name, pro:Name or p:Name assigns a project
//   - @due(expr) sets a due date; expr may be relative ("tomorrow",
//     "next friday") or absolute ("2025-03-01", "03/01/2025")
//   - everything else becomes the task name
package quickadd

import (
	"regexp"
	"strings"
	"time"

	"github.com/nissyi-gh/taskdeck/internal/model"
)

// Parsed is the structured draft extracted from one quick-add line.
type Parsed struct {
	Name       string
	Importance model.Importance
	Urgent     bool
	Project    string
	Tags       []string
	DueDate    *time.Time
}

var (
	tagRe     = regexp.MustCompile(`#(\w+)`)
	projectRe = regexp.MustCompile(`(?i)(?:proj?|p):(\S+)`)
	dueRe     = regexp.MustCompile(`(?i)@due\(([^)]+)\)`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// Parse extracts task attributes from a raw quick-add line, anchored to
// the current day. It never fails: unrecognized input just ends up in
// the name.
func Parse(raw string) Parsed {
	return ParseAt(raw, time.Now())
}

// ParseAt is Parse with an explicit "today" anchor for the due date.
//
// Extraction order matters because the syntaxes overlap: the leading
// prefix is peeled first, then tags, then the project token, then the
// due date, and whatever is left becomes the name.
func ParseAt(raw string, today time.Time) Parsed {
	text := strings.TrimSpace(raw)
	p := Parsed{Importance: model.Normal, Tags: []string{}}

	switch {
	case strings.HasPrefix(text, "*!") || strings.HasPrefix(text, "!*"):
		p.Importance = model.Important
		p.Urgent = true
		text = strings.TrimSpace(text[2:])
	case strings.HasPrefix(text, "*"):
		p.Importance = model.Important
		text = strings.TrimSpace(text[1:])
	case strings.HasPrefix(text, "!"):
		p.Urgent = true
		text = strings.TrimSpace(text[1:])
	}

	for _, m := range tagRe.FindAllStringSubmatch(text, -1) {
		p.Tags = append(p.Tags, strings.ToLower(m[1]))
	}
	text = tagRe.ReplaceAllString(text, "")

	// Only the first project and due tokens count; later ones stay in the name.
	if loc := projectRe.FindStringSubmatchIndex(text); loc != nil {
		p.Project = text[loc[2]:loc[3]]
		text = text[:loc[0]] + text[loc[1]:]
	}

	if loc := dueRe.FindStringSubmatchIndex(text); loc != nil {
		expr := strings.TrimSpace(text[loc[2]:loc[3]])
		if due, ok := ResolveDate(expr, today); ok {
			p.DueDate = &due
		}
		text = text[:loc[0]] + text[loc[1]:]
	}

	p.Name = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
	return p
}
