// Package outline turns generated outline text into ordered slide records.
package outline

import (
	"regexp"
	"strings"
)

// Slide is one title with its content lines. Bullets may be empty.
type Slide struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
}

// Outline is a sequence of slides in presentation order.
type Outline []Slide

func (o Outline) Len() int { return len(o) }

func (o Outline) Titles() []string {
	titles := make([]string, len(o))
	for i, s := range o {
		titles[i] = s.Title
	}
	return titles
}

var (
	boundary     = regexp.MustCompile(`^\d+\.`)
	numberPrefix = regexp.MustCompile(`^\d+\.\s*`)
)

const bulletMarkers = "-•* "

// Parse splits raw at every line that starts with "<digits>." and builds one
// Slide per block, in text order. Stated numbers are ignored. Text before the
// first numbered line is dropped; text without any numbered line yields an
// empty Outline.
func Parse(raw string) Outline {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	slides := Outline{}
	current := -1

	for _, line := range strings.Split(raw, "\n") {
		if boundary.MatchString(line) {
			slides = append(slides, Slide{
				Title:   strings.TrimSpace(numberPrefix.ReplaceAllString(strings.TrimSpace(line), "")),
				Bullets: []string{},
			})
			current = len(slides) - 1
			continue
		}
		if current < 0 || strings.TrimSpace(line) == "" {
			continue
		}
		if bullet := cleanBullet(line); bullet != "" {
			slides[current].Bullets = append(slides[current].Bullets, bullet)
		}
	}
	return slides
}

func cleanBullet(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, bulletMarkers))
}
