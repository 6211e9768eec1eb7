package question

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperjump/lectern/internal/models"
	"github.com/hyperjump/lectern/pkg/utils"
)

// DefaultMaxChars caps the course material sent to the model.
const DefaultMaxChars = 12000

const truncationMarker = "\n\n[... truncated for length ...]"

const defaultTopic = "Course material"

// combineSections renders sections as "[label]\ntext" blocks separated by a
// blank line, cut to maxChars characters with a visible marker.
func combineSections(sections []models.Section, maxChars int) string {
	blocks := make([]string, len(sections))
	for i, s := range sections {
		blocks[i] = "[" + s.Location + "]\n" + s.Text
	}
	return utils.Truncate(strings.Join(blocks, "\n\n"), maxChars, truncationMarker)
}

func buildPrompt(courseName, material string) string {
	return fmt.Sprintf(`You are a graduate-level exam question writer. Below is excerpted course material from the course %q.

Generate exactly ONE multiple-choice question that can be answered from this material. Output valid JSON only, no markdown or explanation, in this exact shape:
{
  "topic": "short topic name (e.g. Convolutional Neural Networks)",
  "hint": "one short hint for the student (1 sentence)",
  "answer": "a clear 1-3 sentence explanation of the correct answer",
  "mcq": {
    "question": "the multiple choice question text",
    "options": ["option A", "option B", "option C", "option D"],
    "correct_index": 0
  }
}
correct_index must be 0, 1, 2, or 3 (the index of the correct option in options). Give exactly 4 options.

Course material:
---
%s
---`, courseName, material)
}

type rawQuestion struct {
	Topic  *string `json:"topic"`
	Hint   string  `json:"hint"`
	Answer string  `json:"answer"`
	MCQ    *struct {
		Question     string   `json:"question"`
		Options      []string `json:"options"`
		CorrectIndex *int     `json:"correct_index"`
	} `json:"mcq"`
}

// stripFences removes a surrounding ``` code fence, with or without a language tag.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if i := strings.IndexByte(raw, '\n'); i >= 0 {
			raw = raw[i+1:]
		} else {
			raw = raw[3:]
		}
	}
	if strings.HasSuffix(raw, "```") {
		raw = strings.TrimSpace(raw[:strings.LastIndex(raw, "```")])
	}
	return raw
}

// parseResponse validates model output into a Question without an ID.
// Options beyond four are dropped; an out-of-range correct index becomes 0.
func parseResponse(raw string) (*models.Question, error) {
	body := stripFences(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}
	var rq rawQuestion
	if err := json.Unmarshal([]byte(body), &rq); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if rq.MCQ == nil || strings.TrimSpace(rq.MCQ.Question) == "" || len(rq.MCQ.Options) == 0 {
		return nil, fmt.Errorf("%w: missing mcq question or options", ErrMalformedOutput)
	}
	options := rq.MCQ.Options
	if len(options) > 4 {
		options = options[:4]
	}
	correct := 0
	if rq.MCQ.CorrectIndex != nil {
		correct = *rq.MCQ.CorrectIndex
	}
	if correct < 0 || correct >= len(options) {
		correct = 0
	}
	topic := defaultTopic
	if rq.Topic != nil {
		topic = *rq.Topic
	}
	return &models.Question{
		Topic:  topic,
		Hint:   rq.Hint,
		Answer: rq.Answer,
		MCQ: &models.MCQ{
			Question:     rq.MCQ.Question,
			Options:      options,
			CorrectIndex: correct,
		},
	}, nil
}
