package models

// MCQ is the multiple-choice part of a generated question.
type MCQ struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// Question is one generated study question.
type Question struct {
	ID     string `json:"id"`
	Topic  string `json:"topic"`
	Hint   string `json:"hint"`
	Answer string `json:"answer"`
	MCQ    *MCQ   `json:"mcq,omitempty"`
}
