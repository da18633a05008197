package domain

import "strings"

// QuestionCount is the fixed length of every answer sheet and answer key.
const QuestionCount = 20

// Choice is a single response letter; Blank means no answer.
type Choice string

const (
	Blank   Choice = ""
	ChoiceA Choice = "A"
	ChoiceB Choice = "B"
	ChoiceC Choice = "C"
	ChoiceD Choice = "D"
	ChoiceE Choice = "E"
)

// Valid reports whether c is one of A-E or blank.
func (c Choice) Valid() bool {
	switch c {
	case Blank, ChoiceA, ChoiceB, ChoiceC, ChoiceD, ChoiceE:
		return true
	}
	return false
}

// ParseChoice trims and upper-cases raw before validating it.
func ParseChoice(raw string) (Choice, error) {
	c := Choice(strings.ToUpper(strings.TrimSpace(raw)))
	if !c.Valid() {
		return Blank, Invalid("choice", "unknown symbol %q", raw)
	}
	return c, nil
}

// AnswerKey is the official answer pattern of a category.
type AnswerKey []Choice

// AnswerSheet holds one participant's responses.
type AnswerSheet []Choice

// EmptyKey returns the placeholder key used before a category is configured.
func EmptyKey() AnswerKey {
	return make(AnswerKey, QuestionCount)
}

// ParseKey converts raw letters into a validated AnswerKey.
func ParseKey(raw []string) (AnswerKey, error) {
	choices, err := parseChoices("key", raw)
	if err != nil {
		return nil, err
	}
	return AnswerKey(choices), nil
}

// ParseSheet converts raw letters into a validated AnswerSheet.
func ParseSheet(raw []string) (AnswerSheet, error) {
	choices, err := parseChoices("answers", raw)
	if err != nil {
		return nil, err
	}
	return AnswerSheet(choices), nil
}

func parseChoices(field string, raw []string) ([]Choice, error) {
	if len(raw) != QuestionCount {
		return nil, Invalid(field, "expected %d entries, got %d", QuestionCount, len(raw))
	}
	out := make([]Choice, len(raw))
	for i, r := range raw {
		c, err := ParseChoice(r)
		if err != nil {
			return nil, Invalid(field, "position %d: unknown symbol %q", i+1, r)
		}
		out[i] = c
	}
	return out, nil
}

// Validate checks length and symbols of the key.
func (k AnswerKey) Validate() error {
	return validateChoices("key", k)
}

// Validate checks length and symbols of the sheet.
func (s AnswerSheet) Validate() error {
	return validateChoices("answers", s)
}

func validateChoices(field string, choices []Choice) error {
	if len(choices) != QuestionCount {
		return Invalid(field, "expected %d entries, got %d", QuestionCount, len(choices))
	}
	for i, c := range choices {
		if !c.Valid() {
			return Invalid(field, "position %d: unknown symbol %q", i+1, string(c))
		}
	}
	return nil
}

// IsPlaceholder reports whether no position of the key has been set.
func (k AnswerKey) IsPlaceholder() bool {
	for _, c := range k {
		if c != Blank {
			return false
		}
	}
	return true
}

// IsComplete reports whether every one of the QuestionCount positions is set.
func (k AnswerKey) IsComplete() bool {
	if len(k) != QuestionCount {
		return false
	}
	for _, c := range k {
		if c == Blank {
			return false
		}
	}
	return true
}

// Strings returns the key as plain letters, blanks as "".
func (k AnswerKey) Strings() []string {
	return choiceStrings(k)
}

// Strings returns the sheet as plain letters, blanks as "".
func (s AnswerSheet) Strings() []string {
	return choiceStrings(s)
}

func choiceStrings(choices []Choice) []string {
	out := make([]string, len(choices))
	for i, c := range choices {
		out[i] = string(c)
	}
	return out
}

// Clone returns a copy that shares no storage with k.
func (k AnswerKey) Clone() AnswerKey {
	return append(AnswerKey(nil), k...)
}
