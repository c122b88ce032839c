package assistant

import "strings"

// Trigger pairs a phrase with its canned reply. Matching is a literal
// case-insensitive substring check, so order decides ties.
type Trigger struct {
	Phrase string
	Reply  string
}

// Matcher short-circuits the whole pipeline for messages mentioning a
// trigger phrase: nothing is stored and no completion call is made.
type Matcher struct {
	triggers []Trigger
}

func NewMatcher(triggers []Trigger) *Matcher {
	normalized := make([]Trigger, len(triggers))
	for i, t := range triggers {
		normalized[i] = Trigger{Phrase: strings.ToLower(t.Phrase), Reply: t.Reply}
	}
	return &Matcher{triggers: normalized}
}

// Match reports the canned reply for the first trigger found in text.
func (m *Matcher) Match(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, t := range m.triggers {
		if strings.Contains(lower, t.Phrase) {
			return t.Reply, true
		}
	}
	return "", false
}

// DefaultTriggers returns the built-in trigger set.
func DefaultTriggers() []Trigger {
	const reply = "სამშობლოს ვიცავ"
	return []Trigger{
		{Phrase: "niko kvaracxelia", Reply: reply},
		{Phrase: "niko kvaratskhelia", Reply: reply},
		{Phrase: "kvara", Reply: reply},
		{Phrase: "tato qardava", Reply: reply},
		{Phrase: "tato gardava", Reply: reply},
		{Phrase: "თათო ღარდავა", Reply: reply},
		{Phrase: "ნიკო ქვარაცხელია", Reply: reply},
		{Phrase: "ტატო", Reply: reply},
		{Phrase: "ნიკო", Reply: reply},
	}
}
