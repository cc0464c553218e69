// Package reply parses "Answer: ... Emotion: ..." model output into the
// answer text and the emotion the avatar should show.
package reply

import (
	"regexp"
	"strings"
	"unicode"
)

// Emotion is the avatar mood attached to an answer.
type Emotion string

const (
	Happy        Emotion = "happy"
	Sad          Emotion = "sad"
	Angry        Emotion = "angry"
	Surprised    Emotion = "surprised"
	Neutral      Emotion = "neutral"
	OutOfService Emotion = "out of service"
)

// Known reports whether e is one of the emotions the avatar can render.
func (e Emotion) Known() bool {
	switch e {
	case Happy, Sad, Angry, Surprised, Neutral, OutOfService:
		return true
	}
	return false
}

const (
	NoAnswer       = "No answer provided."
	NoAnswerArabic = "لم يتم توفير إجابة."
	NoQuery        = "No query provided"
	Apology        = "There is a problem, please ask your question again."
)

// AssistantInstructions is given to assistants created for a restaurant.
const AssistantInstructions = `Based on your answer, determine an emotion from the following options: happy, sad, angry, surprised and out of service.
Format your response as follows:
Answer: [answer]
Emotion: [emotion]`

// FineTunedSystemPrompt is prepended to conversations with a fine-tuned model.
const FineTunedSystemPrompt = `You are a customer service assistant. Answer the user's question based on your fine-tuned dataset.
Your response should be formatted as follows:
"Answer: [your answer here]
Emotion: [emotion here]"`

// Reply is a parsed model response.
type Reply struct {
	Answer  string  `json:"answer"`
	Emotion Emotion `json:"emotion"`
}

var (
	answerRe     = regexp.MustCompile(`(?is)Answer:\s*(.*?)\s*Emotion:`)
	answerLineRe = regexp.MustCompile(`(?i)Answer:\s*(.*)`)
	emotionRe    = regexp.MustCompile(`(?i)Emotion:\s*(.*)`)
)

// Parse extracts the answer and emotion from text. The answer runs up to
// the Emotion: marker, or to the end of its line when there is none. query
// selects the language of the fallback answer. When the emotion is missing
// it is guessed from the answer: a negative answer is sad, an affirmative
// one happy, anything else neutral.
func Parse(text, query string) Reply {
	return parse(text, query, false)
}

// ParseMessage is Parse for assistant messages, which do not always follow
// the format: a message without an Answer: marker is itself the answer.
func ParseMessage(text, query string) Reply {
	return parse(text, query, true)
}

func parse(text, query string, whole bool) Reply {
	var r Reply

	if m := answerRe.FindStringSubmatch(text); m != nil {
		r.Answer = strings.TrimSpace(m[1])
	} else if m := answerLineRe.FindStringSubmatch(text); m != nil {
		r.Answer = strings.TrimSpace(m[1])
	} else if whole {
		r.Answer = strings.TrimSpace(withoutEmotion(text))
	}
	if r.Answer == "" {
		r.Answer = fallbackAnswer(query)
	}

	if m := emotionRe.FindStringSubmatch(text); m != nil {
		r.Emotion = normalizeEmotion(m[1])
	}
	if r.Emotion == "" {
		r.Emotion = guessEmotion(r.Answer)
	}
	return r
}

func withoutEmotion(text string) string {
	if loc := emotionRe.FindStringIndex(text); loc != nil {
		return text[:loc[0]]
	}
	return text
}

// Apologize is the reply used when no answer could be obtained.
func Apologize() Reply {
	return Reply{Answer: Apology, Emotion: Sad}
}

func fallbackAnswer(query string) string {
	if IsArabic(query) {
		return NoAnswerArabic
	}
	return NoAnswer
}

// IsArabic reports whether s contains Arabic script.
func IsArabic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Arabic, r) {
			return true
		}
	}
	return false
}

func normalizeEmotion(raw string) Emotion {
	e := strings.ToLower(strings.TrimSpace(raw))
	e = strings.Trim(e, " .!\"'*[]")
	return Emotion(strings.Join(strings.Fields(e), " "))
}

func guessEmotion(answer string) Emotion {
	words := strings.FieldsFunc(strings.ToLower(answer), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	for _, w := range words {
		if w == "no" || w == "not" {
			return Sad
		}
	}
	for _, w := range words {
		if w == "yes" {
			return Happy
		}
	}
	return Neutral
}

// String renders r in the "Answer: ... Emotion: ..." form the models use.
func (r Reply) String() string {
	return "Answer: " + r.Answer + " Emotion: " + string(r.Emotion)
}
