package gemini

import "github.com/phrazzld/mastery-api/internal/domain"

// promptData represents the data passed to the prompt template
type promptData struct {
	Subject      string
	Topic        string
	Grade        int
	Difficulty   int
	BloomLevel   int
	BloomVerb    string
	MasteryLevel domain.MasteryLevel
	Count        int
}

// bloomVerbs names the cognitive task of each Bloom level, 1 through 6.
var bloomVerbs = [...]string{
	"remember facts",
	"explain ideas",
	"apply knowledge to new situations",
	"analyze relationships",
	"evaluate and justify a position",
	"create something original",
}

func bloomVerb(level int) string {
	if level < domain.MinBloomLevel || level > domain.MaxBloomLevel {
		return bloomVerbs[0]
	}
	return bloomVerbs[level-1]
}

// ResponseSchema represents the expected structure of the Gemini API response
type ResponseSchema struct {
	// Questions is the array of generated questions
	Questions []QuestionSchema `json:"questions"`
}

// QuestionSchema represents a single question in the API response
type QuestionSchema struct {
	// Prompt is the question text shown to the learner
	Prompt string `json:"prompt"`

	// Choices are the options of a multiple-choice question
	Choices []string `json:"choices,omitempty"`

	// Answer is the expected answer
	Answer string `json:"answer"`

	// Explanation is an optional worked explanation of the answer
	Explanation string `json:"explanation,omitempty"`
}
