package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuestionList(t *testing.T) {
	content := `Here are your questions:

1. Tell me about a distributed system you have built?
2) "How do you decide when a service needs splitting?"
Q3: What is the hardest production incident you have handled?
Question 4: Imagine your deploy pipeline breaks on a Friday. What do you do first?
5、你如何与产品经理沟通需求变更？
这是一个没有编号的问题，你会如何排查线上内存泄漏？
Why?
This line has no terminator at all
`

	got := ParseQuestionList(content)
	assert.Equal(t, []string{
		"Tell me about a distributed system you have built?",
		"How do you decide when a service needs splitting?",
		"What is the hardest production incident you have handled?",
		"Imagine your deploy pipeline breaks on a Friday. What do you do first?",
		"你如何与产品经理沟通需求变更？",
		"这是一个没有编号的问题，你会如何排查线上内存泄漏？",
	}, got)
}

func TestParseQuestionListEmptyContent(t *testing.T) {
	assert.Empty(t, ParseQuestionList(""))
	assert.Empty(t, ParseQuestionList("The model refused to answer."))
}

func TestStripQuestionMarker(t *testing.T) {
	cases := map[string]string{
		"1. What drives you?":         "What drives you?",
		"12) Why us?":                 "Why us?",
		"Q2: Why now?":                "Why now?",
		"question 3: Why here?":       "Why here?",
		"3、为什么选择我们？":                 "为什么选择我们？",
		"No marker at all?":           "No marker at all?",
		"2024 was a big year, right?": "2024 was a big year, right?",
	}
	for in, want := range cases {
		assert.Equal(t, want, stripQuestionMarker(in), in)
	}
}

func TestBuildQuestionPromptIncludesConstraints(t *testing.T) {
	p := buildQuestionPrompt(QuestionRequest{
		JobTarget:                "backend engineer",
		JobCategory:              "software",
		Count:                    6,
		EstimatedDurationMinutes: 15,
		Background:               "5 years with Go and Postgres",
	})
	assert.Contains(t, p, "Design 6 interview questions")
	assert.Contains(t, p, "backend engineer")
	assert.Contains(t, p, "roughly 15 minutes")
	assert.Contains(t, p, "5 years with Go and Postgres")
}
