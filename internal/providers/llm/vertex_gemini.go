package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
)

type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(modelName)
	return &VertexGemini{client: c, model: m}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) GenerateQuestions(ctx context.Context, req QuestionRequest) ([]string, string, error) {
	prompt := buildQuestionPrompt(req)

	raw, err := v.generate(ctx, prompt)
	if err != nil {
		return nil, prompt, err
	}

	questions := ParseQuestionList(raw)
	if len(questions) == 0 {
		return nil, prompt, fmt.Errorf("model returned no usable questions")
	}
	if len(questions) > req.Count {
		questions = questions[:req.Count]
	}
	return questions, prompt, nil
}

func (v *VertexGemini) GenerateFeedback(ctx context.Context, transcript string) (string, error) {
	prompt := "You are a senior interviewer reviewing a finished mock interview. " +
		"Summarize the candidate's performance: strengths, weaknesses, and concrete advice per question. " +
		"Be direct and specific.\n\nTranscript:\n" + transcript
	return v.generate(ctx, prompt)
}

func (v *VertexGemini) generate(ctx context.Context, prompt string) (string, error) {
	var sb strings.Builder

	it := v.model.GenerateContentStream(ctx, vertexgenai.Text(prompt))
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", err
		}

		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(vertexgenai.Text); ok {
					sb.WriteString(string(t))
				}
			}
		}
	}

	return sb.String(), nil
}

func buildQuestionPrompt(req QuestionRequest) string {
	var sb strings.Builder

	category := req.JobCategory
	if category == "" {
		category = "the relevant industry"
	}
	focusRole := req.JobSubCategory
	if focusRole == "" {
		focusRole = req.JobTarget
	}

	fmt.Fprintf(&sb, "You are a veteran interviewer with over a decade of experience hiring for %s. ", category)
	fmt.Fprintf(&sb, "You know the real day-to-day of the %s role, its hiring pain points, and its growth path.\n\n", focusRole)
	fmt.Fprintf(&sb, "Design %d interview questions for a candidate applying to the %s position. Requirements:\n", req.Count, req.JobTarget)
	sb.WriteString("1. Give each question a short scene-setting lead-in so it feels natural when spoken aloud.\n")
	sb.WriteString("2. Cover skills, experience, problem solving, and collaboration; progress from basic to deep.\n")
	sb.WriteString("3. Every question must be answerable verbally and end with a question mark.\n")
	sb.WriteString("4. Return one question per line, numbered 1., 2., and so on. No other commentary.\n")
	if req.EstimatedDurationMinutes > 0 {
		fmt.Fprintf(&sb, "5. The whole interview should fit roughly %d minutes.\n", req.EstimatedDurationMinutes)
	}
	if req.Background != "" {
		fmt.Fprintf(&sb, "\nCandidate background: %s\n", req.Background)
	}

	return sb.String()
}

// ParseQuestionList extracts one question per non-empty line, stripping
// numbering markers like "1. ", "Q1: " or "Question 1:". Lines that do not
// end in a question are dropped.
func ParseQuestionList(content string) []string {
	var questions []string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		line = stripQuestionMarker(line)
		line = strings.Trim(line, `"`)
		line = strings.TrimSpace(line)

		if len(line) < 10 {
			continue
		}
		if !strings.Contains(line, "?") && !strings.Contains(line, "？") {
			continue
		}
		questions = append(questions, line)
	}

	return questions
}

// matches "1. ", "2) ", "3、", "Q1: ", "Question 4:" and similar lead-ins
var questionMarkerRe = regexp.MustCompile(`^(?i:(?:question|q)\s*)?\d+\s*[.)、:：]\s*`)

func stripQuestionMarker(line string) string {
	if m := questionMarkerRe.FindString(line); m != "" {
		return line[len(m):]
	}
	return line
}
