package quizgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/coursekit/coursekit-server/internal/apperr"
	"github.com/coursekit/coursekit-server/internal/grading"
)

// Generator turns source text into quiz questions by calling a
// generative-language API.
type Generator struct {
	client *resty.Client
	apiKey string
	model  string
	log    *zap.Logger
}

func NewGenerator(baseURL, apiKey, model string, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetRetryCount(2)
	return &Generator{client: client, apiKey: apiKey, model: model, log: log}
}

type Request struct {
	SourceText   string
	NumQuestions int
}

// genContent mirrors the generateContent request/response shapes.
type genRequest struct {
	Contents []genContent `json:"contents"`
}

type genContent struct {
	Parts []genPart `json:"parts"`
}

type genPart struct {
	Text string `json:"text"`
}

type genResponse struct {
	Candidates []struct {
		Content genContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// rawQuestion is the JSON shape we ask the model to produce.
type rawQuestion struct {
	Question       string   `json:"question"`
	Kind           string   `json:"kind"`
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correct_answers"`
}

// Generate asks the model for questions over the source text and parses the
// reply into authoritative Question values.
func (g *Generator) Generate(ctx context.Context, req Request) ([]grading.Question, error) {
	if g.apiKey == "" {
		return nil, apperr.New(apperr.KindInternal, "quiz generator is not configured")
	}
	if strings.TrimSpace(req.SourceText) == "" {
		return nil, apperr.BadRequest("source text is empty")
	}
	if req.NumQuestions <= 0 {
		req.NumQuestions = 5
	}
	if req.NumQuestions > 25 {
		req.NumQuestions = 25
	}

	body := genRequest{Contents: []genContent{{Parts: []genPart{{Text: prompt(req)}}}}}
	var out genResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", g.model))
	if err != nil {
		return nil, fmt.Errorf("generate request: %w", err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if out.Error != nil {
			msg = out.Error.Message
		}
		return nil, fmt.Errorf("generate request failed: %s", msg)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("model returned no candidates")
	}

	questions, err := parseQuestions(out.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, err
	}
	g.log.Info("generated quiz questions",
		zap.Int("requested", req.NumQuestions), zap.Int("returned", len(questions)))
	return questions, nil
}

func prompt(req Request) string {
	return fmt.Sprintf(`You are generating a quiz from course material.
Produce exactly %d questions as a JSON array, no prose, no markdown fences.
Each element: {"question": string, "kind": "SINGLE_CHOICE"|"MULTIPLE_CHOICE"|"SHORT_ANSWER",
"options": [string] (empty for SHORT_ANSWER, 3-5 entries otherwise),
"correct_answers": [string] (exactly one entry unless MULTIPLE_CHOICE)}.
Every correct answer must appear verbatim in options for choice questions.

Material:
%s`, req.NumQuestions, req.SourceText)
}

// parseQuestions tolerates markdown fences around the JSON array, which
// some models add despite instructions.
func parseQuestions(text string) ([]grading.Question, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var raw []rawQuestion
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parse model reply: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("model returned no questions")
	}

	questions := make([]grading.Question, 0, len(raw))
	for i, r := range raw {
		kind := grading.QuestionKind(strings.ToUpper(strings.TrimSpace(r.Kind)))
		switch kind {
		case grading.KindSingleChoice, grading.KindMultipleChoice, grading.KindShortAnswer:
		default:
			return nil, fmt.Errorf("question %d: unknown kind %q", i, r.Kind)
		}
		if strings.TrimSpace(r.Question) == "" {
			return nil, fmt.Errorf("question %d: empty text", i)
		}
		if len(r.CorrectAnswers) == 0 {
			return nil, fmt.Errorf("question %d: no correct answer", i)
		}
		if kind != grading.KindMultipleChoice && len(r.CorrectAnswers) > 1 {
			r.CorrectAnswers = r.CorrectAnswers[:1]
		}
		if kind == grading.KindShortAnswer {
			r.Options = nil
		}
		questions = append(questions, grading.Question{
			Text:           strings.TrimSpace(r.Question),
			Kind:           kind,
			Options:        r.Options,
			CorrectAnswers: r.CorrectAnswers,
		})
	}
	return questions, nil
}
