package wikiquiz

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// QuestionMaker turns a fetched article into quiz questions, key entities and
// related topics using the OpenAI chat API.
type QuestionMaker struct {
	client *openai.Client
	model  string
}

// NewQuestionMaker creates a question maker with an OpenAI client.
func NewQuestionMaker(apiKey string) *QuestionMaker {
	return &QuestionMaker{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
	}
}

// GenerationResult bundles the three LLM outputs for one article.
type GenerationResult struct {
	Questions []Question
	Entities  KeyEntities
	Topics    []string
}

// GenerateAll runs question generation, entity extraction and topic selection
// concurrently and returns the combined result. Entity and topic failures are
// tolerated (the quiz still works without them); a question failure fails the
// whole generation.
func (qm *QuestionMaker) GenerateAll(ctx context.Context, article *Article, difficulty Difficulty, numQuestions int) (*GenerationResult, error) {
	var (
		wg     sync.WaitGroup
		result GenerationResult
		qErr   error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		result.Questions, qErr = qm.GenerateQuestions(ctx, article, difficulty, numQuestions)
	}()
	go func() {
		defer wg.Done()
		entities, err := qm.ExtractEntities(ctx, article)
		if err != nil {
			log.Printf("Entity extraction failed for %s: %v", article.Title, err)
			return
		}
		result.Entities = entities
	}()
	go func() {
		defer wg.Done()
		topics, err := qm.RelatedTopics(ctx, article)
		if err != nil {
			log.Printf("Topic selection failed for %s: %v", article.Title, err)
			return
		}
		result.Topics = topics
	}()
	wg.Wait()

	if qErr != nil {
		return nil, qErr
	}
	return &result, nil
}

// GenerateQuestions generates numQuestions multiple choice questions from the
// article at the requested difficulty. Questions that fail the structural
// invariants are dropped.
func (qm *QuestionMaker) GenerateQuestions(ctx context.Context, article *Article, difficulty Difficulty, numQuestions int) ([]Question, error) {
	log.Printf("Generating %d %s questions for: %s", numQuestions, difficulty, article.Title)

	resp, err := qm.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: qm.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are an expert quiz question generator. Generate high-quality multiple choice questions with exactly 4 options each.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: buildQuizPrompt(article, difficulty, numQuestions),
				},
			},
			Tools: []openai.Tool{
				{
					Type: openai.ToolTypeFunction,
					Function: &openai.FunctionDefinition{
						Name:        "submit_quiz",
						Description: "Submit generated quiz questions",
						Parameters: map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"questions": map[string]interface{}{
									"type": "array",
									"items": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"question": map[string]interface{}{
												"type":        "string",
												"description": "The question text",
											},
											"options": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "string",
												},
												"description": "Array of 4 multiple choice options",
											},
											"answer": map[string]interface{}{
												"type":        "string",
												"description": "The correct answer, copied verbatim from options",
											},
											"difficulty": map[string]interface{}{
												"type":        "string",
												"enum":        []string{"easy", "medium", "hard"},
												"description": "Difficulty of this question",
											},
											"explanation": map[string]interface{}{
												"type":        "string",
												"description": "Brief explanation of why the answer is correct",
											},
										},
										"required": []string{"question", "options", "answer", "difficulty", "explanation"},
									},
								},
							},
							"required": []string{"questions"},
						},
					},
				},
			},
			ToolChoice: openai.ToolChoice{
				Type: openai.ToolTypeFunction,
				Function: openai.ToolFunction{
					Name: "submit_quiz",
				},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	args, err := toolCallArguments(resp, "submit_quiz")
	if err != nil {
		return nil, err
	}

	var toolArgs struct {
		Questions []Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(args), &toolArgs); err != nil {
		return nil, fmt.Errorf("failed to parse tool arguments: %w", err)
	}

	questions := make([]Question, 0, len(toolArgs.Questions))
	for _, q := range toolArgs.Questions {
		if err := q.Validate(); err != nil {
			log.Printf("Dropping invalid question: %v", err)
			continue
		}
		questions = append(questions, q)
		if len(questions) == numQuestions {
			break
		}
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("no valid questions generated for %s", article.Title)
	}

	log.Printf("Generated %d questions for %s", len(questions), article.Title)
	return questions, nil
}

// ExtractEntities pulls the key people, organizations and locations out of
// the article text.
func (qm *QuestionMaker) ExtractEntities(ctx context.Context, article *Article) (KeyEntities, error) {
	resp, err := qm.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: qm.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You extract named entities from encyclopedia articles.",
				},
				{
					Role: openai.ChatMessageRoleUser,
					Content: fmt.Sprintf(
						"List the most important people, organizations and locations mentioned in this article about %s. At most 5 of each.\n\n%s",
						article.Title, truncate(article.Content, 4000)),
				},
			},
			Tools: []openai.Tool{
				{
					Type: openai.ToolTypeFunction,
					Function: &openai.FunctionDefinition{
						Name:        "submit_entities",
						Description: "Submit extracted entities",
						Parameters: map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"people":        stringArraySchema("Names of people"),
								"organizations": stringArraySchema("Names of organizations"),
								"locations":     stringArraySchema("Names of places"),
							},
							"required": []string{"people", "organizations", "locations"},
						},
					},
				},
			},
			ToolChoice: openai.ToolChoice{
				Type: openai.ToolTypeFunction,
				Function: openai.ToolFunction{
					Name: "submit_entities",
				},
			},
		},
	)
	if err != nil {
		return KeyEntities{}, fmt.Errorf("failed to extract entities: %w", err)
	}

	args, err := toolCallArguments(resp, "submit_entities")
	if err != nil {
		return KeyEntities{}, err
	}
	var entities KeyEntities
	if err := json.Unmarshal([]byte(args), &entities); err != nil {
		return KeyEntities{}, fmt.Errorf("failed to parse entities: %w", err)
	}
	return entities, nil
}

// RelatedTopics picks follow-up reading from the article's outgoing links.
func (qm *QuestionMaker) RelatedTopics(ctx context.Context, article *Article) ([]string, error) {
	if len(article.Links) == 0 {
		return nil, nil
	}
	resp, err := qm.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: qm.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You suggest related reading topics.",
				},
				{
					Role: openai.ChatMessageRoleUser,
					Content: fmt.Sprintf(
						"From the following linked articles, pick the 5-8 most relevant follow-up topics for someone who just read about %s:\n\n%s",
						article.Title, strings.Join(article.Links, "\n")),
				},
			},
			Tools: []openai.Tool{
				{
					Type: openai.ToolTypeFunction,
					Function: &openai.FunctionDefinition{
						Name:        "submit_topics",
						Description: "Submit related topics",
						Parameters: map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"topics": stringArraySchema("Related topic titles"),
							},
							"required": []string{"topics"},
						},
					},
				},
			},
			ToolChoice: openai.ToolChoice{
				Type: openai.ToolTypeFunction,
				Function: openai.ToolFunction{
					Name: "submit_topics",
				},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pick related topics: %w", err)
	}

	args, err := toolCallArguments(resp, "submit_topics")
	if err != nil {
		return nil, err
	}
	var toolArgs struct {
		Topics []string `json:"topics"`
	}
	if err := json.Unmarshal([]byte(args), &toolArgs); err != nil {
		return nil, fmt.Errorf("failed to parse topics: %w", err)
	}
	return toolArgs.Topics, nil
}

func buildQuizPrompt(article *Article, difficulty Difficulty, numQuestions int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Generate %d multiple choice questions about: %s\n\n", numQuestions, article.Title))
	sb.WriteString("Use the following article as the only source of facts:\n")
	sb.WriteString(article.Content)
	sb.WriteString("\n\n")

	switch difficulty {
	case DifficultyEasy:
		sb.WriteString("Difficulty: easy. Ask about basic facts with direct answers in the text.\n\n")
	case DifficultyMedium:
		sb.WriteString("Difficulty: medium. Ask questions that require understanding relationships between facts.\n\n")
	case DifficultyHard:
		sb.WriteString("Difficulty: hard. Ask questions that require deep analysis and critical thinking.\n\n")
	default:
		sb.WriteString("Difficulty: mixed. Spread the questions across easy, medium and hard.\n\n")
	}

	sb.WriteString("Requirements:\n")
	sb.WriteString("- Each question must have exactly 4 multiple choice options\n")
	sb.WriteString("- The answer field must repeat one of the options verbatim\n")
	sb.WriteString("- Incorrect options should be plausible but clearly wrong\n")
	sb.WriteString("- Avoid questions where the answer is given away in the question text\n")
	sb.WriteString("- Provide a brief explanation for why the correct answer is right\n")
	sb.WriteString("- Use the submit_quiz tool to return your questions\n")

	return sb.String()
}

func stringArraySchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": description,
	}
}

// toolCallArguments digs the named tool call's arguments out of a chat
// completion response.
func toolCallArguments(resp openai.ChatCompletionResponse, name string) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from model")
	}
	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return "", fmt.Errorf("no tool calls in response")
	}
	toolCall := choice.Message.ToolCalls[0]
	if toolCall.Function.Name != name {
		return "", fmt.Errorf("unexpected tool call: %s", toolCall.Function.Name)
	}
	return toolCall.Function.Arguments, nil
}
