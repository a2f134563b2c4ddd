package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go/v3"
)

// DefaultLLMModel is the chat model used for answer synthesis.
const DefaultLLMModel = "gpt-4o-mini"

// RefusalAnswer is returned verbatim when the retrieved context does not
// contain the requested information.
const RefusalAnswer = "I'm sorry, but this information is not present in the uploaded documents."

const systemPrompt = `You are a document assistant. Answer the user's question using ONLY the provided context.
Rules:
- Use only information from the context below. Do not use prior knowledge.
- If the context does not contain the information needed to answer, reply exactly: ` + RefusalAnswer + `
- Be concise and factual.`

// OpenAIGenerator creates an answer generator backed by the OpenAI chat API.
// Transient API errors are retried with exponential backoff up to maxRetries
// times before the error is returned.
func OpenAIGenerator(client openai.Client, modelName string, maxRetries int) GenerateFunc {
	if modelName == "" {
		modelName = DefaultLLMModel
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	return func(ctx context.Context, query string, contextBlocks []string) (string, error) {
		userPrompt := buildUserPrompt(query, contextBlocks)

		var answer string
		operation := func() error {
			response, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
				Model: openai.ChatModel(modelName),
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.SystemMessage(systemPrompt),
					openai.UserMessage(userPrompt),
				},
				Temperature: openai.Float(0),
			})
			if err != nil {
				return err
			}
			if len(response.Choices) == 0 {
				return fmt.Errorf("no completion returned")
			}
			answer = strings.TrimSpace(response.Choices[0].Message.Content)
			return nil
		}

		err := backoff.Retry(
			operation,
			backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(maxRetries)), ctx),
		)
		if err != nil {
			return "", fmt.Errorf("failed to generate answer: %w", err)
		}

		return answer, nil
	}
}

func buildUserPrompt(query string, contextBlocks []string) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	for i, block := range contextBlocks {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, block)
	}
	fmt.Fprintf(&b, "Question: %s", query)
	return b.String()
}
