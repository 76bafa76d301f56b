package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/hubenschmidt/ragserve/core"
	"github.com/hubenschmidt/ragserve/llm"
)

const systemInstruction = `You are a helpful assistant that answers questions based on the provided context.
Use only the information in the context to answer questions. If the context doesn't contain
relevant information, say "I don't have enough information to answer this question based on the provided documents."

Be concise and accurate in your responses.`

// FallbackAnswer is the exact sentence returned when no relevant context
// is available. Callers compare against it to decide whether a query was
// actually answered.
const FallbackAnswer = "I don't have enough information to answer this question based on the provided documents."

// Answer is the model's grounded reply to a query.
type Answer struct {
	Text     string
	Answered bool
	Usage    llm.Usage
}

// Responder turns a query plus assembled context into a grounded answer.
type Responder struct {
	client llm.ChatClient
	gen    core.GenerationConfig
}

func NewResponder(client llm.ChatClient, gen core.GenerationConfig) *Responder {
	return &Responder{client: client, gen: gen}
}

// Respond asks the model to answer the query using only the supplied
// context. An empty context short-circuits to the fallback answer without
// a provider call. Prior conversation turns, if any, are inserted between
// the system instruction and the current question.
func (r *Responder) Respond(ctx context.Context, query, contextText string, history []core.Message) (Answer, error) {
	if strings.TrimSpace(contextText) == "" {
		return Answer{Text: FallbackAnswer, Answered: false}, nil
	}

	prompt := fmt.Sprintf(
		"Context:\n%s\n\nQuestion: %s\n\nPlease provide a clear and accurate answer based only on the context above.",
		contextText, query)

	msgs := make([]core.Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, core.NewUserMessage(prompt))

	resp, err := r.client.Chat(ctx, r.gen, systemInstruction, msgs)
	if err != nil {
		return Answer{}, core.NewProviderError("chat", 0, err)
	}

	text := strings.TrimSpace(resp.Content)
	return Answer{
		Text:     text,
		Answered: text != FallbackAnswer,
		Usage:    resp.Usage,
	}, nil
}
