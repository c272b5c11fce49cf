// Package pipeline answers diabetes-care questions through a fixed
// four-stage sequence: classify the question into a topic, retrieve
// supporting passages from that topic's index, generate a grounded answer,
// and generate a follow-up question.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/index"
	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/registry"
)

const defaultTopK = 3

// Completer is the single-turn text completion capability the language
// stages run on.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// IndexRegistry resolves a topic name to its search index.
type IndexRegistry interface {
	Get(topic string) *index.Index
	Ensure(ctx context.Context)
}

// Agent runs the question-answering pipeline. Safe for concurrent use:
// each request owns a private State.
type Agent struct {
	completer Completer
	registry  IndexRegistry
	topK      int
}

// NewAgent creates an Agent. topK controls how many passages retrieval
// pulls per question (default 3 if <= 0).
func NewAgent(completer Completer, reg IndexRegistry, topK int) *Agent {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Agent{completer: completer, registry: reg, topK: topK}
}

// AnswerQuestion runs the four stages in order over a fresh State and
// returns the final answer and follow-ups. Retrieval failures degrade to
// an answer from general knowledge; classification, answer, or follow-up
// failures fail the whole call.
func (a *Agent) AnswerQuestion(ctx context.Context, question, topic string, priorTurns []Turn) (Result, error) {
	a.registry.Ensure(ctx)

	state := &State{
		Question:   question,
		Topic:      topic,
		PriorTurns: priorTurns,
	}

	if err := a.classify(ctx, state); err != nil {
		return Result{}, fmt.Errorf("classify stage: %w", err)
	}
	a.retrieve(ctx, state)
	if err := a.generateAnswer(ctx, state); err != nil {
		return Result{}, fmt.Errorf("answer stage: %w", err)
	}
	if err := a.generateFollowups(ctx, state); err != nil {
		return Result{}, fmt.Errorf("followup stage: %w", err)
	}

	return Result{
		Answer:           state.Answer,
		Followups:        state.Followups,
		Topic:            state.Topic,
		NeedsMoreContext: state.NeedsMoreContext,
	}, nil
}

// classify assigns the question a topic. A caller-supplied valid topic is
// honored without a model call; otherwise the model's choice is
// normalized and checked against the topic set, falling back to general.
func (a *Agent) classify(ctx context.Context, state *State) error {
	if registry.IsValidTopic(state.Topic) {
		return nil
	}

	raw, err := a.completer.Complete(ctx, classifySystemPrompt, state.Question)
	if err != nil {
		return err
	}

	topic := strings.ToLower(strings.TrimSpace(raw))
	if !registry.IsValidTopic(topic) {
		slog.Debug("classifier returned unknown topic, using general", "raw", topic)
		topic = registry.DefaultTopic
	}
	state.Topic = topic
	return nil
}

// retrieve pulls the top passages for the question from the topic's index
// and joins them with blank lines. Any failure is absorbed: the state gets
// empty context and NeedsMoreContext, and the pipeline continues.
func (a *Agent) retrieve(ctx context.Context, state *State) {
	ix := a.registry.Get(state.Topic)

	passages, err := ix.Search(ctx, state.Question, a.topK)
	if err != nil {
		slog.Error("retrieval failed, continuing without context", "topic", state.Topic, "error", err)
		state.RetrievedContext = ""
		state.NeedsMoreContext = true
		return
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	state.RetrievedContext = strings.Join(texts, "\n\n")
	slog.Info("retrieved passages", "topic", state.Topic, "count", len(passages))
}

// generateAnswer produces the answer from the retrieved context (or the
// general-knowledge sentinel when context is empty).
func (a *Agent) generateAnswer(ctx context.Context, state *State) error {
	answer, err := a.completer.Complete(ctx, answerSystemPrompt, answerUserPrompt(state.RetrievedContext, state.Question))
	if err != nil {
		return err
	}
	state.Answer = answer
	return nil
}

// generateFollowups asks for one short follow-up question. Without an
// answer there is nothing to follow up on: the stage produces an empty
// list and makes no model call. Emphasis markup is stripped and blank
// lines dropped; if the model returns several lines, all are kept.
func (a *Agent) generateFollowups(ctx context.Context, state *State) error {
	if state.Answer == "" {
		state.Followups = []string{}
		return nil
	}

	raw, err := a.completer.Complete(ctx, followupSystemPrompt, followupUserPrompt(state.Question, state.Answer))
	if err != nil {
		return err
	}

	state.Followups = parseFollowups(raw)
	return nil
}

func parseFollowups(raw string) []string {
	cleaned := strings.ReplaceAll(raw, "**", "")
	followups := []string{}
	for _, line := range strings.Split(cleaned, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			followups = append(followups, line)
		}
	}
	return followups
}
