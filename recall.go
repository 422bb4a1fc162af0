package recall

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/w-h-a/recall/assembler"
	"github.com/w-h-a/recall/generator"
	"github.com/w-h-a/recall/personality"
	"github.com/w-h-a/recall/sessionstore"
)

const defaultSystemPrompt = "You are a helpful assistant with access to the user's past conversations. Answer using the provided context when it is relevant and say so when it is not."

// Orchestrator coordinates the per-request procedure: pick a mode
// strategy, assemble context, apply a personality, call the completion
// service, and persist turns around the call.
type Orchestrator struct {
	store     sessionstore.Store
	assembler *assembler.Assembler
	registry  *personality.Registry
	generator generator.Generator
}

func (o *Orchestrator) Ask(ctx context.Context, req Request) (Result, error) {
	if len(strings.TrimSpace(req.Query)) == 0 {
		return Result{}, fmt.Errorf("%w: query is required", ErrValidation)
	}

	spec, ok := modeSpecs[req.Mode]
	if !ok {
		return Result{}, fmt.Errorf("%w: unknown mode", ErrValidation)
	}

	system, err := o.resolveSystemPrompt(req.PersonalityId)
	if err != nil {
		return Result{}, err
	}

	sessionId := req.SessionId
	if spec.persist {
		sessionId, err = o.ensureSession(ctx, sessionId, req.SessionSupplied)
		if err != nil {
			return Result{}, err
		}
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = spec.defaultK
	}

	assembled, err := o.assembler.Assemble(ctx, assembler.Request{
		SessionId:       sessionId,
		Query:           req.Query,
		IncludeHistory:  spec.history,
		IncludeSemantic: spec.semantic,
		SessionScoped:   spec.sessionScoped,
		MaxResults:      maxResults,
	})
	if err != nil {
		return Result{}, err
	}

	// Persist the user's turn before generation: a crash or timeout
	// past this point must not lose the question.
	if spec.persist {
		if _, err := o.store.Append(ctx, sessionId, sessionstore.RoleUser, req.Query); err != nil {
			return Result{}, fmt.Errorf("persist user turn: %w", err)
		}
	}

	prompt := buildPrompt(assembled, req.Query)

	reply, err := o.generator.Generate(ctx, system, prompt)
	if err != nil {
		slog.ErrorContext(ctx, "generation failed", "mode", req.Mode.String(), "session_id", sessionId, "error", err)
		return Result{}, fmt.Errorf("%w: %v", ErrGenerationFailure, err)
	}

	if spec.persist {
		if _, err := o.store.Append(ctx, sessionId, sessionstore.RoleAssistant, reply); err != nil {
			return Result{}, fmt.Errorf("persist assistant turn: %w", err)
		}
	}

	result := Result{
		Response: reply,
		Sources:  assembled.SemanticSources(),
	}
	if spec.persist {
		result.SessionId = sessionId
	}

	return result, nil
}

// History exposes a session's log for display, chronological. A
// caller-supplied unknown id fails NotFound rather than reading empty.
func (o *Orchestrator) History(ctx context.Context, sessionId string, limit int) ([]sessionstore.Message, error) {
	return o.store.History(ctx, sessionId, sessionstore.WithHistoryLimit(limit))
}

func (o *Orchestrator) resolveSystemPrompt(personalityId string) (string, error) {
	if len(personalityId) == 0 {
		personalityId = o.registry.DefaultId()
	}
	if len(personalityId) == 0 {
		return defaultSystemPrompt, nil
	}
	return o.registry.ResolvePrompt(personalityId)
}

func (o *Orchestrator) ensureSession(ctx context.Context, sessionId string, supplied bool) (string, error) {
	if len(sessionId) == 0 {
		return o.store.CreateSession(ctx)
	}

	exists, err := o.store.Exists(ctx, sessionId)
	if err != nil {
		return "", err
	}

	if !exists && supplied {
		return "", fmt.Errorf("%w: session %s", sessionstore.ErrNotFound, sessionId)
	}

	return sessionId, nil
}

func buildPrompt(assembled assembler.Context, query string) string {
	var sb strings.Builder

	var history, recalled []assembler.Fragment
	for _, f := range assembled.Fragments {
		if f.Source.Kind == assembler.KindHistory {
			history = append(history, f)
		} else {
			recalled = append(recalled, f)
		}
	}

	if len(recalled) > 0 {
		sb.WriteString("Relevant past conversations:\n")
		for i, f := range recalled {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, f.Text)
		}
		sb.WriteString("\n")
	}

	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, f := range history {
			sb.WriteString(f.Text)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Current user message:\n")
	sb.WriteString(strings.TrimSpace(query))

	return sb.String()
}

func New(
	store sessionstore.Store,
	asm *assembler.Assembler,
	registry *personality.Registry,
	gen generator.Generator,
) *Orchestrator {
	if store == nil {
		panic("session store is required")
	}

	if asm == nil {
		panic("assembler is required")
	}

	if registry == nil {
		panic("personality registry is required")
	}

	if gen == nil {
		panic("generator is required")
	}

	return &Orchestrator{
		store:     store,
		assembler: asm,
		registry:  registry,
		generator: gen,
	}
}
