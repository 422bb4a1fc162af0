package assembler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/w-h-a/recall/semanticindex"
	"github.com/w-h-a/recall/sessionstore"
)

// Assembler produces one bounded context from the conversational log
// and/or the semantic index. It holds no state between requests.
type Assembler struct {
	store   sessionstore.Store
	index   semanticindex.Index
	options Options
}

func (a *Assembler) Assemble(ctx context.Context, req Request) (Context, error) {
	var (
		history []sessionstore.Message
		matches []semanticindex.Result
		histErr error
		semErr  error
	)

	wantHistory := req.IncludeHistory && len(req.SessionId) > 0
	wantSemantic := req.IncludeSemantic

	// The two lookups are independent remote calls; a slow semantic
	// query must not stall the history fetch.
	var wg sync.WaitGroup

	if wantHistory {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limit := req.HistoryLimit
			if limit <= 0 {
				limit = a.options.HistoryLimit
			}
			history, histErr = a.store.History(ctx, req.SessionId, sessionstore.WithHistoryLimit(limit))
		}()
	}

	if wantSemantic {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k := req.MaxResults
			if k <= 0 {
				k = a.options.MaxResults
			}
			var queryOpts []semanticindex.QueryOption
			if req.SessionScoped && len(req.SessionId) > 0 {
				queryOpts = append(queryOpts, semanticindex.WithSessionFilter(req.SessionId))
			}
			matches, semErr = a.index.Query(ctx, req.Query, k, queryOpts...)
		}()
	}

	wg.Wait()

	if histErr != nil {
		return Context{}, fmt.Errorf("history fetch: %w", histErr)
	}

	if semErr != nil {
		// Degradable only when history is still there to fall back on.
		if !errors.Is(semErr, semanticindex.ErrUnavailable) || !wantHistory {
			return Context{}, fmt.Errorf("semantic fetch: %w", semErr)
		}
		slog.WarnContext(ctx, "semantic index unavailable, assembling history-only context", "error", semErr)
		matches = nil
	}

	fragments := merge(history, matches)
	fragments = truncate(fragments, a.options.BudgetChars)

	return Context{Fragments: fragments}, nil
}

// merge puts recent history first, verbatim and in chronological order,
// then semantic matches by descending score (newer wins a tie), with any
// match that overlaps the history message set dropped.
func merge(history []sessionstore.Message, matches []semanticindex.Result) []Fragment {
	fragments := make([]Fragment, 0, len(history)+len(matches))

	seen := make(map[string]struct{}, len(history))
	for _, msg := range history {
		seen[msg.Id] = struct{}{}
		fragments = append(fragments, Fragment{
			Text: fmt.Sprintf("%s: %s", msg.Role, msg.Content),
			Source: Source{
				Kind:       KindHistory,
				SessionId:  msg.SessionId,
				MessageIds: []string{msg.Id},
				Timestamp:  msg.Timestamp,
			},
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	for _, match := range matches {
		if overlaps(seen, match.MessageIds) {
			continue
		}
		fragments = append(fragments, Fragment{
			Text: match.Content,
			Source: Source{
				Kind:       KindSemantic,
				SessionId:  match.SessionId,
				MessageIds: match.MessageIds,
				ChunkId:    match.Id,
				Score:      match.Score,
				Timestamp:  match.CreatedAt,
				Metadata:   match.Metadata,
			},
		})
	}

	return fragments
}

// truncate drops semantic fragments from the tail until the character
// budget holds, then, only as a last resort, drops history fragments
// oldest first. A budget below one turn yields an empty, valid context.
func truncate(fragments []Fragment, budget int) []Fragment {
	if budget <= 0 {
		return fragments
	}

	total := 0
	for _, f := range fragments {
		total += len(f.Text)
	}

	for total > budget {
		last := len(fragments) - 1
		if last < 0 {
			break
		}

		if fragments[last].Source.Kind == KindSemantic {
			total -= len(fragments[last].Text)
			fragments = fragments[:last]
			continue
		}

		// Only history left: shed oldest turns first.
		total -= len(fragments[0].Text)
		fragments = fragments[1:]
	}

	return fragments
}

func overlaps(seen map[string]struct{}, ids []string) bool {
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
	}
	return false
}

func New(store sessionstore.Store, index semanticindex.Index, opts ...Option) *Assembler {
	options := NewOptions(opts...)

	if store == nil {
		panic("session store is required")
	}

	return &Assembler{
		store:   store,
		index:   index,
		options: options,
	}
}
