package mock

import (
	"context"
	"sync"
)

// Generator echoes a canned reply and records what it was asked. Tests
// inspect the recorded fields directly.
type Generator struct {
	Reply string
	Err   error

	mtx        sync.Mutex
	LastSystem string
	LastPrompt string
	Calls      int
}

func (g *Generator) Generate(ctx context.Context, system string, prompt string) (string, error) {
	g.mtx.Lock()
	g.LastSystem = system
	g.LastPrompt = prompt
	g.Calls++
	g.mtx.Unlock()

	if g.Err != nil {
		return "", g.Err
	}

	return g.Reply, nil
}

func NewGenerator(reply string) *Generator {
	return &Generator{Reply: reply}
}
