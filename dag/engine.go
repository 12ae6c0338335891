package dag

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/kbukum/augkit/errors"
)

// Engine executes a frozen graph in dependency order.
type Engine struct {
	// MaxParallel limits concurrent nodes per level (0 = unlimited).
	MaxParallel int
}

// Execute runs every node of g for one sample. Nodes of a level run
// concurrently; the first failing node in level order stops execution after
// its level completes. A panicking node is reported as an InternalError.
func (e *Engine) Execute(ctx context.Context, g *Graph, state *State) (*Result, error) {
	start := time.Now()

	result := &Result{
		NodeResults: make(map[string]NodeResult, len(g.Nodes)),
	}

	for _, level := range g.Levels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.executeLevel(ctx, g, state, level, result); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
	}

	result.Outputs = make([]Value, len(g.Outputs))
	for i, name := range g.Outputs {
		v, ok := state.Get(name)
		if !ok {
			return result, errors.Internal(fmt.Errorf("dag: output %q has no value", name))
		}
		result.Outputs[i] = v
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (e *Engine) executeLevel(ctx context.Context, g *Graph, state *State, names []string, result *Result) error {
	if len(names) == 1 {
		nr := e.executeNode(ctx, g.Nodes[names[0]], state)
		result.NodeResults[nr.Name] = nr
		return nr.Error
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	sem := make(chan struct{}, e.concurrency(len(names)))

	for _, name := range names {
		wg.Add(1)
		go func(nodeName string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			nr := e.executeNode(ctx, g.Nodes[nodeName], state)
			mu.Lock()
			result.NodeResults[nodeName] = nr
			mu.Unlock()
		}(name)
	}

	wg.Wait()

	for _, name := range names {
		if err := result.NodeResults[name].Error; err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) executeNode(ctx context.Context, node Node, state *State) (nr NodeResult) {
	start := time.Now()
	nr.Name = node.Name()
	defer func() {
		if r := recover(); r != nil {
			nr.Status = "failed"
			nr.Error = errors.Internal(fmt.Errorf("dag: node %q panicked: %v\n%s", nr.Name, r, debug.Stack()))
		}
		nr.Duration = time.Since(start)
	}()

	output, err := node.Run(ctx, state)
	if err != nil {
		nr.Status = "failed"
		if _, ok := errors.AsAppError(err); ok {
			nr.Error = err
		} else {
			nr.Error = fmt.Errorf("dag: node %q: %w", nr.Name, err)
		}
		return nr
	}

	state.Set(nr.Name, output)
	nr.Status = "completed"
	return nr
}

func (e *Engine) concurrency(levelSize int) int {
	if e.MaxParallel <= 0 || e.MaxParallel > levelSize {
		return levelSize
	}
	return e.MaxParallel
}
