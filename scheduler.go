package metta

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mettatron/metta/engine"
)

// Scheduler runs a program's top-level terms, parallelizing runs of
// consecutive evaluations. Definitions and bare facts act as barriers: every
// batched evaluation before one finishes and its environment changes merge
// back in before the definition applies, so a later evaluation always sees
// every earlier definition.
type Scheduler struct {
	workers int
}

// NewScheduler returns a scheduler running at most workers evaluations
// concurrently; workers < 1 means a single worker.
func NewScheduler(workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{workers: workers}
}

// Result is the outcome of one top-level evaluation. Index is the term's
// position in the program, so interleaved batches still report in source
// order.
type Result struct {
	Index  int
	Term   engine.Term
	Values []engine.Term
}

// IsEvaluation reports whether a top-level term is a !-marked evaluation
// rather than a definition.
func IsEvaluation(t engine.Term) bool {
	items, ok := t.(engine.List)
	if !ok || len(items) == 0 {
		return false
	}
	head, ok := items[0].(engine.Atom)
	return ok && string(head) == "!"
}

// Run executes terms against env and returns the evaluation results in
// source order together with the final environment.
func (s *Scheduler) Run(terms []engine.Term, env *engine.Environment) ([]Result, *engine.Environment) {
	var results []Result
	var batch []int

	flush := func() {
		if len(batch) == 0 {
			return
		}
		batchResults, merged := s.runBatch(terms, batch, env)
		results = append(results, batchResults...)
		env = merged
		batch = batch[:0]
	}

	for i, t := range terms {
		if IsEvaluation(t) {
			batch = append(batch, i)
			continue
		}
		flush()
		env = define(t, env)
	}
	flush()

	return results, env
}

// define applies a non-evaluation top-level term to the environment. Rule
// definitions, type assertions and exec rules go through the evaluator's
// special forms; any other term is a bare fact.
func define(t engine.Term, env *engine.Environment) *engine.Environment {
	if items, ok := t.(engine.List); ok && len(items) > 0 {
		if head, ok := items[0].(engine.Atom); ok {
			switch string(head) {
			case "=", ":", "exec":
				_, env = engine.Eval(t, env)
				return env
			}
		}
	}
	next := env.Clone()
	next.AddFact(t)
	return next
}

// runBatch evaluates the indexed terms concurrently, each against its own
// clone of env. Environment changes merge back by union in source order, so
// the merge is deterministic regardless of completion order.
func (s *Scheduler) runBatch(terms []engine.Term, batch []int, env *engine.Environment) ([]Result, *engine.Environment) {
	logrus.WithFields(logrus.Fields{
		"terms":   len(batch),
		"workers": s.workers,
	}).Debug("running evaluation batch")

	results := make([]Result, len(batch))
	envs := make([]*engine.Environment, len(batch))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.workers)
	for i, idx := range batch {
		wg.Add(1)
		go func(i, idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			values, itemEnv := engine.Eval(terms[idx], env.Clone())
			results[i] = Result{Index: idx, Term: terms[idx], Values: values}
			envs[i] = itemEnv
		}(i, idx)
	}
	wg.Wait()

	sort.Slice(results, func(a, b int) bool { return results[a].Index < results[b].Index })

	merged := env.Clone()
	for _, itemEnv := range envs {
		merged = merged.Union(itemEnv)
	}
	return results, merged
}
