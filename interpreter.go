package metta

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/mettatron/metta/engine"
)

// Interpreter ties the reader, the scheduler, the fixed-point driver and the
// evaluation history together around one accumulated environment.
type Interpreter struct {
	cfg       Config
	scheduler *Scheduler
	history   *History
	env       *engine.Environment
}

// New returns an interpreter with an empty environment.
func New(cfg Config) *Interpreter {
	return &Interpreter{
		cfg:       cfg,
		scheduler: NewScheduler(cfg.Workers),
		history:   NewHistory(cfg.HistoryLimit),
		env:       engine.NewEnvironment(),
	}
}

// Env returns the accumulated environment.
func (i *Interpreter) Env() *engine.Environment { return i.env }

// History returns the evaluation history.
func (i *Interpreter) History() *History { return i.history }

// Reset discards all accumulated definitions, facts and history.
func (i *Interpreter) Reset() {
	i.env = engine.NewEnvironment()
	i.history = NewHistory(i.cfg.HistoryLimit)
}

// Exec parses and runs a program fragment against the accumulated
// environment and returns its evaluation results in source order.
func (i *Interpreter) Exec(text string) ([]Result, error) {
	terms, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return i.ExecTerms(terms), nil
}

// ExecTerms runs already-parsed top-level terms. Definitions extend the
// environment, evaluations produce results, and once any exec meta-rules
// are stored the fixed-point driver runs them to quiescence.
func (i *Interpreter) ExecTerms(terms []engine.Term) []Result {
	results, env := i.scheduler.Run(terms, i.env)
	i.env = env

	for _, r := range results {
		i.history.Add(r.Term, r.Values)
	}

	if hasExecFacts(i.env) {
		res := engine.RunToFixedPoint(i.env, i.cfg.MaxIterations)
		if !res.Converged {
			logrus.WithField("iterations", res.Iterations).Warn("fixed point not reached")
		}
		i.env = res.Env
	}
	return results
}

func hasExecFacts(env *engine.Environment) bool {
	for _, fact := range env.Facts() {
		if _, ok := engine.ExecRuleFromTerm(fact); ok {
			return true
		}
	}
	return false
}

// ExecFile runs a program file.
func (i *Interpreter) ExecFile(path string) ([]Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("exec %s: %w", path, err)
	}
	results, err := i.Exec(string(data))
	if err != nil {
		return nil, fmt.Errorf("exec %s: %w", path, err)
	}
	return results, nil
}

// SaveState writes the accumulated environment to path.
func (i *Interpreter) SaveState(path string) error {
	data, err := i.env.MarshalBinary()
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// LoadState replaces the accumulated environment with one read from path.
func (i *Interpreter) LoadState(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	env := engine.NewEnvironment()
	if err := env.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	i.env = env
	return nil
}
