/*
Package metta is a MeTTa-style term evaluator: programs are symbolic terms,
rules rewrite terms via pattern unification, and evaluation is
nondeterministic, with independent top-level evaluations running in
parallel.

The root package holds the surface plumbing: the reader, the batch
scheduler, the evaluation history and the configuration. The evaluation
engine itself lives in package engine.
*/
package metta

import "github.com/mettatron/metta/engine"

// Compile parses source text into its pending top-level terms, paired with a
// fresh environment to accumulate into.
func Compile(text string) ([]engine.Term, *engine.Environment, error) {
	terms, err := Parse(text)
	if err != nil {
		return nil, nil, err
	}
	return terms, engine.NewEnvironment(), nil
}

// Run evaluates pending terms against an accumulated environment and returns
// the evaluation results in source order plus the updated environment.
// Stored exec meta-rules are not activated here; see engine.RunToFixedPoint,
// or use Interpreter for the full pipeline.
func Run(env *engine.Environment, terms []engine.Term) ([]Result, *engine.Environment) {
	return NewScheduler(DefaultConfig().Workers).Run(terms, env)
}
