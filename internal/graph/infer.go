// Package graph provides join-graph analysis for the active model selection:
// join-dependency inference for derived fields, connected-component analysis
// over configured joins, and join-coverage evaluation.
package graph

import (
	"sort"

	"github.com/leapstack-labs/reportql/pkg/core"
)

// InferJoinPairs returns the complete set of unordered model pairs over the
// referenced-model set. The input is deduplicated and sorted first so the
// output is deterministic; 0 or 1 models require no join and yield an empty
// list.
func InferJoinPairs(referencedModels []string) []core.ModelPair {
	seen := make(map[string]struct{}, len(referencedModels))
	models := make([]string, 0, len(referencedModels))
	for _, id := range referencedModels {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		models = append(models, id)
	}
	sort.Strings(models)

	if len(models) < 2 {
		return nil
	}

	pairs := make([]core.ModelPair, 0, len(models)*(len(models)-1)/2)
	for i := 0; i < len(models); i++ {
		for j := i + 1; j < len(models); j++ {
			pairs = append(pairs, core.ModelPair{A: models[i], B: models[j]})
		}
	}
	return pairs
}

// JoinKeySet builds the set of canonical pair keys present in a join list.
func JoinKeySet(joins []core.JoinCondition) map[string]struct{} {
	keys := make(map[string]struct{}, len(joins))
	for _, j := range joins {
		pair := core.ModelPair{A: j.LeftModel, B: j.RightModel}
		keys[pair.Key()] = struct{}{}
	}
	return keys
}

// PairCoverage reports whether one inferred join pair is satisfied by the
// active join list.
type PairCoverage struct {
	Pair      core.ModelPair
	Satisfied bool
}

// EvaluateCoverage checks each of a derived field's join dependencies against
// the set of canonical join keys actually configured. When the field carries
// no stored dependencies, they are inferred from its referenced models.
func EvaluateCoverage(field *core.DerivedField, joinKeys map[string]struct{}) []PairCoverage {
	pairs := field.JoinDependencies
	if len(pairs) == 0 {
		pairs = InferJoinPairs(field.ReferencedModels)
	}

	coverage := make([]PairCoverage, len(pairs))
	for i, pair := range pairs {
		_, ok := joinKeys[pair.Key()]
		coverage[i] = PairCoverage{Pair: pair, Satisfied: ok}
	}
	return coverage
}
