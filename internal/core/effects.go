package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"maintcore/pkg/domain"
)

// CascadePolicy decides what happens when one step of a multi-step
// operation fails.
type CascadePolicy string

// Supported cascade policies.
const (
	// CascadeBestEffort attempts every step and keeps the ones that succeeded.
	CascadeBestEffort CascadePolicy = "best_effort"
	// CascadeCompensate stops at the first failure and reverts the steps
	// already committed, newest first.
	CascadeCompensate CascadePolicy = "compensate"
)

// ParseCascadePolicy maps a configuration value to a policy.
func ParseCascadePolicy(v string) (CascadePolicy, error) {
	switch CascadePolicy(v) {
	case CascadeBestEffort, "":
		return CascadeBestEffort, nil
	case CascadeCompensate:
		return CascadeCompensate, nil
	default:
		return "", fmt.Errorf("unknown cascade policy %q", v)
	}
}

// Step is one write-then-commit unit of a plan. Revert restores the value
// the step overwrote; it is nil when there is nothing to restore.
type Step struct {
	Name   string
	Apply  func(ctx context.Context) error
	Revert func(ctx context.Context) error
}

// Plan is a primary mutation plus the effects it triggers, in program order.
type Plan struct {
	Operation string
	Primary   Step
	Effects   []Step
}

// Steps returns the primary step followed by the effects.
func (p Plan) Steps() []Step {
	return append([]Step{p.Primary}, p.Effects...)
}

// EffectExecutor applies plans under a cascade policy.
type EffectExecutor struct {
	policy CascadePolicy
	log    *zap.Logger
}

// NewEffectExecutor returns an executor using policy.
func NewEffectExecutor(policy CascadePolicy, log *zap.Logger) *EffectExecutor {
	if policy == "" {
		policy = CascadeBestEffort
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EffectExecutor{policy: policy, log: log}
}

// Policy reports the executor's cascade policy.
func (x *EffectExecutor) Policy() CascadePolicy { return x.policy }

// Execute runs every step of plan. It returns nil when all steps succeed and
// a *domain.CascadeError otherwise. Committed lists the steps whose writes
// remain in effect when Execute returns.
func (x *EffectExecutor) Execute(ctx context.Context, plan Plan) error {
	failed := &domain.CascadeError{Operation: plan.Operation}
	var applied []Step
	for _, step := range plan.Steps() {
		if err := step.Apply(ctx); err != nil {
			failed.Failures = append(failed.Failures, domain.StepError{Step: step.Name, Err: err})
			if x.policy == CascadeCompensate {
				applied = x.compensate(ctx, applied, failed)
				break
			}
			continue
		}
		applied = append(applied, step)
	}
	if len(failed.Failures) == 0 {
		return nil
	}
	for _, step := range applied {
		failed.Committed = append(failed.Committed, step.Name)
	}
	x.log.Error("cascade failed",
		zap.String("operation", plan.Operation),
		zap.String("policy", string(x.policy)),
		zap.Strings("committed", failed.Committed),
		zap.Error(failed))
	return failed
}

// compensate reverts applied newest first and returns the steps that could
// not be reverted.
func (x *EffectExecutor) compensate(ctx context.Context, applied []Step, failed *domain.CascadeError) []Step {
	var kept []Step
	for i := len(applied) - 1; i >= 0; i-- {
		step := applied[i]
		if step.Revert == nil {
			kept = append([]Step{step}, kept...)
			continue
		}
		if err := step.Revert(ctx); err != nil {
			failed.Failures = append(failed.Failures, domain.StepError{Step: step.Name + " revert", Err: err})
			kept = append([]Step{step}, kept...)
			continue
		}
		x.log.Debug("step reverted", zap.String("operation", failed.Operation), zap.String("step", step.Name))
	}
	return kept
}
