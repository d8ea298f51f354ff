package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/dbquery"
)

// Policy decision sentinel errors. Use errors.Is to check for them.
var (
	// Allow may be returned by rules to indicate that the policy
	// evaluation should terminate with an allow decision.
	Allow = errors.New("dbquery/policy: allow rule")

	// Deny may be returned by rules to indicate that the policy
	// evaluation should terminate with a deny decision.
	Deny = errors.New("dbquery/policy: deny rule")

	// Skip may be returned by rules to indicate that the policy
	// evaluation should continue to the next rule in the chain.
	Skip = errors.New("dbquery/policy: skip rule")
)

// Allowf returns a formatted wrapped Allow decision.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted wrapped Skip decision.
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

// Rule decides on a single statement.
type Rule interface {
	EvalStatement(context.Context, *dbquery.Statement) error
}

// RuleFunc is an adapter which allows the use of ordinary functions as rules.
type RuleFunc func(context.Context, *dbquery.Statement) error

// EvalStatement returns f(ctx, s).
func (f RuleFunc) EvalStatement(ctx context.Context, s *dbquery.Statement) error {
	return f(ctx, s)
}

// Policy is an ordered list of rules. It implements dbquery.Policy.
type Policy []Rule

// EvalStatement evaluates the rules in order. A decision attached to the
// context with DecisionContext takes precedence over the rules.
func (p Policy) EvalStatement(ctx context.Context, s *dbquery.Statement) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	for _, rule := range p {
		switch decision := rule.EvalStatement(ctx, s); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

var _ dbquery.Policy = Policy(nil)

// AlwaysAllowRule returns a rule that always returns an Allow decision.
func AlwaysAllowRule() Rule {
	return fixedDecision{Allow}
}

// AlwaysDenyRule returns a rule that always returns a Deny decision.
func AlwaysDenyRule() Rule {
	return fixedDecision{Deny}
}

// ContextRule creates a rule from a context evaluation function.
// Returning nil is equivalent to returning Skip.
func ContextRule(eval func(context.Context) error) Rule {
	return RuleFunc(func(ctx context.Context, _ *dbquery.Statement) error {
		return eval(ctx)
	})
}

// OnOp evaluates the given rule only on statements of the given operations.
func OnOp(rule Rule, ops ...dbquery.Op) Rule {
	return RuleFunc(func(ctx context.Context, s *dbquery.Statement) error {
		if s.Op.Is(ops...) {
			return rule.EvalStatement(ctx, s)
		}
		return Skip
	})
}

// DenyOpRule returns a rule denying the given operations.
func DenyOpRule(ops ...dbquery.Op) Rule {
	return OnOp(RuleFunc(func(_ context.Context, s *dbquery.Statement) error {
		return Denyf("dbquery/policy: operation %s is not allowed", s.Op)
	}), ops...)
}

// AllowOpRule returns a rule allowing the given operations.
func AllowOpRule(ops ...dbquery.Op) Rule {
	return OnOp(fixedDecision{Allow}, ops...)
}

// DenyUnfilteredRule returns a rule denying updates and deletes without a
// where clause.
func DenyUnfilteredRule() Rule {
	return OnOp(RuleFunc(func(_ context.Context, s *dbquery.Statement) error {
		if !s.Filtered {
			return Denyf("dbquery/policy: %s on %s without where clause", s.Op, s.Table)
		}
		return Skip
	}), dbquery.OpUpdate, dbquery.OpDelete)
}

// DenyTablesRule returns a rule denying statements that reference one of
// the given tables, as base table or joined table. Aliases are ignored.
func DenyTablesRule(tables ...string) Rule {
	deny := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		deny[dbquery.TableName(t)] = struct{}{}
	}
	return RuleFunc(func(_ context.Context, s *dbquery.Statement) error {
		for _, name := range s.TableNames() {
			if _, ok := deny[name]; ok {
				return Denyf("dbquery/policy: table %s is not allowed", name)
			}
		}
		return Skip
	})
}

type decisionCtxKey struct{}

// DecisionContext creates a new context from the given parent context with
// a policy decision attached to it.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves the policy decision from the context.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) EvalStatement(context.Context, *dbquery.Statement) error {
	return f.decision
}
