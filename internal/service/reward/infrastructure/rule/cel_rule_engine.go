package rule

import (
	"context"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/reward/domain/port"
)

var _ port.RuleSet = (*CELRuleSet)(nil)

// Definition 是一条规则的原始定义，When 为返回 bool 的 CEL 表达式，
// 可用变量：price (double)、product_id (string)、classification (string)。
type Definition struct {
	Name       string
	When       string
	Percentage float64
}

type compiledRule struct {
	name       string
	program    cel.Program
	percentage decimal.Decimal
}

// CELRuleSet 按定义顺序求值，第一条命中的规则生效。
type CELRuleSet struct {
	rules []compiledRule
}

// NewCELRuleSet 在启动时编译所有规则，任一规则非法都返回错误。
func NewCELRuleSet(defs []Definition) (*CELRuleSet, error) {
	env, err := cel.NewEnv(
		cel.Variable("price", cel.DoubleType),
		cel.Variable("product_id", cel.StringType),
		cel.Variable("classification", cel.StringType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create cel env")
	}

	rs := &CELRuleSet{}
	for _, def := range defs {
		if def.Percentage < 0 {
			return nil, errors.Errorf("rule %q: negative percentage %v", def.Name, def.Percentage)
		}
		ast, iss := env.Compile(def.When)
		if iss != nil && iss.Err() != nil {
			return nil, errors.Wrapf(iss.Err(), "compile rule %q", def.Name)
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, errors.Errorf("rule %q must evaluate to bool, got %s", def.Name, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, errors.Wrapf(err, "program rule %q", def.Name)
		}
		rs.rules = append(rs.rules, compiledRule{
			name:       def.Name,
			program:    prg,
			percentage: decimal.NewFromFloat(def.Percentage),
		})
	}
	return rs, nil
}

// Percentage 实现了 port.RuleSet 接口。求值出错的规则视为未命中。
func (rs *CELRuleSet) Percentage(ctx context.Context, in port.RuleInput) (decimal.Decimal, string, bool) {
	vars := map[string]any{
		"price":          in.Price,
		"product_id":     in.ProductID,
		"classification": in.Classification,
	}
	for _, r := range rs.rules {
		out, _, err := r.program.Eval(vars)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("rule", r.name).Msg("reward rule evaluation failed")
			continue
		}
		if matched, ok := out.Value().(bool); ok && matched {
			return r.percentage, r.name, true
		}
	}
	return decimal.Zero, "", false
}

// Len 返回已编译的规则数量
func (rs *CELRuleSet) Len() int { return len(rs.rules) }
