package config

import (
	"github.com/janusboandersen/frdm-kl25z-minimal-build/pkg/elfmodel"
	"github.com/janusboandersen/frdm-kl25z-minimal-build/pkg/verify"
)

// VerifyRules returns the rules the profile runs: the enabled built-in rules
// followed by the expression rules in file order.
func (p *Profile) VerifyRules() ([]verify.Rule, error) {
	var rules []verify.Rule
	if p.Builtin.Enabled {
		rules = verify.Without(verify.KL25ZRules(), p.Builtin.Skip...)
	}
	for _, rc := range p.Rules {
		r, err := verify.CompileExpr(rc.Name, rc.Description, rc.Expr)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// ModelPolicy returns the classification policy for elfmodel.Build.
func (p *Profile) ModelPolicy() elfmodel.Policy {
	return elfmodel.Policy{DropUntyped: p.Policy.DropUntyped}
}
