// Package verify runs structural checks against a firmware model.
//
// Rules are independent: each receives the same read-only *elfmodel.Model and
// reports a failure as an error, so one failing rule never hides another. The
// built-in KL25ZRules encode the FRDM-KL25Z memory map and toolchain
// expectations; profile files add Expr rules written in CEL.
package verify
