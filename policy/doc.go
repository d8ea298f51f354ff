// Package policy provides rules deciding whether a built statement may be
// executed, evaluated by the execution client before a statement reaches
// the database.
//
// # Rule Evaluation
//
// Rules are evaluated in order until one returns a final decision:
//
//   - Allow: Grants execution and stops evaluation
//   - Deny: Rejects the statement and stops evaluation
//   - Skip: Continues to the next rule
//
// A policy whose rules all skip allows the statement.
//
//	p := policy.Policy{
//	    policy.DenyUnfilteredRule(),       // no update/delete without where
//	    policy.HasRole("admin"),           // admins may do anything else
//	    policy.DenyOpRule(dbquery.OpDelete),
//	}
//	client := sql.NewClient(drv, sql.WithPolicy(p))
package policy
