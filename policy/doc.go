// Package policy evaluates role-based access decisions.
//
// An Engine is built from three static inputs:
//
//   - a matching model in Casbin's INI syntax, describing how a request
//     (subject, resource, action) is matched against policy rules,
//   - a rule table of (role, resource, action) rows,
//   - a grouping relation assigning roles to subjects.
//
// The supported model is the plain RBAC instantiation:
//
//	[request_definition]
//	r = sub, obj, act
//
//	[policy_definition]
//	p = sub, obj, act
//
//	[role_definition]
//	g = _, _
//
//	[policy_effect]
//	e = some(where (p.eft == allow))
//
//	[matchers]
//	m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
//
// Evaluation is a whitelist: a request is allowed iff some role assigned to the
// subject appears in a rule with exactly the requested resource and action.
// There are no deny rules, wildcards or role hierarchies.
//
// Engines are immutable and safe for concurrent use without locking. Use a
// Store to swap in a freshly loaded Engine at runtime.
package policy
