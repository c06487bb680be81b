package observe

// OpMeta identifies an instrumented operation.
type OpMeta struct {
	Component string // Owning component, e.g. "token" or "policy"
	Name      string // Operation name, e.g. "issue" (required)
}

// Operations instrumented by the service.
var (
	OpTokenIssue      = OpMeta{Component: "token", Name: "issue"}
	OpTokenResolve    = OpMeta{Component: "token", Name: "resolve"}
	OpPolicyAuthorize = OpMeta{Component: "policy", Name: "authorize"}
	OpPolicyReload    = OpMeta{Component: "policy", Name: "reload"}
)

// SpanName returns the deterministic span name for this operation.
// Format: rbacgate.<component>.<name> or rbacgate.<name>
func (m OpMeta) SpanName() string {
	return "rbacgate." + m.OpID()
}

// OpID returns the qualified operation identifier.
func (m OpMeta) OpID() string {
	if m.Component != "" {
		return m.Component + "." + m.Name
	}
	return m.Name
}
