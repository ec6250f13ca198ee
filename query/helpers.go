package query

import "github.com/buildaudit/buildaudit/frontend"

// RuleCall is one rule invocation found at the top level of a BUILD file
// (e.g. `cc_library(name=..., ...)`), with its keyword arguments already
// split out.
type RuleCall struct {
	Kind   string // e.g. "cc_library"
	Call   *frontend.FuncCall
	Kwargs map[string]frontend.Node
}

// FindRuleCallsites scans stmts for top-level calls to any of kinds (or
// every call, if kinds is empty) and returns each with its kwargs parsed.
func FindRuleCallsites(stmts []frontend.Node, kinds ...string) []RuleCall {
	calls := frontend.FuncCalls(stmts, kinds...)
	out := make([]RuleCall, 0, len(calls))
	for _, c := range calls {
		id, ok := c.Fn.(*frontend.Identifier)
		if !ok {
			continue
		}
		out = append(out, RuleCall{Kind: id.Name, Call: c, Kwargs: frontend.Kwargs(c)})
	}
	return out
}

// StringAttr returns the string value of kwargs[key], if present and a
// literal string.
func StringAttr(kwargs map[string]frontend.Node, key string) (string, bool) {
	n, ok := kwargs[key]
	if !ok {
		return "", false
	}
	return frontend.StringValue(n)
}

// StringListAttr returns the string-list value of kwargs[key] (list or
// tuple of literal strings), if present.
func StringListAttr(kwargs map[string]frontend.Node, key string) ([]string, bool) {
	n, ok := kwargs[key]
	if !ok {
		return nil, false
	}
	return frontend.StringListValue(n)
}

// NameOf returns a rule call's `name=` attribute, the conventional target
// name for that call-site.
func NameOf(kwargs map[string]frontend.Node) (string, bool) {
	return StringAttr(kwargs, "name")
}

// BoolAttr returns the boolean value of kwargs[key], if present as the
// bare identifier True/False or an equivalent 1/0 int literal (BUILD
// files have no dedicated boolean scalar; True/False are ordinary
// identifiers).
func BoolAttr(kwargs map[string]frontend.Node, key string) (bool, bool) {
	n, ok := kwargs[key]
	if !ok {
		return false, false
	}
	switch v := n.(type) {
	case *frontend.Identifier:
		switch v.Name {
		case "True":
			return true, true
		case "False":
			return false, true
		}
	case *frontend.IntScalar:
		return v.Value != 0, true
	}
	return false, false
}
