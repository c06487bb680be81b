package policy_test

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/rbacgate/policy"
)

func ExampleEngine_Authorize() {
	engine, err := policy.New(nil,
		[]policy.Rule{{Role: "admin", Resource: "admin_resource", Action: "read"}},
		policy.Grouping{"alice": {"admin"}, "bob": {"user"}},
	)
	if err != nil {
		panic(err)
	}

	fmt.Println("alice:", engine.Authorize("alice", "read", "admin_resource"))
	fmt.Println("bob:", engine.Authorize("bob", "read", "admin_resource"))
	// Output:
	// alice: true
	// bob: false
}

func ExampleEngine_Decide() {
	engine, _ := policy.Load("",
		"user, user_resource, read\n",
		"bob, user\n",
	)

	d := engine.Decide("bob", "write", "user_resource")
	fmt.Println("Allowed:", d.Allowed)
	fmt.Println("Reason:", d.Reason)
	// Output:
	// Allowed: false
	// Reason: no rule grants this action to the subject's roles
}

func ExampleParseRules() {
	_, err := policy.ParseRules(strings.NewReader("admin, admin_resource, read\nadmin, user_resource\n"), nil)

	var ce *policy.ConfigError
	if errors.As(err, &ce) {
		fmt.Println("Line:", ce.Line)
	}
	fmt.Println("Config error:", errors.Is(err, policy.ErrConfig))
	// Output:
	// Line: 2
	// Config error: true
}
