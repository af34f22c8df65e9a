package middleware

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"cinebook/internal/models"
)

// RBAC model: subject is the upstream role code, object the gin route
// template, action the HTTP method.
const authzModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// Authorizer decides which roles may use which routes.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

// NewAuthorizer returns an authorizer granting the admin role every method
// on the admin subtree.
func NewAuthorizer() (*Authorizer, error) {
	m, err := model.NewModelFromString(authzModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse authorization model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}

	policies := [][]string{
		{models.RoleAdmin, "/admin", "GET"},
		{models.RoleAdmin, "/admin/*", "(GET)|(POST)|(PUT)|(DELETE)"},
	}
	if _, err := e.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}

	return &Authorizer{enforcer: e}, nil
}

func (a *Authorizer) Allow(role, path, method string) (bool, error) {
	if role == "" {
		return false, nil
	}
	return a.enforcer.Enforce(role, path, method)
}
