package backend

import (
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/Dipk2003/itm-portal-gateway/internal/domain/auth"
)

// The backend reports the principal's role under several response shapes
// depending on endpoint and backend version. Extraction is driven by ordered
// JMESPath expression lists so shape drift is config, not code.
var (
	defaultTypePaths = []string{
		"userType",
		"user.userType",
		"data.userType",
		"data.user.userType",
	}
	defaultRolePaths = []string{
		"role",
		"user.role",
		"data.role",
		"data.user.role",
		"user.roles[0]",
	}
)

// RoleExtractor pulls the explicit user-type field and the raw role string
// out of a decoded backend response document.
type RoleExtractor struct {
	typePaths []string
	rolePaths []string
}

// NewRoleExtractor compiles the given expression lists, falling back to the
// defaults when a list is empty.
func NewRoleExtractor(typePaths, rolePaths []string) (*RoleExtractor, error) {
	if len(typePaths) == 0 {
		typePaths = defaultTypePaths
	}
	if len(rolePaths) == 0 {
		rolePaths = defaultRolePaths
	}
	for _, expr := range append(append([]string{}, typePaths...), rolePaths...) {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("compile role path %q: %w", expr, err)
		}
	}
	return &RoleExtractor{typePaths: typePaths, rolePaths: rolePaths}, nil
}

// Resolve extracts the role indicators from doc and canonicalizes them.
// The explicit user-type field wins when present; everything unknown
// resolves to RoleUnknown.
func (e *RoleExtractor) Resolve(doc any) domainauth.Role {
	explicit := firstString(e.typePaths, doc)
	role := firstString(e.rolePaths, doc)
	return domainauth.ResolveRole(explicit, role)
}

// firstString evaluates expressions in order and returns the first
// non-empty string result.
func firstString(paths []string, doc any) string {
	for _, expr := range paths {
		out, err := jmespath.Search(expr, doc)
		if err != nil {
			continue
		}
		if s, ok := out.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
