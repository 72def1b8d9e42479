// Package classifier decorates files with architectural-role and category
// labels. The AI client is a black box behind the Client interface; when it
// fails, a deterministic path-heuristic fallback takes over so no file is
// left undecorated.
package classifier

import "context"

// Role is a file's architectural role. Closed set with an explicit unknown.
type Role string

const (
	RoleComponent  Role = "component"
	RoleUtility    Role = "utility"
	RoleService    Role = "service"
	RoleModel      Role = "model"
	RoleConfig     Role = "config"
	RoleTest       Role = "test"
	RoleHook       Role = "hook"
	RoleContext    Role = "context"
	RoleStore      Role = "store"
	RoleMiddleware Role = "middleware"
	RoleController Role = "controller"
	RoleRouter     Role = "router"
	RoleSchema     Role = "schema"
	RoleUnknown    Role = "unknown"
)

// Category is a file's broad placement in the system
type Category string

const (
	CategoryFrontend       Category = "frontend"
	CategoryBackend        Category = "backend"
	CategoryShared         Category = "shared"
	CategoryInfrastructure Category = "infrastructure"
	CategoryTest           Category = "test"
	CategoryConfig         Category = "config"
	CategoryUnknown        Category = "unknown"
)

var validRoles = map[Role]bool{
	RoleComponent: true, RoleUtility: true, RoleService: true,
	RoleModel: true, RoleConfig: true, RoleTest: true, RoleHook: true,
	RoleContext: true, RoleStore: true, RoleMiddleware: true,
	RoleController: true, RoleRouter: true, RoleSchema: true,
	RoleUnknown: true,
}

var validCategories = map[Category]bool{
	CategoryFrontend: true, CategoryBackend: true, CategoryShared: true,
	CategoryInfrastructure: true, CategoryTest: true, CategoryConfig: true,
	CategoryUnknown: true,
}

// ParseRole coerces a free-form token into a Role. Unrecognized input maps
// to unknown; this never fails.
func ParseRole(s string) Role {
	if validRoles[Role(s)] {
		return Role(s)
	}
	return RoleUnknown
}

// ParseCategory coerces a free-form token into a Category, defaulting to
// unknown
func ParseCategory(s string) Category {
	if validCategories[Category(s)] {
		return Category(s)
	}
	return CategoryUnknown
}

// Decoration is the label set for one file
type Decoration struct {
	Role        Role     `json:"role"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
}

// FileSummary is the per-file payload sent to the classifier. Imports,
// functions and classes are capped by the adapter before sending.
type FileSummary struct {
	Path      string   `json:"path"`
	Language  string   `json:"language"`
	Lines     int      `json:"lines"`
	Imports   []string `json:"imports,omitempty"`
	Functions []string `json:"functions,omitempty"`
	Classes   []string `json:"classes,omitempty"`
}

// Client is the black-box batch classifier. Implementations return one
// decoration per input path; a batch-level error triggers the heuristic
// fallback for the whole batch.
type Client interface {
	ClassifyBatch(ctx context.Context, directoryName string, files []FileSummary) (map[string]Decoration, error)
	Available() bool
}
