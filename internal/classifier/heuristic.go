package classifier

import (
	"path"
	"strings"
	"unicode"
)

// HeuristicDecoration classifies a file from its path alone. This is the
// deterministic fallback when the AI client is unavailable or a batch fails:
// pattern-match on path segments and filename tokens, most specific first.
func HeuristicDecoration(relPath, language string) Decoration {
	lower := strings.ToLower(relPath)
	base := strings.ToLower(path.Base(relPath))
	name := strings.TrimSuffix(base, path.Ext(base))
	rawBase := path.Base(relPath)
	rawName := strings.TrimSuffix(rawBase, path.Ext(rawBase))
	segments := splitSegments(lower)

	role := heuristicRole(lower, base, name, rawName, segments)
	category := heuristicCategory(lower, language, segments, role)

	return Decoration{
		Role:        role,
		Category:    category,
		Description: "Classified by path heuristics",
	}
}

func heuristicRole(lower, base, name, rawName string, segments map[string]bool) Role {
	switch {
	case strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") ||
		strings.HasSuffix(name, "_test") || strings.HasPrefix(name, "test_") ||
		segments["__tests__"] || segments["tests"] || segments["test"]:
		return RoleTest
	case isHookFileName(rawName) || segments["hooks"]:
		return RoleHook
	case segments["middleware"] || segments["middlewares"] || strings.Contains(name, "middleware"):
		return RoleMiddleware
	case segments["controllers"] || strings.Contains(name, "controller"):
		return RoleController
	case segments["routes"] || segments["routers"] || strings.Contains(name, "router") ||
		strings.Contains(name, "routes"):
		return RoleRouter
	case segments["schemas"] || strings.Contains(name, "schema"):
		return RoleSchema
	case segments["models"] || strings.Contains(name, "model"):
		return RoleModel
	case segments["store"] || segments["stores"] || strings.Contains(name, "store") ||
		strings.Contains(name, "reducer") || strings.Contains(name, "slice"):
		return RoleStore
	case segments["context"] || segments["contexts"] || strings.Contains(name, "context") ||
		strings.Contains(name, "provider"):
		return RoleContext
	case segments["config"] || strings.Contains(name, "config") ||
		strings.Contains(name, "settings") || name == "constants":
		return RoleConfig
	case segments["services"] || segments["api"] || strings.Contains(name, "service") ||
		strings.Contains(name, "client"):
		return RoleService
	case segments["utils"] || segments["util"] || segments["helpers"] ||
		segments["lib"] || strings.Contains(name, "util") || strings.Contains(name, "helper"):
		return RoleUtility
	case segments["components"] || strings.HasSuffix(lower, ".tsx") ||
		strings.HasSuffix(lower, ".jsx"):
		return RoleComponent
	default:
		return RoleUnknown
	}
}

func heuristicCategory(lower, language string, segments map[string]bool, role Role) Category {
	switch role {
	case RoleTest:
		return CategoryTest
	case RoleConfig:
		return CategoryConfig
	}
	switch {
	case segments["frontend"] || segments["client"] || segments["ui"] ||
		segments["components"] || segments["pages"] ||
		strings.HasSuffix(lower, ".tsx") || strings.HasSuffix(lower, ".jsx"):
		return CategoryFrontend
	case segments["backend"] || segments["server"] || segments["api"] ||
		language == "python":
		return CategoryBackend
	case segments["infra"] || segments["infrastructure"] || segments["scripts"] ||
		segments["deploy"]:
		return CategoryInfrastructure
	case segments["shared"] || segments["common"] || segments["utils"] || segments["lib"]:
		return CategoryShared
	default:
		return CategoryUnknown
	}
}

// isHookFileName follows the React naming convention: "use" plus an
// uppercase letter, so users.py or useful.ts never count as hooks.
func isHookFileName(name string) bool {
	if !strings.HasPrefix(name, "use") || len(name) < 4 {
		return false
	}
	return unicode.IsUpper(rune(name[3]))
}

func splitSegments(lower string) map[string]bool {
	out := make(map[string]bool)
	for _, seg := range strings.Split(lower, "/") {
		if seg != "" {
			out[seg] = true
		}
	}
	return out
}
