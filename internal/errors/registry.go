package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Store Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryValidation,
		Message:  "Invalid state payload",
		Detail:   "SetState requires a non-nil key/value mapping.",
		DocURL:   "https://vango.dev/docs/statesvc/errors/E001",
	},
	"E002": {
		Category: CategoryRuntime,
		Message:  "Cache key conflict",
		Detail:   "The explicit cache key and the key derived by the definition's UniqueKey disagree. Serving either instance would hand out stale shared state.",
		DocURL:   "https://vango.dev/docs/statesvc/errors/E002",
	},
	"E003": {
		Category: CategoryRuntime,
		Message:  "Service hook failed",
		Detail:   "A definition-supplied hook returned an error or panicked.",
		DocURL:   "https://vango.dev/docs/statesvc/errors/E003",
	},
	"E004": {
		Category: CategoryValidation,
		Message:  "Invalid component",
		Detail:   "Components must be non-nil and comparable (usually a pointer) to be tracked as subscribers.",
		DocURL:   "https://vango.dev/docs/statesvc/errors/E004",
	},
	"E005": {
		Category: CategoryRuntime,
		Message:  "Unknown service action",
		Detail:   "The definition does not declare an action with this name.",
		DocURL:   "https://vango.dev/docs/statesvc/errors/E005",
	},
	"E006": {
		Category: CategoryRuntime,
		Message:  "Binding already unmounted",
		Detail:   "The component binding was torn down and no longer holds a service.",
		DocURL:   "https://vango.dev/docs/statesvc/errors/E006",
	},

	// ============================================
	// Render Errors (E130-E139)
	// ============================================

	"E130": {
		Category: CategoryValidation,
		Message:  "Invalid payload variable",
		Detail:   "The bootstrap payload variable must be a JavaScript identifier.",
		DocURL:   "https://vango.dev/docs/statesvc/errors/E130",
	},
	"E131": {
		Category: CategoryRuntime,
		Message:  "Bootstrap payload unreadable",
		Detail:   "The props payload could not be encoded, found or decoded as a JSON object.",
		DocURL:   "https://vango.dev/docs/statesvc/errors/E131",
	},
	"E132": {
		Category: CategoryRuntime,
		Message:  "Render failed",
		Detail:   "The view returned an error during a render pass.",
		DocURL:   "https://vango.dev/docs/statesvc/errors/E132",
	},

	// ============================================
	// Config Errors (E120-E149)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file could not be parsed.",
		DocURL:   "https://vango.dev/docs/statesvc/errors/E120",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Unknown eviction policy",
		Detail:   "Eviction must be either \"refcount\" or \"reset\".",
		DocURL:   "https://vango.dev/docs/statesvc/errors/E121",
	},
	"E141": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No statesvc configuration file was found.",
		DocURL:   "https://vango.dev/docs/statesvc/errors/E141",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

