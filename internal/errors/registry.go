package errors

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
	// Runtime Errors (E001-E039)
	// ============================================

	"E001": {
		Category: CategoryRuntime,
		Message:  "History used outside provider",
		Detail:   "No History was attached to this context. Attach one with history.NewContext before handing the context to code that navigates.",
		DocURL:   "https://navhist.dev/docs/errors/E001",
	},

	// ============================================
	// Protocol Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryProtocol,
		Message:  "WebSocket connection failed",
		Detail:   "The browser tab's navigation channel could not be opened or was lost.",
		DocURL:   "https://navhist.dev/docs/errors/E060",
	},
	"E061": {
		Category: CategoryProtocol,
		Message:  "Invalid frame",
		Detail:   "A frame received from the tab could not be decoded.",
		DocURL:   "https://navhist.dev/docs/errors/E061",
	},
	"E062": {
		Category: CategoryProtocol,
		Message:  "Missing hello",
		Detail:   "The first frame from a tab must be a hello carrying its current location.",
		DocURL:   "https://navhist.dev/docs/errors/E062",
	},
	"E063": {
		Category: CategoryProtocol,
		Message:  "Command send failed",
		Detail:   "A navigation command could not be written to the tab.",
		DocURL:   "https://navhist.dev/docs/errors/E063",
	},
	"E064": {
		Category: CategoryProtocol,
		Message:  "Command too large",
		Detail:   "A navigation command does not fit in a single frame (64KB payload). Shorten the href.",
		DocURL:   "https://navhist.dev/docs/errors/E064",
	},

	// ============================================
	// Config Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "navhist.json could not be read or parsed.",
		DocURL:   "https://navhist.dev/docs/errors/E120",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Invalid history mode",
		Detail:   "The history mode must be \"browser\", \"hash\" or \"memory\".",
		DocURL:   "https://navhist.dev/docs/errors/E121",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "The server port must be a valid port number.",
		DocURL:   "https://navhist.dev/docs/errors/E122",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Invalid memory history",
		Detail:   "Memory entries must be non-empty paths and the initial index must refer to one of them.",
		DocURL:   "https://navhist.dev/docs/errors/E123",
	},
	"E124": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "The log level must be one of debug, info, warn or error.",
		DocURL:   "https://navhist.dev/docs/errors/E124",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Invalid argument",
		Detail:   "A command received an argument it cannot use.",
		DocURL:   "https://navhist.dev/docs/errors/E140",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Configuration not found",
		Detail:   "No navhist.json was found in the project directory.",
		DocURL:   "https://navhist.dev/docs/errors/E141",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
