package handler

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// RouterRootPath is the root path inside a route group.
	RouterRootPath = "/"

	// MediaPath serves stored assets.
	MediaPath = "/media"

	// TemplateError is the generic error page.
	TemplateError = "error"

	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 20
	// MaxPageSize caps the pageSize query parameter.
	MaxPageSize = 100

	// ErrNilACDFatalLogMsg is used if app or cfg or services are nil.
	ErrNilACDFatalLogMsg = "app, cfg or services is nil"
)
