package handler

const (
	// RootPath is the root path of the route group.
	RootPath = "/"

	// APIPath is the prefix under which every JSON endpoint lives.
	APIPath = "/api"

	// RouterRootPath is the root path inside an app.Route group.
	RouterRootPath = "/"

	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"
)
