package cli

import "io"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	DBPath  string `long:"db-path" description:"Override the history database path"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// SuggestCommand lists suggestions for typed text.
type SuggestCommand struct {
	Limit int `long:"limit" description:"Maximum results to print (0 for all)" default:"0"`

	Args struct {
		Text []string `positional-arg-name:"text" description:"Typed address-bar text"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	version string
}

// TitleCommand prints the indexed title for a URL.
type TitleCommand struct {
	URL string `long:"url" description:"Exact URL to look up (required)"`

	globals *GlobalFlags
	version string
}

// VisitCommand records a page visit.
type VisitCommand struct {
	URL   string `long:"url" description:"Visited page URL (required)"`
	Title string `long:"title" description:"Page title"`

	globals *GlobalFlags
	version string
}

// HistoryCommand lists recorded visits, newest first.
type HistoryCommand struct {
	Limit  int    `long:"limit" description:"Maximum results" default:"20"`
	Offset int    `long:"offset" description:"Skip first N results" default:"0"`
	Delete string `long:"delete" description:"Delete the visit with this ID instead of listing"`

	globals *GlobalFlags
	version string
}

// ClearCommand deletes all history with safety confirmation.
type ClearCommand struct {
	All   bool `long:"all" description:"Required flag to confirm clear intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	stdin   io.Reader // injectable for testing; nil means os.Stdin
}

// StatusCommand shows index, history and daemon state.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// ServeCommand runs the suggestion daemon (local HTTP service).
type ServeCommand struct {
	Port     int    `long:"port" description:"Override daemon port"`
	LogLevel string `long:"log-level" description:"Override log level"`
	NoWatch  bool   `long:"no-watch" description:"Do not watch the database for writes from other processes"`

	globals *GlobalFlags
	version string
	ready   func(addr string) // test hook, called once listening
}
