package session

// Level grades a Notice for display.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is the user-facing outcome of a flow.
type Notice struct {
	Level   Level
	Title   string
	Message string
}

// OK reports whether the flow succeeded.
func (n Notice) OK() bool { return n.Level == LevelSuccess }

func success(title, message string) Notice {
	return Notice{Level: LevelSuccess, Title: title, Message: message}
}

func warning(title, message string) Notice {
	return Notice{Level: LevelWarning, Title: title, Message: message}
}

func failure(title, message string) Notice {
	return Notice{Level: LevelError, Title: title, Message: message}
}

var (
	noticeEmptyCart      = warning("No items selected", "Please add at least one item.")
	noticeEmptySelection = warning("No items selected", "Please select at least one item.")
	noticeBusy           = warning("Please wait", "A submission is already being processed.")
	noticeNoBackend      = failure("Error", "Ordering is unavailable right now.")
)
