package tmux

// Pane holds the fields needed to locate and focus a tmux pane.
type Pane struct {
	TTY         string `json:"tty"`
	Session     string `json:"session"`
	WindowIndex string `json:"window_index"`
	PaneIndex   string `json:"pane_index"`
	ID          string `json:"id"`
}

// WindowTarget is the session:window target of the pane's window.
func (p Pane) WindowTarget() string {
	return p.Session + ":" + p.WindowIndex
}

// Target is the session:window.pane target of the pane.
func (p Pane) Target() string {
	return p.WindowTarget() + "." + p.PaneIndex
}
