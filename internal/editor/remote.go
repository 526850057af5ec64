package editor

// Command types sent to a browser editor.
const (
	CommandConfigure = "configure"
	CommandValue     = "value"
)

// Command is an instruction for the browser-side editor.
type Command struct {
	Type     string `json:"type"`
	Language string `json:"language,omitempty"`
	Theme    string `json:"theme,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Remote is a Buffer whose configuration and initial value are mirrored to
// a browser editor through send. Inbound edits reach it through Edit and
// inbound readiness through MarkReady.
type Remote struct {
	*Buffer
	send func(Command)
}

// NewRemote returns a remote surface that forwards commands to send.
func NewRemote(send func(Command)) *Remote {
	return &Remote{Buffer: NewBuffer(), send: send}
}

func (r *Remote) Configure(s Settings) {
	r.Buffer.Configure(s)
	r.send(Command{
		Type:     CommandConfigure,
		Language: s.Language.String(),
		Theme:    s.Theme,
	})
}

func (r *Remote) SetValue(text string) {
	r.Buffer.SetValue(text)
	r.send(Command{Type: CommandValue, Text: text})
}

var _ Surface = (*Remote)(nil)
