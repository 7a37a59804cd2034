package deck

import "fmt"

// Action is a navigation intent bound to a key
type Action int

const (
	ActionNone Action = iota
	ActionNext
	ActionPrev
	ActionFirst
	ActionLast
)

var actionNames = map[Action]string{
	ActionNone:  "none",
	ActionNext:  "next",
	ActionPrev:  "prev",
	ActionFirst: "first",
	ActionLast:  "last",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// MarshalText encodes the action by name
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an action from its name
func (a *Action) UnmarshalText(text []byte) error {
	for action, name := range actionNames {
		if name == string(text) {
			*a = action
			return nil
		}
	}
	return fmt.Errorf("unknown action %q", text)
}

// Binding maps a KeyboardEvent.key value to an action
type Binding struct {
	Key    string `json:"key"`
	Action Action `json:"action"`
}

var bindings = []Binding{
	{Key: "ArrowRight", Action: ActionNext},
	{Key: "PageDown", Action: ActionNext},
	{Key: " ", Action: ActionNext},
	{Key: "ArrowLeft", Action: ActionPrev},
	{Key: "PageUp", Action: ActionPrev},
	{Key: "Home", Action: ActionFirst},
	{Key: "End", Action: ActionLast},
}

// Bindings returns the key table. Clients suppress the default action of
// every bound key.
func Bindings() []Binding {
	return append([]Binding(nil), bindings...)
}

// ActionFor returns the action bound to a key
func ActionFor(key string) Action {
	for _, b := range bindings {
		if b.Key == key {
			return b.Action
		}
	}
	return ActionNone
}
