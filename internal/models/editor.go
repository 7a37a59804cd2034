package models

// EditorState represents the in-memory state of one embedded editor
type EditorState struct {
	Code    string `json:"code"`
	Output  string `json:"output"`
	Error   string `json:"error"`
	Running bool   `json:"running"`
	Open    bool   `json:"open"`
}

// Display returns the text shown in the output panel
func (s EditorState) Display() string {
	if s.Output != "" {
		return s.Output
	}
	if s.Error != "" {
		return "Error: " + s.Error
	}
	return ""
}

// RunResult represents the cached outcome of the last execution for a key
type RunResult struct {
	Code   string `json:"code"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Snippet represents an editor completion offered to the client
type Snippet struct {
	Label         string `json:"label"`
	Kind          string `json:"kind"`
	Documentation string `json:"documentation,omitempty"`
	InsertText    string `json:"insertText"`
}

// PythonSnippets are the completions registered for the python editor
var PythonSnippets = []Snippet{
	{Label: "def", Kind: "keyword", InsertText: "def ${1:name}(${2:args}):\n    ${3:pass}"},
	{Label: "for", Kind: "keyword", InsertText: "for ${1:i} in range(${2:10}):\n    ${3:print(i)}"},
	{Label: "if", Kind: "keyword", InsertText: "if ${1:condition}:\n    ${2:pass}"},
	{
		Label:         "avg3",
		Kind:          "snippet",
		Documentation: "Compute average of three variables",
		InsertText:    "average = (${1:test1} + ${2:test2} + ${3:test3}) / 3",
	},
}
