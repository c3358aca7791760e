package render

// MessageCard is the legacy Microsoft Teams connector card schema the
// webhook endpoint accepts.
type MessageCard struct {
	Type            string    `json:"@type"`
	Context         string    `json:"@context"`
	ThemeColor      string    `json:"themeColor"`
	Summary         string    `json:"summary"`
	Title           string    `json:"title"`
	Sections        []Section `json:"sections"`
	PotentialAction []OpenURI `json:"potentialAction,omitempty"`
}

// Section holds an ordered list of facts.
type Section struct {
	ActivityTitle string `json:"activityTitle,omitempty"`
	Facts         []Fact `json:"facts"`
	Markdown      bool   `json:"markdown"`
}

// Fact is one labelled value row of a section.
type Fact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// OpenURI is a card action opening a link.
type OpenURI struct {
	Type    string   `json:"@type"`
	Name    string   `json:"name"`
	Targets []Target `json:"targets"`
}

// Target is one OS-qualified URI of an OpenURI action.
type Target struct {
	OS  string `json:"os"`
	URI string `json:"uri"`
}
