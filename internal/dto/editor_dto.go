package dto

type EditorSessionResponse struct {
	Id         string   `json:"id"`
	Text       string   `json:"text"`
	Cursor     int      `json:"cursor"`
	State      string   `json:"state"`
	Suggestion *string  `json:"suggestion"`
	SourceIds  []string `json:"source_ids"`
	Model      string   `json:"model"`
}
