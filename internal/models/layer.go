package models

// LayerDetail is one decoded layer as shown in the detail panel.
type LayerDetail struct {
	Name   string       `json:"name"`
	Fields []LayerField `json:"fields"`
}

// LayerField represents a single field within a layer.
type LayerField struct {
	Name     string       `json:"name"`
	Value    string       `json:"value"`
	Children []LayerField `json:"children,omitempty"`
}
