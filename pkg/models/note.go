package models

// Note represents a free-form text object with tags
type Note struct {
	Meta
	Title  string   `json:"title" validate:"required"`
	Body   string   `json:"body,omitempty"`
	Tags   []string `json:"tags,omitempty"`
	Pinned bool     `json:"pinned"`
}

func (n *Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (n *Note) IsValid() bool {
	return n.Title != ""
}
