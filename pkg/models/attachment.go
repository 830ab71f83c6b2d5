package models

// Attachment is a file uploaded alongside the message. It lives in its own
// store next to the message, not inside it.
type Attachment struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	DataURL     string `json:"data_url"`
	Description string `json:"description,omitempty"`
}

// Clone returns a copy of the attachment.
func (a *Attachment) Clone() *Attachment {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}
