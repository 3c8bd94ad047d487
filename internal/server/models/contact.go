package models

// ContactMessage is a contact form submission. It is mailed, not stored.
type ContactMessage struct {
	Email   string `json:"email" validate:"required,email,max=254"`
	Company string `json:"company" validate:"max=200"`
	Person  string `json:"person" validate:"max=200"`
	Content string `json:"content" validate:"required,max=5000"`
}
