package domain

// User models an account provisioned by the external identity provider.
// The core never writes users; they arrive through the provisioning webhook
// and are read-only everywhere else.
type User struct {
	ID       string `json:"id"`
	ClerkID  string `json:"-"`
	Email    string `json:"email"`
	Username string `json:"username"`
	ImageURL string `json:"image_url"`
}
