package models

// Profile is the account metadata returned by the users endpoint.
type Profile struct {
	Login     string `json:"login"`
	Name      string `json:"name,omitempty"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatar_url"`
	Followers int    `json:"followers"`
	Following int    `json:"following"`
	HTMLURL   string `json:"html_url"`
}

// DisplayName returns the display name, falling back to the login.
func (p *Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Login
}
