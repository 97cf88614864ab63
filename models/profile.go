package models

import "time"

// Profile is the one-per-owner aggregate. Optional scalars are nil until set.
type Profile struct {
	ID             string       `json:"id"`
	OwnerID        string       `json:"-"`
	Owner          ProfileOwner `json:"user"`
	Company        *string      `json:"company,omitempty"`
	Website        *string      `json:"website,omitempty"`
	Location       *string      `json:"location,omitempty"`
	Bio            *string      `json:"bio,omitempty"`
	Status         *string      `json:"status,omitempty"`
	GitHubUsername *string      `json:"githubusername,omitempty"`
	Skills         []string     `json:"skills"`
	Social         Social       `json:"social"`
	Experience     []Experience `json:"experience"`
	CreatedAt      time.Time    `json:"date"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// ProfileOwner is the subset of the owning user shown alongside a profile.
// Name and Avatar are empty when the profile was not loaded with its owner.
type ProfileOwner struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type Social struct {
	YouTube   string `json:"youtube,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

// Experience entries have no identity of their own; they are addressed by
// position in Profile.Experience, most recent first.
type Experience struct {
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	From        time.Time  `json:"from"`
	To          *time.Time `json:"to,omitempty"`
	Current     bool       `json:"current"`
	Description string     `json:"description,omitempty"`
}

// ProfilePatch is the sparse change set applied by an upsert. Unset fields
// keep their stored value; Social holds only the keys that were supplied.
type ProfilePatch struct {
	Company        Optional[string]
	Website        Optional[string]
	Location       Optional[string]
	Bio            Optional[string]
	Status         Optional[string]
	GitHubUsername Optional[string]
	Skills         Optional[[]string]
	Social         map[string]string
}

// Empty reports whether applying the patch would change nothing.
func (p ProfilePatch) Empty() bool {
	return !p.Company.Set && !p.Website.Set && !p.Location.Set && !p.Bio.Set &&
		!p.Status.Set && !p.GitHubUsername.Set && !p.Skills.Set && len(p.Social) == 0
}
