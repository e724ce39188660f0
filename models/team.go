package models

type Team struct {
	TeamID       string `json:"teamId"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	URL          string `json:"url"`
	BillingEmail string `json:"billingEmail"`
	Role         string `json:"role,omitempty"`
}

func (t Team) Equal(o Team) bool {
	return t.TeamID == o.TeamID &&
		t.Name == o.Name &&
		t.Description == o.Description &&
		t.URL == o.URL &&
		t.BillingEmail == o.BillingEmail
}

// TeamUpdate is the PUT body of a team.
type TeamUpdate struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	URL          string `json:"url"`
	BillingEmail string `json:"billingEmail"`
}

func (t Team) Update() TeamUpdate {
	return TeamUpdate{
		Name:         t.Name,
		Description:  t.Description,
		URL:          t.URL,
		BillingEmail: t.BillingEmail,
	}
}
