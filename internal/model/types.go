package model

import "time"

// Project is the persisted aggregate for one installation project. The
// calculation tables live in Data, keyed by module name (dpms, loadsByPanel,
// thermal, voltageDrops, shortCircuit).
type Project struct {
	ProjectID          string    `json:"projectId"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Type               string    `json:"type"`
	Company            string    `json:"company"`
	Location           string    `json:"location"`
	Client             string    `json:"client"`
	ContactEmail       string    `json:"contactEmail"`
	ContactPhone       string    `json:"contactPhone"`
	OwnerID            string    `json:"ownerId"`
	Collaborators      []string  `json:"collaborators"`
	ModificationsCount int       `json:"modificationsCount"`
	Data               TableSet  `json:"data"`
	LastModifiedBy     string    `json:"lastModifiedBy"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Row is one line item of a calculation table. Rows are schemaless maps so
// every module shares the same editing and sync machinery; the "id" key is
// always present and is the sole addressing key.
type Row = map[string]any

// TableSet maps a calculation-module name to its ordered rows.
type TableSet = map[string][]Row

// IsCollaborator reports whether email is on the project's collaborator list.
func (p *Project) IsCollaborator(email string) bool {
	for _, c := range p.Collaborators {
		if c == email {
			return true
		}
	}
	return false
}

// ProjectUpdate carries optional metadata changes; nil fields are left as-is.
type ProjectUpdate struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	Type         *string `json:"type,omitempty"`
	Company      *string `json:"company,omitempty"`
	Location     *string `json:"location,omitempty"`
	Client       *string `json:"client,omitempty"`
	ContactEmail *string `json:"contactEmail,omitempty"`
	ContactPhone *string `json:"contactPhone,omitempty"`
}

// Presence is one active-user record on a project. Ephemeral, never persisted.
type Presence struct {
	UserID      string    `json:"userId"`
	ProjectID   string    `json:"projectId"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	Status      string    `json:"status"`
	JoinedAt    time.Time `json:"joinedAt"`
	LastSeen    time.Time `json:"lastSeen"`
}
