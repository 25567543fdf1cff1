package domain

import "time"

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusExpired   SessionStatus = "expired"
)

type Interest struct {
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory,omitempty"`
	Confidence  float64 `json:"confidence"`
}

type SocialLink struct {
	Platform Platform `json:"platform"`
	URL      string   `json:"url"`
	Verified bool     `json:"verified"`
}

type BudgetRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

type GifteeInfo struct {
	Age          *int         `json:"age,omitempty"`
	Gender       string       `json:"gender,omitempty"`
	Occasion     string       `json:"occasion,omitempty"`
	Relationship string       `json:"relationship,omitempty"`
	Budget       *BudgetRange `json:"budget,omitempty"`
}

// Session is the long-lived record backing one gift-finding interaction.
// It is a passive document: validation happens at the API boundary, the
// store itself adds no behavior.
type Session struct {
	SessionID     string       `json:"sessionId"`
	Interests     []Interest   `json:"interests"`
	SocialLinks   []SocialLink `json:"socialLinks,omitempty"`
	GifteeInfo    *GifteeInfo  `json:"gifteeInfo,omitempty"`
	UploadedFiles []string     `json:"uploadedFiles,omitempty"`
	Status        SessionStatus `json:"status"`
	LastActivity  time.Time    `json:"lastActivity"`
	ExpiresAt     time.Time    `json:"expiresAt"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

func (s *Session) IsExpired() bool {
	return s.ExpiresAt.Before(time.Now())
}
