package domain

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies a supported social network. Arbitrary strings are
// rejected at the boundary; only the values below enter the domain model.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformTikTok    Platform = "tiktok"
	PlatformPinterest Platform = "pinterest"
)

func (p Platform) String() string {
	return string(p)
}

func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformInstagram:
		return PlatformInstagram, nil
	case PlatformTwitter:
		return PlatformTwitter, nil
	case PlatformFacebook:
		return PlatformFacebook, nil
	case PlatformTikTok:
		return PlatformTikTok, nil
	case PlatformPinterest:
		return PlatformPinterest, nil
	default:
		return "", fmt.Errorf("unknown platform: %q", s)
	}
}

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

type MediaRef struct {
	Type MediaType `json:"type"`
	URL  string    `json:"url"`
}

// SocialPost is one item from a social feed. Immutable once fetched; it is
// only persisted embedded in a SocialDataCache.
type SocialPost struct {
	Platform  Platform   `json:"platform"`
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	Timestamp string     `json:"timestamp"`
	Likes     *int       `json:"likes,omitempty"`
	Shares    *int       `json:"shares,omitempty"`
	Comments  *int       `json:"comments,omitempty"`
	Media     []MediaRef `json:"media,omitempty"`
}

// SocialProfile summarizes one account. One profile per (session, platform).
type SocialProfile struct {
	Platform    Platform `json:"platform"`
	Username    string   `json:"username"`
	DisplayName string   `json:"displayName,omitempty"`
	Bio         string   `json:"bio,omitempty"`
	Followers   *int     `json:"followers,omitempty"`
	Following   *int     `json:"following,omitempty"`
	LastUpdated string   `json:"lastUpdated"`
}

// InterestSignal is a weighted category label inferred from post text.
//
// Confidence is a weight normalized against the maximum weight in the same
// extraction batch, so the top signal is always exactly 1.0 and the rest
// scale proportionally. It is not a probability and is not comparable
// across sessions.
type InterestSignal struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

type SocialDataMetadata struct {
	LastScraped        string     `json:"lastScraped"`
	Platforms          []Platform `json:"platforms"`
	TotalPostsAnalyzed int        `json:"totalPostsAnalyzed"`
	CachedAt           string     `json:"cachedAt,omitempty"`
}

// SocialDataCache is the aggregate cached per session. It is always written
// as a whole from one successful pipeline run; there is no partial update.
type SocialDataCache struct {
	SessionID   string             `json:"sessionId"`
	Profiles    []*SocialProfile   `json:"profiles"`
	RecentPosts []*SocialPost      `json:"recentPosts"`
	Interests   []*InterestSignal  `json:"interests"`
	Metadata    SocialDataMetadata `json:"metadata"`
}

func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
