package domain

// LeaderboardEntry is a ranked row of the points table.
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Points    int    `json:"points"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
