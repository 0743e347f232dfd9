package domain

// Contributor is one row of the public leaderboard: an author's public
// lessons aggregated.
type Contributor struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Image        string `json:"image"`
	LessonsCount int    `json:"lessonsCount"`
	TotalViews   int64  `json:"totalViews"`
	TotalLikes   int    `json:"totalLikes"`
	IsPremium    bool   `json:"isPremium"`
}

// Stats are the admin dashboard totals.
type Stats struct {
	Users             int `json:"users"`
	PremiumUsers      int `json:"premiumUsers"`
	Admins            int `json:"admins"`
	Lessons           int `json:"lessons"`
	PublicLessons     int `json:"publicLessons"`
	PremiumLessons    int `json:"premiumLessons"`
	FeaturedLessons   int `json:"featuredLessons"`
	Comments          int `json:"comments"`
	Favorites         int `json:"favorites"`
	UnresolvedReports int `json:"unresolvedReports"`
}
