package model

// Statistics is the leaderboard answer. Each leader is nil (JSON null) when
// there is nothing to rank yet, e.g. on an empty database.
type Statistics struct {
	TotalUsers             int             `json:"totalUsers"`
	UserWithMostPosts      *UserPostCount  `json:"userWithMostPosts"`
	PostWithMostLikes      *PostLikeCount  `json:"postWithMostLikes"`
	UserWithMostTotalLikes *UserTotalLikes `json:"userWithMostTotalLikes"`
}

type UserPostCount struct {
	Username  string `json:"username"`
	PostCount int    `json:"postCount"`
}

type PostLikeCount struct {
	PostID             string `json:"postId"`
	PostContent        string `json:"postContent"`
	PostAuthorUsername string `json:"postAuthorUsername"`
	LikeCount          int    `json:"likeCount"`
}

type UserTotalLikes struct {
	Username       string `json:"username"`
	TotalLikeCount int    `json:"totalLikeCount"`
}
