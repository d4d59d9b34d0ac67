package model

// UserStats aggregates a single player's game history.
type UserStats struct {
	Played                     int      `json:"played"`
	Unfinished                 int      `json:"unfinished"`
	Wins                       int      `json:"wins"`
	Losses                     int      `json:"losses"`
	AvgInvalidQuestionsPerGame *float64 `json:"avg_invalid_questions_per_game"`
	AvgQuestionsToWin          *float64 `json:"avg_questions_to_win"`
}

// ServerStats aggregates games across all players.
type ServerStats struct {
	UsersCount                 int      `json:"users_count"`
	Played                     int      `json:"played"`
	Unfinished                 int      `json:"unfinished"`
	Wins                       int      `json:"wins"`
	Losses                     int      `json:"losses"`
	AvgInvalidQuestionsPerGame *float64 `json:"avg_invalid_questions_per_game"`
	AvgQuestionsToWin          *float64 `json:"avg_questions_to_win"`
}

// UserMeta is the profile payload returned to the presentation layer.
type UserMeta struct {
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Stats    UserStats `json:"stats"`
}
