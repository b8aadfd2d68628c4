package dto

// POST /user/sync 回應
type SyncResponseDto struct {
	Message string           `json:"message"`
	UserID  string           `json:"userId"`
	User    *UserResponseDto `json:"user"`
}

// GET /user/sync 回應
type SyncStatusDto struct {
	Exists bool             `json:"exists"`
	User   *UserResponseDto `json:"user,omitempty"`
}
