package domain

// Quota holds the remaining free-tier allowances reported by the backend.
type Quota struct {
	ImagesRemaining int `json:"images_remaining"`
	ChatsRemaining  int `json:"chats_remaining"`
}

// ImagesLeft returns the image allowance, treating an unknown quota as exhausted.
func (q *Quota) ImagesLeft() int {
	if q == nil {
		return 0
	}
	return q.ImagesRemaining
}

// ChatsLeft returns the chat allowance, treating an unknown quota as exhausted.
func (q *Quota) ChatsLeft() int {
	if q == nil {
		return 0
	}
	return q.ChatsRemaining
}
