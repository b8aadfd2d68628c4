package model

// MessageEventLog 每則新訊息一筆，供稽核與客服報表
type MessageEventLog struct {
	RequestID      string `bson:"request_id,omitempty" json:"request_id,omitempty"`
	ProjectName    string `bson:"project_name,omitempty" json:"project_name,omitempty"`
	ConversationID string `bson:"conversation_id" json:"conversation_id"`
	MessageID      string `bson:"message_id" json:"message_id"`
	SenderID       string `bson:"sender_id" json:"sender_id"`
	SenderRole     string `bson:"sender_role,omitempty" json:"sender_role,omitempty"`
	ContentLength  int    `bson:"content_length" json:"content_length"`
	Attachments    int    `bson:"attachments" json:"attachments"`
	Rejected       int    `bson:"attachments_rejected,omitempty" json:"attachments_rejected,omitempty"`
	Version        string `bson:"version" json:"version"`
	LoggedAt       string `bson:"logged_at" json:"logged_at"`
}
