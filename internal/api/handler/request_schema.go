package handler

type createRequestRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type createRequestResponse struct {
	RequestID string `json:"request_id"`
}

type acceptRequestResponse struct {
	ConversationID string `json:"conversation_id"`
}

type senderResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	ImageURL string `json:"image_url"`
}

type pendingRequestResponse struct {
	RequestID string         `json:"request_id"`
	Sender    senderResponse `json:"sender"`
}

type countResponse struct {
	Count int64 `json:"count"`
}
