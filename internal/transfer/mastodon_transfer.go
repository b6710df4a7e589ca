package transfer

type MastodonTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	CreatedAt   int64  `json:"created_at"`
}

type MastodonAccount struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
}

type MastodonStatus struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	InReplyTo string `json:"in_reply_to_id"`
}

type MastodonErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}
