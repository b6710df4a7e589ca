package transfer

type BlueskySession struct {
	DID        string `json:"did"`
	Handle     string `json:"handle"`
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
}

type BlueskyProfile struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

type BlueskyRecordRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

type BlueskyError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
