package transfer

// PublishRef identifies a post created on an external platform. URI and CID
// are only set for AT Protocol platforms; everything else uses ID.
type PublishRef struct {
	ID  string `json:"id"`
	URI string `json:"uri,omitempty"`
	CID string `json:"cid,omitempty"`
}
