package transfer

// PostCreation is the submit payload for a single post. Selections carries
// the serialized selection set exactly as the client composer holds it.
type PostCreation struct {
	Content    string  `json:"content"`
	Selections string  `json:"selections"`
	MediaIDs   []int64 `json:"media_ids"`
}

// ThreadCreation is the submit payload for a linked sequence of posts. The
// first content becomes the thread root.
type ThreadCreation struct {
	Contents   []string `json:"contents"`
	Selections string   `json:"selections"`
}

type DraftSave struct {
	Content    string  `json:"content"`
	Selections string  `json:"selections"`
	IsThread   bool    `json:"is_thread"`
	MediaIDs   []int64 `json:"media_ids"`
}

type ValidateRequest struct {
	Content    string `json:"content"`
	Selections string `json:"selections"`
}

type SplittingConfigSave struct {
	Name       string   `json:"name"`
	Strategies []string `json:"strategies"`
}

type SplitPreviewRequest struct {
	Content    string `json:"content"`
	PlatformID string `json:"platform_id"`
	ConfigID   int64  `json:"config_id"`
}
