package model

// DocumentChunk is the unit of embedding and retrieval. Order is 0-based and
// contiguous within an asset; it fixes the chunk's position both in sequence
// and as citation index when the chunk list is shown to a model.
type DocumentChunk struct {
	ID        int64                  `json:"id"`
	ProjectID string                 `json:"project_id"`
	AssetID   string                 `json:"asset_id"`
	Order     int                    `json:"chunk_order"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata"`
}
