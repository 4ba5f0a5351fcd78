package dto

type IngestChunk struct {
	ChunkId  string                 `json:"chunk_id" validate:"required"`
	Content  string                 `json:"content" validate:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

type IngestDocumentRequest struct {
	DocumentId string        `json:"document_id" validate:"required"`
	Chunks     []IngestChunk `json:"chunks" validate:"required,min=1,dive"`
}

type IngestDocumentResponse struct {
	DocumentId string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
	Status     string `json:"status"`
}

type DeleteDocumentResponse struct {
	DeletedCount int `json:"deleted_count"`
}

// PublishIndexDocumentMessage travels over the in-process bus from the
// ingest endpoint to the indexing consumer.
type PublishIndexDocumentMessage struct {
	OrgId      string        `json:"org_id"`
	DocumentId string        `json:"document_id"`
	Chunks     []IngestChunk `json:"chunks"`
}

type OrgStatsResponse struct {
	TotalChunks     int64  `json:"total_chunks"`
	UniqueDocuments int64  `json:"unique_documents"`
	Namespace       string `json:"namespace"`
	ActiveSessions  int    `json:"active_sessions"`
}
