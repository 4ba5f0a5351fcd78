package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentChunk struct {
	Id        uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Namespace string            `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_document_chunks_ns_chunk"`
	ChunkId   string            `gorm:"type:varchar(128);not null;uniqueIndex:idx_document_chunks_ns_chunk"`
	Content   string            `gorm:"type:text;not null"`
	Embedding pgvector.Vector   `gorm:"type:vector(768)"` // Gemini text-embedding-004 uses 768 dimensions
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	Seq       int64             `gorm:"type:bigserial;autoIncrement;uniqueIndex"` // insertion order for deterministic tie-breaks
	CreatedAt time.Time         `gorm:"autoCreateTime"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
