package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type Product struct {
	Id          uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string           `gorm:"type:varchar(255);not null;index"`
	Slug        string           `gorm:"type:varchar(255);uniqueIndex"`
	Description string           `gorm:"type:text"`
	Category    string           `gorm:"type:varchar(100);index"`
	Brand       string           `gorm:"type:varchar(100)"`
	Material    string           `gorm:"type:varchar(255)"`
	Status      string           `gorm:"type:varchar(20);not null;default:'active'"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductId"`
	CreatedAt   time.Time        `gorm:"autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt   `gorm:"index"`
}

func (Product) TableName() string {
	return "products"
}

type ProductVariant struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductId uuid.UUID `gorm:"type:uuid;not null;index"`
	Sku       string    `gorm:"type:varchar(100);uniqueIndex"`
	Color     string    `gorm:"type:varchar(100);index"`
	Size      string    `gorm:"type:varchar(20)"`
	Price     float64   `gorm:"type:numeric(14,2);not null"`
	Quantity  int       `gorm:"default:0"`
	Reserved  int       `gorm:"default:0"`
	IsActive  bool      `gorm:"default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

type ProductEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductId      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Document       string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text dimensions
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (ProductEmbedding) TableName() string {
	return "product_embeddings"
}
