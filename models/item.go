package models

import "time"

// RawItem is an unprocessed signal as published by the ingestion side.
// The pipeline never mutates it.
type RawItem struct {
	ID         string                 `bson:"_id" json:"id"`
	SourceType string                 `bson:"source_type" json:"source_type"`
	ScrapedAt  time.Time              `bson:"scraped_at" json:"scraped_at"`
	RawData    map[string]interface{} `bson:"raw_data" json:"raw_data"`
}

// EntitySet groups extracted terms by category.
type EntitySet struct {
	Organizations []string `bson:"organizations" json:"organizations"`
	Technologies  []string `bson:"technologies" json:"technologies"`
	BusinessTerms []string `bson:"business_terms" json:"business_terms"`
	PainPoints    []string `bson:"pain_points" json:"pain_points"`
	Opportunities []string `bson:"opportunities" json:"opportunities"`
}

// Keyword is a ranked keyword extracted from cleaned text.
type Keyword struct {
	Keyword        string  `bson:"keyword" json:"keyword"`
	Frequency      int     `bson:"frequency" json:"frequency"`
	RelevanceScore float64 `bson:"relevance_score" json:"relevance_score"`
	FinalScore     float64 `bson:"final_score" json:"final_score"`
}

// CleanItem is the normalized, entity-annotated form of exactly one RawItem.
// It is created once by the normalizer and fanned out read-only to the
// embedding and scoring consumers.
type CleanItem struct {
	ID               string                 `bson:"_id" json:"id"`
	SourceType       string                 `bson:"source_type" json:"source_type"`
	CleanedText      string                 `bson:"cleaned_text" json:"cleaned_text"`
	Entities         EntitySet              `bson:"entities" json:"entities"`
	Keywords         []Keyword              `bson:"keywords" json:"keywords"`
	ProcessedAt      time.Time              `bson:"processed_at" json:"processed_at"`
	ProcessorVersion string                 `bson:"processor_version" json:"processor_version"`
	OriginalData     map[string]interface{} `bson:"original_data" json:"original_data"`
}
