package flow

import (
	"github.com/amanullahtanweer/unibot/internal/classify"
	"github.com/amanullahtanweer/unibot/internal/dataset"
	"github.com/amanullahtanweer/unibot/internal/intent"
	"github.com/amanullahtanweer/unibot/internal/keywords"
	"github.com/amanullahtanweer/unibot/internal/recommend"
)

// Conversation is the transport a session talks over: a terminal, a
// websocket, or a script in tests. Ask blocks until the user answers;
// io.EOF means the user went away.
type Conversation interface {
	ID() string
	Say(text string) error
	Ask(prompt string) (string, error)
}

// Assistant bundles the immutable components every session shares.
type Assistant struct {
	Tables       *keywords.Tables
	Catalog      *dataset.Catalog
	Classifier   *classify.Classifier
	Intent       *intent.Parser
	Sports       *recommend.Sports
	Associations *recommend.Associations
	Events       *recommend.Events
}

// NewAssistant builds every component from one set of keyword tables.
func NewAssistant(tables *keywords.Tables, catalog *dataset.Catalog) *Assistant {
	return &Assistant{
		Tables:       tables,
		Catalog:      catalog,
		Classifier:   classify.New(tables),
		Intent:       intent.New(tables),
		Sports:       recommend.NewSports(tables),
		Associations: recommend.NewAssociations(tables),
		Events:       recommend.NewEvents(tables),
	}
}
