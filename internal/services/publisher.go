package services

import "github.com/isdelr/yellownote-be/internal/models"

// NotePublisher fans note changes out to live board subscribers.
type NotePublisher interface {
	PublishNote(boardID, action string, note models.Note)
}

type noopPublisher struct{}

func (noopPublisher) PublishNote(string, string, models.Note) {}

func publisherOrNoop(p NotePublisher) NotePublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
