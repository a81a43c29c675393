package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"go.hackfix.me/sieve/db/models"
	"go.hackfix.me/sieve/db/types"
	"go.hackfix.me/sieve/schema"
	"go.hackfix.me/sieve/web/server/handler"
)

const (
	defaultListLimit = 20
	totalCountHeader = "X-Total-Count"
)

type noteParams struct {
	ID string `json:"id" validate:"required,uuid"`
}

type notesQuery struct {
	Search *string `json:"search" validate:"omitempty,min=1"`
	Limit  int     `json:"limit" validate:"omitempty,min=1,max=100"`
}

type noteInput struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"max=10000"`
}

var (
	noteParamsSchema = schema.Struct[noteParams]()
	listNotesQuery   = schema.Struct[notesQuery]()
	updateNoteBody   = schema.Struct[noteInput](schema.Strict(), schema.StrictTypes())
	createNoteBody   = schema.MustJSON(`{
		"type": "object",
		"properties": {
			"title": {"type": "string", "minLength": 1, "maxLength": 200},
			"body": {"type": "string", "maxLength": 10000}
		},
		"required": ["title"],
		"additionalProperties": false
	}`)
)

type noteResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newNoteResponse(n *models.Note) noteResponse {
	return noteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// NotesList returns the most recent notes, optionally filtered by a search
// term in their title or body.
func (h *Handler) NotesList(r *http.Request, c *handler.Context) (*handler.Response, error) {
	q := handler.Query[notesQuery](c)

	var filter *types.Filter
	if q.Search != nil {
		filter = models.NoteSearchFilter(*q.Search)
	}
	limit := defaultListLimit
	if q.Limit > 0 {
		limit = q.Limit
	}
	filter = filter.WithLimit(limit)

	notes, err := models.Notes(r.Context(), h.appCtx.DB, filter)
	if err != nil {
		return nil, err
	}

	total, err := models.NotesCount(r.Context(), h.appCtx.DB, filter)
	if err != nil {
		return nil, err
	}

	data := make([]noteResponse, len(notes))
	for i, n := range notes {
		data[i] = newNoteResponse(n)
	}

	resp, err := handler.JSON(http.StatusOK, data)
	if err != nil {
		return nil, err
	}
	resp.Header.Set(totalCountHeader, strconv.Itoa(total))

	return resp, nil
}

// NoteCreate creates a new note.
func (h *Handler) NoteCreate(r *http.Request, c *handler.Context) (*handler.Response, error) {
	body := handler.Body[map[string]any](c)
	title, _ := body["title"].(string)
	text, _ := body["body"].(string)

	note := &models.Note{Title: title, Body: text}
	if err := note.Save(r.Context(), h.appCtx.DB, false); err != nil {
		return nil, dbError(err, "Note not found")
	}

	h.logger.Debug("created note", "id", note.ID)

	return handler.JSON(http.StatusCreated, newNoteResponse(note))
}

// NoteGet returns a single note.
func (h *Handler) NoteGet(r *http.Request, c *handler.Context) (*handler.Response, error) {
	note := &models.Note{ID: uuid.MustParse(handler.Params[noteParams](c).ID)}
	if err := note.Load(r.Context(), h.appCtx.DB); err != nil {
		return nil, dbError(err, "Note not found")
	}

	return handler.JSON(http.StatusOK, newNoteResponse(note))
}

// NoteUpdate replaces the title and body of an existing note.
func (h *Handler) NoteUpdate(r *http.Request, c *handler.Context) (*handler.Response, error) {
	in := handler.Body[noteInput](c)
	note := &models.Note{
		ID:    uuid.MustParse(handler.Params[noteParams](c).ID),
		Title: in.Title,
		Body:  in.Body,
	}
	if err := note.Save(r.Context(), h.appCtx.DB, true); err != nil {
		return nil, dbError(err, "Note not found")
	}

	return handler.JSON(http.StatusOK, newNoteResponse(note))
}

// NoteDelete deletes a note.
func (h *Handler) NoteDelete(r *http.Request, c *handler.Context) (*handler.Response, error) {
	note := &models.Note{ID: uuid.MustParse(handler.Params[noteParams](c).ID)}
	if err := note.Delete(r.Context(), h.appCtx.DB); err != nil {
		return nil, dbError(err, "Note not found")
	}

	return nil, nil
}
