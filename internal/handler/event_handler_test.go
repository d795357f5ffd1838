package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gracechapel-dev/church-site-api/internal/models"
	"github.com/gracechapel-dev/church-site-api/internal/service"
)

type fakeEventRepo struct {
	mu        sync.Mutex
	events    []models.Event
	listErr   error
	inserted  [][]models.Event
	batchErr  error
	updated   map[string]string
	cleared   [][]string
	createdID string
}

func (f *fakeEventRepo) List(_ context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var out []models.Event
	for _, e := range f.events {
		if filter.IsPublished != nil && e.IsPublished != *filter.IsPublished {
			continue
		}
		if filter.IsFeatured != nil && e.IsFeatured != *filter.IsFeatured {
			continue
		}
		if filter.IsRecurring != nil && e.IsRecurring != *filter.IsRecurring {
			continue
		}
		out = append(out, e)
	}
	return out, len(out), nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, id string) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.events {
		if f.events[i].ID == id {
			e := f.events[i]
			return &e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEventRepo) Create(_ context.Context, event *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event.ID = "ev-created"
	f.createdID = event.ID
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeEventRepo) Update(_ context.Context, event *models.Event) error {
	return nil
}

func (f *fakeEventRepo) Delete(_ context.Context, id string) error {
	return nil
}

func (f *fakeEventRepo) InsertBatch(_ context.Context, events []models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batchErr != nil {
		return f.batchErr
	}
	f.inserted = append(f.inserted, events)
	return nil
}

func (f *fakeEventRepo) UpdateDate(_ context.Context, id, date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = make(map[string]string)
	}
	f.updated[id] = date
	return nil
}

func (f *fakeEventRepo) ClearFeatured(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, ids)
	return nil
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error map[string]interface{} `json:"error"`
}

func newEventHandler(repo *fakeEventRepo) *EventHandler {
	events := service.NewEventService(repo, nil, nil, zap.NewNop())
	featured := service.NewFeaturedService(repo, nil, 0, zap.NewNop())
	recurrence := service.NewRecurrenceService(repo, 50, 0, zap.NewNop())
	export := service.NewExportService(repo, zap.NewNop(), nil, nil)
	ics := service.NewICSService(repo, "Test Calendar", zap.NewNop())
	return NewEventHandler(events, featured, recurrence, export, ics)
}

func TestEventHandlerFeatured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeEventRepo{events: []models.Event{
		{ID: "ev-1", Title: "Sunday Service", Date: "2999-01-01", Time: "10:30", IsPublished: true, IsFeatured: true},
	}}
	h := newEventHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/events/featured", nil)

	h.Featured(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var result service.FeaturedResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.NotNil(t, result.FeaturedEvent)
	assert.Equal(t, "ev-1", result.FeaturedEvent.ID)
}

func TestEventHandlerListPublicDegradesOnError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeEventRepo{listErr: errors.New("db down")}
	h := newEventHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/events", nil)

	h.ListPublic(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var events []models.Event
	require.NoError(t, json.Unmarshal(env.Data, &events))
	assert.Empty(t, events)
}

func TestEventHandlerGetPublicHidesDrafts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeEventRepo{events: []models.Event{
		{ID: "draft", Title: "Planning Meeting", Date: "2999-01-01", Time: "10:00"},
	}}
	h := newEventHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/events/draft", nil)
	c.Params = gin.Params{{Key: "id", Value: "draft"}}

	h.GetPublic(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeEventRepo{}
	h := newEventHandler(repo)

	payload := GenerateRequest{
		Template: models.RecurringTemplate{
			Title:     "Thursday Bible Study",
			Time:      "19:00",
			DayOfWeek: 4,
			StartDate: "2025-01-01",
		},
		HorizonEnd: "2025-01-22",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/events/generate", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Generate(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var result models.BatchResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 3, result.InsertedCount)
	assert.Empty(t, result.Errors)
}

func TestEventHandlerGenerateRejectsBadTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newEventHandler(&fakeEventRepo{})

	payload := GenerateRequest{
		Template:   models.RecurringTemplate{Title: "Bad", Time: "19:00", DayOfWeek: 9, StartDate: "2025-01-01"},
		HorizonEnd: "2025-01-22",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/events/generate", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Generate(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventHandlerRepairDates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeEventRepo{events: []models.Event{
		{ID: "drifted", Title: "Thursday Bible Study", Date: "2025-01-03", Time: "19:00", IsPublished: true, IsRecurring: true},
	}}
	h := newEventHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/events/repair-dates", nil)

	h.RepairDates(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var result models.RepairResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1, result.CorrectedCount)
	assert.Equal(t, "2025-01-02", repo.updated["drifted"])
}

func TestEventHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeEventRepo{events: []models.Event{
		{ID: "ev-1", Title: "Sunday Service", Date: "2025-06-01", Time: "10:30", IsPublished: true},
	}}
	h := newEventHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/events/export?format=csv", nil)

	h.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Body.String(), "Sunday Service")
}

func TestEventHandlerICSFeed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeEventRepo{events: []models.Event{
		{ID: "ev-1", Title: "Sunday Service", Date: "2025-06-01", Time: "10:30", IsPublished: true},
	}}
	h := newEventHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/events.ics", nil)

	h.ICSFeed(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, rec.Body.String(), "Sunday Service")
}
