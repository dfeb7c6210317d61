package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ledgerly/ledgerly-server-go/internal/model"
	"github.com/ledgerly/ledgerly-server-go/internal/service"
)

func jsonReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }

func TestContactHandler_Submit(t *testing.T) {
	t.Run("stores message", func(t *testing.T) {
		contacts := new(mockContactRepo)
		contacts.On("Create", mock.Anything, mock.Anything).Return(&model.Contact{ID: "c-1"}, nil)
		h := NewContactHandler(service.NewContactService(contacts)).Routes()

		req := httptest.NewRequest(http.MethodPost, "/",
			jsonReader([]byte(`{"name":"A","email":"a@x.com","subject":"Hi","message":"Hello"}`)))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"id":"c-1"`)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		h := NewContactHandler(service.NewContactService(new(mockContactRepo))).Routes()

		req := httptest.NewRequest(http.MethodPost, "/",
			jsonReader([]byte(`{"name":"A","email":"nope","message":"Hello"}`)))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
