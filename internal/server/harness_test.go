package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/confirmations"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/database"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/integrity"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/invitations"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/songs"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/store"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/transports"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/uploads"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type testServer struct {
	handler http.Handler
	files   afero.Fs
	events  *ChangeDispatcher
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "wedding.db"), logger)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close(db)
	})

	ids := store.NewUUIDProvider()
	invitationService, err := invitations.NewService(invitations.ServiceConfig{Database: db, IDProvider: ids, Logger: logger})
	if err != nil {
		t.Fatalf("failed to build invitations service: %v", err)
	}
	references, err := integrity.NewReferenceValidator(db, invitations.TableName)
	if err != nil {
		t.Fatalf("failed to build reference validator: %v", err)
	}
	links, err := integrity.NewUniquenessValidator(db, songs.TableName, songs.LinkColumn)
	if err != nil {
		t.Fatalf("failed to build link validator: %v", err)
	}
	confirmationService, err := confirmations.NewService(confirmations.ServiceConfig{
		Database: db, IDProvider: ids, References: references, Invitations: invitationService, Logger: logger,
	})
	if err != nil {
		t.Fatalf("failed to build confirmations service: %v", err)
	}
	transportService, err := transports.NewService(transports.ServiceConfig{
		Database: db, IDProvider: ids, References: references, Invitations: invitationService, Logger: logger,
	})
	if err != nil {
		t.Fatalf("failed to build transports service: %v", err)
	}
	songService, err := songs.NewService(songs.ServiceConfig{
		Database: db, IDProvider: ids, References: references, Links: links, Invitations: invitationService, Logger: logger,
	})
	if err != nil {
		t.Fatalf("failed to build songs service: %v", err)
	}

	files := afero.NewMemMapFs()
	uploadStore, err := uploads.NewStore(uploads.Config{Filesystem: files, Directory: "uploads", MaxFiles: 3, Logger: logger})
	if err != nil {
		t.Fatalf("failed to build upload store: %v", err)
	}

	events := NewChangeDispatcher()
	handler, err := NewHTTPHandler(Dependencies{
		Invitations:       invitationService,
		Confirmations:     confirmationService,
		Transports:        transportService,
		Songs:             songService,
		Uploads:           uploadStore,
		Health:            database.NewPinger(db),
		Events:            events,
		Logger:            logger,
		HeartbeatInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to construct http handler: %v", err)
	}
	return testServer{handler: handler, files: files, events: events}
}

func (s testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, request)
	return recorder
}

func (s testServer) createInvitation(t *testing.T, title string) string {
	t.Helper()
	recorder := s.do(t, http.MethodPost, "/api/invitaciones", map[string]any{"titulo": title, "template": "clasico"})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected invitation to be created, got %d: %s", recorder.Code, recorder.Body.String())
	}
	return decodeObject(t, recorder)["_id"].(string)
}

func decodeObject(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
	return payload
}

func decodeList(t *testing.T, recorder *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var payload []map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
	return payload
}

func expectStatus(t *testing.T, recorder *httptest.ResponseRecorder, status int) {
	t.Helper()
	if recorder.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, recorder.Code, recorder.Body.String())
	}
}

type uploadPart struct {
	filename    string
	contentType string
	body        string
}

func multipartRequest(t *testing.T, path, field string, parts ...uploadPart) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, part := range parts {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, part.filename))
		header.Set("Content-Type", part.contentType)
		partWriter, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("failed to create part: %v", err)
		}
		if _, err := io.WriteString(partWriter, part.body); err != nil {
			t.Fatalf("failed to write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	request := httptest.NewRequest(http.MethodPost, path, &body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	return request
}
