package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/apperr"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type testFile struct {
	name        string
	contentType string
	body        string
}

func buildFileHeaders(t *testing.T, field string, files ...testFile) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, file := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, file.name))
		header.Set("Content-Type", file.contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = io.WriteString(part, file.body)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	request := httptest.NewRequest(http.MethodPost, "/upload", &body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, request.ParseMultipartForm(1<<20))
	return request.MultipartForm.File[field]
}

func newTestStore(t *testing.T, fs afero.Fs) *Store {
	t.Helper()
	store, err := NewStore(Config{
		Filesystem: fs,
		Directory:  "uploads",
		MaxFiles:   3,
		Clock:      func() time.Time { return time.UnixMilli(1760000000000) },
	})
	require.NoError(t, err)
	return store
}

func TestValidateImage(t *testing.T) {
	cases := []struct {
		name        string
		filename    string
		contentType string
		accepted    bool
	}{
		{name: "png", filename: "photo.png", contentType: "image/png", accepted: true},
		{name: "upper-case-extension", filename: "PHOTO.JPG", contentType: "image/jpeg", accepted: true},
		{name: "gif-with-params", filename: "a.gif", contentType: "image/gif; charset=binary", accepted: true},
		{name: "text", filename: "photo.txt", contentType: "text/plain", accepted: false},
		{name: "extension-mismatch", filename: "photo.txt", contentType: "image/png", accepted: false},
		{name: "type-mismatch", filename: "photo.png", contentType: "application/pdf", accepted: false},
		{name: "webp", filename: "photo.webp", contentType: "image/webp", accepted: false},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			err := ValidateImage(testCase.filename, testCase.contentType)
			if testCase.accepted {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, apperr.UnsupportedMediaTypeKind)
		})
	}
}

func TestSavePersistsUnderUniqueName(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := newTestStore(t, fs)

	headers := buildFileHeaders(t, "image", testFile{name: "mi foto.png", contentType: "image/png", body: "png-bytes"})
	stored, err := store.Save(context.Background(), headers[0])
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(stored.Filename, "1760000000000-"))
	require.True(t, strings.HasSuffix(stored.Filename, "-mi_foto.png"))
	require.Equal(t, "/images/"+stored.Filename, stored.URL)
	require.EqualValues(t, len("png-bytes"), stored.Size)

	content, err := afero.ReadFile(fs, "uploads/"+stored.Filename)
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(content))
}

func TestSaveRejectsTextFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := newTestStore(t, fs)

	headers := buildFileHeaders(t, "image", testFile{name: "photo.txt", contentType: "text/plain", body: "hello"})
	_, err := store.Save(context.Background(), headers[0])
	require.ErrorIs(t, err, apperr.UnsupportedMediaTypeKind)

	entries, err := afero.ReadDir(fs, "uploads")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSaveAllValidatesEveryFileFirst(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := newTestStore(t, fs)

	headers := buildFileHeaders(t, "images",
		testFile{name: "a.png", contentType: "image/png", body: "a"},
		testFile{name: "b.txt", contentType: "text/plain", body: "b"},
	)
	_, err := store.SaveAll(context.Background(), headers)
	require.ErrorIs(t, err, apperr.UnsupportedMediaTypeKind)

	entries, err := afero.ReadDir(fs, "uploads")
	require.NoError(t, err)
	require.Empty(t, entries, "no file may be written when any file is rejected")
}

func TestSaveAllEnforcesFileLimit(t *testing.T) {
	store := newTestStore(t, afero.NewMemMapFs())

	files := make([]testFile, 4)
	for i := range files {
		files[i] = testFile{name: fmt.Sprintf("%d.png", i), contentType: "image/png", body: "x"}
	}
	_, err := store.SaveAll(context.Background(), buildFileHeaders(t, "images", files...))
	require.ErrorIs(t, err, apperr.ValidationKind)
}

func TestSaveAllRemovesWrittenFilesWhenLaterWriteFails(t *testing.T) {
	base := afero.NewMemMapFs()
	store := newTestStore(t, base)

	headers := buildFileHeaders(t, "images",
		testFile{name: "a.png", contentType: "image/png", body: "a"},
		testFile{name: "b.png", contentType: "image/png", body: "b"},
	)
	store.fs = &failAfterFs{Fs: store.fs, allowed: 1}

	_, err := store.SaveAll(context.Background(), headers)
	require.ErrorIs(t, err, apperr.StorageKind)

	entries, err := afero.ReadDir(base, "uploads")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestFileSystemServesFilesButNotDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := newTestStore(t, fs)

	headers := buildFileHeaders(t, "image", testFile{name: "photo.png", contentType: "image/png", body: "png"})
	stored, err := store.Save(context.Background(), headers[0])
	require.NoError(t, err)

	served := store.FileSystem()
	file, err := served.Open("/" + stored.Filename)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	_, err = served.Open("/")
	require.Error(t, err)
}

// failAfterFs lets the first allowed file creations through and fails the rest.
type failAfterFs struct {
	afero.Fs
	allowed int
}

func (f *failAfterFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if f.allowed <= 0 {
		return nil, errors.New("disk full")
	}
	f.allowed--
	return f.Fs.OpenFile(name, flag, perm)
}
