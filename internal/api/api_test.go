package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	goimage "image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/DMarby/instafilter/internal/api"
	"github.com/DMarby/instafilter/internal/codec"
	"github.com/DMarby/instafilter/internal/database"
	"github.com/DMarby/instafilter/internal/filter"
	"github.com/DMarby/instafilter/internal/health"
	"github.com/DMarby/instafilter/internal/hmac"
	"github.com/DMarby/instafilter/internal/image"
	"github.com/DMarby/instafilter/internal/image/render"
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/params"
	"github.com/DMarby/instafilter/internal/pipeline"
	"github.com/DMarby/instafilter/internal/session"
	"github.com/DMarby/instafilter/internal/storage"
	"github.com/DMarby/instafilter/internal/tracing/test"
	"go.uber.org/zap"

	fileDatabase "github.com/DMarby/instafilter/internal/database/file"
	mockDatabase "github.com/DMarby/instafilter/internal/database/mock"

	mockProcessor "github.com/DMarby/instafilter/internal/image/mock"

	fileStorage "github.com/DMarby/instafilter/internal/storage/file"

	memoryCache "github.com/DMarby/instafilter/internal/cache/memory"
)

const rootURL = "https://example.com"

const manifest = `[
	{"id": "1", "author": "John Doe", "width": 24, "height": 16, "url": "https://picsum.photos"},
	{"id": "2", "author": "John Doe", "width": 24, "height": 16, "url": "https://picsum.photos"}
]`

type fixture struct {
	source    *goimage.NRGBA
	storage   *fileStorage.Provider
	db        *fileDatabase.Provider
	processor *render.Processor
	sessions  *session.Store
	api       *api.API
}

func setup(t *testing.T) *fixture {
	log := logger.New(zap.FatalLevel)
	tracer := test.Tracer(log)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	dir := t.TempDir()

	source := goimage.NewNRGBA(goimage.Rect(0, 0, 24, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 24; x++ {
			source.SetNRGBA(x, y, color.NRGBA{uint8(x * 10), uint8(y * 15), 80, 255})
		}
	}

	buf, err := codec.Encode(source, codec.PNG)
	if err != nil {
		t.Fatal(err)
	}

	// Photo 2 is in the catalog but missing from storage
	if err := os.WriteFile(filepath.Join(dir, storage.PhotoKey("1")), buf, 0644); err != nil {
		t.Fatal(err)
	}

	manifestPath := filepath.Join(dir, "metadata.json")
	if err := os.WriteFile(manifestPath, []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	storageProvider, err := fileStorage.New(dir)
	if err != nil {
		t.Fatal(err)
	}

	db, err := fileDatabase.New(manifestPath)
	if err != nil {
		t.Fatal(err)
	}

	cache := image.NewCache(tracer, memoryCache.New(0), storageProvider)
	processor := render.New(ctx, log, tracer, 2, cache)
	sessions := session.NewStore(log, processor, cache, storageProvider, time.Hour)

	checker := &health.Checker{Ctx: ctx, Storage: storageProvider, PhotoID: "1", Database: db, Log: log}
	checker.Run()

	return &fixture{
		source:    source,
		storage:   storageProvider,
		db:        db,
		processor: processor,
		sessions:  sessions,
		api: &api.API{
			Database:       db,
			ImageProcessor: processor,
			Sessions:       sessions,
			HealthChecker:  checker,
			Log:            log,
			Tracer:         tracer,
			RootURL:        rootURL,
			HandlerTimeout: time.Minute,
		},
	}
}

func (f *fixture) router(modify func(a *api.API)) http.Handler {
	a := *f.api
	if modify != nil {
		modify(&a)
	}

	return a.Router()
}

func marshalJson(v interface{}) []byte {
	fixture, _ := json.Marshal(v)
	return append(fixture, '\n')
}

func TestAPI(t *testing.T) {
	f := setup(t)

	router := f.router(nil)
	mockDatabaseRouter := f.router(func(a *api.API) { a.Database = &mockDatabase.Provider{} })
	mockProcessorRouter := f.router(func(a *api.API) { a.ImageProcessor = &mockProcessor.Processor{} })

	photo := func(id string) api.Photo {
		return api.Photo{
			Image: database.Image{
				ID:     id,
				Author: "John Doe",
				Width:  24,
				Height: 16,
				URL:    "https://picsum.photos",
			},
			RenderURL: fmt.Sprintf("%s/id/%s/SepiaTone.jpg?intensity=0.5", rootURL, id),
		}
	}

	tests := []struct {
		Name             string
		URL              string
		Router           http.Handler
		ExpectedStatus   int
		ExpectedResponse []byte
		ExpectedHeaders  map[string]string
	}{
		{
			Name:           "/v1/filters lists filters",
			URL:            "/v1/filters",
			Router:         router,
			ExpectedStatus: http.StatusOK,
			ExpectedResponse: marshalJson([]api.Filter{
				{ID: "Crystallize", Name: "Crystallize", Parameters: []string{"radius"}},
				{ID: "Edges", Name: "Edges", Parameters: []string{"intensity"}},
				{ID: "GaussianBlur", Name: "Gaussian Blur", Parameters: []string{"radius"}},
				{ID: "Pixellate", Name: "Pixellate", Parameters: []string{"scale"}},
				{ID: "SepiaTone", Name: "Sepia Tone", Parameters: []string{"intensity"}},
				{ID: "UnsharpMask", Name: "Unsharp Mask", Parameters: []string{"intensity", "radius"}},
				{ID: "Vignette", Name: "Vignette", Parameters: []string{"intensity", "radius"}},
			}),
			ExpectedHeaders: map[string]string{
				"Content-Type": "application/json",
			},
		},
		{
			Name:             "/v1/photos lists photos",
			URL:              "/v1/photos",
			Router:           router,
			ExpectedStatus:   http.StatusOK,
			ExpectedResponse: marshalJson([]api.Photo{photo("1"), photo("2")}),
			ExpectedHeaders: map[string]string{
				"Content-Type": "application/json",
				"Link":         "",
			},
		},
		{
			Name:             "/v1/photos pagination first page",
			URL:              "/v1/photos?limit=1",
			Router:           router,
			ExpectedStatus:   http.StatusOK,
			ExpectedResponse: marshalJson([]api.Photo{photo("1")}),
			ExpectedHeaders: map[string]string{
				"Link": "<https://example.com/v1/photos?page=2&limit=1>; rel=\"next\"",
			},
		},
		{
			Name:             "/v1/photos pagination second page",
			URL:              "/v1/photos?page=2&limit=1",
			Router:           router,
			ExpectedStatus:   http.StatusOK,
			ExpectedResponse: marshalJson([]api.Photo{photo("2")}),
			ExpectedHeaders: map[string]string{
				"Link": "<https://example.com/v1/photos?page=1&limit=1>; rel=\"prev\", <https://example.com/v1/photos?page=3&limit=1>; rel=\"next\"",
			},
		},
		{
			Name:             "/v1/photos pagination past the end",
			URL:              "/v1/photos?page=3&limit=1",
			Router:           router,
			ExpectedStatus:   http.StatusOK,
			ExpectedResponse: marshalJson([]api.Photo{}),
			ExpectedHeaders: map[string]string{
				"Link": "<https://example.com/v1/photos?page=2&limit=1>; rel=\"prev\"",
			},
		},
		{
			Name:             "/v1/photos huge page number",
			URL:              "/v1/photos?page=400000000000000000&limit=1",
			Router:           router,
			ExpectedStatus:   http.StatusOK,
			ExpectedResponse: marshalJson([]api.Photo{}),
			ExpectedHeaders: map[string]string{
				"Link": "<https://example.com/v1/photos?page=92233720368547757&limit=1>; rel=\"prev\"",
			},
		},
		{"/v1/photos/:id returns a photo", "/v1/photos/1", router, http.StatusOK, marshalJson(photo("1")), nil},
		// Errors
		{"/v1/photos/:id nonexistant photo", "/v1/photos/nonexistant", router, http.StatusNotFound, []byte("Image does not exist\n"), nil},
		{"/v1/photos database error", "/v1/photos", mockDatabaseRouter, http.StatusInternalServerError, []byte("Something went wrong\n"), nil},
		{"/v1/photos/:id database error", "/v1/photos/1", mockDatabaseRouter, http.StatusInternalServerError, []byte("Something went wrong\n"), nil},
		{"unknown filter", "/id/1/CIFoo", router, http.StatusBadRequest, []byte("invalid parameter: unknown filter\n"), nil},
		{"unaccepted parameter", "/id/1/GaussianBlur?scale=0.5", router, http.StatusBadRequest, []byte("invalid parameter: scale is not accepted by GaussianBlur\n"), nil},
		{"out of range parameter", "/id/1/SepiaTone?intensity=2", router, http.StatusBadRequest, []byte("invalid parameter: intensity must be between 0 and 1, got 2\n"), nil},
		{"invalid extension", "/id/1/SepiaTone.gif", router, http.StatusBadRequest, []byte("Invalid file extension\n"), nil},
		{"nonexistant photo", "/id/nonexistant/SepiaTone", router, http.StatusNotFound, []byte("Image does not exist\n"), nil},
		{"photo missing from storage", "/id/2/SepiaTone", router, http.StatusInternalServerError, []byte("Something went wrong\n"), nil},
		{"processor error", "/id/1/SepiaTone", mockProcessorRouter, http.StatusInternalServerError, []byte("Something went wrong\n"), nil},
		{"404", "/asdf", router, http.StatusNotFound, []byte("page not found\n"), map[string]string{"Content-Type": "text/plain; charset=utf-8", "Cache-Control": "private, no-cache, no-store, must-revalidate"}},
		{"health", "/health", router, http.StatusOK, marshalJson(health.Status{Healthy: true, Database: "healthy", Storage: "healthy"}), nil},
	}

	for _, test := range tests {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", test.URL, nil)
		test.Router.ServeHTTP(w, req)

		if w.Code != test.ExpectedStatus {
			t.Errorf("%s: wrong response code, %#v", test.Name, w.Code)
			continue
		}

		for expectedHeader, expectedValue := range test.ExpectedHeaders {
			if headerValue := w.Header().Get(expectedHeader); headerValue != expectedValue {
				t.Errorf("%s: wrong header value for %s, %#v", test.Name, expectedHeader, headerValue)
			}
		}

		if !reflect.DeepEqual(w.Body.Bytes(), test.ExpectedResponse) {
			t.Errorf("%s: wrong response %#v", test.Name, w.Body.String())
		}
	}
}

func TestRender(t *testing.T) {
	f := setup(t)
	router := f.router(nil)

	vignette, _ := filter.Lookup(filter.Vignette)
	vignetteState := filter.NewState(vignette)
	vignetteState.SetParameter(filter.Intensity, 0.8)
	vignetteState.SetParameter(filter.Radius, 0.1)

	tests := []struct {
		Name                       string
		URL                        string
		State                      *filter.State
		ExpectedContentDisposition string
		ExpectedContentType        string
	}{
		{"default parameters", "/id/1/SepiaTone.png", filter.NewState(filter.Default()), "inline; filename=\"1-sepiatone.png\"", "image/png"},
		{"case insensitive filter", "/id/1/vignette.png?intensity=0.8&radius=0.1", vignetteState, "inline; filename=\"1-vignette.png\"", "image/png"},
		{"jpeg without extension", "/id/1/SepiaTone", filter.NewState(filter.Default()), "inline; filename=\"1-sepiatone.jpg\"", "image/jpeg"},
	}

	for _, test := range tests {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", test.URL, nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s: wrong response code, %#v", test.Name, w.Code)
			continue
		}

		if cd := w.Header().Get("Content-Disposition"); cd != test.ExpectedContentDisposition {
			t.Errorf("%s: wrong content disposition %#v", test.Name, cd)
		}

		if ct := w.Header().Get("Content-Type"); ct != test.ExpectedContentType {
			t.Errorf("%s: wrong content type %#v", test.Name, ct)
		}

		if w.Header().Get("ETag") == "" {
			t.Errorf("%s: missing etag", test.Name)
		}

		if test.ExpectedContentType != "image/png" {
			continue
		}

		actual, err := codec.Decode(w.Body.Bytes())
		if err != nil {
			t.Errorf("%s: %s", test.Name, err)
			continue
		}

		expected, _ := pipeline.Apply(f.source, test.State)
		if !bytes.Equal(actual.Pix, expected.Pix) {
			t.Errorf("%s: wrong image", test.Name)
		}
	}

	t.Run("etag", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/id/1/SepiaTone.png", nil))
		etag := w.Header().Get("ETag")

		req := httptest.NewRequest("GET", "/id/1/SepiaTone.png", nil)
		req.Header.Set("If-None-Match", etag)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotModified {
			t.Errorf("wrong response code, %#v", w.Code)
		}

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/id/1/SepiaTone.png?intensity=0.9", nil))
		if w.Header().Get("ETag") == etag {
			t.Error("different parameters share an etag")
		}
	})
}

func TestRenderHMAC(t *testing.T) {
	f := setup(t)
	h := hmac.New("test")
	router := f.router(func(a *api.API) { a.HMAC = h })

	query := url.Values{}
	query.Set("intensity", "0.8")

	signed, err := params.HMAC(h, "/id/1/SepiaTone.jpg", query)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		Name           string
		URL            string
		ExpectedStatus int
	}{
		{"signed", signed, http.StatusOK},
		{"unsigned", "/id/1/SepiaTone.jpg?intensity=0.8", http.StatusBadRequest},
		{"tampered", strings.Replace(signed, "intensity=0.8", "intensity=0.9", 1), http.StatusBadRequest},
	}

	for _, test := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", test.URL, nil))

		if w.Code != test.ExpectedStatus {
			t.Errorf("%s: wrong response code, %#v", test.Name, w.Code)
		}
	}

	t.Run("photos link to signed urls", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/v1/photos/1", nil))

		var photo api.Photo
		if err := json.Unmarshal(w.Body.Bytes(), &photo); err != nil {
			t.Fatal(err)
		}

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", strings.TrimPrefix(photo.RenderURL, rootURL), nil))
		if w.Code != http.StatusOK {
			t.Errorf("wrong response code for %s, %#v", photo.RenderURL, w.Code)
		}
	})
}

func TestSessions(t *testing.T) {
	f := setup(t)
	router := f.router(nil)

	do := func(method, target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
		return w
	}

	w := do("POST", "/v1/sessions")
	if w.Code != http.StatusCreated {
		t.Fatalf("wrong response code creating session, %#v", w.Code)
	}

	var snapshot session.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snapshot); err != nil {
		t.Fatal(err)
	}

	if w.Header().Get("Location") != rootURL+"/v1/sessions/"+snapshot.ID {
		t.Errorf("wrong location %#v", w.Header().Get("Location"))
	}

	base := "/v1/sessions/" + snapshot.ID

	steps := []struct {
		Name           string
		Method         string
		URL            string
		ExpectedStatus int
	}{
		{"get session", "GET", base, http.StatusOK},
		{"preview without a photo", "GET", base + "/preview", http.StatusConflict},
		{"save without a photo", "POST", base + "/save", http.StatusConflict},
		{"unknown filter", "PUT", base + "/filter/CIFoo", http.StatusBadRequest},
		{"nonexistant photo", "PUT", base + "/photo/nonexistant", http.StatusNotFound},
		{"load photo", "PUT", base + "/photo/1", http.StatusOK},
		{"select filter", "PUT", base + "/filter/Pixellate", http.StatusOK},
		{"set parameter", "PUT", base + "/parameters/scale?value=0.4", http.StatusOK},
		{"unaccepted parameter", "PUT", base + "/parameters/radius?value=0.4", http.StatusBadRequest},
		{"unknown parameter", "PUT", base + "/parameters/foo?value=0.4", http.StatusBadRequest},
		{"invalid value", "PUT", base + "/parameters/scale?value=abc", http.StatusBadRequest},
		{"out of range value", "PUT", base + "/parameters/scale?value=-1", http.StatusBadRequest},
		{"invalid preview extension", "GET", base + "/preview.gif", http.StatusBadRequest},
		{"unknown session", "GET", "/v1/sessions/nonexistant", http.StatusNotFound},
	}

	for _, step := range steps {
		if w := do(step.Method, step.URL); w.Code != step.ExpectedStatus {
			t.Errorf("%s: wrong response code, %#v: %s", step.Name, w.Code, w.Body.String())
		}
	}

	w = do("GET", base)
	if err := json.Unmarshal(w.Body.Bytes(), &snapshot); err != nil {
		t.Fatal(err)
	}

	expectedSnapshot := session.Snapshot{
		ID:         snapshot.ID,
		PhotoID:    "1",
		Filter:     filter.Pixellate,
		Parameters: map[string]float64{"scale": 0.4},
		Visible:    []string{"scale"},
		HasOutput:  true,
	}

	if !reflect.DeepEqual(snapshot, expectedSnapshot) {
		t.Errorf("wrong snapshot %+v", snapshot)
	}

	d, _ := filter.Lookup(filter.Pixellate)
	state := filter.NewState(d)
	state.SetParameter(filter.Scale, 0.4)
	expected, _ := pipeline.Apply(f.source, state)

	w = do("GET", base+"/preview.png")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("wrong preview response, %#v", w.Code)
	}

	preview, err := codec.Decode(w.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(preview.Pix, expected.Pix) {
		t.Error("wrong preview")
	}

	w = do("POST", base+"/save.png")
	if w.Code != http.StatusCreated {
		t.Fatalf("wrong response code saving, %#v", w.Code)
	}

	var saved api.SavedEdit
	if err := json.Unmarshal(w.Body.Bytes(), &saved); err != nil {
		t.Fatal(err)
	}

	buf, err := f.storage.Get(context.Background(), saved.Key)
	if err != nil {
		t.Fatal(err)
	}

	if savedImage, _ := codec.Decode(buf); savedImage == nil || !bytes.Equal(savedImage.Pix, expected.Pix) {
		t.Error("wrong saved image")
	}

	if w := do("DELETE", base); w.Code != http.StatusNoContent {
		t.Errorf("wrong response code deleting, %#v", w.Code)
	}

	if w := do("GET", base); w.Code != http.StatusNotFound {
		t.Errorf("wrong response code after deleting, %#v", w.Code)
	}
}
