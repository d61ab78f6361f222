package metrics_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DMarby/instafilter/internal/health"
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/metrics"
	"go.uber.org/zap"
)

func TestRouter(t *testing.T) {
	log := logger.New(zap.FatalLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checker := &health.Checker{Ctx: ctx, Log: log}
	checker.Run()

	router := metrics.Router(checker)

	tests := []struct {
		Name             string
		URL              string
		ExpectedStatus   int
		ExpectedContains string
	}{
		{"metrics", "/metrics", 200, "instafilter_build_info"},
		{"health", "/health", 200, "\"healthy\":true"},
	}

	for _, test := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", test.URL, nil))

		if w.Code != test.ExpectedStatus {
			t.Errorf("%s: wrong response code, %#v", test.Name, w.Code)
			continue
		}

		body, _ := io.ReadAll(w.Body)
		if !strings.Contains(string(body), test.ExpectedContains) {
			t.Errorf("%s: response does not contain %s", test.Name, test.ExpectedContains)
		}
	}
}
