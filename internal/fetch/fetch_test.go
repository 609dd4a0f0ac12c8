package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_HTTP(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte("<html><body><table><tbody></tbody></table></body></html>"))
	}))
	defer srv.Close()

	f := New(Options{Timeout: 5 * time.Second, UserAgent: "wikietl-test"})
	body, err := f.Fetch(context.Background(), srv.URL+"/wiki/List_of_largest_banks")
	require.NoError(t, err)
	assert.Contains(t, string(body), "<tbody>")
	assert.Equal(t, "wikietl-test", gotUA)
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(Options{})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Equal(t, srv.URL, fetchErr.Locator)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, 1, calls, "fetcher must not retry")
}

func TestFetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(Options{Timeout: time.Second}).Fetch(context.Background(), url)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 0, fetchErr.StatusCode)
	assert.NotNil(t, fetchErr.Unwrap())
}

func TestFetch_LocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exchange_rate.csv")
	require.NoError(t, os.WriteFile(path, []byte("Currency,Rate\nEUR,0.93\n"), 0644))

	f := New(Options{})

	body, err := f.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Currency,Rate\nEUR,0.93\n", string(body))

	body, err = f.Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "EUR")

	_, err = f.Fetch(context.Background(), filepath.Join(dir, "missing.csv"))
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		locator string
		remote  bool
	}{
		{"https://web.archive.org/web/20230908091635/https://en.wikipedia.org/wiki/List_of_largest_banks", true},
		{"http://example.org/rates.csv", true},
		{"./exchange_rate.csv", false},
		{"/tmp/page.html", false},
		{"file:///tmp/page.html", false},
		{`C:\data\page.html`, false},
	}

	for _, tt := range tests {
		t.Run(tt.locator, func(t *testing.T) {
			assert.Equal(t, tt.remote, IsRemote(tt.locator))
		})
	}
}
