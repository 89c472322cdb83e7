package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetcherDownloadWritesBodyVerbatim(t *testing.T) {
	body := []byte("ID du produit;Nom\n1;Bas r\xe9sille\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "nested", "stocks.csv")
	f := NewFetcher(srv.URL, time.Second, nil)

	n, err := f.Download(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, int64(len(body)), n)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, body, got)
}

func TestFetcherDownloadOverwritesPreviousSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("new"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "stocks.csv")
	require.NoError(t, os.WriteFile(path, []byte("old content that is longer"), 0o644))

	_, err := NewFetcher(srv.URL, time.Second, nil).Download(context.Background(), path)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new", string(got))
}

func TestFetcherDownloadRejectsNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "stocks.csv")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	_, err := NewFetcher(srv.URL, time.Second, nil).Download(context.Background(), path)
	require.ErrorIs(t, err, ErrUnexpectedStatus)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "previous", string(got))
}

func TestFetcherDownloadKeepsPreviousFileOnTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Errorf("hijacking not supported")
			return
		}
		conn, buf, err := hj.Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		defer conn.Close()
		fmt.Fprintf(buf, "HTTP/1.1 200 OK\r\nContent-Length: 1000\r\nContent-Type: text/csv\r\n\r\npartial")
		_ = buf.Flush()
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "stocks.csv")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	_, err := NewFetcher(srv.URL, time.Second, nil).Download(context.Background(), path)
	require.Error(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "previous", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file must be cleaned up")
}

func TestFetcherDownloadHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 10)))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher(srv.URL, time.Second, nil).Download(ctx, filepath.Join(t.TempDir(), "stocks.csv"))
	require.ErrorIs(t, err, context.Canceled)
}
