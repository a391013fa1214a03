package s3

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/gezibash/idbridge/internal/companion/physical"
	"github.com/gezibash/idbridge/internal/companion/physical/physicaltest"
)

type listResult struct {
	XMLName     xml.Name `xml:"ListBucketResult"`
	Name        string   `xml:"Name"`
	Prefix      string   `xml:"Prefix"`
	KeyCount    int      `xml:"KeyCount"`
	IsTruncated bool     `xml:"IsTruncated"`
	Contents    []struct {
		Key  string `xml:"Key"`
		Size int    `xml:"Size"`
	} `xml:"Contents"`
}

// mockS3Server emulates the path-style subset of the S3 API the backend
// uses.
func mockS3Server() *httptest.Server {
	var (
		mu      sync.Mutex
		objects = make(map[string][]byte)
	)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.SplitN(r.URL.Path, "/", 3)
		mu.Lock()
		defer mu.Unlock()

		if len(parts) < 3 || parts[2] == "" {
			if r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2" {
				prefix := r.URL.Query().Get("prefix")
				res := listResult{Name: parts[1], Prefix: prefix}
				var keys []string
				for k := range objects {
					if strings.HasPrefix(k, prefix) {
						keys = append(keys, k)
					}
				}
				slices.Sort(keys)
				for _, k := range keys {
					res.Contents = append(res.Contents, struct {
						Key  string `xml:"Key"`
						Size int    `xml:"Size"`
					}{Key: k, Size: len(objects[k])})
				}
				res.KeyCount = len(keys)
				w.Header().Set("Content-Type", "application/xml")
				_ = xml.NewEncoder(w).Encode(res)
				return
			}
			w.WriteHeader(http.StatusOK)
			return
		}

		key := parts[2]
		switch r.Method {
		case http.MethodPut:
			data, _ := io.ReadAll(r.Body)
			objects[key] = data
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			data, ok := objects[key]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`<?xml version="1.0"?><Error><Code>NoSuchKey</Code></Error>`))
				return
			}
			_, _ = w.Write(data)
		case http.MethodDelete:
			delete(objects, key)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

func newTestBackend(t *testing.T, extra map[string]string) *Backend {
	t.Helper()
	srv := mockS3Server()
	t.Cleanup(srv.Close)

	config := map[string]string{
		KeyBucket:          "test-bucket",
		KeyRegion:          "us-east-1",
		KeyEndpoint:        srv.URL,
		KeyForcePathStyle:  "true",
		KeyAccessKeyID:     "test",
		KeySecretAccessKey: "test",
	}
	for k, v := range extra {
		config[k] = v
	}
	b, err := NewFactory(context.Background(), config)
	if err != nil {
		t.Fatal(err)
	}
	return b.(*Backend)
}

func TestBackend(t *testing.T) {
	physicaltest.Run(t, func(t *testing.T) physical.Backend {
		return newTestBackend(t, map[string]string{KeyPrefix: "companions/"})
	})
}

func TestListSkipsNestedObjects(t *testing.T) {
	b := newTestBackend(t, map[string]string{KeyPrefix: "companions/"})
	ctx := context.Background()

	if err := b.Put(ctx, "sim-1", []byte("x")); err != nil {
		t.Fatal(err)
	}
	// Written by something else under the same prefix.
	b.prefix = "companions/archive/"
	if err := b.Put(ctx, "old", []byte("y")); err != nil {
		t.Fatal(err)
	}
	b.prefix = "companions/"

	records, err := b.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Key != "sim-1" {
		t.Errorf("List = %+v", records)
	}
}

func TestNewFactoryMissingBucket(t *testing.T) {
	if _, err := NewFactory(context.Background(), map[string]string{}); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}

func TestNewFactoryInvalidForcePathStyle(t *testing.T) {
	_, err := NewFactory(context.Background(), map[string]string{
		KeyBucket:         "b",
		KeyForcePathStyle: "sometimes",
	})
	if err == nil {
		t.Fatal("expected error for invalid force_path_style")
	}
}

func TestNewFactoryBucketNotAccessible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFactory(context.Background(), map[string]string{
		KeyBucket:          "nonexistent",
		KeyEndpoint:        srv.URL,
		KeyForcePathStyle:  "true",
		KeyAccessKeyID:     "test",
		KeySecretAccessKey: "test",
	})
	if err == nil {
		t.Fatal("expected error for inaccessible bucket")
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(&types.NoSuchKey{Message: aws.String("no such key")}) {
		t.Error("NoSuchKey not recognised")
	}
	if !isNotFound(&types.NotFound{Message: aws.String("not found")}) {
		t.Error("NotFound not recognised")
	}
	if isNotFound(errors.New("some other error")) {
		t.Error("unrelated error treated as not found")
	}
}
