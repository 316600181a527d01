package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dayhubapp/dayhub/internal/authn"
	"github.com/dayhubapp/dayhub/internal/common"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGate struct{ allow bool }

func (g stubGate) HasWritePrivilege(context.Context, *authn.Identity) bool { return g.allow }

func testConfig() Config {
	return Config{
		Region:       "us-east-1",
		AccessKey:    "test",
		SecretKey:    "test",
		Bucket:       "payloads",
		BaseEndpoint: "http://127.0.0.1:9000/",
	}
}

func signedIn() *authn.Static {
	return authn.NewStatic(&authn.Identity{ID: "u1", Email: "alice@example.com"})
}

// stubPresigns routes the package-level presign indirection to canned
// URLs, restoring the real functions on cleanup.
func stubPresigns(t *testing.T, putURL, getURL string) {
	t.Helper()

	origPut, origGet := presignPutObject, presignGetObject
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: putURL}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: getURL}, nil
	}
	t.Cleanup(func() {
		presignPutObject, presignGetObject = origPut, origGet
	})
}

func TestPresignedPutURL_RequiresWritePrivilege(t *testing.T) {
	s := NewService(testConfig(), signedIn(), stubGate{allow: false})

	_, _, err := s.PresignedPutURL(context.Background())
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestPresignedPutURL_NotSignedIn(t *testing.T) {
	s := NewService(testConfig(), authn.NewStatic(nil), stubGate{allow: true})

	_, _, err := s.PresignedPutURL(context.Background())
	assert.ErrorIs(t, err, common.ErrNotSignedIn)
}

func TestPresignedPutURL_KeyShape(t *testing.T) {
	stubPresigns(t, "http://signed.example.com/put", "http://signed.example.com/get")
	s := NewService(testConfig(), signedIn(), stubGate{allow: true})

	key, url, err := s.PresignedPutURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://signed.example.com/put", url)
	assert.True(t, strings.HasPrefix(key, "users/u1/"), "key %q must be scoped to the user", key)
}

func TestUpload_PutsPayload(t *testing.T) {
	var received []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received = body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	stubPresigns(t, srv.URL, srv.URL)
	s := NewService(testConfig(), signedIn(), stubGate{allow: true})

	key, err := s.Upload(context.Background(), []byte("payload-bytes"))
	require.NoError(t, err)
	assert.NotEmpty(t, key)
	assert.Equal(t, "payload-bytes", string(received))
}

func TestDownload_FetchesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("stored-bytes"))
	}))
	defer srv.Close()

	stubPresigns(t, srv.URL, srv.URL)
	s := NewService(testConfig(), signedIn(), stubGate{allow: true})

	got, err := s.Download(context.Background(), "users/u1/x")
	require.NoError(t, err)
	assert.Equal(t, "stored-bytes", string(got))
}

func TestPresignedGetURL_Gated(t *testing.T) {
	s := NewService(testConfig(), signedIn(), stubGate{allow: false})

	_, err := s.PresignedGetURL(context.Background(), "users/u1/x")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}
