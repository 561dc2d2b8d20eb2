package clerk

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUpdatePublicMetadata(t *testing.T) {
	var gotMethod, gotPath, gotAuth string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"user_1"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{
		SecretKey:  "sk_test",
		APIBaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	err = client.UpdatePublicMetadata(context.Background(), "user_1", map[string]interface{}{
		"subscriptionStatus":    "active",
		"hasActiveSubscription": true,
	})
	if err != nil {
		t.Fatalf("UpdatePublicMetadata failed: %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("method = %q, want PATCH", gotMethod)
	}
	if gotPath != "/users/user_1/metadata" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer sk_test" {
		t.Errorf("auth = %q", gotAuth)
	}
	public, ok := gotBody["public_metadata"].(map[string]interface{})
	if !ok {
		t.Fatalf("body = %v, want public_metadata wrapper", gotBody)
	}
	if public["subscriptionStatus"] != "active" {
		t.Errorf("subscriptionStatus = %v", public["subscriptionStatus"])
	}
}

func TestUpdatePublicMetadata_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":[{"message":"nope"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{SecretKey: "sk_test", APIBaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	err = client.UpdatePublicMetadata(context.Background(), "user_1", map[string]interface{}{"x": 1})
	if !errors.Is(err, ErrMetadataUpdateFailed) {
		t.Fatalf("err = %v, want ErrMetadataUpdateFailed", err)
	}
}

func TestNewClient_RequiresSecret(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}
