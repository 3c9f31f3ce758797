package enrich

import (
	"net/http"
	"testing"
)

func TestRequestIsImmutable(t *testing.T) {
	params := map[string]string{"email": "bart@example.com"}
	r := Get("person.json", params)

	params["email"] = "changed@example.com"
	if r.Param("email") != "bart@example.com" {
		t.Error("request shares the caller's map")
	}

	r.Params()["email"] = "changed@example.com"
	if r.Param("email") != "bart@example.com" {
		t.Error("Params leaked the internal map")
	}

	hooked := r.WithWebhook("https://hooks.example.com/in")
	if r.HasWebhook() {
		t.Error("WithWebhook modified the receiver")
	}
	if !hooked.HasWebhook() || hooked.Webhook() != "https://hooks.example.com/in" {
		t.Errorf("webhook = %q", hooked.Webhook())
	}
	if !hooked.HasParam(ParamWebhookURL) || hooked.Param("email") != "bart@example.com" {
		t.Error("WithWebhook dropped existing params")
	}
}

func TestRequestDefaultsToGet(t *testing.T) {
	if m := (Request{Path: "x"}).method(); m != http.MethodGet {
		t.Errorf("method = %q", m)
	}
	if m := NewRequest(http.MethodPost, "x", nil).method(); m != http.MethodPost {
		t.Errorf("method = %q", m)
	}
}

func TestEmptyWebhookDoesNotCount(t *testing.T) {
	r := Get("person.json", map[string]string{ParamWebhookURL: ""})
	if r.HasWebhook() {
		t.Error("empty webhook counted as present")
	}
}
