package openapi

import (
	"context"
	"encoding/json"
	"testing"
)

func TestLoad(t *testing.T) {
	doc, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	paths := []string{
		"/api/v1/ad/accounts",
		"/api/v1/serviceaccounts",
		"/api/v1/serviceaccounts/onboard",
		"/api/v1/serviceaccounts/offboard",
		"/api/v1/serviceaccounts/user",
		"/api/v1/serviceaccounts/{name}",
		"/api/v1/serviceaccounts/{name}/password/reset",
		"/api/v1/serviceaccounts/{name}/history",
	}
	for _, p := range paths {
		if doc.Paths.Find(p) == nil {
			t.Errorf("путь %s отсутствует в контракте", p)
		}
	}

	user := doc.Paths.Find("/api/v1/serviceaccounts/user")
	if user == nil || user.Post == nil || user.Delete == nil {
		t.Error("ожидаются POST и DELETE для /serviceaccounts/user")
	}
}

func TestJSON(t *testing.T) {
	data, err := JSON(context.Background())
	if err != nil {
		t.Fatalf("JSON() вернул ошибку: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("контракт не JSON: %v", err)
	}
	if raw["openapi"] != "3.0.3" {
		t.Errorf("openapi = %v, ожидается 3.0.3", raw["openapi"])
	}
}
