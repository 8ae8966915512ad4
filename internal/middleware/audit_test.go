package middleware

import (
	"encoding/json"
	"testing"
)

func TestRedactAuditBodyWithdrawals(t *testing.T) {
	body := []byte(`{"user_id":"u1","wallet_address":"0xbeef","meta":{"api_key":"k","secret_key":"s"}}`)
	out := redactAuditBody("/v1/withdrawals", body)

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if data["wallet_address"] == "0xbeef" {
		t.Fatalf("wallet_address not redacted")
	}
	if data["user_id"] != "u1" {
		t.Fatalf("user_id should survive redaction")
	}
	if meta, ok := data["meta"].(map[string]interface{}); ok {
		if meta["api_key"] == "k" || meta["secret_key"] == "s" {
			t.Fatalf("nested credentials not redacted")
		}
	}
}

func TestRedactAuditBodyAccountCredentials(t *testing.T) {
	body := []byte(`{"login":"12345","password":"hunter2","server":"Broker-Live"}`)
	out := redactAuditBody("/v1/metaapi/accounts", body)

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if data["password"] == "hunter2" || data["login"] == "12345" {
		t.Fatalf("broker credentials not redacted")
	}
	if data["server"] != "Broker-Live" {
		t.Fatalf("server should survive redaction")
	}
}

func TestRedactAuditBodyNonSensitivePath(t *testing.T) {
	body := []byte(`{"ok":true}`)
	out := redactAuditBody("/health", body)
	if out != string(body) {
		t.Fatalf("unexpected redaction on non-sensitive path")
	}
}

func TestRedactAuditBodyInvalidJSON(t *testing.T) {
	body := []byte("not-json")
	out := redactAuditBody("/v1/orders", body)
	if out != "[redacted]" {
		t.Fatalf("expected redacted placeholder for invalid json")
	}
}
