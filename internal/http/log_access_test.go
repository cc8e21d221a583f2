package handlers_test

import (
	"net/http"
	"testing"
)

// Access control denials are logged
func TestAccessDeniedLogs(t *testing.T) {
	ta := newTestApp(t)
	clerk := ta.browser(t)
	insertUser(t, ta, clerk.cookies["sid"])

	entries := captureLogs(t, func() {
		clerk.get("/admin/orders")
	})
	if !hasAction(entries, "access.denied.admin") {
		t.Fatalf("expected access.denied.admin log")
	}
}

func TestMediaTraversalBlockedAndLogged(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)

	var resp *http.Response
	entries := captureLogs(t, func() {
		resp = b.get("/media/%2e%2e/%2e%2e/etc/passwd")
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if !hasAction(entries, "media.traversal.block") {
		t.Fatalf("expected media.traversal.block log")
	}
}

func TestLoginFailureIsLogged(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)
	entries := captureLogs(t, func() {
		b.postForm("/login", "email="+adminEmail+"&password=Wr0ng!pass")
	})
	if !hasAction(entries, "auth.login.fail") {
		t.Fatalf("expected auth.login.fail log")
	}
	entries = captureLogs(t, func() {
		login(t, b)
	})
	if !hasAction(entries, "auth.login.success") {
		t.Fatalf("expected auth.login.success log")
	}
}
