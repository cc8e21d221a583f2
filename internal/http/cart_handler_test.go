package handlers_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestAddToCartUsesCatalogPrice(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)

	resp, body := b.postJSON("/add-to-cart", map[string]any{"id": "cake-002", "name": "Cupcakes", "price": "0.01", "image": "x"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	if body["success"] != true || body["message"] != "Item added to cart" {
		t.Fatalf("unexpected result %v", body)
	}
	if body["accumulated_total"] != "90" {
		t.Fatalf("expected catalog price 90, got %v", body["accumulated_total"])
	}

	// duplicates are kept as separate lines
	_, body = b.postJSON("/add-to-cart", map[string]any{"id": "cake-002", "price": 90})
	if body["number_of_items"] != float64(2) || body["accumulated_total"] != "180" {
		t.Fatalf("expected 2 lines totalling 180, got %v", body)
	}
}

func TestAddToCartValidation(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)

	cases := []struct {
		name    string
		body    map[string]any
		status  int
		message string
	}{
		{"missing id", map[string]any{"price": "1"}, http.StatusBadRequest, "Missing product_id"},
		{"negative price", map[string]any{"id": "cake-001", "price": "-5"}, http.StatusBadRequest, "Invalid price"},
		{"junk price", map[string]any{"id": "cake-001", "price": "abc"}, http.StatusBadRequest, "Invalid price"},
		{"unknown product", map[string]any{"id": "nope", "price": "1"}, http.StatusNotFound, "Item not found"},
		{"bad id", map[string]any{"id": "../etc", "price": "1"}, http.StatusBadRequest, "Invalid request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := b.postJSON("/add-to-cart", tc.body)
			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d (%v)", tc.status, resp.StatusCode, body)
			}
			if body["success"] != false || body["message"] != tc.message {
				t.Fatalf("expected %q, got %v", tc.message, body)
			}
		})
	}
}

func TestNumericProductIDMatchesExactly(t *testing.T) {
	ta := newTestApp(t)
	if _, err := ta.db.Exec(`INSERT INTO products(id,business_id,name,price) VALUES('7','default','Seven','10.0')`); err != nil {
		t.Fatal(err)
	}
	b := ta.browser(t)

	_, body := b.postJSON("/add-to-cart", map[string]any{"id": 7, "price": 10.0})
	if body["success"] != true {
		t.Fatalf("add failed: %v", body)
	}

	resp, body := b.postJSON("/update-quantity", map[string]any{"product_id": "7", "quantity": "3"})
	if resp.StatusCode != http.StatusOK || body["accumulated_total"] != "30" {
		t.Fatalf("expected total 30, got %d %v", resp.StatusCode, body)
	}

	// quantity below 1 is raised to 1
	_, body = b.postJSON("/update-quantity", map[string]any{"product_id": 7, "quantity": 0})
	if body["success"] != true || body["accumulated_total"] != "10" {
		t.Fatalf("expected clamp to 1, got %v", body)
	}

	resp, body = b.postJSON("/update-quantity", map[string]any{"product_id": "07", "quantity": 2})
	if resp.StatusCode != http.StatusNotFound || body["message"] != "Item not found" {
		t.Fatalf("expected not found for 07, got %d %v", resp.StatusCode, body)
	}

	resp, _ = b.postJSON("/update-quantity", map[string]any{"product_id": "7", "quantity": "lots"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad quantity, got %d", resp.StatusCode)
	}
}

func TestRemoveFromCart(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)
	b.postJSON("/add-to-cart", map[string]any{"id": "cake-001", "price": "250.00"})
	b.postJSON("/add-to-cart", map[string]any{"id": "print-001", "price": "45.50"})
	b.postJSON("/add-to-cart", map[string]any{"id": "cake-001", "price": "250.00"})

	resp, body := b.postJSON("/remove-from-cart", map[string]any{"product_id": ""})
	if resp.StatusCode != http.StatusBadRequest || body["message"] != "Missing product_id" {
		t.Fatalf("expected missing product_id, got %d %v", resp.StatusCode, body)
	}

	_, body = b.postJSON("/remove-from-cart", map[string]any{"product_id": "cake-001"})
	if body["success"] != true || body["message"] != "Item removed" {
		t.Fatalf("remove failed: %v", body)
	}
	if body["number_of_items"] != float64(1) || body["accumulated_total"] != "45.5" {
		t.Fatalf("expected only the print left, got %v", body)
	}

	resp, body = b.postJSON("/remove-from-cart", map[string]any{"product_id": "cake-001"})
	if resp.StatusCode != http.StatusNotFound || body["message"] != "Item not found" {
		t.Fatalf("expected not found, got %d %v", resp.StatusCode, body)
	}

	view := decodeBody(t, b.get("/cart"))
	if view["number_of_items"] != float64(1) {
		t.Fatalf("cart view out of sync: %v", view)
	}
}

// customize posts a multipart form with an optional image.
func customize(t *testing.T, b *browser, productID, instruction, filename string, image []byte) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("product_id", productID)
	_ = w.WriteField("instruction", instruction)
	if filename != "" {
		fw, err := w.CreateFormFile("image", filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(image)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/cart/customize", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp := b.do(req)
	return resp, decodeBody(t, resp)
}

func TestCustomizeStagesImage(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)
	b.postJSON("/add-to-cart", map[string]any{"id": "print-001", "price": "45.50"})

	resp, body := customize(t, b, "print-001", "Matte finish", "holiday photo.png", []byte("png-data"))
	if resp.StatusCode != http.StatusOK || body["message"] != "Item updated" {
		t.Fatalf("customize failed: %d %v", resp.StatusCode, body)
	}
	staged, _ := os.ReadDir(ta.cfg.StagingDir)
	if len(staged) != 1 {
		t.Fatalf("expected one staged file, got %d", len(staged))
	}

	// rejected file types never reach staging
	resp, _ = customize(t, b, "print-001", "", "script.sh", []byte("#!/bin/sh"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-image, got %d", resp.StatusCode)
	}

	// unknown line: the staged upload is discarded
	resp, _ = customize(t, b, "cake-001", "", "other.jpg", []byte("jpg"))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown line, got %d", resp.StatusCode)
	}
	staged, _ = os.ReadDir(ta.cfg.StagingDir)
	if len(staged) != 1 {
		t.Fatalf("expected staging to keep one file, got %d", len(staged))
	}
}
