package blob

import (
	"io"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := New(t.TempDir(), "http://localhost:8080", "test-secret")
	if err := s.Init(BucketMedia, BucketReports); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return s
}

func TestUploadOpenRoundTrip(t *testing.T) {
	s := testStore(t)

	if err := s.Upload(BucketMedia, "org-1/msn-1/photos/a.jpg", []byte("jpeg bytes"), "image/jpeg"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !s.Exists(BucketMedia, "org-1/msn-1/photos/a.jpg") {
		t.Fatal("uploaded object should exist")
	}

	rc, err := s.Open(BucketMedia, "org-1/msn-1/photos/a.jpg")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read object: %v", err)
	}
	if string(data) != "jpeg bytes" {
		t.Errorf("object content = %q", data)
	}
}

func TestListSortedUnderPrefix(t *testing.T) {
	s := testStore(t)

	for _, p := range []string{
		"org-1/msn-1/photos/b.jpg",
		"org-1/msn-1/photos/a.jpg",
		"org-1/msn-2/photos/c.jpg",
	} {
		if err := s.Upload(BucketMedia, p, []byte("x"), "image/jpeg"); err != nil {
			t.Fatalf("Upload %s: %v", p, err)
		}
	}

	got, err := s.List(BucketMedia, "org-1/msn-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"org-1/msn-1/photos/a.jpg", "org-1/msn-1/photos/b.jpg"}
	if len(got) != len(want) {
		t.Fatalf("List returned %d objects, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestListMissingPrefix(t *testing.T) {
	s := testStore(t)

	got, err := s.List(BucketMedia, "nothing/here")
	if err != nil {
		t.Fatalf("List on missing prefix: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List on missing prefix returned %v", got)
	}
}

func TestRemovePrefix(t *testing.T) {
	s := testStore(t)

	if err := s.Upload(BucketMedia, "org-1/msn-1/photos/a.jpg", []byte("x"), "image/jpeg"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := s.RemovePrefix(BucketMedia, "org-1/msn-1"); err != nil {
		t.Fatalf("RemovePrefix: %v", err)
	}
	if s.Exists(BucketMedia, "org-1/msn-1/photos/a.jpg") {
		t.Error("object should be gone after RemovePrefix")
	}
}

func TestPathTraversalRejected(t *testing.T) {
	s := testStore(t)

	if err := s.Upload(BucketMedia, "../escape.txt", []byte("x"), "text/plain"); err == nil {
		t.Error("Upload with .. should fail")
	}
	if _, err := s.Open(BucketMedia, "../../etc/passwd"); err == nil {
		t.Error("Open with .. should fail")
	}
	if s.Exists(BucketMedia, "a/../../b") {
		t.Error("Exists with .. should be false")
	}
}

func TestPublicURL(t *testing.T) {
	s := testStore(t)

	got := s.PublicURL(BucketReports, "org_1/mission_2/auto_3.pdf")
	want := "http://localhost:8080/media/reports/org_1/mission_2/auto_3.pdf"
	if got != want {
		t.Errorf("PublicURL = %s, want %s", got, want)
	}
}

func TestSignedURLVerifies(t *testing.T) {
	s := testStore(t)

	signed := s.SignedURL(BucketReports, "org_1/r.pdf", time.Hour)
	u, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("parse signed URL: %v", err)
	}
	if !strings.HasPrefix(u.Path, "/media/reports/") {
		t.Fatalf("unexpected signed path %s", u.Path)
	}
	exp := u.Query().Get("exp")
	sig := u.Query().Get("sig")
	if exp == "" || sig == "" {
		t.Fatalf("signed URL missing exp or sig: %s", signed)
	}

	if !s.Verify(BucketReports, "org_1/r.pdf", exp, sig) {
		t.Error("valid signature should verify")
	}
	if s.Verify(BucketReports, "org_1/other.pdf", exp, sig) {
		t.Error("signature must be bound to the object path")
	}
	if s.Verify(BucketReports, "org_1/r.pdf", exp, sig+"00") {
		t.Error("tampered signature should fail")
	}
}

func TestSignedURLExpiry(t *testing.T) {
	s := testStore(t)

	exp := time.Now().Add(-time.Minute).Unix()
	sig := s.sign(BucketReports, "org_1/r.pdf", exp)
	if s.Verify(BucketReports, "org_1/r.pdf", "9999999999x", sig) {
		t.Error("garbage expiry should fail")
	}
	if s.Verify(BucketReports, "org_1/r.pdf", strconv.FormatInt(exp, 10), sig) {
		t.Error("expired signature should fail")
	}
}
