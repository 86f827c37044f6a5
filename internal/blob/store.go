// Package blob is a thin client for the object storage the portal keeps media
// and generated reports in. The backing implementation is a directory tree
// under DATA_DIR; the surface (upload, list, public URL, signed URL) matches
// what a hosted object store offers so the backend can be swapped.
package blob

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Bucket names used by the portal.
const (
	BucketMedia   = "mission-media"
	BucketReports = "reports"
)

type Store struct {
	root    string
	baseURL string
	secret  []byte
}

// New creates a Store rooted at dataDir/buckets. Public URLs are issued under
// baseURL; signed URLs are authenticated with an HMAC of the secret.
func New(dataDir, baseURL, secret string) *Store {
	return &Store{
		root:    filepath.Join(dataDir, "buckets"),
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secret),
	}
}

// Init creates the bucket directories.
func (s *Store) Init(buckets ...string) error {
	for _, b := range buckets {
		if err := os.MkdirAll(filepath.Join(s.root, b), 0755); err != nil {
			return fmt.Errorf("create bucket %s: %w", b, err)
		}
	}
	return nil
}

func (s *Store) objectPath(bucket, objPath string) (string, error) {
	clean := path.Clean("/" + objPath)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("invalid object path %q", objPath)
	}
	return filepath.Join(s.root, bucket, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func (s *Store) Upload(bucket, objPath string, data []byte, contentType string) error {
	full, err := s.objectPath(bucket, objPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	_ = contentType // derived again on serve via sniffing; kept for interface parity
	return nil
}

func (s *Store) Open(bucket, objPath string) (io.ReadCloser, error) {
	full, err := s.objectPath(bucket, objPath)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (s *Store) Exists(bucket, objPath string) bool {
	full, err := s.objectPath(bucket, objPath)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && !info.IsDir()
}

// List returns object paths under prefix, sorted, relative to the bucket root.
func (s *Store) List(bucket, prefix string) ([]string, error) {
	bucketRoot := filepath.Join(s.root, bucket)
	start, err := s.objectPath(bucket, prefix)
	if err != nil {
		return nil, err
	}

	var out []string
	err = filepath.WalkDir(start, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(bucketRoot, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Remove(bucket string, paths []string) error {
	var firstErr error
	for _, p := range paths {
		full, err := s.objectPath(bucket, p)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RemovePrefix deletes every object under prefix. Best-effort cleanup helper.
func (s *Store) RemovePrefix(bucket, prefix string) error {
	full, err := s.objectPath(bucket, prefix)
	if err != nil {
		return err
	}
	return os.RemoveAll(full)
}

// PublicURL returns the unauthenticated URL for an object.
func (s *Store) PublicURL(bucket, objPath string) string {
	return s.baseURL + "/media/" + bucket + "/" + strings.TrimPrefix(path.Clean("/"+objPath), "/")
}

// SignedURL returns a URL valid for ttl, authenticated by an HMAC over
// bucket, path and expiry.
func (s *Store) SignedURL(bucket, objPath string, ttl time.Duration) string {
	exp := time.Now().Add(ttl).Unix()
	sig := s.sign(bucket, strings.TrimPrefix(path.Clean("/"+objPath), "/"), exp)
	q := url.Values{}
	q.Set("exp", strconv.FormatInt(exp, 10))
	q.Set("sig", sig)
	return s.PublicURL(bucket, objPath) + "?" + q.Encode()
}

// Verify checks a signed-URL signature and expiry.
func (s *Store) Verify(bucket, objPath, expStr, sig string) bool {
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil || time.Now().Unix() > exp {
		return false
	}
	want := s.sign(bucket, strings.TrimPrefix(path.Clean("/"+objPath), "/"), exp)
	return hmac.Equal([]byte(want), []byte(sig))
}

func (s *Store) sign(bucket, objPath string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s/%s@%d", bucket, objPath, exp)
	return hex.EncodeToString(mac.Sum(nil))
}
