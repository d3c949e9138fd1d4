package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// PhotoStorage abstracts where report photos live. The lifecycle only ever
// keeps the returned URL string.
type PhotoStorage interface {
	Save(r io.Reader, origName, prefix string) (string, error)
	Remove(url string) error
}

// ---------------- Local disk ----------------

// Local writes photos under a directory served at /uploads.
type Local struct {
	Dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Local{Dir: dir}, nil
}

func (l *Local) Save(r io.Reader, origName, prefix string) (string, error) {
	name := fmt.Sprintf("%s_%s%s", prefix, uuid.NewString(), ext(origName))
	f, err := os.Create(filepath.Join(l.Dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return "/uploads/" + name, nil
}

func (l *Local) Remove(url string) error {
	return os.Remove(filepath.Join(l.Dir, filepath.Base(url)))
}

func ext(name string) string {
	if e := filepath.Ext(name); e != "" {
		return e
	}
	return ".jpg"
}

// ---------------- Remote media service ----------------

// Media uploads photos to an external media API and stores the public URL
// it returns.
type Media struct {
	client *resty.Client
	url    string
}

func NewMedia(uploadURL, apiKey string) *Media {
	return &Media{
		client: resty.New().SetAuthToken(apiKey),
		url:    uploadURL,
	}
}

func (m *Media) Save(r io.Reader, origName, prefix string) (string, error) {
	var out struct {
		SecureURL string `json:"secure_url"`
	}
	res, err := m.client.R().
		SetFileReader("file", origName, r).
		SetFormData(map[string]string{
			"public_id": fmt.Sprintf("%s/%s", prefix, uuid.NewString()),
		}).
		SetResult(&out).
		Post(m.url)
	if err != nil {
		return "", err
	}
	if res.IsError() {
		return "", fmt.Errorf("media upload failed: %s", res.Status())
	}
	if out.SecureURL == "" {
		return "", fmt.Errorf("media upload returned no url")
	}
	return out.SecureURL, nil
}

// Remove is a no-op: remote retention is the media service's job.
func (m *Media) Remove(url string) error { return nil }
