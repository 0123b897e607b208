package ledger

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ReceiptStore is the document store attachment URLs must point into. The
// zero value contains nothing, so attachments are refused until one is configured.
type ReceiptStore struct {
	base *url.URL
}

// NewReceiptStore parses the store's base URL. An empty base yields the zero store.
func NewReceiptStore(base string) (ReceiptStore, error) {
	if base == "" {
		return ReceiptStore{}, nil
	}

	u, err := url.Parse(base)
	if err != nil {
		return ReceiptStore{}, fmt.Errorf("parse receipt store url: %w", err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || u.User != nil {
		return ReceiptStore{}, fmt.Errorf("receipt store url %q must be an absolute http(s) url", base)
	}

	u.Path = path.Clean("/" + u.Path)
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	u.RawQuery, u.Fragment = "", ""

	return ReceiptStore{base: u}, nil
}

// Contains reports whether raw addresses a document under the store's base.
func (r ReceiptStore) Contains(raw string) bool {
	if r.base == nil {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil || u.User != nil {
		return false
	}

	if u.Scheme != r.base.Scheme || !strings.EqualFold(u.Host, r.base.Host) {
		return false
	}

	p := path.Clean("/" + u.Path)
	if p != "/" {
		p += "/"
	}

	return strings.HasPrefix(p, r.base.Path)
}

func (r ReceiptStore) String() string {
	if r.base == nil {
		return ""
	}

	return r.base.String()
}
