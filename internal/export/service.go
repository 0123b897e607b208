package export

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

// ErrReceiptUnavailable wraps failures fetching a receipt from the document store.
var ErrReceiptUnavailable = errors.New("receipt unavailable")

// SummaryFile is the name of the plain-text listing written next to the receipts.
const SummaryFile = "summary.txt"

// Lister lists the transfers a caller may see.
//
//go:generate mockgen -source=service.go -destination=lister_mock.go -package=export
type Lister interface {
	List(ctx context.Context, caller ledger.Caller, filter ledger.TransferFilter) ([]*ledger.Transfer, error)
}

// Item links an exported transfer to its downloaded receipt, if it has one.
type Item struct {
	Transfer *ledger.Transfer
	FilePath string
}

// Service collects the receipts attached to transfers, typically to hand a
// year's zakat payments to an accountant.
type Service struct {
	transfers Lister
	client    *http.Client
	receipts  ledger.ReceiptStore
	token     string
}

// NewService creates a new export service. Receipts are only fetched from the
// receipts store, and token, when set, is sent there as an Authorization header.
func NewService(transfers Lister, client *http.Client, receipts ledger.ReceiptStore, token string) *Service {
	c := *client
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if !receipts.Contains(req.URL.String()) {
			return fmt.Errorf("redirect to %s leaves the receipt store", req.URL.Host)
		}

		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}

		return nil
	}

	return &Service{transfers: transfers, client: &c, receipts: receipts, token: token}
}

// Query selects the transfers to export. An empty Type exports every type.
type Query struct {
	Filter ledger.TransferFilter
	Type   ledger.TransferType
}

// Export downloads the receipts of the transfers matching q into outputDir.
func (s *Service) Export(ctx context.Context, caller ledger.Caller, q Query, outputDir string) ([]Item, error) {
	transfers, err := s.transfers.List(ctx, caller, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	items := make([]Item, 0, len(transfers))

	for _, t := range transfers {
		if q.Type != "" && t.Type != q.Type {
			continue
		}

		item := Item{Transfer: t}

		if t.Attachment != nil && t.Attachment.URL != "" {
			path, err := s.downloadReceipt(ctx, t, outputDir)
			if err != nil {
				return nil, fmt.Errorf("%w: transfer %d: %w", ErrReceiptUnavailable, t.ID, err)
			}

			item.FilePath = path
		}

		items = append(items, item)
	}

	return items, nil
}

func (s *Service) downloadReceipt(ctx context.Context, t *ledger.Transfer, dir string) (string, error) {
	if !s.receipts.Contains(t.Attachment.URL) {
		return "", fmt.Errorf("url %s is outside the receipt store", t.Attachment.URL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.Attachment.URL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	if s.token != "" {
		req.Header.Set("Authorization", "Token "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for url %s", resp.StatusCode, t.Attachment.URL)
	}

	path := filepath.Join(dir, receiptName(resp, t))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return path, nil
}

// receiptName prefixes the server's filename with the transfer ID so two
// receipts called "receipt.pdf" do not overwrite each other.
func receiptName(resp *http.Response, t *ledger.Transfer) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				return fmt.Sprintf("%d_%s", t.ID, strings.ReplaceAll(filepath.Base(name), " ", "_"))
			}
		}
	}

	ext := ".pdf"

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if exts, _ := mime.ExtensionsByType(ct); len(exts) > 0 {
			ext = exts[0]
		}
	}

	code := "asset"
	if t.Asset != nil {
		code = strings.ToLower(t.Asset.Code)
	}

	// YYYYMMDD_<id>_<type>_<asset>.ext
	return fmt.Sprintf("%s_%d_%s_%s%s", t.OccurredAt.Format("20060102"), t.ID, strings.ToLower(string(t.Type)), code, ext)
}

// Summary lists the exported transfers one per line.
func (s *Service) Summary(items []Item) string {
	var sb strings.Builder

	for _, item := range items {
		t := item.Transfer

		code, unit := "", ""
		if t.Asset != nil {
			code = t.Asset.Code
			if t.Asset.Unit == ledger.UnitGram {
				unit = " g"
			}
		}

		receipt := "no receipt"
		if item.FilePath != "" {
			receipt = filepath.Base(item.FilePath)
		}

		fmt.Fprintf(&sb, "* %s | %s | %s %s%s | %s | %s\n",
			t.OccurredAt.Format("2006-01-02"), t.Type, code, t.Quantity.String(), unit, t.Note, receipt)
	}

	return sb.String()
}

// WriteSummary writes the summary of items into dir as SummaryFile.
func (s *Service) WriteSummary(items []Item, dir string) error {
	return os.WriteFile(filepath.Join(dir, SummaryFile), []byte(s.Summary(items)), 0o644)
}

// WriteZip archives every regular file directly under dir into w.
func WriteZip(w io.Writer, dir string) error {
	zw := zip.NewWriter(w)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		zf, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(zf, f)

		return err
	})
	if err != nil {
		return fmt.Errorf("writing zip: %w", err)
	}

	return zw.Close()
}
