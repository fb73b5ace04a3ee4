package browser

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/shoplens/shoplens/models"
)

// Evidence is the capture bundle for one page at one moment. The raw
// HTML is stored gzip-compressed; HTMLChecksum is the SHA-256 of the
// uncompressed document so identical captures can be deduplicated.
type Evidence struct {
	Screenshot   []byte
	VisibleText  string
	Features     PageFeatures
	FeaturesJSON []byte
	HTMLGzip     []byte
	HTMLChecksum string
	URL          string
	Title        string
	CapturedAt   time.Time
}

// Capture extracts the evidence bundle from a settled page. Extraction
// faults caused by an in-flight navigation (context destroyed, target
// detached) get exactly one retry after a short pause; anything else is
// returned as-is.
func Capture(ctx context.Context, page Page, storeHTML bool) (*Evidence, error) {
	ev, err := captureOnce(ctx, page, storeHTML)
	if err != nil && IsTransientExtraction(err) {
		slog.Debug("transient extraction fault, retrying capture", "error", err)
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		ev, err = captureOnce(ctx, page, storeHTML)
	}
	if err != nil {
		return nil, models.NewCrawlError(models.ErrCodeExtractionTransient, models.SummaryCrawlFailed, err)
	}
	return ev, nil
}

func captureOnce(ctx context.Context, page Page, storeHTML bool) (*Evidence, error) {
	rawHTML, err := page.HTML()
	if err != nil {
		return nil, err
	}

	ev := &Evidence{
		VisibleText: page.VisibleText(),
		URL:         page.CurrentURL(),
		Title:       page.Title(),
		CapturedAt:  time.Now().UTC(),
	}
	if ev.VisibleText == "" {
		ev.VisibleText = TextFromHTML(rawHTML)
	}

	ev.Features, err = ExtractFeatures(rawHTML, ev.VisibleText)
	if err != nil {
		return nil, err
	}
	ev.FeaturesJSON, err = json.Marshal(ev.Features)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(rawHTML))
	ev.HTMLChecksum = hex.EncodeToString(sum[:])
	if storeHTML {
		ev.HTMLGzip, err = gzipBytes([]byte(rawHTML))
		if err != nil {
			return nil, err
		}
	}

	// Screenshot last: the DOM reads above can still succeed on a page
	// whose renderer refuses to paint, and we want that asymmetry visible.
	shot, err := page.Screenshot()
	if err != nil {
		slog.Warn("screenshot failed", "url", ev.URL, "error", err)
	} else {
		ev.Screenshot = shot
	}
	return ev, nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
