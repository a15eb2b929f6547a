package resource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/kinance/kinance-go/internal/client/apiclient"
)

// Multipart layout of receipt uploads.
const (
	ReceiptFileField   = "file"
	DefaultReceiptName = "receipt.jpg"
	DefaultReceiptType = "image/jpeg"
)

// sniffLen is the number of bytes http.DetectContentType looks at.
const sniffLen = 512

// Receipts is the receipts API.
type Receipts struct {
	client *apiclient.Client
}

// NewReceipts creates a receipts client.
func NewReceipts(c *apiclient.Client) *Receipts {
	return &Receipts{client: c}
}

// Upload stores a receipt image.
func (r *Receipts) Upload(ctx context.Context, name string, content io.Reader) (*Receipt, error) {
	form, err := receiptForm(name, content)
	if err != nil {
		return nil, err
	}
	receipt, err := apiclient.Result[Receipt](r.client.Upload(ctx, apiclient.PathReceiptUpload, form))
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ExtractDetails sends a receipt image to the OCR endpoint and returns the
// extracted fields.
func (r *Receipts) ExtractDetails(ctx context.Context, name string, content io.Reader) (*ReceiptData, error) {
	form, err := receiptForm(name, content)
	if err != nil {
		return nil, err
	}
	data, err := apiclient.Result[ReceiptData](r.client.Upload(ctx, apiclient.PathReceiptOCR, form))
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// List returns the user's receipts.
func (r *Receipts) List(ctx context.Context) ([]Receipt, error) {
	return apiclient.Result[[]Receipt](r.client.Get(ctx, apiclient.PathReceipts, nil))
}

// Get returns one receipt.
func (r *Receipts) Get(ctx context.Context, id string) (*Receipt, error) {
	receipt, err := apiclient.Result[Receipt](r.client.Get(ctx, apiclient.ReceiptPath(id), nil))
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// receiptForm builds the single-file multipart form. The content type is
// sniffed from the first bytes; unknown content is sent as JPEG.
func receiptForm(name string, content io.Reader) (*apiclient.Form, error) {
	if name == "" {
		name = DefaultReceiptName
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(content, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read receipt: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, fmt.Errorf("read receipt: empty file")
	}

	contentType := http.DetectContentType(head)
	if contentType == "application/octet-stream" {
		contentType = DefaultReceiptType
	}

	return &apiclient.Form{
		Files: []apiclient.File{{
			Field:       ReceiptFileField,
			Name:        name,
			ContentType: contentType,
			Content:     io.MultiReader(bytes.NewReader(head), content),
		}},
	}, nil
}
