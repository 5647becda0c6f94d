package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/noah-isme/cbc-reportcard/internal/dto"
	appErrors "github.com/noah-isme/cbc-reportcard/pkg/errors"
)

// StreamHandler runs one generation request read from a byte stream, the way
// the command line entry point is invoked.
type StreamHandler struct {
	reports reportGenerator
}

// NewStreamHandler constructs handler.
func NewStreamHandler(reports reportGenerator) *StreamHandler {
	return &StreamHandler{reports: reports}
}

// Serve reads the whole payload from in and writes the PDF to out in a single
// write. Nothing is written to out when an error is returned.
func (h *StreamHandler) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	var req dto.ReportRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrMalformedPayload.Code, appErrors.ErrMalformedPayload.Status, appErrors.ErrMalformedPayload.Message)
	}

	result, err := h.reports.Generate(ctx, req)
	if err != nil {
		return err
	}

	if _, err := out.Write(result.PDF); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
