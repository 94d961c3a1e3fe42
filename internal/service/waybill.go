package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"

	"freight/internal/domain"
)

// WaybillService renders a PDF waybill once a trip completes: the trip
// summary plus every load/receive line with its shortage. Generation is
// best-effort; a failure never affects the completed trip.
type WaybillService struct {
	outputDir string
	logger    *zap.Logger
}

// NewWaybillService creates a WaybillService writing PDFs under outputDir.
func NewWaybillService(outputDir string, logger *zap.Logger) *WaybillService {
	return &WaybillService{outputDir: outputDir, logger: logger}
}

// Generate renders the waybill and writes it to the output directory.
// Returns the path of the written file.
func (s *WaybillService) Generate(ctx context.Context, trip *domain.Trip, card *domain.ReceiveCard) (string, error) {
	if trip == nil || card == nil {
		return "", ErrInvalidTripID
	}

	data, err := s.render(trip, card)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(s.outputDir, fmt.Sprintf("waybill_%s.pdf", trip.ID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}

	s.logger.Info("waybill generated",
		zap.String("trip_id", trip.ID),
		zap.String("path", path),
	)
	return path, nil
}

func (s *WaybillService) render(trip *domain.Trip, card *domain.ReceiveCard) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Waybill", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "WAYBILL")
	pdf.Ln(12)

	receiver := trip.DestinationOrgID
	if receiver == "" {
		receiver = "guest " + trip.ReceiverPhone
	}

	pdf.SetFont("Helvetica", "", 12)
	header := []string{
		fmt.Sprintf("Trip        : %s", trip.ID),
		fmt.Sprintf("Shipper     : %s", trip.SourceOrgID),
		fmt.Sprintf("Receiver    : %s", receiver),
		fmt.Sprintf("Driver      : %s", trip.DriverID),
		fmt.Sprintf("Truck       : %s", trip.TruckID),
		fmt.Sprintf("Route       : %s -> %s", trip.StartPoint, trip.EndPoint),
		fmt.Sprintf("Completed   : %s", card.CreatedAt.Format(time.RFC3339)),
	}
	for _, line := range header {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(70, 8, "Item")
	pdf.Cell(30, 8, "Loaded")
	pdf.Cell(30, 8, "Received")
	pdf.Cell(30, 8, "Shortage")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 12)
	for _, item := range card.Items {
		pdf.Cell(70, 7, item.Name)
		pdf.Cell(30, 7, fmt.Sprintf("%g %s", item.LoadedQuantity, item.Unit))
		pdf.Cell(30, 7, fmt.Sprintf("%g %s", item.ReceivedQuantity, item.Unit))
		pdf.Cell(30, 7, fmt.Sprintf("%g %s", item.Shortage, item.Unit))
		pdf.Ln(7)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
