package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"bistro-analytics-api/pkg/models"
)

// Export formats.
const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

// Export datasets.
const (
	ExportTypeSales      = "sales"
	ExportTypeProducts   = "products"
	ExportTypeCustomers  = "customers"
	ExportTypeDeliveries = "deliveries"
)

var (
	saleExportHeader = []string{
		"ID", "Date", "Customer", "Store", "Channel", "Status", "Total Amount", "Delivery Fee",
	}
	productExportHeader = []string{
		"ID", "Product", "Category", "Times Sold", "Quantity", "Revenue", "Avg Price",
	}
	customerExportHeader = []string{
		"ID", "Customer", "Email", "Total Purchases", "Total Spent", "Avg Ticket", "Last Purchase",
	}
	deliveryExportHeader = []string{
		"City", "Neighborhood", "Deliveries", "Revenue",
	}
)

var exportSheets = map[string]string{
	ExportTypeSales:      "Sales",
	ExportTypeProducts:   "Products",
	ExportTypeCustomers:  "Customers",
	ExportTypeDeliveries: "Deliveries",
}

// ExportService renders filtered datasets as downloadable CSV or XLSX files.
type ExportService struct {
	source     ExportSource
	maxRecords int
	Now        func() time.Time
}

func NewExportService(source ExportSource, maxRecords int) *ExportService {
	return &ExportService{source: source, maxRecords: maxRecords, Now: time.Now}
}

// ExportFile is a rendered export: the payload plus HTTP metadata.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Records     int
}

// Export fetches the requested dataset, capped at the configured maximum,
// and renders it in the requested format. An empty type exports sales.
func (s *ExportService) Export(ctx context.Context, f models.QueryFilter, typ, format string) (*ExportFile, error) {
	if typ == "" {
		typ = ExportTypeSales
	}
	header, rows, err := s.tabulate(ctx, f, typ)
	if err != nil {
		return nil, err
	}

	stamp := s.Now().Format("20060102_150405")
	switch format {
	case ExportFormatXLSX:
		data, err := renderXLSX(exportSheets[typ], header, rows)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("export_%s_%s.xlsx", typ, stamp),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
			Records:     len(rows),
		}, nil
	case ExportFormatCSV, "":
		data, err := renderCSV(header, rows)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("export_%s_%s.csv", typ, stamp),
			ContentType: "text/csv",
			Data:        data,
			Records:     len(rows),
		}, nil
	default:
		return nil, &FilterError{Field: "format", Reason: "must be csv or xlsx"}
	}
}

// tabulate resolves the dataset behind an export type into a header and
// string rows the renderers can share.
func (s *ExportService) tabulate(ctx context.Context, f models.QueryFilter, typ string) ([]string, [][]string, error) {
	capped := f
	capped.Limit = s.maxRecords

	switch typ {
	case ExportTypeSales:
		records, err := s.source.SaleRecords(ctx, f, s.maxRecords)
		if err != nil {
			return nil, nil, err
		}
		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, saleRow(r))
		}
		return saleExportHeader, rows, nil
	case ExportTypeProducts:
		records, err := s.source.TopProducts(ctx, capped)
		if err != nil {
			return nil, nil, err
		}
		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, productRow(r))
		}
		return productExportHeader, rows, nil
	case ExportTypeCustomers:
		records, err := s.source.CustomerStats(ctx, capped)
		if err != nil {
			return nil, nil, err
		}
		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, customerRow(r))
		}
		return customerExportHeader, rows, nil
	case ExportTypeDeliveries:
		records, err := s.source.NeighborhoodVolumes(ctx, capped)
		if err != nil {
			return nil, nil, err
		}
		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, neighborhoodRow(r))
		}
		return deliveryExportHeader, rows, nil
	default:
		return nil, nil, &FilterError{Field: "type", Reason: "must be sales, products, customers or deliveries"}
	}
}

func saleRow(r models.SaleRecord) []string {
	return []string{
		strconv.Itoa(r.ID),
		r.CreatedAt.Format("2006-01-02 15:04:05"),
		r.CustomerName,
		r.StoreName,
		r.ChannelName,
		r.Status,
		formatAmount(r.TotalAmount),
		formatAmount(r.DeliveryFee),
	}
}

func productRow(r models.ProductSales) []string {
	return []string{
		strconv.Itoa(r.ProductID),
		r.ProductName,
		r.CategoryName,
		strconv.Itoa(r.TimesSold),
		strconv.Itoa(r.Quantity),
		formatAmount(r.Revenue),
		formatNullable(r.AvgPrice),
	}
}

func customerRow(r models.CustomerStats) []string {
	return []string{
		strconv.Itoa(r.CustomerID),
		r.CustomerName,
		r.Email,
		strconv.Itoa(r.Frequency),
		formatAmount(r.TotalSpent),
		formatNullable(r.AvgTicket),
		r.LastPurchase.Format("2006-01-02"),
	}
}

func neighborhoodRow(r models.NeighborhoodVolume) []string {
	return []string{
		r.City,
		r.Neighborhood,
		strconv.Itoa(r.DeliveryCount),
		formatAmount(r.Revenue),
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatNullable renders an undefined value as an empty cell, never as 0.
func formatNullable(v models.NullableFloat) string {
	if !v.Valid {
		return ""
	}
	return formatAmount(v.Float64)
}

func renderCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderXLSX(sheet string, header []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), sheet)

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
