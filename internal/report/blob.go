package report

import (
	"errors"
	"strings"

	"github.com/onction/power-dashboard/internal/domain"
)

const (
	ContentTypeCSV      = "text/csv"
	ContentTypeDocument = "application/vnd.ms-word"
)

// ErrNothingToExport is returned instead of producing an empty or broken file.
var ErrNothingToExport = errors.New("nothing to export")

// Blob is a named downloadable file.
type Blob struct {
	Name        string
	ContentType string
	Data        []byte
}

// FeederCSVName is "<feeder>_<from>_to_<to>.csv".
func FeederCSVName(feeder string, r domain.DateRange) string {
	return feeder + "_" + period(r) + ".csv"
}

// FeederDocumentName is "<feeder>_report_<from>_to_<to>.doc".
func FeederDocumentName(feeder string, r domain.DateRange) string {
	return feeder + "_report_" + period(r) + ".doc"
}

func FeedersCSVName(r domain.DateRange) string {
	return "All_Feeders_Report_" + period(r) + ".csv"
}

func PerformanceDocumentName(r domain.DateRange) string {
	return "Feeder_Performance_Report_" + period(r) + ".doc"
}

func period(r domain.DateRange) string {
	return r.FromParam() + "_to_" + r.ToParam()
}

// ArchiveKey is where a blob is stored in the report archive.
func ArchiveKey(prefix string, b *Blob) string {
	prefix = strings.Trim(prefix, "/")
	name := strings.ReplaceAll(b.Name, "/", "-")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
