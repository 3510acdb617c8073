package frameio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/LdDl/sidewalk-go/mot"
	"github.com/pkg/errors"
)

var reportHeader = []string{
	"stream", "frame", "object_id", "name",
	"centroid_x", "centroid_y", "distance", "width", "heading",
	"latitude", "longitude", "disappeared",
}

// ReportWriter writes tracked objects as ';' separated CSV rows, one row per object per frame
type ReportWriter struct {
	w             *csv.Writer
	headerWritten bool
}

// NewReportWriter creates new ReportWriter. Header is written before the first row.
func NewReportWriter(w io.Writer) *ReportWriter {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = ';'
	return &ReportWriter{
		w: csvWriter,
	}
}

// WriteFrame writes rows for given objects of the frame
func (report *ReportWriter) WriteFrame(stream string, frame int, objects []*mot.TrackedObject) error {
	if !report.headerWritten {
		if err := report.w.Write(reportHeader); err != nil {
			return errors.Wrap(err, "Can't write report header")
		}
		report.headerWritten = true
	}
	for _, object := range objects {
		row := []string{
			stream,
			strconv.Itoa(frame),
			strconv.Itoa(object.ID),
			object.Name,
			formatFloat(object.Centroid.X),
			formatFloat(object.Centroid.Y),
			formatFloat(object.Distance),
			formatFloat(object.Width),
			formatFloat(object.Heading),
			formatFloat(object.Location.Lat()),
			formatFloat(object.Location.Lon()),
			strconv.Itoa(object.Disappeared()),
		}
		if err := report.w.Write(row); err != nil {
			return errors.Wrapf(err, "Can't write object %d of frame %d", object.ID, frame)
		}
	}
	return nil
}

// Flush writes buffered rows to the underlying writer
func (report *ReportWriter) Flush() error {
	report.w.Flush()
	return errors.Wrap(report.w.Error(), "Can't flush report")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
