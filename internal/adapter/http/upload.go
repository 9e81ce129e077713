package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/carwash-ops/internal/adapter/csvfile"
	"github.com/couchcryptid/carwash-ops/internal/domain"
	"github.com/couchcryptid/carwash-ops/internal/format"
	"github.com/couchcryptid/carwash-ops/internal/pipeline"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

// handleCreateReport is the API entry point. The response encoding follows
// the format field (json by default).
func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.runUpload(w, r)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}

	f := format.JSON
	if v := r.FormValue("format"); v != "" {
		f, err = format.ParseFormat(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	if f == format.JSON {
		writeJSON(w, http.StatusOK, report)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	if err := format.Render(w, f, report); err != nil {
		s.logger.Error("render report failed", "error", err)
	}
}

// runUpload parses the multipart form and runs the pipeline over its file.
func (s *Server) runUpload(w http.ResponseWriter, r *http.Request) (domain.Report, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.Report{}, tooLarge
		}
		return domain.Report{}, fmt.Errorf("%w: expected a multipart form with a file field", pipeline.ErrInvalidRequest)
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck // temp file cleanup

	file, _, err := r.FormFile("file")
	if err != nil {
		return domain.Report{}, fmt.Errorf("%w: missing file upload", pipeline.ErrInvalidRequest)
	}
	defer file.Close()

	table, err := csvfile.Read(file)
	if err != nil {
		return domain.Report{}, err
	}

	opts, err := parseOptions(r)
	if err != nil {
		return domain.Report{}, err
	}

	report, err := s.runner.Process(r.Context(), table, opts)
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			s.logger.Error("report run failed", "error", err)
		}
		return domain.Report{}, err
	}
	return report, nil
}

// parseOptions reads the optional run parameters. Blank fields keep the
// configured defaults.
func parseOptions(r *http.Request) (pipeline.Options, error) {
	var opts pipeline.Options
	opts.TargetDate = strings.TrimSpace(r.FormValue("date"))

	var err error
	if opts.TrafficIndex, err = optionalFloat(r, "traffic_index"); err != nil {
		return opts, err
	}
	if opts.TrafficLevel, err = optionalInt(r, "traffic_level"); err != nil {
		return opts, err
	}
	hours, err := optionalInt(r, "maintenance_hours")
	if err != nil {
		return opts, err
	}
	if hours != nil {
		if *hours == 0 {
			return opts, fmt.Errorf("%w: maintenance_hours must be positive", pipeline.ErrInvalidRequest)
		}
		opts.MaintenanceHours = *hours
	}
	if opts.Latitude, err = optionalFloat(r, "lat"); err != nil {
		return opts, err
	}
	if opts.Longitude, err = optionalFloat(r, "lon"); err != nil {
		return opts, err
	}
	return opts, nil
}

func optionalFloat(r *http.Request, key string) (*float64, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q is not a number", pipeline.ErrInvalidRequest, key, raw)
	}
	return &v, nil
}

func optionalInt(r *http.Request, key string) (*int, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q is not a whole number", pipeline.ErrInvalidRequest, key, raw)
	}
	return &v, nil
}

// statusFor maps run errors onto HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, pipeline.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmptyInput),
		errors.Is(err, domain.ErrMissingColumn),
		errors.Is(err, csvfile.ErrUnreadable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
