package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"neuromatch/internal/document"
	"neuromatch/internal/errors"
	"neuromatch/internal/formatters"
	"neuromatch/internal/report"
	"neuromatch/internal/types"
	"neuromatch/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	exportBaseName  = "AI_Resume_Report"
	multipartMemory = 8 << 20
)

var exportFormats = []string{"markdown", "text", "json"}

func (s *Server) startSpan(ctx context.Context, name string) (context.Context, oteltrace.Span) {
	return s.deps.Observability.Tracer("neuromatch.api").Start(ctx, name)
}

func failSpan(span oteltrace.Span, err error, kind string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, kind)
	span.SetAttributes(attribute.String("error.type", kind))
}

func (s *Server) decodeReportRequest(w http.ResponseWriter, r *http.Request, span oteltrace.Span) (types.ReportRequest, bool) {
	var req types.ReportRequest
	if err := parseJSONRequest(r, &req); err != nil {
		failSpan(span, err, "validation")
		writeErrorResponse(w, "Invalid request body", errors.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest)
		return req, false
	}
	span.SetAttributes(
		attribute.Int("request.resume_length", len(req.ResumeText)),
		attribute.Int("request.jd_length", len(req.JobDescription)),
		attribute.String("request.mode", string(req.Mode)),
	)
	return req, true
}

// reportHandler runs a report to completion and returns it as one document
func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r.Context(), "api.report")
	defer span.End()

	req, ok := s.decodeReportRequest(w, r, span)
	if !ok {
		return
	}

	events, err := s.deps.Reports.Run(ctx, req)
	if err != nil {
		failSpan(span, err, "validation")
		s.writeAppError(w, r, "Report rejected", err)
		return
	}

	rep := report.Collect(events)
	if !rep.Complete {
		// the client went away before the run finished
		s.Logger.Info("Report abandoned by client", "run_id", rep.RunID)
		return
	}

	span.SetAttributes(
		attribute.String("report.run_id", rep.RunID),
		attribute.Int("report.sections", len(rep.Sections)),
	)
	writeJSON(w, http.StatusOK, rep)
}

// reportStreamHandler streams section events as Server-Sent Events. Request
// validation failures are returned as plain JSON before the stream opens.
func (s *Server) reportStreamHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r.Context(), "api.report.stream")
	defer span.End()

	req, ok := s.decodeReportRequest(w, r, span)
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := s.deps.Reports.Run(ctx, req)
	if err != nil {
		failSpan(span, err, "validation")
		s.writeAppError(w, r, "Report rejected", err)
		return
	}

	sw := newSSEWriter(w)
	sw.init()

	sent := 0
	for ev := range events {
		if ctx.Err() != nil {
			continue
		}
		if err := sw.writeEvent(ev); err != nil {
			s.Logger.Debug("Stream write failed, cancelling run", "run_id", ev.RunID, "error", err)
			cancel()
			continue
		}
		if ev.Type != types.EventKeepAlive {
			sent++
		}
	}
	span.SetAttributes(attribute.Int("stream.events", sent))
}

// extractHandler turns an uploaded .txt, .md or .docx file into text
func (s *Server) extractHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.startSpan(r.Context(), "api.extract")
	defer span.End()

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			writeErrorResponse(w, "File too large", errors.ErrCodeInvalidRequest,
				fmt.Sprintf("uploads are limited to %s", utils.FormatFileSize(s.MaxUploadSize)), http.StatusRequestEntityTooLarge)
			return
		}
		failSpan(span, err, "validation")
		writeErrorResponse(w, "Invalid upload", errors.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		failSpan(span, err, "validation")
		writeErrorResponse(w, "Missing file", errors.ErrCodeInvalidRequest,
			"multipart field 'file' is required", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	limit := s.MaxUploadSize
	var src io.Reader = file
	if limit > 0 {
		src = io.LimitReader(file, limit+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		failSpan(span, err, "io")
		writeErrorResponse(w, "Upload failed", errors.ErrCodeFileNotReadable, err.Error(), http.StatusBadRequest)
		return
	}
	if limit > 0 && int64(len(data)) > limit {
		writeErrorResponse(w, "File too large", errors.ErrCodeInvalidRequest,
			fmt.Sprintf("uploads are limited to %s", utils.FormatFileSize(limit)), http.StatusRequestEntityTooLarge)
		return
	}

	text, err := document.Extract(header.Filename, data)
	if err != nil {
		failSpan(span, err, "validation")
		s.writeAppError(w, r, "Extraction failed", err)
		return
	}

	span.SetAttributes(
		attribute.String("upload.extension", utils.GetFileExtension(header.Filename)),
		attribute.Int("upload.bytes", len(data)),
	)
	writeJSON(w, http.StatusOK, ExtractResponse{
		Text:     text,
		Filename: header.Filename,
		Chars:    len([]rune(text)),
	})
}

// exportHandler renders an assembled report as a downloadable document
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.startSpan(r.Context(), "api.export")
	defer span.End()

	var req ExportRequest
	if err := parseJSONRequest(r, &req); err != nil {
		failSpan(span, err, "validation")
		writeErrorResponse(w, "Invalid request body", errors.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Report == nil {
		writeErrorResponse(w, "Missing report", errors.ErrCodeInvalidRequest, "report field is required", http.StatusBadRequest)
		return
	}

	format := req.Format
	if format == "" {
		format = "markdown"
	}
	if !slices.Contains(exportFormats, format) {
		writeErrorResponse(w, "Unsupported format", errors.ErrCodeInvalidFormat,
			fmt.Sprintf("format must be one of %v", exportFormats), http.StatusBadRequest)
		return
	}

	if req.Report.GeneratedAt.IsZero() {
		req.Report.GeneratedAt = time.Now().UTC()
	}

	body, err := formatters.GlobalRegistry.Format(req.Report, format)
	if err != nil {
		failSpan(span, err, "format")
		writeErrorResponse(w, "Export failed", errors.ErrCodeInvalidFormat, err.Error(), http.StatusInternalServerError)
		return
	}

	filename := exportBaseName + "." + formatters.FileExtension(format)
	w.Header().Set("Content-Type", formatters.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// jobSearchHandler finds and scores postings for a résumé profile
func (s *Server) jobSearchHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r.Context(), "api.jobs.search")
	defer span.End()

	var req types.JobSearchRequest
	if err := parseJSONRequest(r, &req); err != nil {
		failSpan(span, err, "validation")
		writeErrorResponse(w, "Invalid request body", errors.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}

	jobs, err := s.deps.Jobs.Search(ctx, req)
	if err != nil {
		failSpan(span, err, "search")
		s.writeAppError(w, r, "Job search failed", err)
		return
	}
	if jobs == nil {
		jobs = []types.Job{}
	}

	span.SetAttributes(attribute.Int("jobs.returned", len(jobs)))
	writeJSON(w, http.StatusOK, JobSearchResponse{Jobs: jobs})
}
