package server

import (
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marcus/resume-tailor/internal/extraction"
	"github.com/marcus/resume-tailor/internal/pipeline"
)

// maxUploadSize bounds multipart request bodies.
const maxUploadSize = 32 << 20

// allowedExtensions lists the resume file types the extractor can handle.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".doc":  true,
	".txt":  true,
	".tex":  true,
}

// allowedMIMETypes lists acceptable declared content types for uploads.
// Browsers are inconsistent here, so application/octet-stream is accepted
// and the extension check does the real gatekeeping.
var allowedMIMETypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/msword":       true,
	"text/plain":               true,
	"text/x-tex":               true,
	"application/x-tex":        true,
	"application/octet-stream": true,
}

// TailorResponse is returned by the tailoring endpoints
type TailorResponse struct {
	RunID               string `json:"run_id"`
	Message             string `json:"message"`
	DraftTexDownloadURL string `json:"draft_tex_download_url"`
	TexDownloadURL      string `json:"tex_download_url"`
	PDFDownloadURL      string `json:"pdf_download_url"`
	BlankPageRemoved    bool   `json:"blank_page_removed"`
}

// parseTailorRequest validates the multipart form and builds pipeline options.
func (s *Server) parseTailorRequest(r *http.Request) (pipeline.RunOptions, error) {
	var opts pipeline.RunOptions

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return opts, &ErrValidation{Field: "body", Message: "invalid multipart form: " + err.Error()}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return opts, &ErrValidation{Field: "file", Message: "resume file is required"}
	}
	defer func() { _ = file.Close() }()

	if err := validateUpload(header); err != nil {
		return opts, err
	}

	jobDescription := r.FormValue("job_desc")
	jobURL := r.FormValue("job_url")
	if jobDescription == "" && jobURL == "" {
		return opts, &ErrValidation{Field: "job_desc", Message: "either job_desc or job_url is required"}
	}
	if jobDescription != "" && jobURL != "" {
		return opts, &ErrValidation{Field: "job_desc", Message: "job_desc and job_url are mutually exclusive"}
	}

	content, err := io.ReadAll(file)
	if err != nil {
		return opts, fmt.Errorf("failed to read upload: %w", err)
	}
	resumeText, err := extraction.FromUpload(content, header.Filename, s.cfg.UploadsDir)
	if err != nil {
		return opts, &ErrValidation{Field: "file", Message: "could not extract resume text: " + err.Error()}
	}

	jobPath := ""
	if jobDescription != "" {
		if err := os.MkdirAll(s.cfg.UploadsDir, 0755); err != nil {
			return opts, fmt.Errorf("failed to create uploads directory: %w", err)
		}
		jobPath = filepath.Join(s.cfg.UploadsDir, fmt.Sprintf("job_%d.txt", time.Now().UnixNano()))
		if err := os.WriteFile(jobPath, []byte(jobDescription), 0644); err != nil {
			return opts, fmt.Errorf("failed to save job description: %w", err)
		}
	}

	templatePath := s.cfg.TemplatePath
	if tmplFile, tmplHeader, tmplErr := r.FormFile("template"); tmplErr == nil {
		defer func() { _ = tmplFile.Close() }()
		templatePath, err = s.saveUpload(tmplFile, tmplHeader)
		if err != nil {
			return opts, err
		}
	}
	if templatePath == "" {
		return opts, &ErrValidation{Field: "template", Message: "no template uploaded and no default template configured"}
	}

	return pipeline.RunOptions{
		ResumeText:   resumeText,
		ResumeName:   filepath.Base(header.Filename),
		JobPath:      jobPath,
		JobURL:       jobURL,
		TemplatePath: templatePath,
		ResultsDir:   s.cfg.ResultsDir,
		Client:       s.client,
		Compiler:     s.compiler,
		UseBrowser:   s.cfg.UseBrowser,
		DatabaseURL:  s.cfg.DatabaseURL,
	}, nil
}

func validateUpload(header *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return &ErrUnsupportedMediaType{ContentType: ext}
	}

	declared := header.Header.Get("Content-Type")
	if declared != "" {
		mediaType, _, err := mime.ParseMediaType(declared)
		if err == nil && !allowedMIMETypes[mediaType] {
			return &ErrUnsupportedMediaType{ContentType: mediaType}
		}
	}
	return nil
}

// saveUpload writes an uploaded file into the uploads directory. The base
// name is used so a crafted filename cannot escape the directory.
func (s *Server) saveUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	path := filepath.Join(s.cfg.UploadsDir, filepath.Base(header.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return path, nil
}

// handleTailorResume runs the full pipeline synchronously and returns
// download links for the generated artifacts.
func (s *Server) handleTailorResume(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseTailorRequest(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	result, err := pipeline.Run(r.Context(), opts)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.scheduleCleanup(result)
	s.jsonResponse(w, http.StatusOK, s.tailorResponse(result))
}

// handleTailorResumeStream runs the pipeline and streams progress as
// Server-Sent Events, finishing with the download links.
func (s *Server) handleTailorResumeStream(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseTailorRequest(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	stream, err := newEventStream(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts.OnProgress = func(event pipeline.ProgressEvent) {
		if err := stream.send("step", event); err != nil {
			log.Printf("Error writing SSE event: %v", err)
		}
	}

	result, err := pipeline.Run(r.Context(), opts)
	if err != nil {
		stream.fail(err.Error())
		return
	}

	s.scheduleCleanup(result)
	if err := stream.send("result", s.tailorResponse(result)); err != nil {
		log.Printf("Error writing SSE result: %v", err)
	}
	stream.complete(result.RunID.String())
}

func (s *Server) tailorResponse(result *pipeline.Result) TailorResponse {
	return TailorResponse{
		RunID:               result.RunID.String(),
		Message:             "Resume tailored successfully",
		DraftTexDownloadURL: fmt.Sprintf("%s/download/tex/%s", s.cfg.BaseURL, filepath.Base(result.DraftTexPath)),
		TexDownloadURL:      fmt.Sprintf("%s/download/tex/%s", s.cfg.BaseURL, filepath.Base(result.FinalTexPath)),
		PDFDownloadURL:      fmt.Sprintf("%s/download/pdf/%s", s.cfg.BaseURL, filepath.Base(result.PDFPath)),
		BlankPageRemoved:    result.BlankPageRemoved,
	}
}

// scheduleCleanup removes compile intermediates once the cleanup delay has
// passed. The draft, final TeX, and cleaned PDF are kept for download.
func (s *Server) scheduleCleanup(result *pipeline.Result) {
	if s.cfg.CleanupDelay <= 0 {
		return
	}

	stem := strings.TrimSuffix(filepath.Base(result.FinalTexPath), ".tex")
	dir := filepath.Dir(result.FinalTexPath)

	var targets []string
	for _, prefix := range []string{"", "wrapper_", "fixed_"} {
		for _, ext := range []string{".aux", ".log", ".out"} {
			targets = append(targets, filepath.Join(dir, prefix+stem+ext))
		}
	}
	targets = append(targets,
		filepath.Join(dir, "wrapper_"+stem+".tex"),
		filepath.Join(dir, "fixed_"+stem+".tex"),
		filepath.Join(dir, stem+".pdf"), // pre-clean compiler output
	)

	time.AfterFunc(s.cfg.CleanupDelay, func() {
		for _, path := range targets {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				log.Printf("cleanup: failed to remove %s: %v", path, err)
			}
		}
	})
}

// handleDownloadTex serves a generated .tex file as an attachment
func (s *Server) handleDownloadTex(w http.ResponseWriter, r *http.Request) {
	s.serveArtifact(w, r, ".tex", "application/x-tex")
}

// handleDownloadPDF serves a generated PDF as an attachment
func (s *Server) handleDownloadPDF(w http.ResponseWriter, r *http.Request) {
	s.serveArtifact(w, r, ".pdf", "application/pdf")
}

// handleStatic serves files from the results directory inline
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	path, err := s.artifactPath(filename)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) serveArtifact(w http.ResponseWriter, r *http.Request, wantExt, contentType string) {
	filename := r.PathValue("filename")
	if filepath.Ext(filename) != wantExt {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("expected a %s file", wantExt))
		return
	}

	path, err := s.artifactPath(filename)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}

// artifactPath resolves a requested filename inside the results directory,
// rejecting anything that would traverse out of it.
func (s *Server) artifactPath(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return "", &ErrValidation{Field: "filename", Message: "invalid filename"}
	}

	path := filepath.Join(s.cfg.ResultsDir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", &ErrArtifactNotFound{Filename: filename}
	}
	return path, nil
}
