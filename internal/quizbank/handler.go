package quizbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"learnportal/internal/app/apiresp"
	"learnportal/internal/extract"
	"learnportal/internal/quiz"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc         quizService
	maxUploadMB int64
}

type quizService interface {
	UploadQuiz(ctx context.Context, moduleID int64, in UploadInput) (*UploadResult, error)
	PreviewUpload(ctx context.Context, in UploadInput) (*PreviewResult, error)
	SaveQuiz(ctx context.Context, moduleID int64, in SaveQuizInput) (*Quiz, error)
	ListQuizzes(ctx context.Context, moduleID int64) ([]QuizSummary, error)
	GetQuiz(ctx context.Context, quizID int64) (*Quiz, error)
	DeleteQuiz(ctx context.Context, quizID int64) error
	RandomAttempt(ctx context.Context, moduleID int64, count int) (*quiz.Attempt, bool, error)
	SubmitQuiz(ctx context.Context, quizID int64, sub Submission) (*quiz.GradeResult, error)
	SubmitAttempt(ctx context.Context, moduleID int64, sub AttemptSubmission) (*quiz.GradeResult, error)
	ListAttempts(ctx context.Context, moduleID int64, limit int) ([]AttemptRecord, error)
	ImportSheet(ctx context.Context, moduleID int64, title, fileName string, data []byte) (*SheetImportResult, error)
	ExportQuiz(ctx context.Context, quizID int64) ([]byte, string, error)
}

type apiResponse struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type saveQuizRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Questions   []quiz.ParsedQuestion `json:"questions"`
}

type submitRequest struct {
	Answers map[int64]string `json:"answers"`
	Learner string           `json:"learner"`
}

type submitAttemptRequest struct {
	QuestionIDs []int64          `json:"question_ids"`
	Answers     map[int64]string `json:"answers"`
	Learner     string           `json:"learner"`
}

func NewHandler(svc quizService, maxUploadMB int64) *Handler {
	if maxUploadMB <= 0 {
		maxUploadMB = DefaultMaxUploadMB
	}
	return &Handler{svc: svc, maxUploadMB: maxUploadMB}
}

// Routes mounts the quiz endpoints under /modules/{moduleID}. Upload-style
// routes are wrapped with uploadLimit.
func (h *Handler) Routes(r chi.Router, uploadLimit func(http.Handler) http.Handler) {
	r.Route("/modules/{moduleID}", func(m chi.Router) {
		m.Group(func(up chi.Router) {
			up.Use(uploadLimit)
			up.Post("/quizzes/upload", h.Upload)
			up.Post("/quizzes/upload/preview", h.Preview)
			up.Post("/quizzes/import", h.Import)
		})
		m.Post("/quizzes", h.Save)
		m.Get("/quizzes", h.List)
		m.Get("/quizzes/random", h.Random)
		m.Get("/quizzes/{quizID}", h.Get)
		m.Delete("/quizzes/{quizID}", h.Delete)
		m.Post("/quizzes/{quizID}/submit", h.Submit)
		m.Get("/quizzes/{quizID}/export", h.Export)
		m.Post("/attempts/submit", h.SubmitAttempt)
		m.Get("/attempts", h.ListAttempts)
	})
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := pathID(w, r, "moduleID")
	if !ok {
		return
	}
	in, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	res, err := h.svc.UploadQuiz(r.Context(), moduleID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOKMessage(w, r, http.StatusCreated, res, res.Message)
}

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if _, ok := pathID(w, r, "moduleID"); !ok {
		return
	}
	in, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	res, err := h.svc.PreviewUpload(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: res})
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := pathID(w, r, "moduleID")
	if !ok {
		return
	}
	in, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	res, err := h.svc.ImportSheet(r.Context(), moduleID, in.Title, in.FileName, in.Data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, apiResponse{OK: true, Data: res})
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := pathID(w, r, "moduleID")
	if !ok {
		return
	}
	var req saveQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	item, err := h.svc.SaveQuiz(r.Context(), moduleID, SaveQuizInput{
		Title:       req.Title,
		Description: req.Description,
		Questions:   req.Questions,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, apiResponse{OK: true, Data: item})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := pathID(w, r, "moduleID")
	if !ok {
		return
	}
	items, err := h.svc.ListQuizzes(r.Context(), moduleID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: items})
}

func (h *Handler) Random(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := pathID(w, r, "moduleID")
	if !ok {
		return
	}
	count := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("numQuestions")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "numQuestions must be a positive integer"})
			return
		}
		count = n
	}

	attempt, found, err := h.svc.RandomAttempt(r.Context(), moduleID, count)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !found {
		writeJSON(w, r, http.StatusNotFound, apiResponse{OK: false, Error: NoPoolMessage})
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: attempt.Redacted()})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	qz, ok := h.moduleQuiz(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: qz})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	qz, ok := h.moduleQuiz(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteQuiz(r.Context(), qz.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]int64{"quiz_id": qz.ID}})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	qz, ok := h.moduleQuiz(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	res, err := h.svc.SubmitQuiz(r.Context(), qz.ID, Submission{Answers: req.Answers, Learner: req.Learner})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: res})
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	qz, ok := h.moduleQuiz(w, r)
	if !ok {
		return
	}
	data, name, err := h.svc.ExportQuiz(r.Context(), qz.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := pathID(w, r, "moduleID")
	if !ok {
		return
	}
	var req submitAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	res, err := h.svc.SubmitAttempt(r.Context(), moduleID, AttemptSubmission{
		QuestionIDs: req.QuestionIDs,
		Answers:     req.Answers,
		Learner:     req.Learner,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: res})
}

func (h *Handler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := pathID(w, r, "moduleID")
	if !ok {
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	items, err := h.svc.ListAttempts(r.Context(), moduleID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: items})
}

// moduleQuiz loads {quizID} and checks it belongs to {moduleID}.
func (h *Handler) moduleQuiz(w http.ResponseWriter, r *http.Request) (*Quiz, bool) {
	moduleID, ok := pathID(w, r, "moduleID")
	if !ok {
		return nil, false
	}
	quizID, ok := pathID(w, r, "quizID")
	if !ok {
		return nil, false
	}
	qz, err := h.svc.GetQuiz(r.Context(), quizID)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	if qz.ModuleID != moduleID {
		writeServiceError(w, r, ErrQuizNotFound)
		return nil, false
	}
	return qz, true
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (UploadInput, bool) {
	limit := h.maxUploadMB * 1024 * 1024
	if r.ContentLength > limit+1<<20 {
		writeServiceError(w, r, &FileTooLargeError{SizeBytes: r.ContentLength, LimitMB: h.maxUploadMB})
		return UploadInput{}, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeServiceError(w, r, &FileTooLargeError{SizeBytes: r.ContentLength, LimitMB: h.maxUploadMB})
			return UploadInput{}, false
		}
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid multipart form"})
		return UploadInput{}, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "file is required"})
		return UploadInput{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "failed to read file"})
		return UploadInput{}, false
	}
	return UploadInput{
		FileName:    header.Filename,
		Data:        data,
		Size:        header.Size,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *FileTooLargeError
	switch {
	case errors.As(err, &tooLarge):
		apiresp.WriteErrorHint(w, r, http.StatusRequestEntityTooLarge, tooLarge.Error(), "Please upload a smaller file.")
	case errors.Is(err, extract.ErrUnsupportedFormat):
		apiresp.WriteErrorHint(w, r, http.StatusBadRequest, err.Error(), "Supported formats: pdf, docx, pptx, txt for documents; xlsx, csv for sheets.")
	case errors.Is(err, extract.ErrExtractionFailed):
		apiresp.WriteErrorHint(w, r, http.StatusBadRequest, err.Error(), "The file could not be read. Check that it is not corrupted or password protected.")
	case errors.Is(err, quiz.ErrNoReadableContent), errors.Is(err, quiz.ErrNoQuestionsFound):
		apiresp.WriteErrorHint(w, r, http.StatusBadRequest, err.Error(), quiz.Hint(err))
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrSheetInvalid):
		apiresp.WriteErrorHint(w, r, http.StatusBadRequest, err.Error(), quiz.Hint(err))
	case errors.Is(err, ErrQuizNotFound):
		writeJSON(w, r, http.StatusNotFound, apiResponse{OK: false, Error: err.Error()})
	default:
		writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload apiResponse) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}
