package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	parser "github.com/Saki-tw/go-jp-ikan-parser"
	"github.com/Saki-tw/go-jp-ikan-parser/internal/config"
)

// Handler アップロードされた 4 ファイルを突合するハンドラ
// 要求ごとに独立して処理し、アップロード内容は保持しない
type Handler struct {
	logger    *slog.Logger
	maxUpload int64
	preview   int
	encodings map[parser.Role]string
	now       func() time.Time
}

// NewHandler 設定からハンドラを作成
func NewHandler(cfg *config.Config, logger *slog.Logger) *Handler {
	encodings := make(map[parser.Role]string, len(parser.Roles))
	for _, r := range parser.Roles {
		encodings[r] = cfg.Inputs.ByRole(r).Encoding
	}
	return &Handler{
		logger:    logger,
		maxUpload: cfg.HTTP.MaxUploadBytes(),
		preview:   cfg.Output.Preview,
		encodings: encodings,
		now:       time.Now,
	}
}

// processResponse 処理結果 (プレビューのみ、全件は /api/export)
type processResponse struct {
	Success bool                          `json:"success"`
	RunID   string                        `json:"run_id"`
	Total   int                           `json:"total"`
	Records []parser.OutputRecord         `json:"records"`
	Stats   parser.Stats                  `json:"stats"`
	Dropped map[parser.Role][]parser.Drop `json:"dropped,omitempty"`
}

// Encodings GET /api/encodings
func (h *Handler) Encodings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, parser.SupportedEncodings())
}

// Roles GET /api/roles 入力ロールと既定の文字コード
func (h *Handler) Roles(w http.ResponseWriter, _ *http.Request) {
	infos := parser.GetRoleInfos()
	for i := range infos {
		if enc := h.encodings[infos[i].Role]; enc != "" {
			infos[i].Encoding = enc
		}
	}
	writeJSON(w, http.StatusOK, infos)
}

// Process POST /api/process
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	runID := uuid.NewString()
	res, status, err := h.run(w, r, runID)
	if err != nil {
		sendError(w, status, runID, err.Error())
		return
	}

	records := res.Preview(h.preview)
	if records == nil {
		records = []parser.OutputRecord{}
	}
	writeJSON(w, http.StatusOK, processResponse{
		Success: true,
		RunID:   runID,
		Total:   len(res.Records),
		Records: records,
		Stats:   res.Stats,
		Dropped: res.Dropped,
	})
}

// Export POST /api/export 同じフォームを受け取り CSV を添付ファイルで返す
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	runID := uuid.NewString()
	res, status, err := h.run(w, r, runID)
	if err != nil {
		sendError(w, status, runID, err.Error())
		return
	}

	name := parser.ExportFileName(h.now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(
		`attachment; filename="ikan_%s.csv"; filename*=UTF-8''%s`,
		h.now().Format("2006-01-02"), url.PathEscape(name)))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Export)))
	w.Header().Set("X-Run-Id", runID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Export)
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request, runID string) (*parser.Result, int, error) {
	logger := h.logger.With(slog.String("run_id", runID))

	in, err := h.readInputs(w, r)
	if err != nil {
		logger.Warn("upload rejected", slog.String("error", err.Error()))
		return nil, http.StatusBadRequest, err
	}

	res, err := parser.Run(in, parser.WithLogger(logger))
	if err != nil {
		logger.Warn("reconciliation failed", slog.String("error", err.Error()))
		if errors.Is(err, parser.ErrMissingInput) {
			return nil, http.StatusBadRequest, err
		}
		return nil, http.StatusUnprocessableEntity, err
	}
	return res, http.StatusOK, nil
}

// readInputs マルチパートフォームから 4 ファイルを読み込む
// フィールド名はロール名、文字コードは "<role>-encoding"
func (h *Handler) readInputs(w http.ResponseWriter, r *http.Request) (parser.Inputs, error) {
	var in parser.Inputs

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return in, fmt.Errorf("read upload: %w", err)
	}

	for _, role := range parser.Roles {
		file, header, err := r.FormFile(string(role))
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return in, fmt.Errorf("read %s: %w", role, err)
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return in, fmt.Errorf("read %s: %w", role, err)
		}

		enc := r.FormValue(string(role) + "-encoding")
		if enc == "" {
			enc = h.encodings[role]
		}
		in.Set(&parser.Input{
			Role:     role,
			Name:     header.Filename,
			Encoding: enc,
			Data:     data,
		})
	}

	return in, nil
}
