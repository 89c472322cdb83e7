package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"stockfeed/internal/catalog"
	"stockfeed/internal/ingest"
	"stockfeed/internal/model"
)

const defaultRunLimit = 20

type Ingester interface {
	Download(ctx context.Context) (ingest.DownloadResult, error)
	Import(ctx context.Context) (ingest.ImportResult, error)
}

type Catalog interface {
	All(ctx context.Context) ([]model.ProductGroup, error)
	Paginated(ctx context.Context, req catalog.PageRequest) (catalog.PageResult, error)
	ByID(ctx context.Context, productID string) ([]model.ProductGroup, error)
	ByCategory(ctx context.Context, category string, req catalog.PageRequest) (catalog.PageResult, error)
	Categories(ctx context.Context) ([]string, error)
}

type RunLister interface {
	Recent(ctx context.Context, limit int) ([]model.ImportRun, error)
}

// Handler exposes ingestion triggers and grouped product reads.
type Handler struct {
	Ingest  Ingester
	Catalog Catalog
	Runs    RunLister
	Logger  *zap.Logger
}

// Routes mounts the product endpoints on r. It is meant to be mounted under
// /api/products.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/download", h.download)
	r.Post("/add-products", h.addProducts)
	r.Get("/all", h.all)
	r.Get("/paginate", h.paginate)
	r.Get("/categories", h.categories)
	r.Get("/product/{id}", h.byID)
	r.Get("/category/{category}", h.byCategory)
}

// RunRoutes mounts the ingestion run history under /api/runs.
func (h *Handler) RunRoutes(r chi.Router) {
	r.Get("/", h.listRuns)
}

type pageEnvelope struct {
	Message       string               `json:"message"`
	Data          []model.ProductGroup `json:"data"`
	CurrentPage   int                  `json:"currentPage"`
	PageSize      int                  `json:"pageSize"`
	TotalPages    int                  `json:"totalPages"`
	TotalProducts int64                `json:"totalProducts"`
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	res, err := h.Ingest.Download(r.Context())
	if err != nil {
		h.fail(w, r, "Error downloading the stock file", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "success",
		"message":       "File downloaded successfully",
		"filePath":      res.FilePath,
		"snapshotPath":  res.SnapshotPath,
		"runId":         res.RunID,
		"bytes":         res.Bytes,
		"rowsRead":      res.Stats.RowsRead,
		"rowsKept":      res.Stats.RowsKept,
		"rowsMalformed": res.Stats.RowsMalformed,
	})
}

func (h *Handler) addProducts(w http.ResponseWriter, r *http.Request) {
	res, err := h.Ingest.Import(r.Context())
	if err != nil {
		h.fail(w, r, "Error adding products", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":       "Products added successfully",
		"productsAdded": res.Inserted,
		"productsRead":  res.Total,
		"runId":         res.RunID,
	})
}

func (h *Handler) all(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Catalog.All(r.Context())
	if err != nil {
		h.fail(w, r, "Error retrieving products", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Products retrieved successfully",
		"products":   groups,
		"totalCount": len(groups),
	})
}

func (h *Handler) paginate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := catalog.ParsePageRequest(q.Get("page"), q.Get("pageSize"))
	if err != nil {
		h.fail(w, r, "Invalid pagination parameters", err)
		return
	}
	res, err := h.Catalog.Paginated(r.Context(), req)
	if err != nil {
		h.fail(w, r, "Error retrieving paginated products", err)
		return
	}
	writeJSON(w, http.StatusOK, newPageEnvelope("Paginated products retrieved successfully", res))
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	names, err := h.Catalog.Categories(r.Context())
	if err != nil {
		h.fail(w, r, "Error retrieving categories", err)
		return
	}
	data := make([]map[string]string, 0, len(names))
	for _, name := range names {
		data = append(data, map[string]string{"category": name})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Categories retrieved successfully",
		"data":    data,
	})
}

func (h *Handler) byID(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Catalog.ByID(r.Context(), pathParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Error retrieving product", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Product retrieved successfully",
		"products": groups,
	})
}

// pageBody accepts page numbers as JSON numbers or numeric strings.
type pageBody struct {
	Page     json.Number `json:"page"`
	PageSize json.Number `json:"pageSize"`
}

func (h *Handler) byCategory(w http.ResponseWriter, r *http.Request) {
	var body pageBody
	if r.Body != nil {
		err := json.NewDecoder(r.Body).Decode(&body)
		if err != nil && !errors.Is(err, io.EOF) {
			h.fail(w, r, "Invalid request body", errors.Join(catalog.ErrInvalidPage, err))
			return
		}
	}
	page, size := body.Page.String(), body.PageSize.String()
	q := r.URL.Query()
	if page == "" {
		page = q.Get("page")
	}
	if size == "" {
		size = q.Get("pageSize")
	}

	req, err := catalog.ParsePageRequest(page, size)
	if err != nil {
		h.fail(w, r, "Invalid pagination parameters", err)
		return
	}
	res, err := h.Catalog.ByCategory(r.Context(), pathParam(r, "category"), req)
	if err != nil {
		h.fail(w, r, "Error retrieving products by category", err)
		return
	}
	writeJSON(w, http.StatusOK, newPageEnvelope("Products by category retrieved successfully", res))
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	if h.Runs == nil {
		writeError(w, r, http.StatusNotFound, "Run history is not available", nil)
		return
	}
	limit := defaultRunLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(w, r, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}
	runs, err := h.Runs.Recent(r.Context(), limit)
	if err != nil {
		h.fail(w, r, "Error retrieving import runs", err)
		return
	}
	if runs == nil {
		runs = []model.ImportRun{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Import runs retrieved successfully",
		"data":    runs,
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.Error(message, zap.Error(err), zap.String("path", r.URL.Path))
	}
	writeError(w, r, status, message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ingest.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrInvalidPage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func newPageEnvelope(message string, res catalog.PageResult) pageEnvelope {
	groups := res.Groups
	if groups == nil {
		groups = []model.ProductGroup{}
	}
	return pageEnvelope{
		Message:       message,
		Data:          groups,
		CurrentPage:   res.CurrentPage,
		PageSize:      res.PageSize,
		TotalPages:    res.TotalPages,
		TotalProducts: res.TotalProducts,
	}
}

// pathParam returns the decoded route parameter. chi matches against the
// escaped path when one is present, so "Lingerie%20Sexy" arrives still encoded.
func pathParam(r *http.Request, key string) string {
	value := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return value
	}
	if decoded, err := url.PathUnescape(value); err == nil {
		return decoded
	}
	return value
}
