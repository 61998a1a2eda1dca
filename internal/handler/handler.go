// Package handler содержит HTTP-обработчики API сервиса полевых продаж.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/fieldsales-system/internal/mapping"
	"github.com/mmeshcher/fieldsales-system/internal/middleware"
	"github.com/mmeshcher/fieldsales-system/internal/model"
	"github.com/mmeshcher/fieldsales-system/internal/service"
)

const dateLayout = "2006-01-02"

// Ограничение на размер multipart-запроса с фотографией.
const maxUploadBytes = 16 << 20

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Authenticate(ctx context.Context, username, password string) (*model.UserRecord, error)
	LookupShops(ctx context.Context, employee, distributor string) []string
	BumpShopToken() int64
	SubmitOrder(ctx context.Context, draft model.OrderDraft) (*model.SubmissionResult, error)
	ReplaceUserMapping(ctx context.Context, rows []mapping.Row) error
}

// Handler реализует HTTP-обработчики API сервиса полевых продаж.
type Handler struct {
	service Service
	logger  *zap.Logger
	session *middleware.SessionMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, session *middleware.SessionMiddleware) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
		session: session,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Username     string   `json:"username"`
	Role         string   `json:"role"`
	EmployeeName string   `json:"employee_name"`
	Distributors []string `json:"distributors"`
}

// Login выполняет аутентификацию пользователя и установку cookie сессии.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.logger.Error("login error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sess := middleware.Session{
		Username:     user.Username,
		Role:         user.Role,
		EmployeeName: user.EmployeeName,
		Distributors: user.Distributors,
	}
	if err := h.session.SetSessionCookie(w, sess); err != nil {
		h.logger.Error("set session cookie error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sessionResponse{
		Username:     user.Username,
		Role:         string(user.Role),
		EmployeeName: user.EmployeeName,
		Distributors: user.Distributors,
	}); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// Logout завершает сессию текущего пользователя.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.session.ClearSessionCookie(w)
	w.WriteHeader(http.StatusOK)
}

// GetShops возвращает список торговых точек сотрудника для указанного дистрибьютора.
func (h *Handler) GetShops(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	distributor := r.URL.Query().Get("distributor")
	if distributor == "" {
		http.Error(w, "distributor query parameter is required", http.StatusBadRequest)
		return
	}

	shops := h.service.LookupShops(r.Context(), sess.EmployeeName, distributor)
	if shops == nil {
		shops = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(shops); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// RefreshShops принудительно обесценивает закэшированные списки торговых точек.
func (h *Handler) RefreshShops(w http.ResponseWriter, r *http.Request) {
	h.service.BumpShopToken()
	w.WriteHeader(http.StatusOK)
}

type orderRequest struct {
	OrderDate     string              `json:"order_date"`
	Distributor   string              `json:"distributor"`
	ShopName      string              `json:"shop_name"`
	MarginPercent float64             `json:"margin"`
	BeatArea      string              `json:"beat_area"`
	Lines         []model.ProductLine `json:"lines"`
	Remarks       string              `json:"remarks"`
	LastVisitDate string              `json:"last_visit_date"`
	NumVisits     int                 `json:"num_visits"`
}

type submissionResponse struct {
	RowsAppended int    `json:"rows_appended"`
	PhotoLink    string `json:"photo_link"`
}

// SubmitOrder принимает заявку сотрудника: JSON-часть "order" и файл "photo".
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req orderRequest
	if err := json.Unmarshal([]byte(r.FormValue("order")), &req); err != nil {
		http.Error(w, "order part must be valid JSON", http.StatusBadRequest)
		return
	}

	orderDate, err := time.Parse(dateLayout, req.OrderDate)
	if err != nil {
		http.Error(w, "order_date must be in YYYY-MM-DD format", http.StatusBadRequest)
		return
	}
	lastVisit, err := time.Parse(dateLayout, req.LastVisitDate)
	if err != nil {
		http.Error(w, "last_visit_date must be in YYYY-MM-DD format", http.StatusBadRequest)
		return
	}

	// Дистрибьютор должен входить в список, закреплённый за сотрудником.
	// Хранилище это не контролирует, проверка выполняется только здесь.
	if len(sess.Distributors) > 0 && !slices.Contains(sess.Distributors, req.Distributor) {
		http.Error(w, "distributor is not assigned to the employee", http.StatusBadRequest)
		return
	}

	draft := model.OrderDraft{
		OrderDate:     orderDate,
		EmployeeName:  sess.EmployeeName,
		Distributor:   req.Distributor,
		ShopName:      req.ShopName,
		MarginPercent: req.MarginPercent,
		BeatArea:      req.BeatArea,
		Lines:         req.Lines,
		Remarks:       req.Remarks,
		LastVisitDate: lastVisit,
		NumVisits:     req.NumVisits,
	}

	if file, header, fErr := r.FormFile("photo"); fErr == nil {
		defer file.Close()

		photo, readErr := io.ReadAll(file)
		if readErr != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		draft.Photo = photo
		draft.PhotoMIME = header.Header.Get("Content-Type")
	}

	res, err := h.service.SubmitOrder(r.Context(), draft)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string][]string{"errors": vErr.Problems})
			return
		}
		h.logger.Error("submit order error",
			zap.Error(err),
			zap.String("employee", sess.EmployeeName),
			zap.String("shop", req.ShopName),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(submissionResponse{
		RowsAppended: res.RowsAppended,
		PhotoLink:    res.PhotoLink,
	}); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// ReplaceUsers полностью заменяет таблицу пользователей файлом соответствия (.csv или .xlsx).
func (h *Handler) ReplaceUsers(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file part is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	rows, err := mapping.Parse(header.Filename, file)
	if err != nil {
		var schemaErr *mapping.SchemaError
		if errors.As(err, &schemaErr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":            "missing required columns",
				"missing":          schemaErr.Missing,
				"required_columns": mapping.RequiredColumns,
			})
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.ReplaceUserMapping(r.Context(), rows); err != nil {
		h.logger.Error("replace user mapping error", zap.Error(err), zap.String("file", header.Filename))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]int{"rows": len(rows)}); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}
