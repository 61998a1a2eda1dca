// Package service реализует бизнес-логику сервиса полевых продаж.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/fieldsales-system/internal/mapping"
	"github.com/mmeshcher/fieldsales-system/internal/model"
	"github.com/mmeshcher/fieldsales-system/internal/sheetstore"
	"github.com/mmeshcher/fieldsales-system/internal/shopcache"
	"github.com/mmeshcher/fieldsales-system/internal/validation"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"
)

// ErrInvalidCredentials возвращается, если пара логин/пароль не совпала ни с одной строкой.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError собирает замечания к заявке; при его получении ни одна строка не записана.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid order draft: " + strings.Join(e.Problems, "; ")
}

// TabularStore описывает контракт доступа к общей таблице, используемый сервисом.
type TabularStore interface {
	ReadAllRows(ctx context.Context, worksheet string) ([]map[string]string, error)
	AppendRow(ctx context.Context, worksheet string, values []any) error
	Clear(ctx context.Context, worksheet string) error
	EnsureWorksheet(ctx context.Context, worksheet string, header []string) error
}

// BlobStore описывает контракт загрузки фотографий торговых точек.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, mimeType, filename string) (string, error)
}

// Service содержит бизнес-логику сервиса полевых продаж.
type Service struct {
	tabular TabularStore
	blobs   BlobStore
	cache   *shopcache.Cache
	logger  *zap.Logger

	// Токен инвалидации списка торговых точек. Общий на процесс:
	// смена токена делает все закэшированные списки недоступными.
	shopToken atomic.Int64
}

// NewService создаёт сервис поверх табличного и файлового хранилищ.
func NewService(tabular TabularStore, blobs BlobStore, cache *shopcache.Cache, logger *zap.Logger) *Service {
	s := &Service{
		tabular: tabular,
		blobs:   blobs,
		cache:   cache,
		logger:  logger,
	}
	s.shopToken.Store(time.Now().UnixNano())
	return s
}

// Authenticate проверяет логин и пароль по таблице пользователей.
// Таблица читается заново при каждом вызове, чтобы сразу отражать загрузку
// нового соответствия администратором. Побеждает первая совпавшая строка.
// Пароли хранятся и сравниваются открытым текстом — так устроена исходная таблица.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.UserRecord, error) {
	rows, err := s.tabular.ReadAllRows(ctx, sheetstore.WorksheetUsers)
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}

	for _, row := range rows {
		if row["Username"] == username && row["Password"] == password {
			return userFromRow(row), nil
		}
	}

	return nil, ErrInvalidCredentials
}

func userFromRow(row map[string]string) *model.UserRecord {
	var distributors []string
	for _, d := range strings.Split(row["Distributors"], ",") {
		if d = strings.TrimSpace(d); d != "" {
			distributors = append(distributors, d)
		}
	}

	return &model.UserRecord{
		Username:     row["Username"],
		Password:     row["Password"],
		Role:         model.Role(strings.ToLower(row["Role"])),
		EmployeeName: row["Employee Name"],
		Distributors: distributors,
	}
}

// ShopToken возвращает текущий токен инвалидации.
func (s *Service) ShopToken() int64 {
	return s.shopToken.Load()
}

// BumpShopToken выдаёт новый токен, обесценивая все закэшированные списки точек.
func (s *Service) BumpShopToken() int64 {
	v := time.Now().UnixNano()
	s.shopToken.Store(v)
	return v
}

// LookupShops возвращает отсортированный список торговых точек, в которые
// сотрудник уже оформлял заявки для данного дистрибьютора. Ошибка чтения
// истории не мешает работе с формой: список тихо схлопывается в пустой.
func (s *Service) LookupShops(ctx context.Context, employee, distributor string) []string {
	token := s.shopToken.Load()

	if shops, ok := s.cache.Get(employee, distributor, token); ok {
		return shops
	}

	shops, err := s.fetchShops(ctx, employee, distributor)
	if err != nil {
		s.logger.Warn("shop history read failed",
			zap.String("employee", employee),
			zap.String("distributor", distributor),
			zap.Error(err),
		)
		return []string{}
	}

	s.cache.Put(employee, distributor, token, shops)
	return shops
}

func (s *Service) fetchShops(ctx context.Context, employee, distributor string) ([]string, error) {
	rows, err := s.tabular.ReadAllRows(ctx, sheetstore.WorksheetOrders)
	if err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}

	var shops []string
	seen := make(map[string]struct{})

	for _, row := range rows {
		if row["Employee Name"] != employee || row["Distributor"] != distributor {
			continue
		}

		shop := strings.TrimSpace(row["Shop Name"])
		if shop == "" {
			continue
		}

		// Дубликаты отсекаются без учёта регистра, сохраняется первое написание.
		lower := strings.ToLower(shop)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		shops = append(shops, shop)
	}

	sort.Strings(shops)
	return shops, nil
}

// SubmitOrder сохраняет заявку: загружает фото и добавляет по одной строке
// на каждую заполненную товарную позицию. Неудачная загрузка фото не
// прерывает запись строк; ошибка записи строки прерывает оставшиеся
// добавления, уже записанные строки не откатываются.
func (s *Service) SubmitOrder(ctx context.Context, draft model.OrderDraft) (*model.SubmissionResult, error) {
	if problems := validation.ValidateDraft(draft); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	lines := validation.ActiveLines(draft.Lines)

	// Единая отметка времени для всех строк заявки.
	timestamp := time.Now().Format(timestampLayout)

	photoLink := s.uploadPhoto(ctx, draft, timestamp)

	appended := 0
	var appendErr error
	for _, line := range lines {
		if err := s.tabular.AppendRow(ctx, sheetstore.WorksheetOrders, orderRow(draft, line, timestamp, photoLink)); err != nil {
			appendErr = err
			break
		}
		appended++
	}

	// Токен обновляется независимо от исхода, чтобы следующий просмотр
	// списка точек увидел актуальную историю.
	s.BumpShopToken()

	if appendErr != nil {
		return nil, fmt.Errorf("append order rows (%d of %d written): %w", appended, len(lines), appendErr)
	}
	if appended == 0 {
		return nil, errors.New("no rows were appended")
	}

	return &model.SubmissionResult{RowsAppended: appended, PhotoLink: photoLink}, nil
}

func (s *Service) uploadPhoto(ctx context.Context, draft model.OrderDraft, timestamp string) string {
	link, err := s.blobs.Upload(ctx, draft.Photo, draft.PhotoMIME, photoFilename(draft.ShopName, timestamp))
	if err != nil {
		s.logger.Warn("photo upload failed",
			zap.String("shop", draft.ShopName),
			zap.Error(err),
		)
		return model.PhotoUploadFailed
	}
	if link == "" {
		return model.PhotoNotAvailable
	}
	return link
}

func photoFilename(shop, timestamp string) string {
	ts := strings.ReplaceAll(strings.ReplaceAll(timestamp, ":", "-"), " ", "_")
	return strings.ReplaceAll(shop, " ", "_") + "_" + ts + ".jpg"
}

func orderRow(draft model.OrderDraft, line model.ProductLine, timestamp, photoLink string) []any {
	return []any{
		timestamp,
		draft.OrderDate.Format(dateLayout),
		draft.EmployeeName,
		draft.Distributor,
		draft.ShopName,
		draft.MarginPercent,
		draft.BeatArea,
		line.SKU,
		line.Quantity,
		line.StockOnHand,
		photoLink,
		draft.Remarks,
		draft.LastVisitDate.Format(dateLayout),
		draft.NumVisits,
	}
}

// ReplaceUserMapping полностью перезаписывает таблицу пользователей строками
// из загруженного файла. Операция не атомарна: читатель может застать
// таблицу пустой или заполненной частично.
func (s *Service) ReplaceUserMapping(ctx context.Context, rows []mapping.Row) error {
	if err := s.tabular.Clear(ctx, sheetstore.WorksheetUsers); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}

	header := make([]any, 0, len(sheetstore.UsersHeader))
	for _, col := range sheetstore.UsersHeader {
		header = append(header, col)
	}
	if err := s.tabular.AppendRow(ctx, sheetstore.WorksheetUsers, header); err != nil {
		return fmt.Errorf("write users header: %w", err)
	}

	for i, row := range rows {
		values := []any{row.Username, row.Password, row.Role, row.EmployeeName, row.Distributors}
		if err := s.tabular.AppendRow(ctx, sheetstore.WorksheetUsers, values); err != nil {
			return fmt.Errorf("append user row %d: %w", i+1, err)
		}
	}

	return nil
}
