// Package drivestore предоставляет клиент для загрузки фотографий в общую папку Google Drive.
package drivestore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Store инкапсулирует загрузку файлов в папку на Google Drive.
type Store struct {
	svc      *drive.Service
	folderID string
}

// New создаёт клиент Drive и проверяет доступность целевой папки.
func New(ctx context.Context, folderID, credentialsFile string) (*Store, error) {
	svc, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create drive client: %w", err)
	}

	s := NewWithService(svc, folderID)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err = s.svc.Files.Get(folderID).
		Fields("id", "name").
		SupportsAllDrives(true).
		Context(pingCtx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("check drive folder: %w", err)
	}

	return s, nil
}

// NewWithService создаёт хранилище поверх готового клиента Drive API.
func NewWithService(svc *drive.Service, folderID string) *Store {
	return &Store{svc: svc, folderID: folderID}
}

// Upload загружает файл в папку и возвращает постоянную ссылку на просмотр.
// Пустая ссылка в ответе API не считается ошибкой — решение о подстановке
// сигнального значения остаётся за вызывающей стороной.
func (s *Store) Upload(ctx context.Context, data []byte, mimeType, filename string) (string, error) {
	meta := &drive.File{
		Name:    filename,
		Parents: []string{s.folderID},
	}

	created, err := s.svc.Files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
		Fields("webViewLink", "id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}

	return created.WebViewLink, nil
}
