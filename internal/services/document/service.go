// Package document manages uploaded PDFs and their ingestion into a chat.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"docchat/config"
	"docchat/internal/core/ingest"
	"docchat/internal/core/vectorstore"
	"docchat/internal/database"
	"docchat/internal/database/model"
	"docchat/internal/services"
	"docchat/internal/storage"
	"docchat/pkg/logger"
)

type Ingester interface {
	Run(ctx context.Context, in ingest.Input) (ingest.Result, error)
}

type Service struct {
	repo     Repository
	files    storage.Storage
	ingester Ingester
	vectors  vectorstore.Store
	timeout  time.Duration
}

// NewService wires the document service. timeout bounds one ingestion run; 0
// means no bound beyond the caller's context.
func NewService(repo Repository, files storage.Storage, ingester Ingester, vectors vectorstore.Store, timeout time.Duration) *Service {
	return &Service{repo: repo, files: files, ingester: ingester, vectors: vectors, timeout: timeout}
}

// Upload stores a PDF, records it and ingests it synchronously. When
// ingestion fails the document is still returned, with status failed.
func (s *Service) Upload(ctx context.Context, chatID int64, filename string, r io.Reader) (*model.Document, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return nil, fmt.Errorf("%w: only PDF files are supported", services.ErrInvalidFile)
	}
	if err := s.ensureChat(ctx, chatID); err != nil {
		return nil, err
	}

	obj, err := s.files.Save(ctx, name, r)
	if err != nil {
		return nil, fmt.Errorf("document: save file: %w", err)
	}
	doc := &model.Document{
		ChatID:      chatID,
		Filename:    name,
		StoragePath: obj.Path,
		SHA256:      obj.SHA256,
		Status:      model.DocumentUploaded,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("document: create: %w", err)
	}
	logger.WithFields(map[string]interface{}{
		"module":      config.ModuleDocument,
		"chat_id":     chatID,
		"document_id": doc.ID,
		"size":        obj.Size,
	}).Info("document: uploaded")

	return doc, s.process(ctx, doc, false)
}

func (s *Service) List(ctx context.Context, chatID int64) ([]model.Document, error) {
	if err := s.ensureChat(ctx, chatID); err != nil {
		return nil, err
	}
	docs, err := s.repo.ListByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("document: list: %w", err)
	}
	return docs, nil
}

// Ingest re-runs ingestion. Without force a document that already has
// chunks is left untouched.
func (s *Service) Ingest(ctx context.Context, chatID, docID int64, force bool) (*model.Document, error) {
	doc, err := s.get(ctx, chatID, docID)
	if err != nil {
		return nil, err
	}
	has, err := s.repo.HasChunks(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("document: check chunks: %w", err)
	}
	if has && !force {
		logger.Info("document: %d already has chunks; skip (no force)", docID)
		return doc, nil
	}
	return doc, s.process(ctx, doc, has || doc.Status != model.DocumentUploaded)
}

// Delete removes the document, its chunks and vectors, and its file once no
// other document references it.
func (s *Service) Delete(ctx context.Context, chatID, docID int64) error {
	doc, err := s.get(ctx, chatID, docID)
	if err != nil {
		return err
	}
	if err := s.vectors.DeleteDocument(ctx, vectorstore.CollectionName(chatID), docID); err != nil {
		return fmt.Errorf("document: delete vectors: %w", err)
	}
	if err := s.repo.Delete(ctx, docID); err != nil {
		return fmt.Errorf("document: delete: %w", err)
	}
	s.releaseFile(ctx, doc.StoragePath)
	return nil
}

// releaseFile deletes a stored file unless another document still uses it.
// Failures are logged only; the rows are already gone.
func (s *Service) releaseFile(ctx context.Context, path string) {
	refs, err := s.repo.CountByStoragePath(ctx, path)
	if err != nil {
		logger.Warn("document: count references of %s: %v", path, err)
		return
	}
	if refs > 0 {
		return
	}
	if err := s.files.Delete(ctx, path); err != nil {
		logger.Warn("document: delete file %s: %v", path, err)
	}
}

func (s *Service) process(ctx context.Context, doc *model.Document, clearVectors bool) error {
	if clearVectors {
		if err := s.vectors.DeleteDocument(ctx, vectorstore.CollectionName(doc.ChatID), doc.ID); err != nil {
			return s.fail(ctx, doc, fmt.Errorf("document: clear vectors: %w", err))
		}
	}
	if err := s.setStatus(ctx, doc, model.DocumentProcessing, 0, nil); err != nil {
		return err
	}

	blob, err := s.files.Open(ctx, doc.StoragePath)
	if err != nil {
		return s.fail(ctx, doc, fmt.Errorf("document: open file: %w", err))
	}
	defer blob.Close()

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	res, err := s.ingester.Run(runCtx, ingest.Input{
		ChatID:     doc.ChatID,
		DocumentID: doc.ID,
		Source:     doc.StoragePath,
		PDF:        blob,
		Size:       blob.Size(),
	})
	if err != nil {
		return s.fail(ctx, doc, err)
	}

	if err := s.repo.ReplaceChunks(ctx, doc.ID, chunkRows(doc.ChatID, doc.ID, res.Chunks)); err != nil {
		return s.fail(ctx, doc, fmt.Errorf("document: save chunks: %w", err))
	}
	return s.setStatus(ctx, doc, model.DocumentProcessed, len(res.Chunks), nil)
}

// fail records err on the document and returns it.
func (s *Service) fail(ctx context.Context, doc *model.Document, err error) error {
	logger.WithFields(map[string]interface{}{
		"module":      config.ModuleDocument,
		"document_id": doc.ID,
		"error":       err.Error(),
	}).Error("document: ingestion failed")
	msg := err.Error()
	if uerr := s.setStatus(context.WithoutCancel(ctx), doc, model.DocumentFailed, 0, &msg); uerr != nil {
		logger.Warn("document: record failure of %d: %v", doc.ID, uerr)
	}
	return err
}

func (s *Service) setStatus(ctx context.Context, doc *model.Document, status model.DocumentStatus, numChunks int, errText *string) error {
	if err := s.repo.UpdateStatus(ctx, doc.ID, status, numChunks, errText); err != nil {
		return fmt.Errorf("document: update status: %w", err)
	}
	doc.Status = status
	doc.NumChunks = numChunks
	doc.Error = errText
	return nil
}

func (s *Service) get(ctx context.Context, chatID, docID int64) (*model.Document, error) {
	doc, err := s.repo.Get(ctx, chatID, docID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", services.ErrDocumentNotFound, docID)
		}
		return nil, fmt.Errorf("document: get: %w", err)
	}
	return doc, nil
}

func (s *Service) ensureChat(ctx context.Context, chatID int64) error {
	ok, err := s.repo.ChatExists(ctx, chatID)
	if err != nil {
		return fmt.Errorf("document: chat lookup: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %d", services.ErrChatNotFound, chatID)
	}
	return nil
}
