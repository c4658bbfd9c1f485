package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/DanzelOng/MarkDownMate/internal/apperrors"
	"github.com/DanzelOng/MarkDownMate/internal/metrics"
	"github.com/DanzelOng/MarkDownMate/internal/models"
	"github.com/DanzelOng/MarkDownMate/internal/repositories"
)

// MarkdownService manages a user's markdown documents.
type MarkdownService interface {
	List(ctx context.Context, userID primitive.ObjectID) ([]models.Markdown, error)
	Get(ctx context.Context, userID, docID primitive.ObjectID) (*models.Markdown, error)
	Create(ctx context.Context, userID primitive.ObjectID, fileName string) (*models.Markdown, error)
	Rename(ctx context.Context, userID, docID primitive.ObjectID, fileName string) error
	Save(ctx context.Context, userID, docID primitive.ObjectID, content string) error
	Delete(ctx context.Context, userID, docID primitive.ObjectID) error
}

type markdownService struct {
	markdownRepo repositories.MarkdownRepository
}

func NewMarkdownService(markdownRepo repositories.MarkdownRepository) MarkdownService {
	return &markdownService{markdownRepo: markdownRepo}
}

func (s *markdownService) List(ctx context.Context, userID primitive.ObjectID) ([]models.Markdown, error) {
	docs, err := s.markdownRepo.FindAllByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Failed to fetch documents")
		return nil, apperrors.Internal()
	}
	return docs, nil
}

func (s *markdownService) Get(ctx context.Context, userID, docID primitive.ObjectID) (*models.Markdown, error) {
	doc, err := s.markdownRepo.FindByID(ctx, userID, docID)
	if err != nil {
		log.Error().Err(err).Str("doc_id", docID.Hex()).Msg("Failed to fetch document")
		return nil, apperrors.Internal()
	}
	if doc == nil {
		return nil, apperrors.NotFound("Document does not exist")
	}
	return doc, nil
}

func validFileName(fileName string) map[string]string {
	fileName = strings.TrimSpace(fileName)
	switch {
	case fileName == "":
		return map[string]string{"fileName": "A file name is required"}
	case !strings.HasSuffix(fileName, ".md"):
		return map[string]string{"fileName": "File name must end with .md"}
	}
	return nil
}

func (s *markdownService) Create(ctx context.Context, userID primitive.ObjectID, fileName string) (*models.Markdown, error) {
	fileName = strings.TrimSpace(fileName)
	if errs := validFileName(fileName); errs != nil {
		return nil, apperrors.ValidationFields(errs)
	}

	doc, err := s.markdownRepo.Create(ctx, &models.Markdown{
		UserID:   userID,
		FileName: fileName,
	})
	if err != nil {
		if err == repositories.ErrDuplicate {
			return nil, apperrors.ConflictFields(map[string]string{
				"fileName": "A document with this name already exists",
			})
		}
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Failed to create document")
		return nil, apperrors.Internal()
	}

	metrics.DocumentsCreatedTotal.Inc()
	log.Info().Str("doc_id", doc.ID.Hex()).Str("user_id", userID.Hex()).Msg("Document created")
	return doc, nil
}

func (s *markdownService) Rename(ctx context.Context, userID, docID primitive.ObjectID, fileName string) error {
	fileName = strings.TrimSpace(fileName)
	if errs := validFileName(fileName); errs != nil {
		return apperrors.ValidationFields(errs)
	}

	err := s.markdownRepo.Rename(ctx, userID, docID, fileName)
	switch {
	case err == repositories.ErrDuplicate:
		return apperrors.ConflictFields(map[string]string{
			"fileName": "A document with this name already exists",
		})
	case err == mongo.ErrNoDocuments:
		return apperrors.NotFound("Document does not exist")
	case err != nil:
		log.Error().Err(err).Str("doc_id", docID.Hex()).Msg("Failed to rename document")
		return apperrors.Internal()
	}
	return nil
}

func (s *markdownService) Save(ctx context.Context, userID, docID primitive.ObjectID, content string) error {
	err := s.markdownRepo.Save(ctx, userID, docID, content)
	switch {
	case err == mongo.ErrNoDocuments:
		return apperrors.NotFound("Document does not exist")
	case err != nil:
		log.Error().Err(err).Str("doc_id", docID.Hex()).Msg("Failed to save document")
		return apperrors.Internal()
	}
	return nil
}

func (s *markdownService) Delete(ctx context.Context, userID, docID primitive.ObjectID) error {
	err := s.markdownRepo.Delete(ctx, userID, docID)
	switch {
	case err == mongo.ErrNoDocuments:
		return apperrors.NotFound("Document does not exist")
	case err != nil:
		log.Error().Err(err).Str("doc_id", docID.Hex()).Msg("Failed to delete document")
		return apperrors.Internal()
	}
	return nil
}
