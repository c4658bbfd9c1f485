package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/DanzelOng/MarkDownMate/internal/database"
	"github.com/DanzelOng/MarkDownMate/internal/models"
	"github.com/DanzelOng/MarkDownMate/internal/utils"
)

type MarkdownRepository interface {
	FindAllByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Markdown, error)
	FindByID(ctx context.Context, userID, docID primitive.ObjectID) (*models.Markdown, error)
	Create(ctx context.Context, doc *models.Markdown) (*models.Markdown, error)
	Rename(ctx context.Context, userID, docID primitive.ObjectID, fileName string) error
	Save(ctx context.Context, userID, docID primitive.ObjectID, content string) error
	Delete(ctx context.Context, userID, docID primitive.ObjectID) error
}

type markdownRepository struct {
	collection *mongo.Collection
}

func NewMarkdownRepository(db database.Service) MarkdownRepository {
	return &markdownRepository{collection: db.Database().Collection("markdowns")}
}

func (r *markdownRepository) FindAllByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Markdown, error) {
	queryType, repository, status := "findAllByUser", "markdown", "success"
	defer observe(queryType, repository, &status)()

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}
	defer cursor.Close(ctx)

	docs := []models.Markdown{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return docs, nil
}

func (r *markdownRepository) FindByID(ctx context.Context, userID, docID primitive.ObjectID) (*models.Markdown, error) {
	var doc models.Markdown
	err := r.collection.FindOne(ctx, bson.M{"_id": docID, "user_id": userID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	return &doc, nil
}

func (r *markdownRepository) Create(ctx context.Context, doc *models.Markdown) (*models.Markdown, error) {
	queryType, repository, status := "create", "markdown", "success"
	defer observe(queryType, repository, &status)()

	now := time.Now()
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return doc, nil
}

func (r *markdownRepository) updateOne(ctx context.Context, userID, docID primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now()
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": docID, "user_id": userID}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update document: %w", err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *markdownRepository) Rename(ctx context.Context, userID, docID primitive.ObjectID, fileName string) error {
	return r.updateOne(ctx, userID, docID, bson.M{"file_name": fileName})
}

func (r *markdownRepository) Save(ctx context.Context, userID, docID primitive.ObjectID, content string) error {
	return r.updateOne(ctx, userID, docID, bson.M{"content": content})
}

func (r *markdownRepository) Delete(ctx context.Context, userID, docID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": docID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
