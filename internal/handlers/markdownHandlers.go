package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/DanzelOng/MarkDownMate/internal/apperrors"
	"github.com/DanzelOng/MarkDownMate/internal/middlewares"
	"github.com/DanzelOng/MarkDownMate/internal/services"
	"github.com/DanzelOng/MarkDownMate/internal/utils"
)

type MarkdownHandler struct {
	markdownService services.MarkdownService
}

func NewMarkdownHandler(markdownService services.MarkdownService) *MarkdownHandler {
	return &MarkdownHandler{markdownService: markdownService}
}

func userIDFromContext(r *http.Request) (primitive.ObjectID, error) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		return primitive.NilObjectID, apperrors.Unauthorized("Unauthorized access to endpoint")
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return primitive.NilObjectID, apperrors.Unauthorized("Unauthorized access to endpoint")
	}
	return uid, nil
}

func docIDFromVars(r *http.Request) (primitive.ObjectID, error) {
	docID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		return primitive.NilObjectID, apperrors.Validation("Invalid document id")
	}
	return docID, nil
}

func (m *MarkdownHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	docs, err := m.markdownService.List(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, docs)
}

type createDocumentRequest struct {
	FileName string `json:"fileName"`
}

func (m *MarkdownHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, apperrors.Validation("Invalid request body"))
		return
	}

	doc, err := m.markdownService.Create(r.Context(), userID, req.FileName)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, doc)
}

func (m *MarkdownHandler) RenameDocument(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	docID, err := docIDFromVars(r)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, apperrors.Validation("Invalid request body"))
		return
	}

	if err := m.markdownService.Rename(r.Context(), userID, docID, req.FileName); err != nil {
		utils.RespondWithError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, nil)
}

type saveDocumentRequest struct {
	Content string `json:"content"`
}

func (m *MarkdownHandler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	docID, err := docIDFromVars(r)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	var req saveDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, apperrors.Validation("Invalid request body"))
		return
	}

	if err := m.markdownService.Save(r.Context(), userID, docID, req.Content); err != nil {
		utils.RespondWithError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, nil)
}

func (m *MarkdownHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	docID, err := docIDFromVars(r)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	if err := m.markdownService.Delete(r.Context(), userID, docID); err != nil {
		utils.RespondWithError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, nil)
}

// DownloadDocument streams the document as a markdown attachment.
func (m *MarkdownHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	docID, err := docIDFromVars(r)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	doc, err := m.markdownService.Get(r.Context(), userID, docID)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc.Content))
}
